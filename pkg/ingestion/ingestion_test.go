package ingestion

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hebelmx/veriqan/pkg/domain"
	"github.com/hebelmx/veriqan/pkg/events"
)

type fakeSession struct {
	candidates   []domain.DownloadableFile
	navigateErr  error
	identifyErr  error
	downloadErrs map[string]error
	closed       bool
	mu           sync.Mutex
}

func (s *fakeSession) Navigate(ctx context.Context, websiteURL string) error { return s.navigateErr }
func (s *fakeSession) IdentifyDownloadableFiles(ctx context.Context, patterns []string) ([]domain.DownloadableFile, error) {
	return s.candidates, s.identifyErr
}
func (s *fakeSession) DownloadFile(ctx context.Context, file domain.DownloadableFile) ([]byte, error) {
	if err, ok := s.downloadErrs[file.FileName]; ok {
		return nil, err
	}
	return []byte("content:" + file.FileName), nil
}
func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

type fakeBrowser struct {
	session    *fakeSession
	launchErr  error
}

func (b *fakeBrowser) LaunchBrowser(ctx context.Context) (Session, error) {
	if b.launchErr != nil {
		return nil, b.launchErr
	}
	return b.session, nil
}

type fakeStorage struct {
	saveErr error
}

func (s *fakeStorage) SaveFile(ctx context.Context, data []byte, name string, format domain.FileFormat) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	return "storage://" + name, nil
}

type fakeTracker struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newFakeTracker() *fakeTracker { return &fakeTracker{seen: map[string]bool{}} }

func (t *fakeTracker) IsDuplicate(ctx context.Context, checksum string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seen[checksum], nil
}

func (t *fakeTracker) MarkSeen(ctx context.Context, checksum string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seen[checksum] = true
	return nil
}

type fakeMetadataLogger struct {
	mu      sync.Mutex
	records []domain.FileMetadata
}

func (l *fakeMetadataLogger) LogFileMetadata(ctx context.Context, meta domain.FileMetadata) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, meta)
	return nil
}

type fakeAuditLogger struct {
	mu      sync.Mutex
	records []domain.AuditRecord
}

func (a *fakeAuditLogger) LogAudit(ctx context.Context, rec domain.AuditRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, rec)
	return nil
}

func (a *fakeAuditLogger) GetAuditRecords(ctx context.Context, start, end time.Time, actionType *domain.AuditActionType, userID *string) ([]domain.AuditRecord, error) {
	return a.records, nil
}

func (a *fakeAuditLogger) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.records)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *fakePublisher) Publish(ctx context.Context, evt events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

var _ = Describe("Service.Ingest", func() {
	var (
		session   *fakeSession
		browser   *fakeBrowser
		storage   *fakeStorage
		tracker   *fakeTracker
		metaLog   *fakeMetadataLogger
		auditLog  *fakeAuditLogger
		publisher *fakePublisher
		svc       *Service
	)

	BeforeEach(func() {
		session = &fakeSession{
			candidates: []domain.DownloadableFile{
				{URL: "https://x/1.pdf", FileName: "1.pdf", Format: domain.FormatPDF},
				{URL: "https://x/2.xml", FileName: "2.xml", Format: domain.FormatXML},
			},
			downloadErrs: map[string]error{},
		}
		browser = &fakeBrowser{session: session}
		storage = &fakeStorage{}
		tracker = newFakeTracker()
		metaLog = &fakeMetadataLogger{}
		auditLog = &fakeAuditLogger{}
		publisher = &fakePublisher{}
		svc = &Service{
			Browser:        browser,
			Storage:        storage,
			Tracker:        tracker,
			MetadataLogger: metaLog,
			AuditLogger:    auditLog,
			Publisher:      publisher,
			Log:            logr.Discard(),
			MaxConcurrency: 2,
		}
	})

	It("rejects a non-http(s) URL before touching any collaborator", func() {
		o := svc.Ingest(context.Background(), "ftp://example.com", []string{"*.pdf"})
		Expect(o.IsFailure()).To(BeTrue())
		Expect(session.closed).To(BeFalse())
	})

	It("rejects empty filePatterns", func() {
		o := svc.Ingest(context.Background(), "https://example.com", nil)
		Expect(o.IsFailure()).To(BeTrue())
	})

	It("downloads every candidate, saves, logs metadata, and publishes events", func() {
		o := svc.Ingest(context.Background(), "https://example.com", []string{"*.pdf", "*.xml"})
		Expect(o.IsSuccess()).To(BeTrue())
		Expect(o.Value()).To(HaveLen(2))
		Expect(session.closed).To(BeTrue())
		Expect(metaLog.records).To(HaveLen(2))
		Expect(publisher.count()).To(Equal(2))
	})

	It("skips an already-seen checksum as a successful no-op, not a failure", func() {
		first := svc.Ingest(context.Background(), "https://example.com", []string{"*"})
		Expect(first.IsSuccess()).To(BeTrue())
		Expect(first.Value()).To(HaveLen(2))

		second := svc.Ingest(context.Background(), "https://example.com", []string{"*"})
		Expect(second.IsSuccess()).To(BeTrue())
		Expect(second.Value()).To(HaveLen(0), "both candidates were already seen on the second pass")
	})

	It("fails without downloading anything when the browser fails to launch", func() {
		browser.launchErr = errors.New("no browser binary")
		o := svc.Ingest(context.Background(), "https://example.com", []string{"*"})
		Expect(o.IsFailure()).To(BeTrue())
		Expect(metaLog.records).To(BeEmpty())
	})

	It("fails and still closes the browser when navigation fails", func() {
		session.navigateErr = errors.New("timeout")
		o := svc.Ingest(context.Background(), "https://example.com", []string{"*"})
		Expect(o.IsFailure()).To(BeTrue())
		Expect(session.closed).To(BeTrue())
	})

	It("continues the batch when one file's download fails", func() {
		session.downloadErrs["1.pdf"] = errors.New("connection reset")
		o := svc.Ingest(context.Background(), "https://example.com", []string{"*"})
		Expect(o.IsSuccess()).To(BeTrue())
		Expect(o.Value()).To(HaveLen(1))
		Expect(o.Value()[0].FileName).To(Equal("2.xml"))
	})

	It("returns Cancelled when the context is already cancelled", func() {
		ctx, cancelFn := context.WithCancel(context.Background())
		cancelFn()
		o := svc.Ingest(ctx, "https://example.com", []string{"*"})
		Expect(o.IsCancelled()).To(BeTrue())
	})
})
