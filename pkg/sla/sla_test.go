package sla

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/go-logr/logr"

	"github.com/hebelmx/veriqan/pkg/domain"
	"github.com/hebelmx/veriqan/pkg/fieldmatching"
)

type memStore struct {
	byID map[string]domain.SLAStatus
}

func newMemStore() *memStore { return &memStore{byID: map[string]domain.SLAStatus{}} }

func (m *memStore) Get(ctx context.Context, fileID string) (domain.SLAStatus, bool, error) {
	s, ok := m.byID[fileID]
	return s, ok, nil
}

func (m *memStore) Save(ctx context.Context, status domain.SLAStatus) error {
	m.byID[status.FileID] = status
	return nil
}

func (m *memStore) List(ctx context.Context) ([]domain.SLAStatus, error) {
	out := make([]domain.SLAStatus, 0, len(m.byID))
	for _, s := range m.byID {
		out = append(out, s)
	}
	return out, nil
}

type fakeAuditLogger struct {
	records []domain.AuditRecord
}

func (a *fakeAuditLogger) LogAudit(ctx context.Context, rec domain.AuditRecord) error {
	a.records = append(a.records, rec)
	return nil
}

func (a *fakeAuditLogger) GetAuditRecords(ctx context.Context, start, end time.Time, actionType *domain.AuditActionType, userID *string) ([]domain.AuditRecord, error) {
	return a.records, nil
}

var _ = Describe("Service.ComputeDeadline", func() {
	It("adds business days excluding weekends (invariant I5)", func() {
		svc := &Service{Calendar: fieldmatching.NewHolidayCalendar(nil)}
		intake, _ := time.Parse("2006-01-02", "2026-08-03") // a Monday
		deadline := svc.ComputeDeadline(intake, 5)
		Expect(deadline.Format("2006-01-02")).To(Equal("2026-08-10"))
	})
})

var _ = Describe("Service.Track and escalation ladder", func() {
	var (
		store *memStore
		svc   *Service
	)

	BeforeEach(func() {
		store = newMemStore()
		svc = &Service{Store: store, Calendar: fieldmatching.NewHolidayCalendar(nil)}
	})

	It("computes EscalationNone with most of the window remaining", func() {
		intake := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
		svc.Now = func() time.Time { return intake }
		status, err := svc.Track(context.Background(), "file-1", intake, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(status.EscalationLevel).To(Equal(domain.EscalationNone))
		Expect(status.IsAtRisk).To(BeFalse())
	})

	It("computes EscalationBreached once RemainingTime is non-positive", func() {
		intake := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
		deadline := svc.ComputeDeadline(intake, 1)
		svc.Now = func() time.Time { return deadline.Add(time.Hour) }
		status, err := svc.Track(context.Background(), "file-2", intake, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(status.EscalationLevel).To(Equal(domain.EscalationBreached))
		Expect(status.IsBreached).To(BeTrue())
	})

	It("computes EscalationCritical within the critical ratio of the window", func() {
		intake := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		deadline := svc.ComputeDeadline(intake, 30)
		totalWindow := deadline.Sub(intake)
		svc.Now = func() time.Time { return deadline.Add(-time.Duration(0.05 * float64(totalWindow))) }
		status, err := svc.Track(context.Background(), "file-3", intake, 30)
		Expect(err).NotTo(HaveOccurred())
		Expect(status.EscalationLevel).To(Equal(domain.EscalationCritical))
		Expect(status.IsAtRisk).To(BeTrue())
	})

	It("queries active, at-risk, and breached cohorts independently", func() {
		intake := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		svc.Now = func() time.Time { return intake }
		_, _ = svc.Track(context.Background(), "none-risk", intake, 30)

		breachedDeadline := svc.ComputeDeadline(intake, 1)
		svc.Now = func() time.Time { return breachedDeadline.Add(time.Hour) }
		_, _ = svc.Track(context.Background(), "breached", intake, 1)

		active, err := svc.ActiveCases(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(active).To(HaveLen(1))

		breached, err := svc.BreachedCases(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(breached).To(HaveLen(1))
		Expect(breached[0].FileID).To(Equal("breached"))
	})
})

var _ = Describe("Service.EscalateCase", func() {
	It("updates the level and writes exactly one audit record", func() {
		store := newMemStore()
		auditLog := &fakeAuditLogger{}
		svc := &Service{Store: store, AuditLogger: auditLog, Log: logr.Discard()}
		intake := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		store.Save(context.Background(), domain.SLAStatus{FileID: "file-1", IntakeDate: intake, EscalationLevel: domain.EscalationNone})

		err := svc.EscalateCase(context.Background(), "corr-1", "file-1", domain.EscalationCritical)
		Expect(err).NotTo(HaveOccurred())
		Expect(auditLog.records).To(HaveLen(1))
		Expect(auditLog.records[0].ActionType).To(Equal(domain.AuditActionReview))

		updated, ok, _ := store.Get(context.Background(), "file-1")
		Expect(ok).To(BeTrue())
		Expect(updated.EscalationLevel).To(Equal(domain.EscalationCritical))
	})

	It("is idempotent: re-escalating to the same level writes no second record", func() {
		store := newMemStore()
		auditLog := &fakeAuditLogger{}
		svc := &Service{Store: store, AuditLogger: auditLog, Log: logr.Discard()}
		store.Save(context.Background(), domain.SLAStatus{FileID: "file-1", EscalationLevel: domain.EscalationCritical})

		Expect(svc.EscalateCase(context.Background(), "corr-1", "file-1", domain.EscalationCritical)).To(Succeed())
		Expect(svc.EscalateCase(context.Background(), "corr-1", "file-1", domain.EscalationCritical)).To(Succeed())
		Expect(auditLog.records).To(BeEmpty())
	})
})
