package audit

import (
	"context"
	"time"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hebelmx/veriqan/pkg/domain"
)

var _ = Describe("Correlation", func() {
	It("returns false when no id is set", func() {
		_, ok := CorrelationID(context.Background())
		Expect(ok).To(BeFalse())
	})

	It("round-trips an id set with WithCorrelationID", func() {
		ctx := WithCorrelationID(context.Background(), "abc-123")
		id, ok := CorrelationID(ctx)
		Expect(ok).To(BeTrue())
		Expect(id).To(Equal("abc-123"))
	})

	It("mints a fresh id when none is set", func() {
		ctx, id := EnsureCorrelationID(context.Background())
		Expect(id).NotTo(BeEmpty())
		got, ok := CorrelationID(ctx)
		Expect(ok).To(BeTrue())
		Expect(got).To(Equal(id))
	})

	It("preserves an existing id instead of minting a new one", func() {
		seeded := WithCorrelationID(context.Background(), "already-set")
		ctx, id := EnsureCorrelationID(seeded)
		Expect(id).To(Equal("already-set"))
		Expect(ctx).To(Equal(seeded))
	})
})

var _ = Describe("OrderRecords", func() {
	It("orders by Timestamp ascending, ties broken by AuditID", func() {
		t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		records := []domain.AuditRecord{
			{AuditID: "c", Timestamp: t0},
			{AuditID: "a", Timestamp: t0.Add(-time.Minute)},
			{AuditID: "b", Timestamp: t0},
		}
		OrderRecords(records)
		ids := []string{records[0].AuditID, records[1].AuditID, records[2].AuditID}
		Expect(ids).To(Equal([]string{"a", "b", "c"}))
	})
})

var _ = Describe("BufferedStore", func() {
	It("does not block LogAudit on the durable sink and eventually flushes", func() {
		sink := NewMemorySink()
		store := NewBufferedStore(sink, logr.Discard(), 10, 20*time.Millisecond)
		defer store.Close()

		rec := domain.AuditRecord{
			AuditID:    NewAuditID(),
			Timestamp:  time.Now(),
			ActionType: domain.AuditActionDownload,
			Stage:      domain.StageIngestion,
			Success:    true,
		}
		Expect(store.LogAudit(context.Background(), rec)).To(Succeed())
		Expect(sink.Len()).To(Equal(0), "flush is asynchronous")

		Eventually(func() int { return sink.Len() }, "500ms", "10ms").Should(Equal(1))
	})

	It("drops the oldest buffered record instead of failing when full", func() {
		sink := NewMemorySink()
		store := NewBufferedStore(sink, logr.Discard(), 2, time.Hour)
		defer store.Close()

		for i := 0; i < 3; i++ {
			rec := domain.AuditRecord{AuditID: NewAuditID(), Timestamp: time.Now()}
			Expect(store.LogAudit(context.Background(), rec)).To(Succeed())
		}
		// Buffer capacity is 2; the flush loop never fired (1h interval), so
		// exactly 2 of the 3 enqueued records should remain pending.
		store.mu.Lock()
		pending := len(store.buffer)
		store.mu.Unlock()
		Expect(pending).To(Equal(2))
	})

	It("reads through to the durable sink, ordered", func() {
		sink := NewMemorySink()
		store := NewBufferedStore(sink, logr.Discard(), 10, time.Hour)
		defer store.Close()

		t0 := time.Now().Add(-time.Hour)
		Expect(sink.InsertAuditRecord(context.Background(), domain.AuditRecord{
			AuditID: "later", Timestamp: t0.Add(time.Minute), ActionType: domain.AuditActionExport,
		})).To(Succeed())
		Expect(sink.InsertAuditRecord(context.Background(), domain.AuditRecord{
			AuditID: "earlier", Timestamp: t0, ActionType: domain.AuditActionExport,
		})).To(Succeed())

		records, err := store.GetAuditRecords(context.Background(), t0.Add(-time.Minute), time.Now(), nil, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(2))
		Expect(records[0].AuditID).To(Equal("earlier"))
		Expect(records[1].AuditID).To(Equal("later"))
	})
})
