package reporting

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hebelmx/veriqan/pkg/domain"
)

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

func sampleRecords() []domain.AuditRecord {
	return []domain.AuditRecord{
		{
			AuditID:       "a-1",
			Timestamp:     time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC),
			CorrelationID: "corr-1",
			FileID:        "file-1",
			ActionType:    domain.AuditActionExtraction,
			Stage:         domain.StageExtraction,
			Success:       true,
			ActionDetails: `{"note":"a, b"}`,
		},
		{
			AuditID:       "a-2",
			Timestamp:     time.Date(2026, 1, 2, 11, 0, 0, 0, time.UTC),
			CorrelationID: "corr-1",
			FileID:        "file-1",
			ActionType:    domain.AuditActionExport,
			Stage:         domain.StageExport,
			Success:       false,
			ErrorMessage:  `contains "quotes"`,
		},
	}
}

var _ = Describe("Service.ExportCSV", func() {
	It("returns Failure when end is before start", func() {
		svc := &Service{AuditLogger: &fakeAuditLogger{}}
		var buf bytes.Buffer
		end := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		start := end.AddDate(0, 0, 1)
		o := svc.ExportCSV(context.Background(), start, end, nil, nil, &buf)
		Expect(o.IsFailure()).To(BeTrue())
	})

	It("writes the fixed header and one RFC-4180-quoted row per record", func() {
		svc := &Service{AuditLogger: &fakeAuditLogger{records: sampleRecords()}}
		var buf bytes.Buffer
		start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)
		o := svc.ExportCSV(context.Background(), start, end, nil, nil, &buf)
		Expect(o.IsSuccess()).To(BeTrue())
		Expect(o.Value()).To(Equal(2))

		reader := csv.NewReader(&buf)
		rows, err := reader.ReadAll()
		Expect(err).NotTo(HaveOccurred())
		Expect(rows[0]).To(Equal(csvHeader))
		Expect(rows).To(HaveLen(3))
		Expect(rows[1][0]).To(Equal("a-1"))
		Expect(rows[1][8]).To(Equal(`{"note":"a, b"}`))
		Expect(rows[2][9]).To(Equal(`contains "quotes"`))
	})
})

var _ = Describe("Service.ExportJSON", func() {
	It("returns Failure when end is before start", func() {
		svc := &Service{AuditLogger: &fakeAuditLogger{}}
		var buf bytes.Buffer
		end := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		start := end.AddDate(0, 0, 1)
		o := svc.ExportJSON(context.Background(), start, end, nil, nil, &buf)
		Expect(o.IsFailure()).To(BeTrue())
	})

	It("emits the camelCase envelope with ISO-8601 Z timestamps", func() {
		svc := &Service{AuditLogger: &fakeAuditLogger{records: sampleRecords()}}
		var buf bytes.Buffer
		start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)
		o := svc.ExportJSON(context.Background(), start, end, nil, nil, &buf)
		Expect(o.IsSuccess()).To(BeTrue())

		var envelope map[string]any
		Expect(json.Unmarshal(buf.Bytes(), &envelope)).To(Succeed())
		Expect(envelope["recordCount"]).To(Equal(float64(2)))
		Expect(envelope["startDate"]).To(Equal("2026-01-01T00:00:00.000Z"))
		records := envelope["records"].([]any)
		Expect(records).To(HaveLen(2))
		first := records[0].(map[string]any)
		Expect(first["auditId"]).To(Equal("a-1"))
		Expect(first["timestamp"]).To(Equal("2026-01-02T10:00:00.000Z"))
	})
})

var _ = Describe("Service.FilterJSON", func() {
	It("applies a jq expression to the audit envelope", func() {
		svc := &Service{AuditLogger: &fakeAuditLogger{records: sampleRecords()}}
		start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)
		o := svc.FilterJSON(context.Background(), start, end, nil, nil, ".records[] | select(.success == false) | .auditId")
		Expect(o.IsSuccess()).To(BeTrue())
		Expect(o.Value()).To(ConsistOf("a-2"))
	})

	It("fails on an invalid expression", func() {
		svc := &Service{AuditLogger: &fakeAuditLogger{}}
		start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)
		o := svc.FilterJSON(context.Background(), start, end, nil, nil, "not valid jq (((")
		Expect(o.IsFailure()).To(BeTrue())
	})
})
