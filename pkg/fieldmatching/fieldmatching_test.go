package fieldmatching

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hebelmx/veriqan/pkg/domain"
)

func fv(value string) domain.FieldValue { return domain.FieldValue{Value: value} }

var _ = Describe("Service.Match", func() {
	It("reports agreement 1.0 when every extractor agrees (invariant I5)", func() {
		svc := &Service{}
		obs := []Observation{
			{Origin: "xml", Fields: map[string]domain.FieldValue{"NumeroExpediente": fv("123/2026")}},
			{Origin: "pdf-ocr", Fields: map[string]domain.FieldValue{"NumeroExpediente": fv("123/2026")}},
		}
		o := svc.Match(context.Background(), obs)
		Expect(o.IsSuccess()).To(BeTrue())
		Expect(o.Value().Matched["NumeroExpediente"].Agreement).To(Equal(1.0))
		Expect(o.Value().ConflictingFields).To(BeEmpty())
		Expect(o.Value().OverallAgreement).To(Equal(1.0))
	})

	It("selects the mode value and reports a conflict when sources disagree", func() {
		svc := &Service{}
		obs := []Observation{
			{Origin: "xml", Fields: map[string]domain.FieldValue{"Causa": fv("Robo agravado")}},
			{Origin: "pdf-ocr", Fields: map[string]domain.FieldValue{"Causa": fv("Robo agravado")}},
			{Origin: "docx", Fields: map[string]domain.FieldValue{"Causa": fv("Robo simple")}},
		}
		o := svc.Match(context.Background(), obs)
		Expect(o.IsWarned()).To(BeTrue())
		matched := o.Value().Matched["Causa"]
		Expect(matched.Value).To(Equal("Robo agravado"))
		Expect(matched.Agreement).To(BeNumerically("~", 2.0/3.0, 0.001))
		Expect(matched.ConflictValues).To(ConsistOf("Robo simple"))
		Expect(o.Value().ConflictingFields).To(ConsistOf("Causa"))
		Expect(o.Value().OverallAgreement).To(BeNumerically("~", 2.0/3.0, 0.001))
	})

	It("reports required fields with zero observations in MissingFields", func() {
		svc := &Service{RequiredFields: []string{"NumeroExpediente", "NumeroOficio"}}
		obs := []Observation{
			{Origin: "xml", Fields: map[string]domain.FieldValue{"NumeroExpediente": fv("123/2026")}},
		}
		o := svc.Match(context.Background(), obs)
		Expect(o.IsSuccess()).To(BeTrue())
		Expect(o.Value().MissingFields).To(ConsistOf("NumeroOficio"))
	})

	It("normalizes RFC variants before comparing (case, hyphens, spaces)", func() {
		svc := &Service{}
		obs := []Observation{
			{Origin: "xml", Fields: map[string]domain.FieldValue{"RFC": fv("abc-123456-xyz")}},
			{Origin: "pdf-ocr", Fields: map[string]domain.FieldValue{"RFC": fv("ABC 123456 XYZ")}},
		}
		o := svc.Match(context.Background(), obs)
		Expect(o.IsSuccess()).To(BeTrue())
		Expect(o.Value().Matched["RFC"].Agreement).To(Equal(1.0))
	})

	It("derives FechaEstimadaConclusion by adding business days to FechaRecepcion", func() {
		svc := &Service{Calendar: NewHolidayCalendar(nil), EstimatedConclusionDays: 5}
		obs := []Observation{
			{Origin: "xml", Fields: map[string]domain.FieldValue{
				"NumeroExpediente": fv("1/2026"),
				"FechaRecepcion":   fv("2026-08-03"), // a Monday
			}},
		}
		o := svc.Match(context.Background(), obs)
		Expect(o.IsSuccess()).To(BeTrue())
		// 5 business days after Monday 2026-08-03 is Monday 2026-08-10.
		Expect(o.Value().Expediente.FechaEstimadaConclusion.Format("2006-01-02")).To(Equal("2026-08-10"))
	})

	It("skips configured holidays when deriving the estimated conclusion date", func() {
		holiday, _ := time.Parse("2006-01-02", "2026-08-05")
		svc := &Service{Calendar: NewHolidayCalendar([]time.Time{holiday}), EstimatedConclusionDays: 2}
		obs := []Observation{
			{Origin: "xml", Fields: map[string]domain.FieldValue{
				"FechaRecepcion": fv("2026-08-03"),
			}},
		}
		o := svc.Match(context.Background(), obs)
		Expect(o.IsSuccess()).To(BeTrue())
		// 2026-08-04 (Tue) counts as day 1; 2026-08-05 (Wed) is a holiday and
		// is skipped; 2026-08-06 (Thu) counts as day 2.
		Expect(o.Value().Expediente.FechaEstimadaConclusion.Format("2006-01-02")).To(Equal("2026-08-06"))
	})
})
