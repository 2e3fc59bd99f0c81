package extraction

import (
	"context"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hebelmx/veriqan/pkg/domain"
)

const testClassificationPolicy = `
package veriqan.classification

level1 := "Desembargo"

level2 := "embargo_preventivo"

scores := {
	"Aseguramiento": 0.10,
	"Desembargo": 0.82,
	"Documentacion": 0.05,
	"Informacion": 0.05,
	"Transferencia": 0.0,
	"OperacionesIlicitas": 0.0,
}
`

var _ = Describe("RegoClassifier", func() {
	It("evaluates the policy module and logs all six scores", func() {
		classifier := NewRegoClassifier(testClassificationPolicy, "veriqan.classification")
		result, err := classifier.Classify(context.Background(), domain.ExtractedMetadata{RawText: "some notice"})
		Expect(err).ToNot(HaveOccurred())
		Expect(result.Level1).To(Equal(domain.LabelDesembargo))
		Expect(result.Level2).To(Equal("embargo_preventivo"))
		Expect(result.Scores).To(HaveLen(len(domain.ClassificationLabels)))
		Expect(result.Scores[domain.LabelDesembargo]).To(BeNumerically("~", 0.82, 0.001))
		Expect(result.Confidence).To(Equal(82))
	})
})

var _ = Describe("FallbackClassifier", func() {
	It("does not consult the fallback when primary confidence meets threshold", func() {
		primary := fakeClassifier{result: domain.ClassificationResult{Confidence: 90}}
		fb := FallbackClassifier{Primary: primary, ConfidenceThreshold: 70, Log: logr.Discard()}
		result, err := fb.Classify(context.Background(), domain.ExtractedMetadata{})
		Expect(err).ToNot(HaveOccurred())
		Expect(result.Confidence).To(Equal(90))
	})

	It("falls back and keeps the primary's six scores when confidence is low", func() {
		scores := map[domain.ClassificationLabel]float64{domain.LabelDesembargo: 0.2}
		primary := fakeClassifier{result: domain.ClassificationResult{Confidence: 20, Level1: domain.LabelDocumentacion, Scores: scores}}
		fallback := &fakeLLMClassifier{result: domain.ClassificationResult{Level1: domain.LabelOperacionesIlicitas, Confidence: 99}}
		fb := FallbackClassifier{Primary: primary, Fallback: fallback, ConfidenceThreshold: 70, Log: logr.Discard()}
		result, err := fb.Classify(context.Background(), domain.ExtractedMetadata{})
		Expect(err).ToNot(HaveOccurred())
		Expect(result.Level1).To(Equal(domain.LabelOperacionesIlicitas))
		Expect(result.Scores).To(Equal(scores))
	})
})

type fakeLLMClassifier struct {
	result domain.ClassificationResult
	err    error
}

func (f *fakeLLMClassifier) Classify(ctx context.Context, meta domain.ExtractedMetadata, primary domain.ClassificationResult) (domain.ClassificationResult, error) {
	return f.result, f.err
}
