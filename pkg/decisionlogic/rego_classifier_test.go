package decisionlogic

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hebelmx/veriqan/pkg/domain"
)

const testDirectivesModule = `
package veriqan.directives

action_keywords := {
	"block": ["bloquear", "inmovilizar"],
	"unblock": ["desbloquear", "liberar"],
}

raw_lower := lower(input.rawText)

hit_count(action) := count([kw |
	kw := action_keywords[action][_]
	contains(raw_lower, kw)
])

max_hits := max([n | action := object.keys(action_keywords)[_]; n := hit_count(action)])

default action_type := "unknown"

action_type := a {
	max_hits > 0
	a := object.keys(action_keywords)[_]
	hit_count(a) == max_hits
}

confidence := c {
	max_hits > 0
	c := min([100, max_hits * 34])
}

confidence := 0 {
	max_hits == 0
}
`

var _ = Describe("RegoDirectiveClassifier", func() {
	var classifier RegoDirectiveClassifier

	BeforeEach(func() {
		classifier = NewRegoDirectiveClassifier(testDirectivesModule, "veriqan.directives")
	})

	It("detects a block directive from keyword hits", func() {
		actions, err := classifier.ClassifyDirectives(context.Background(), "se solicita bloquear e inmovilizar la cuenta", domain.Expediente{})
		Expect(err).NotTo(HaveOccurred())
		Expect(actions).To(HaveLen(1))
		Expect(actions[0].ActionType).To(Equal(domain.ActionBlock))
	})

	It("returns no actions when no keyword matches", func() {
		actions, err := classifier.ClassifyDirectives(context.Background(), "texto sin relacion alguna", domain.Expediente{})
		Expect(err).NotTo(HaveOccurred())
		Expect(actions).To(BeEmpty())
	})
})
