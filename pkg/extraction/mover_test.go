package extraction

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hebelmx/veriqan/pkg/domain"
)

type fakeRelocator struct {
	from, to string
	err      error
}

func (r *fakeRelocator) Relocate(ctx context.Context, from, to string) error {
	r.from, r.to = from, to
	return r.err
}

var _ = Describe("OrganizedFileMover", func() {
	It("relocates under root/level1/level2/safeName", func() {
		relocator := &fakeRelocator{}
		mover := OrganizedFileMover{Root: "/archive", Relocate: relocator}
		target, err := mover.Move(context.Background(), "/tmp/in.xml", "in_Desembargo_general_123.xml",
			domain.ClassificationResult{Level1: domain.LabelDesembargo, Level2: "embargo"})
		Expect(err).ToNot(HaveOccurred())
		Expect(target).To(Equal("/archive/Desembargo/embargo/in_Desembargo_general_123.xml"))
		Expect(relocator.from).To(Equal("/tmp/in.xml"))
	})

	It("defaults Level2 to general when unset", func() {
		relocator := &fakeRelocator{}
		mover := OrganizedFileMover{Root: "/archive", Relocate: relocator}
		target, err := mover.Move(context.Background(), "/tmp/in.xml", "in.xml",
			domain.ClassificationResult{Level1: domain.LabelInformacion})
		Expect(err).ToNot(HaveOccurred())
		Expect(target).To(Equal("/archive/Informacion/general/in.xml"))
	})

	It("propagates a relocation error", func() {
		relocator := &fakeRelocator{err: errors.New("disk full")}
		mover := OrganizedFileMover{Root: "/archive", Relocate: relocator}
		_, err := mover.Move(context.Background(), "/tmp/in.xml", "in.xml", domain.ClassificationResult{})
		Expect(err).To(HaveOccurred())
	})
})
