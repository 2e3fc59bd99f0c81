package extraction

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("XMLExtractor", func() {
	It("extracts named fields at full confidence", func() {
		data := []byte(`<notificacion>
			<campo nombre="Expediente">123/2026</campo>
			<campo nombre="NumeroOficio">OF-55</campo>
		</notificacion>`)
		meta, err := XMLExtractor{}.Extract(context.Background(), data)
		Expect(err).ToNot(HaveOccurred())
		Expect(meta.Confidence).To(Equal(1.0))
		Expect(meta.Fields["Expediente"].Value).To(Equal("123/2026"))
		Expect(meta.Fields["NumeroOficio"].Value).To(Equal("OF-55"))
	})

	It("fails on malformed xml", func() {
		_, err := XMLExtractor{}.Extract(context.Background(), []byte("<notificacion"))
		Expect(err).To(HaveOccurred())
	})
})
