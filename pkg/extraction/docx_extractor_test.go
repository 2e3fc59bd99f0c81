package extraction

import (
	"archive/zip"
	"bytes"
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func buildTestDocx(documentXML string) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, _ := w.Create("word/document.xml")
	f.Write([]byte(documentXML))
	w.Close()
	return buf.Bytes()
}

var _ = Describe("DOCXExtractor", func() {
	It("reads paragraph text and parses labeled fields", func() {
		docXML := `<w:document xmlns:w="ns"><w:body>
			<w:p><w:r><w:t>Expediente: 77/2026</w:t></w:r></w:p>
			<w:p><w:r><w:t>Causa: Robo agravado</w:t></w:r></w:p>
		</w:body></w:document>`
		data := buildTestDocx(docXML)
		meta, err := DOCXExtractor{}.Extract(context.Background(), data)
		Expect(err).ToNot(HaveOccurred())
		Expect(meta.Fields["Expediente"].Value).To(Equal("77/2026"))
		Expect(meta.Fields["Causa"].Value).To(Equal("Robo agravado"))
		Expect(meta.Confidence).To(Equal(0.9))
	})
})
