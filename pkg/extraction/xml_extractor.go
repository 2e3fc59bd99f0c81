/*
Copyright 2026 Veriqan Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package extraction

import (
	"context"
	"encoding/xml"

	"github.com/hebelmx/veriqan/pkg/domain"
)

// xmlDocument mirrors the subset of a regulator XML notice this extractor
// reads. Unknown elements are ignored by encoding/xml by default.
type xmlDocument struct {
	XMLName xml.Name `xml:"notificacion"`
	Campos  []struct {
		Nombre string `xml:"nombre,attr"`
		Valor  string `xml:",chardata"`
	} `xml:"campo"`
}

// XMLExtractor extracts ExtractedMetadata from a regulator XML notice.
type XMLExtractor struct{}

func (XMLExtractor) Extract(ctx context.Context, data []byte) (domain.ExtractedMetadata, error) {
	var doc xmlDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return domain.ExtractedMetadata{}, err
	}

	fields := make(map[string]domain.FieldValue, len(doc.Campos))
	for _, c := range doc.Campos {
		fields[c.Nombre] = domain.FieldValue{
			Name:       c.Nombre,
			Value:      c.Valor,
			Confidence: 1.0,
			SourceType: "xml",
			Origin:     "xml-extractor",
		}
	}

	return domain.ExtractedMetadata{
		RawText:    string(data),
		Fields:     fields,
		Confidence: 1.0,
	}, nil
}
