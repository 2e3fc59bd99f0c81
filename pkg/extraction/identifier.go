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
	"bytes"

	"github.com/hebelmx/veriqan/pkg/domain"
)

// MagicByteIdentifier detects FileFormat from content, ignoring any
// extension hint on the original filename (spec.md §4.5 "Identify").
type MagicByteIdentifier struct{}

var (
	pdfMagic = []byte("%PDF-")
	zipMagic = []byte{0x50, 0x4b, 0x03, 0x04}
)

func (MagicByteIdentifier) Identify(data []byte) (domain.FileFormat, error) {
	switch {
	case bytes.HasPrefix(data, pdfMagic):
		return domain.FormatPDF, nil
	case bytes.HasPrefix(data, zipMagic):
		// DOCX is a zip container; a zip whose first 4096 bytes do not name a
		// word/document.xml entry is reported as FormatZip rather than DOCX.
		if bytes.Contains(data[:min(len(data), 4096)], []byte("word/document.xml")) {
			return domain.FormatDocx, nil
		}
		return domain.FormatZip, nil
	case looksLikeXML(data):
		return domain.FormatXML, nil
	default:
		return domain.FormatUnknown, nil
	}
}

func looksLikeXML(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n﻿")
	return bytes.HasPrefix(trimmed, []byte("<?xml")) || bytes.HasPrefix(trimmed, []byte("<"))
}
