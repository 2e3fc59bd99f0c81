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

	"github.com/hebelmx/veriqan/internal/config"
	"github.com/hebelmx/veriqan/pkg/domain"
)

// ImagePreprocessor performs the watermark-removal/deskew/binarization
// steps of spec.md §4.5's OCR pipeline over a single rendered page.
type ImagePreprocessor interface {
	RemoveWatermark(page []byte) ([]byte, error)
	Deskew(page []byte) ([]byte, error)
	Binarize(page []byte) ([]byte, error)
}

// OCREngine recognizes text from a preprocessed page image, honoring the
// configured OCR engine mode (OEM) and page segmentation mode (PSM).
type OCREngine interface {
	Recognize(ctx context.Context, page []byte, oem, psm int) (text string, confidence float64, err error)
}

// PDFRenderer splits a PDF's bytes into per-page raster images.
type PDFRenderer interface {
	RenderPages(data []byte) ([][]byte, error)
}

// PDFExtractor runs the configured OCR pipeline over a scanned PDF:
// render → preprocess (optionally) → recognize per page, concatenating
// text and averaging per-page OCR confidence across the document.
type PDFExtractor struct {
	Renderer     PDFRenderer
	Preprocessor ImagePreprocessor
	OCR          OCREngine
	Config       config.ProcessingConfig
}

func (e PDFExtractor) Extract(ctx context.Context, data []byte) (domain.ExtractedMetadata, error) {
	pages, err := e.Renderer.RenderPages(data)
	if err != nil {
		return domain.ExtractedMetadata{}, err
	}

	var allText string
	var confidenceSum float64
	for _, page := range pages {
		processed, err := e.preprocess(page)
		if err != nil {
			return domain.ExtractedMetadata{}, err
		}
		text, confidence, err := e.OCR.Recognize(ctx, processed, e.Config.OEM, e.Config.PSM)
		if err != nil {
			return domain.ExtractedMetadata{}, err
		}
		allText += text + "\n"
		confidenceSum += confidence
	}

	overallConfidence := 0.0
	if len(pages) > 0 {
		overallConfidence = confidenceSum / float64(len(pages))
	}

	fields := parseLabeledFields(allText)
	for name, fv := range fields {
		fv.Confidence = overallConfidence
		fv.SourceType = "pdf-ocr"
		fv.Origin = "pdf-extractor"
		fields[name] = fv
	}

	return domain.ExtractedMetadata{
		RawText:    allText,
		Fields:     fields,
		Confidence: overallConfidence,
	}, nil
}

func (e PDFExtractor) preprocess(page []byte) ([]byte, error) {
	var err error
	if e.Config.EnableWatermarkRemoval {
		if page, err = e.Preprocessor.RemoveWatermark(page); err != nil {
			return nil, err
		}
	}
	if e.Config.EnableDeskewing {
		if page, err = e.Preprocessor.Deskew(page); err != nil {
			return nil, err
		}
	}
	if e.Config.EnableBinarization {
		if page, err = e.Preprocessor.Binarize(page); err != nil {
			return nil, err
		}
	}
	return page, nil
}
