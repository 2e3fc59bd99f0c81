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

// Package export implements the Export Stage (spec.md §4.8): three
// operations that all re-validate UnifiedMetadataRecord.Validation before
// touching the output stream, and audit every call.
package export

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/hebelmx/veriqan/internal/validation"
	"github.com/hebelmx/veriqan/pkg/audit"
	"github.com/hebelmx/veriqan/pkg/cancel"
	"github.com/hebelmx/veriqan/pkg/domain"
	"github.com/hebelmx/veriqan/pkg/outcome"
)

// ExcelLayoutWriter emits a tabular registration layout for a record.
type ExcelLayoutWriter interface {
	WriteLayout(w io.Writer, record domain.UnifiedMetadataRecord) error
}

// PDFGenerator renders the final, formatted PDF document for a record.
type PDFGenerator interface {
	Generate(record domain.UnifiedMetadataRecord, summary string) ([]byte, error)
}

// PDFSigner applies a digital signature to generated PDF bytes.
type PDFSigner interface {
	Sign(pdf []byte) ([]byte, error)
}

// Summarizer condenses an original source PDF into a short textual summary,
// honoring cancellation (spec.md §4.8 step 1).
type Summarizer interface {
	Summarize(ctx context.Context, originalPDF []byte) (string, error)
}

// Service implements the three Export operations.
type Service struct {
	Excel       ExcelLayoutWriter
	PDF         PDFGenerator
	Signer      PDFSigner
	Summarizer  Summarizer
	AuditLogger audit.Logger
	Log         logr.Logger
}

func missingFieldsError(missing []string) error {
	return fmt.Errorf("record is not valid for export, missing: %s", strings.Join(missing, ", "))
}

// revalidate recomputes Validation and returns the failure error to surface
// (non-nil) when the record cannot be exported as-is.
func revalidate(record *domain.UnifiedMetadataRecord) error {
	record.Validation = validation.ValidateRecord(*record)
	if !record.Validation.IsValid {
		return missingFieldsError(record.Validation.Errors)
	}
	return nil
}

// ExportRegulatorXml serializes record per the regulator schema, streaming
// writes to outStream, and audits the call.
func (s *Service) ExportRegulatorXml(ctx context.Context, correlationID string, record domain.UnifiedMetadataRecord, outStream io.Writer) outcome.Outcome[struct{}] {
	if o, cancelled := cancel.Guard[struct{}](ctx); cancelled {
		return o
	}
	if err := revalidate(&record); err != nil {
		s.audit(ctx, correlationID, record, false, "xml export validation failed: "+err.Error())
		return outcome.Failure[struct{}](err)
	}

	doc := regulatorXMLDoc{
		NumeroExpediente: record.Expediente.NumeroExpediente,
		NumeroOficio:     record.Expediente.NumeroOficio,
		Subdivision:      string(record.Expediente.Subdivision),
		Personas:         toXMLPersonas(record.Personas),
		Acciones:         toXMLActions(record.ComplianceActions),
	}

	enc := xml.NewEncoder(outStream)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		s.audit(ctx, correlationID, record, false, "xml encode failed: "+err.Error())
		return outcome.Failure[struct{}](err)
	}

	s.audit(ctx, correlationID, record, true, "regulator xml exported")
	return outcome.Success(struct{}{})
}

type regulatorXMLDoc struct {
	XMLName          xml.Name       `xml:"Notificacion"`
	NumeroExpediente string         `xml:"NumeroExpediente"`
	NumeroOficio     string         `xml:"NumeroOficio"`
	Subdivision      string         `xml:"Subdivision"`
	Personas         []xmlPersona   `xml:"Personas>Persona"`
	Acciones         []xmlAction    `xml:"Acciones>Accion"`
}

type xmlPersona struct {
	Nombre   string `xml:"Nombre"`
	Paterno  string `xml:"Paterno"`
	Materno  string `xml:"Materno"`
	RFC      string `xml:"RFC"`
	Caracter string `xml:"Caracter"`
}

type xmlAction struct {
	Tipo          string `xml:"Tipo"`
	Cuenta        string `xml:"Cuenta,omitempty"`
	Confidence    int    `xml:"Confidence"`
}

func toXMLPersonas(personas []domain.Persona) []xmlPersona {
	out := make([]xmlPersona, 0, len(personas))
	for _, p := range personas {
		out = append(out, xmlPersona{Nombre: p.Nombre, Paterno: p.Paterno, Materno: p.Materno, RFC: p.RFC, Caracter: p.Caracter})
	}
	return out
}

func toXMLActions(actions []domain.ComplianceAction) []xmlAction {
	out := make([]xmlAction, 0, len(actions))
	for _, a := range actions {
		cuenta := a.AccountNumber
		if cuenta == "" && a.Cuenta != nil {
			cuenta = a.Cuenta.Numero
		}
		out = append(out, xmlAction{Tipo: string(a.ActionType), Cuenta: cuenta, Confidence: a.Confidence})
	}
	return out
}

// GenerateExcelLayout emits a tabular registration layout for record.
func (s *Service) GenerateExcelLayout(ctx context.Context, correlationID string, record domain.UnifiedMetadataRecord, outStream io.Writer) outcome.Outcome[struct{}] {
	if o, cancelled := cancel.Guard[struct{}](ctx); cancelled {
		return o
	}
	if err := revalidate(&record); err != nil {
		s.audit(ctx, correlationID, record, false, "excel export validation failed: "+err.Error())
		return outcome.Failure[struct{}](err)
	}

	if err := s.Excel.WriteLayout(outStream, record); err != nil {
		s.audit(ctx, correlationID, record, false, "excel layout write failed: "+err.Error())
		return outcome.Failure[struct{}](err)
	}

	s.audit(ctx, correlationID, record, true, "excel layout exported")
	return outcome.Success(struct{}{})
}

// ExportSignedPdfWithSummarization generates and digitally signs the final
// PDF, optionally attaching a summary of the original source document
// (spec.md §4.8).
func (s *Service) ExportSignedPdfWithSummarization(ctx context.Context, correlationID string, record domain.UnifiedMetadataRecord, originalPDF []byte, outStream io.Writer) outcome.Outcome[struct{}] {
	if o, cancelled := cancel.Guard[struct{}](ctx); cancelled {
		return o
	}
	if err := revalidate(&record); err != nil {
		s.audit(ctx, correlationID, record, false, "pdf export validation failed: "+err.Error())
		return outcome.Failure[struct{}](err)
	}

	hasSummary := false
	if len(originalPDF) > 0 && s.Summarizer != nil {
		summary, err := s.Summarizer.Summarize(ctx, originalPDF)
		if cancel.Requested(ctx) {
			return outcome.Cancelled[struct{}]()
		}
		if err != nil {
			s.Log.Info("pdf summarization failed, continuing without summary", "error", err.Error())
		} else {
			record.RequirementSummary = summary
			hasSummary = true
		}
	}

	generated, err := s.PDF.Generate(record, record.RequirementSummary)
	if err != nil {
		s.audit(ctx, correlationID, record, false, "pdf generation failed: "+err.Error())
		return outcome.Failure[struct{}](err)
	}

	signed, err := s.Signer.Sign(generated)
	if err != nil {
		s.audit(ctx, correlationID, record, false, "pdf signing failed: "+err.Error())
		return outcome.Failure[struct{}](err)
	}

	if _, err := outStream.Write(signed); err != nil {
		s.audit(ctx, correlationID, record, false, "pdf stream write failed: "+err.Error())
		return outcome.Failure[struct{}](err)
	}

	s.audit(ctx, correlationID, record, true, fmt.Sprintf(`{"hasSummary":%t}`, hasSummary))
	return outcome.Success(struct{}{})
}

func (s *Service) audit(ctx context.Context, correlationID string, record domain.UnifiedMetadataRecord, success bool, details string) {
	rec := domain.AuditRecord{
		AuditID:       audit.NewAuditID(),
		CorrelationID: correlationID,
		FileID:        record.Expediente.NumeroExpediente,
		ActionType:    domain.AuditActionExport,
		Stage:         domain.StageExport,
		Success:       success,
		ActionDetails: details,
		Timestamp:     nowUTC(),
	}
	if !success {
		rec.ErrorMessage = details
	}
	if err := s.AuditLogger.LogAudit(ctx, rec); err != nil {
		s.Log.Info("audit write failed", "error", err.Error())
	}
}

func nowUTC() time.Time { return time.Now().UTC() }
