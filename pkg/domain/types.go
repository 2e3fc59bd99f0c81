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

// Package domain holds the data model shared by every pipeline stage
// (spec.md §3). Types here are plain data; stage behavior lives in the
// pkg/ingestion, pkg/extraction, pkg/fieldmatching, pkg/decisionlogic,
// pkg/export and pkg/sla packages.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FileFormat is the detected content format of an ingested file.
type FileFormat string

const (
	FormatXML     FileFormat = "xml"
	FormatDocx    FileFormat = "docx"
	FormatPDF     FileFormat = "pdf"
	FormatZip     FileFormat = "zip"
	FormatUnknown FileFormat = "unknown"
)

// SourceType identifies which extractor produced a FieldValue observation.
type SourceType string

const (
	SourceXML     SourceType = "xml"
	SourcePDF     SourceType = "pdf"
	SourceDocx    SourceType = "docx"
	SourceUnknown SourceType = "unknown"
)

// FileMetadata is the immutable, content-addressed record of an ingested
// file (spec.md §3, invariant I1).
type FileMetadata struct {
	FileID            string
	FileName          string
	FilePath          string
	SourceURL         string
	DownloadTimestamp time.Time
	Checksum          string
	FileSizeBytes     int64
	Format            FileFormat
}

// DownloadableFile is a transient candidate for download discovered during
// ingestion (browser automation, drop-folder watch, or portal API).
type DownloadableFile struct {
	URL      string
	FileName string
	Format   FileFormat
}

// FieldValue is one observation of a named field from one source document.
type FieldValue struct {
	Name       string
	Value      string
	Confidence float64 // [0,1]
	SourceType SourceType
	Origin     string
}

// ExtractedMetadata is the format-neutral field bag produced by a single
// extractor run over one source file.
type ExtractedMetadata struct {
	RawText    string
	Fields     map[string]FieldValue
	Confidence float64
}

// ClassificationLabel is one of the fixed Level1 category codes (spec.md §3).
type ClassificationLabel string

const (
	LabelAseguramiento     ClassificationLabel = "Aseguramiento"
	LabelDesembargo        ClassificationLabel = "Desembargo"
	LabelDocumentacion     ClassificationLabel = "Documentacion"
	LabelInformacion       ClassificationLabel = "Informacion"
	LabelTransferencia     ClassificationLabel = "Transferencia"
	LabelOperacionesIlicitas ClassificationLabel = "OperacionesIlicitas"
)

// ClassificationLabels is the fixed label ordering used to break ties
// (spec.md §4.5 "Classify").
var ClassificationLabels = []ClassificationLabel{
	LabelAseguramiento,
	LabelDesembargo,
	LabelDocumentacion,
	LabelInformacion,
	LabelTransferencia,
	LabelOperacionesIlicitas,
}

// ClassificationResult is the output of the Extraction stage's Classify step.
type ClassificationResult struct {
	Level1     ClassificationLabel
	Level2     string
	Confidence int // 0-100
	Scores     map[ClassificationLabel]float64
}

// LegalSubdivisionKind is the regulatory category bucket an Expediente falls
// under; the zero value is the Unknown sentinel (spec.md §3).
type LegalSubdivisionKind string

const SubdivisionUnknown LegalSubdivisionKind = ""

// Expediente is the legal case identifier record.
type Expediente struct {
	NumeroExpediente        string
	NumeroOficio            string
	Subdivision             LegalSubdivisionKind
	AreaDescripcion         string
	FechaRecepcion          time.Time
	FechaEstimadaConclusion time.Time
	FundamentoLegal         string
	MedioEnvio              string
}

// ExtractedFields is the semantic tuple carried alongside the raw field bag.
type ExtractedFields struct {
	Expediente        string
	Causa             string
	AccionSolicitada  string
	AdditionalFields  map[string]string
}

// MatchedField is one field's output from field matching (spec.md §4.6):
// the reconciled value chosen across sources, how many sources agreed on
// it, and the total number of sources that reported any value for it.
type MatchedField struct {
	Name            string
	Value           string
	Agreement       float64 // [0,1]: agreeing sources / reporting sources
	SourceCount     int
	ConflictValues  []string
}

// MatchedFields is the per-field reconciliation output keyed by field name.
type MatchedFields map[string]MatchedField

// ValidationState is the aggregated validation verdict attached to a
// Persona or the UnifiedMetadataRecord as a whole (spec.md §4.6
// "Validation aggregation").
type ValidationState struct {
	IsValid  bool
	Errors   []string
	Warnings []string
}

// PersonaTipo distinguishes a natural person from a legal entity.
type PersonaTipo string

const (
	PersonaTipoFisica PersonaTipo = "fisica"
	PersonaTipoMoral  PersonaTipo = "moral"
)

// Persona is a party on the case.
type Persona struct {
	ParteID         string
	Nombre          string
	Paterno         string
	Materno         string
	RFC             string
	RFCVariants     map[string]struct{}
	PersonaTipo     PersonaTipo
	Caracter        string
	Relacion        string
	Domicilio       string
	Complementarios map[string]string
	Validation      ValidationState
}

// ComplianceActionType is the concrete operational directive extracted from
// legal text.
type ComplianceActionType string

const (
	ActionBlock       ComplianceActionType = "block"
	ActionUnblock     ComplianceActionType = "unblock"
	ActionTransfer    ComplianceActionType = "transfer"
	ActionDocument    ComplianceActionType = "document"
	ActionInformation ComplianceActionType = "information"
	ActionUnknown     ComplianceActionType = "unknown"
)

// CuentaInfo is the optional account sub-record on a ComplianceAction.
type CuentaInfo struct {
	Numero      string
	Institucion string
}

// ComplianceAction is a directive derived from document text.
type ComplianceAction struct {
	ActionType       ComplianceActionType
	Confidence       int // 0-100, matches the source convention for directives
	AccountNumber    string
	Amount           decimal.Decimal
	ExpedienteOrigen string
	OficioOrigen     string
	Cuenta           *CuentaInfo
}

// UnifiedMetadataRecord is the assembled artifact handed to the Export stage.
type UnifiedMetadataRecord struct {
	Expediente              Expediente
	ExtractedFields         ExtractedFields
	Classification          ClassificationResult
	MatchedFields           MatchedFields
	AdditionalFields        map[string]string
	AdditionalFieldConflicts []string
	Personas                []Persona
	ComplianceActions       []ComplianceAction
	RequirementSummary      string
	Validation              ValidationState
}

// EscalationLevel is the SLA severity ladder (spec.md §4.9).
type EscalationLevel string

const (
	EscalationNone         EscalationLevel = "none"
	EscalationEarlyWarning EscalationLevel = "early_warning"
	EscalationCritical     EscalationLevel = "critical"
	EscalationBreached     EscalationLevel = "breached"
)

// SLAStatus is the computed deadline state for one file.
type SLAStatus struct {
	FileID          string
	IntakeDate      time.Time
	Deadline        time.Time
	RemainingTime   time.Duration
	EscalationLevel EscalationLevel
	IsAtRisk        bool
	IsBreached      bool
}

// AuditActionType enumerates the ActionType dimension of an AuditRecord.
type AuditActionType string

const (
	AuditActionDownload       AuditActionType = "download"
	AuditActionExtraction     AuditActionType = "extraction"
	AuditActionClassification AuditActionType = "classification"
	AuditActionMove           AuditActionType = "move"
	AuditActionReview         AuditActionType = "review"
	AuditActionExport         AuditActionType = "export"
)

// AuditStage enumerates the Stage dimension of an AuditRecord.
type AuditStage string

const (
	StageIngestion    AuditStage = "ingestion"
	StageExtraction   AuditStage = "extraction"
	StageDecisionLogic AuditStage = "decision_logic"
	StageExport       AuditStage = "export"
)

// AuditRecord is one structured audit entry (spec.md §3).
type AuditRecord struct {
	AuditID       string
	Timestamp     time.Time
	CorrelationID string
	FileID        string
	ActionType    AuditActionType
	Stage         AuditStage
	UserID        string
	Success       bool
	ActionDetails string // JSON
	ErrorMessage  string
}

// ReviewCaseStatus is the lifecycle state of a human review task.
type ReviewCaseStatus string

const (
	ReviewOpen      ReviewCaseStatus = "open"
	ReviewResolved  ReviewCaseStatus = "resolved"
	ReviewCancelled ReviewCaseStatus = "cancelled"
)

// ReviewCase is a queued human-in-the-loop decision.
type ReviewCase struct {
	CaseID string
	FileID string
	Reason string
	Status ReviewCaseStatus
}

// ReviewDecision closes out a ReviewCase.
type ReviewDecision struct {
	DecisionID   string
	CaseID       string
	FileID       string
	DecisionType string
	ReviewReason string
	ReviewerID   string
}
