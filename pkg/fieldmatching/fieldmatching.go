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

// Package fieldmatching implements the Field Matching stage (spec.md §4.6):
// reconcile the same named field as observed by multiple extractors into
// one value, with an agreement score, and compute the fields derivable
// only once the Expediente is known (FechaEstimadaConclusion and friends).
package fieldmatching

import (
	"context"
	"sort"
	"strings"

	"github.com/hebelmx/veriqan/internal/validation"
	"github.com/hebelmx/veriqan/pkg/domain"
	"github.com/hebelmx/veriqan/pkg/outcome"
)

// BusinessDayCalendar answers whether a given date is a business day, so
// FechaEstimadaConclusion can be derived by adding N business days to
// FechaRecepcion (spec.md §4.6 "derived fields").
type BusinessDayCalendar interface {
	IsBusinessDay(year, month, day int) bool
}

// Service reconciles per-field observations from one or more extractor runs
// of the same document into a single MatchedFields result.
type Service struct {
	Calendar                BusinessDayCalendar
	EstimatedConclusionDays int

	// RequiredFields lists the FieldDefinitions every document is expected
	// to carry (spec.md §4.6 step 5); any name in this list with zero
	// observations across all Observations is reported in MissingFields.
	// Defaults to the core Expediente fields when left unset.
	RequiredFields []string
}

// defaultRequiredFields are the Expediente-level fields buildExpediente
// reads; a document missing all observations for one of these cannot
// produce a usable Expediente.
var defaultRequiredFields = []string{
	"NumeroExpediente",
	"NumeroOficio",
	"Subdivision",
	"AreaDescripcion",
	"FundamentoLegal",
	"MedioEnvio",
	"FechaRecepcion",
}

// Observation is one extractor's complete field bag for one document,
// carried alongside which extractor produced it for conflict reporting.
type Observation struct {
	Origin string
	Fields map[string]domain.FieldValue
}

// Result is the output of one Match call. Fields mirror spec.md §3's
// MatchedFields type: a per-field mapping plus the three aggregates
// (MissingFields, ConflictingFields, OverallAgreement) computed over it.
type Result struct {
	Matched           domain.MatchedFields
	MissingFields     []string
	ConflictingFields []string
	OverallAgreement  float64
	Expediente        domain.Expediente
}

// Match reconciles observations field-by-field: normalize each value,
// select the mode (most-common) value as canonical, compute agreement as
// agreeing-sources / reporting-sources, and record any field with more
// than one distinct normalized value as a conflict (invariant I5: Agreement
// is exactly 1.0 when every source agrees).
func (s *Service) Match(ctx context.Context, observations []Observation) outcome.Outcome[Result] {
	fieldValues := map[string][]normalizedValue{}
	for _, obs := range observations {
		for name, fv := range obs.Fields {
			fieldValues[name] = append(fieldValues[name], normalizedValue{
				raw:        fv.Value,
				normalized: normalize(name, fv.Value),
				origin:     obs.Origin,
			})
		}
	}

	matched := make(domain.MatchedFields, len(fieldValues))
	var conflicts []string
	var agreementSum float64
	names := sortedKeys(fieldValues)
	for _, name := range names {
		values := fieldValues[name]
		mf, hasConflict := reconcile(name, values)
		matched[name] = mf
		agreementSum += mf.Agreement
		if hasConflict {
			conflicts = append(conflicts, name)
		}
	}

	overallAgreement := 0.0
	if len(matched) > 0 {
		overallAgreement = agreementSum / float64(len(matched))
	}

	var missing []string
	for _, name := range s.requiredFields() {
		if _, observed := fieldValues[name]; !observed {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)

	expediente := buildExpediente(matched)
	if s.Calendar != nil && !expediente.FechaRecepcion.IsZero() {
		expediente.FechaEstimadaConclusion = addBusinessDays(expediente.FechaRecepcion, s.estimatedConclusionDays(), s.Calendar)
	}

	result := Result{
		Matched:           matched,
		MissingFields:     missing,
		ConflictingFields: conflicts,
		OverallAgreement:  overallAgreement,
		Expediente:        expediente,
	}

	if len(conflicts) > 0 {
		confidence := 1.0 - float64(len(conflicts))/float64(len(matched))
		return outcome.Warned(result, warningsFor(conflicts), confidence, float64(len(conflicts))/float64(len(matched)))
	}
	return outcome.Success(result)
}

func (s *Service) requiredFields() []string {
	if len(s.RequiredFields) > 0 {
		return s.RequiredFields
	}
	return defaultRequiredFields
}

func (s *Service) estimatedConclusionDays() int {
	if s.EstimatedConclusionDays <= 0 {
		return 15
	}
	return s.EstimatedConclusionDays
}

type normalizedValue struct {
	raw        string
	normalized string
	origin     string
}

func reconcile(name string, values []normalizedValue) (domain.MatchedField, bool) {
	counts := map[string]int{}
	rawForNormalized := map[string]string{}
	for _, v := range values {
		counts[v.normalized]++
		if _, ok := rawForNormalized[v.normalized]; !ok {
			rawForNormalized[v.normalized] = v.raw
		}
	}

	mode, modeCount := modeOf(counts)
	distinct := len(counts)

	var conflictValues []string
	if distinct > 1 {
		for normalized, raw := range rawForNormalized {
			if normalized != mode {
				conflictValues = append(conflictValues, raw)
			}
		}
		sort.Strings(conflictValues)
	}

	agreement := 0.0
	if len(values) > 0 {
		agreement = float64(modeCount) / float64(len(values))
	}

	return domain.MatchedField{
		Name:           name,
		Value:          rawForNormalized[mode],
		Agreement:      agreement,
		SourceCount:    len(values),
		ConflictValues: conflictValues,
	}, distinct > 1
}

// modeOf returns the most frequent key; ties break on lexicographically
// smallest key for determinism.
func modeOf(counts map[string]int) (string, int) {
	best := ""
	bestCount := -1
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if counts[k] > bestCount {
			best = k
			bestCount = counts[k]
		}
	}
	return best, bestCount
}

func normalize(fieldName, value string) string {
	v := strings.TrimSpace(value)
	if strings.EqualFold(fieldName, "RFC") {
		return validation.NormalizeRFC(v)
	}
	return strings.ToUpper(v)
}

func buildExpediente(matched domain.MatchedFields) domain.Expediente {
	var e domain.Expediente
	if v, ok := matched["NumeroExpediente"]; ok {
		e.NumeroExpediente = v.Value
	}
	if v, ok := matched["NumeroOficio"]; ok {
		e.NumeroOficio = v.Value
	}
	if v, ok := matched["Subdivision"]; ok {
		e.Subdivision = domain.LegalSubdivisionKind(v.Value)
	}
	if v, ok := matched["AreaDescripcion"]; ok {
		e.AreaDescripcion = v.Value
	}
	if v, ok := matched["FundamentoLegal"]; ok {
		e.FundamentoLegal = v.Value
	}
	if v, ok := matched["MedioEnvio"]; ok {
		e.MedioEnvio = v.Value
	}
	if v, ok := matched["FechaRecepcion"]; ok {
		if t, err := parseDate(v.Value); err == nil {
			e.FechaRecepcion = t
		}
	}
	return e
}

func sortedKeys(m map[string][]normalizedValue) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func warningsFor(conflicts []string) []string {
	warnings := make([]string, len(conflicts))
	for i, c := range conflicts {
		warnings[i] = "conflicting sources for field " + c
	}
	return warnings
}
