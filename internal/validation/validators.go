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

// Package validation holds field-level validators for the compliance
// pipeline's domain types, shared by field matching (§4.6) and decision
// logic (§4.7).
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hebelmx/veriqan/pkg/domain"
)

var rfcPattern = regexp.MustCompile(`^[A-ZÑ&]{3,4}[0-9]{6}[A-Z0-9]{3}$`)

// ValidateRFC checks a Mexican tax-identifier string against its canonical
// shape, after the same normalization field matching applies (trim, upper,
// de-hyphenate).
func ValidateRFC(rfc string) error {
	normalized := NormalizeRFC(rfc)
	if normalized == "" {
		return fmt.Errorf("rfc is required")
	}
	if !rfcPattern.MatchString(normalized) {
		return fmt.Errorf("rfc must match the canonical RFC pattern")
	}
	return nil
}

// NormalizeRFC trims, upper-cases, and strips hyphens/spaces from an RFC so
// variants compare equal (spec.md glossary: "RFC").
func NormalizeRFC(rfc string) string {
	s := strings.ToUpper(strings.TrimSpace(rfc))
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, " ", "")
	return s
}

// ValidateExpediente checks the subset of Expediente fields the Export stage
// requires (spec.md §4.6 "Validation aggregation").
func ValidateExpediente(e domain.Expediente) []string {
	var missing []string
	if strings.TrimSpace(e.NumeroExpediente) == "" {
		missing = append(missing, "NumeroExpediente")
	}
	if strings.TrimSpace(e.NumeroOficio) == "" {
		missing = append(missing, "NumeroOficio")
	}
	if e.Subdivision == domain.SubdivisionUnknown {
		missing = append(missing, "Subdivision")
	}
	if e.FechaRecepcion.IsZero() {
		missing = append(missing, "FechaRecepcion")
	}
	return missing
}

// ValidateComplianceAction reports the missing field name when an action of
// a type requiring an account reference carries none (spec.md §4.6).
func ValidateComplianceAction(a domain.ComplianceAction) []string {
	requiresAccount := a.ActionType == domain.ActionBlock ||
		a.ActionType == domain.ActionUnblock ||
		a.ActionType == domain.ActionTransfer
	if !requiresAccount {
		return nil
	}
	hasAccount := strings.TrimSpace(a.AccountNumber) != "" ||
		(a.Cuenta != nil && strings.TrimSpace(a.Cuenta.Numero) != "")
	if !hasAccount {
		return []string{"AccountNumber"}
	}
	return nil
}

// ValidateRecord recomputes the full aggregated ValidationState for a
// UnifiedMetadataRecord (spec.md §4.6 "Validation aggregation"): the Export
// stage calls this before every export rather than trusting a stale
// Validation field carried on the record.
func ValidateRecord(r domain.UnifiedMetadataRecord) domain.ValidationState {
	var errs, warnings []string

	errs = append(errs, ValidateExpediente(r.Expediente)...)

	for _, action := range r.ComplianceActions {
		errs = append(errs, ValidateComplianceAction(action)...)
	}

	if r.Expediente.FechaEstimadaConclusion.IsZero() {
		warnings = append(warnings, "FechaEstimadaConclusion is missing")
	}
	for _, p := range r.Personas {
		if !p.Validation.IsValid {
			warnings = append(warnings, fmt.Sprintf("persona %s failed validation", p.ParteID))
		}
	}
	if len(r.AdditionalFieldConflicts) > 0 {
		warnings = append(warnings, fmt.Sprintf("%d additional field(s) have conflicting values", len(r.AdditionalFieldConflicts)))
	}

	return domain.ValidationState{
		IsValid:  len(errs) == 0,
		Errors:   errs,
		Warnings: warnings,
	}
}
