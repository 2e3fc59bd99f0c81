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

package decisionlogic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/open-policy-agent/opa/rego"

	"github.com/hebelmx/veriqan/pkg/domain"
)

// RegoDirectiveClassifier implements DirectiveClassifier by evaluating a
// Rego policy bundle against the document's raw text (policy/directives.rego),
// the same rego.New/PrepareForEval/Eval call shape pkg/extraction.RegoClassifier
// uses for Level1 classification.
type RegoDirectiveClassifier struct {
	Query  string
	Module string
}

// NewRegoDirectiveClassifier builds a classifier evaluating module at
// packagePath, expecting it to bind "action_type" and "confidence".
func NewRegoDirectiveClassifier(module, packagePath string) RegoDirectiveClassifier {
	return RegoDirectiveClassifier{
		Query:  fmt.Sprintf("data.%s", packagePath),
		Module: module,
	}
}

// ClassifyDirectives implements DirectiveClassifier. It produces at most
// one ComplianceAction per call — the detected action with the highest
// keyword-hit count — leaving ExpedienteOrigen/OficioOrigen for the
// caller (pkg/decisionlogic.Service.ClassifyDirectives) to stamp.
func (c RegoDirectiveClassifier) ClassifyDirectives(ctx context.Context, rawText string, expediente domain.Expediente) ([]domain.ComplianceAction, error) {
	input := map[string]any{"rawText": rawText}

	prepared, err := rego.New(
		rego.Query(c.Query),
		rego.Module("directives.rego", c.Module),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare directive policy: %w", err)
	}

	results, err := prepared.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, fmt.Errorf("evaluate directive policy: %w", err)
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return nil, nil
	}

	raw, ok := results[0].Expressions[0].Value.(map[string]any)
	if !ok {
		return nil, nil
	}
	actionType, _ := raw["action_type"].(string)
	if actionType == "" || actionType == string(domain.ActionUnknown) {
		return nil, nil
	}
	confidence := 0
	switch n := raw["confidence"].(type) {
	case float64:
		confidence = int(n)
	case json.Number:
		if f, err := n.Float64(); err == nil {
			confidence = int(f)
		}
	}

	return []domain.ComplianceAction{{
		ActionType: domain.ComplianceActionType(actionType),
		Confidence: confidence,
	}}, nil
}
