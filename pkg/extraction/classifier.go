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
	"encoding/json"
	"fmt"

	"github.com/open-policy-agent/opa/rego"

	"github.com/hebelmx/veriqan/pkg/domain"
)

// RegoClassifier determines a ClassificationResult by evaluating a Rego
// policy bundle against the document's extracted fields (spec.md §4.5
// "Classify": "BR-SP-105: Severity Determination via Rego Policy"). The
// concrete rego.New/PrepareForEval/Eval call sequence follows the upstream
// open-policy-agent/opa SDK's documented usage; no file in the retrieved
// corpus demonstrates it directly (see DESIGN.md).
type RegoClassifier struct {
	Query  string
	Module string
}

// NewRegoClassifier builds a classifier that evaluates the given Rego
// module at packagePath, expecting it to bind six label scores and a
// top-level "level1"/"level2" pair.
func NewRegoClassifier(module, packagePath string) RegoClassifier {
	return RegoClassifier{
		Query:  fmt.Sprintf("data.%s", packagePath),
		Module: module,
	}
}

type regoOutput struct {
	Level1 string             `json:"level1"`
	Level2 string             `json:"level2"`
	Scores map[string]float64 `json:"scores"`
}

func (c RegoClassifier) Classify(ctx context.Context, meta domain.ExtractedMetadata) (domain.ClassificationResult, error) {
	input := map[string]any{
		"rawText": meta.RawText,
		"fields":  fieldsToValueMap(meta.Fields),
	}

	prepared, err := rego.New(
		rego.Query(c.Query),
		rego.Module("classification.rego", c.Module),
	).PrepareForEval(ctx)
	if err != nil {
		return domain.ClassificationResult{}, fmt.Errorf("prepare rego policy: %w", err)
	}

	results, err := prepared.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return domain.ClassificationResult{}, fmt.Errorf("evaluate rego policy: %w", err)
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return zeroScoredResult(), nil
	}

	raw, ok := results[0].Expressions[0].Value.(map[string]any)
	if !ok {
		return zeroScoredResult(), nil
	}

	var out regoOutput
	out.Level1, _ = raw["level1"].(string)
	out.Level2, _ = raw["level2"].(string)
	out.Scores = map[string]float64{}
	if scoresRaw, ok := raw["scores"].(map[string]any); ok {
		for k, v := range scoresRaw {
			switch n := v.(type) {
			case float64:
				out.Scores[k] = n
			case json.Number:
				if f, err := n.Float64(); err == nil {
					out.Scores[k] = f
				}
			}
		}
	}

	return toClassificationResult(out), nil
}

func zeroScoredResult() domain.ClassificationResult {
	scores := make(map[domain.ClassificationLabel]float64, len(domain.ClassificationLabels))
	for _, label := range domain.ClassificationLabels {
		scores[label] = 0
	}
	return domain.ClassificationResult{Scores: scores}
}

func toClassificationResult(out regoOutput) domain.ClassificationResult {
	result := zeroScoredResult()
	result.Level1 = domain.ClassificationLabel(out.Level1)
	result.Level2 = out.Level2

	best := domain.ClassificationLabels[0]
	bestScore := -1.0
	for _, label := range domain.ClassificationLabels {
		score := out.Scores[string(label)]
		result.Scores[label] = score
		// Ties break on ClassificationLabels' fixed declaration order: a
		// strictly-greater score is required to displace the leader.
		if score > bestScore {
			bestScore = score
			best = label
		}
	}
	if result.Level1 == "" {
		result.Level1 = best
	}
	result.Confidence = int(bestScore * 100)
	return result
}

func fieldsToValueMap(fields map[string]domain.FieldValue) map[string]string {
	values := make(map[string]string, len(fields))
	for name, fv := range fields {
		values[name] = fv.Value
	}
	return values
}
