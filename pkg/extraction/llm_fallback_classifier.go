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

	"github.com/go-logr/logr"

	"github.com/hebelmx/veriqan/pkg/domain"
)

// LLMClassifier is a second-opinion classifier invoked only when the
// primary Rego policy's confidence falls below threshold. Implementations
// are expected to wrap an LLM client (anthropic-sdk-go, bedrockruntime, or
// langchaingo, per the pack's domain stack).
type LLMClassifier interface {
	Classify(ctx context.Context, meta domain.ExtractedMetadata, primary domain.ClassificationResult) (domain.ClassificationResult, error)
}

// FallbackClassifier runs Primary first and only consults Fallback when
// Primary's Confidence is below ConfidenceThreshold (spec.md §4.5: "an
// LLM-assisted fallback is consulted on low Rego confidence"). Primary's
// six scores are always what gets audited, even when Fallback overrides
// Level1/Level2.
type FallbackClassifier struct {
	Primary             FileClassifier
	Fallback            LLMClassifier
	ConfidenceThreshold int
	Log                 logr.Logger
}

func (c FallbackClassifier) Classify(ctx context.Context, meta domain.ExtractedMetadata) (domain.ClassificationResult, error) {
	primary, err := c.Primary.Classify(ctx, meta)
	if err != nil {
		return domain.ClassificationResult{}, err
	}
	if c.Fallback == nil || primary.Confidence >= c.ConfidenceThreshold {
		return primary, nil
	}

	fallback, err := c.Fallback.Classify(ctx, meta, primary)
	if err != nil {
		c.Log.Info("llm fallback classification failed, keeping rego result", "error", err.Error())
		return primary, nil
	}

	// The fallback may relabel Level1/Level2 but the six policy scores
	// remain the audited record of what the rule engine actually computed.
	fallback.Scores = primary.Scores
	return fallback, nil
}
