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
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/hebelmx/veriqan/pkg/domain"
)

// AnthropicLLMClassifier is the LLM fallback reached when RegoClassifier's
// confidence is below the configured threshold (spec.md §4.5). It asks the
// model to name the most likely Level1/Level2 classification given the
// document text and the rule engine's own low confidence, and never
// overrides the six logged policy scores themselves.
type AnthropicLLMClassifier struct {
	Client *anthropic.Client
	Model  anthropic.Model
}

func (c AnthropicLLMClassifier) Classify(ctx context.Context, meta domain.ExtractedMetadata, primary domain.ClassificationResult) (domain.ClassificationResult, error) {
	prompt := buildClassificationPrompt(meta, primary)

	message, err := c.Client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.Model,
		MaxTokens: 512,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return domain.ClassificationResult{}, fmt.Errorf("anthropic classification request: %w", err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	var decision struct {
		Level1 string `json:"level1"`
		Level2 string `json:"level2"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(text.String())), &decision); err != nil {
		return domain.ClassificationResult{}, fmt.Errorf("parse anthropic classification response: %w", err)
	}

	result := primary
	result.Level1 = domain.ClassificationLabel(decision.Level1)
	result.Level2 = decision.Level2
	return result, nil
}

func buildClassificationPrompt(meta domain.ExtractedMetadata, primary domain.ClassificationResult) string {
	var b strings.Builder
	b.WriteString("You are assisting a regulatory-document classification pipeline. ")
	b.WriteString("A rule-based classifier returned low confidence. Given the extracted text below, ")
	b.WriteString("respond with ONLY a JSON object {\"level1\": string, \"level2\": string}.\n\n")
	fmt.Fprintf(&b, "Rule engine confidence: %d\n", primary.Confidence)
	b.WriteString("Extracted text:\n")
	b.WriteString(meta.RawText)
	return b.String()
}
