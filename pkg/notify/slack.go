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

// Package notify implements events.Subscriber over Slack for the
// escalation-worthy events SLA and review management produce — the events
// pipeline (spec.md §4.12) feeds this as one of potentially several
// independent observers.
package notify

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/slack-go/slack"

	"github.com/hebelmx/veriqan/pkg/events"
)

// SlackClient is the subset of *slack.Client this package calls, so tests
// can substitute a fake without a live workspace.
type SlackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// EscalationNotifier posts a Slack message whenever it observes an
// SLAEscalated or ReviewCaseOpened event; every other event kind is
// ignored.
type EscalationNotifier struct {
	Client    SlackClient
	ChannelID string
	Log       logr.Logger
}

// NewEscalationNotifier wraps a real Slack API token into a usable
// EscalationNotifier.
func NewEscalationNotifier(token, channelID string, log logr.Logger) *EscalationNotifier {
	return &EscalationNotifier{Client: slack.New(token), ChannelID: channelID, Log: log}
}

// Handle implements events.Subscriber. It never returns an error for an
// event kind it doesn't care about; Slack API failures are returned so the
// Publisher logs them, per the "subscriber failure must not affect the
// publisher" contract (spec.md §4.12).
func (n *EscalationNotifier) Handle(ctx context.Context, evt events.Event) error {
	var text string
	switch evt.Kind {
	case events.KindSLAEscalated:
		text = fmt.Sprintf("SLA escalation: case %s -> %s (file %s)", evt.SLAEscalated.CaseID, evt.SLAEscalated.Level, evt.FileID)
	case events.KindReviewCaseOpened:
		text = fmt.Sprintf("Review case opened: %s — %s (file %s)", evt.ReviewCaseOpened.Case.CaseID, evt.ReviewCaseOpened.Case.Reason, evt.FileID)
	default:
		return nil
	}

	_, _, err := n.Client.PostMessageContext(ctx, n.ChannelID, slack.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("slack post failed: %w", err)
	}
	return nil
}
