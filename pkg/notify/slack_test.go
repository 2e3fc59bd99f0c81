package notify

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/go-logr/logr"
	"github.com/slack-go/slack"

	"github.com/hebelmx/veriqan/pkg/domain"
	"github.com/hebelmx/veriqan/pkg/events"
)

type fakeSlackClient struct {
	posted  []string
	channel string
	err     error
}

func (f *fakeSlackClient) PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error) {
	if f.err != nil {
		return "", "", f.err
	}
	f.channel = channelID
	f.posted = append(f.posted, channelID)
	return "ts", channelID, nil
}

var _ = Describe("EscalationNotifier.Handle", func() {
	It("posts to slack on an SLAEscalated event", func() {
		client := &fakeSlackClient{}
		n := &EscalationNotifier{Client: client, ChannelID: "C123", Log: logr.Discard()}
		evt := events.Event{
			Kind:         events.KindSLAEscalated,
			FileID:       "file-1",
			SLAEscalated: &events.SLAEscalated{CaseID: "case-1", Level: domain.EscalationCritical},
		}
		err := n.Handle(context.Background(), evt)
		Expect(err).NotTo(HaveOccurred())
		Expect(client.posted).To(ConsistOf("C123"))
	})

	It("posts to slack on a ReviewCaseOpened event", func() {
		client := &fakeSlackClient{}
		n := &EscalationNotifier{Client: client, ChannelID: "C123", Log: logr.Discard()}
		evt := events.Event{
			Kind:             events.KindReviewCaseOpened,
			FileID:           "file-1",
			ReviewCaseOpened: &events.ReviewCaseOpened{Case: domain.ReviewCase{CaseID: "case-2", Reason: "low confidence"}},
		}
		err := n.Handle(context.Background(), evt)
		Expect(err).NotTo(HaveOccurred())
		Expect(client.posted).To(HaveLen(1))
	})

	It("ignores event kinds it doesn't care about", func() {
		client := &fakeSlackClient{}
		n := &EscalationNotifier{Client: client, ChannelID: "C123", Log: logr.Discard()}
		evt := events.Event{Kind: events.KindExportCompleted}
		err := n.Handle(context.Background(), evt)
		Expect(err).NotTo(HaveOccurred())
		Expect(client.posted).To(BeEmpty())
	})

	It("wraps a slack API failure into an error", func() {
		client := &fakeSlackClient{err: errors.New("rate limited")}
		n := &EscalationNotifier{Client: client, ChannelID: "C123", Log: logr.Discard()}
		evt := events.Event{Kind: events.KindSLAEscalated, SLAEscalated: &events.SLAEscalated{CaseID: "case-1", Level: domain.EscalationBreached}}
		err := n.Handle(context.Background(), evt)
		Expect(err).To(HaveOccurred())
	})
})
