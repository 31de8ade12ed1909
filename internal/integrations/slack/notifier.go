package slackbot

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"

	"complaintqa/internal/domain"
)

type messagePoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// Notifier posts inconsistency alerts and reprocess summaries to a channel.
type Notifier struct {
	api       messagePoster
	channelID string
}

func NewNotifier(api *slack.Client, channelID string) *Notifier {
	return &Notifier{api: api, channelID: channelID}
}

func (n *Notifier) NotifyInconsistency(ctx context.Context, complaint domain.ComplaintRecord, res domain.AnalysisResult) error {
	if n.channelID == "" {
		return nil
	}
	_, _, err := n.api.PostMessageContext(ctx, n.channelID,
		slack.MsgOptionText(inconsistencyFallback(complaint, res), false),
		slack.MsgOptionBlocks(inconsistencyBlocks(complaint, res)...),
	)
	if err != nil {
		return fmt.Errorf("post inconsistency alert: %w", err)
	}
	return nil
}

func (n *Notifier) PostSummary(ctx context.Context, text string) error {
	if n.channelID == "" {
		return nil
	}
	if _, _, err := n.api.PostMessageContext(ctx, n.channelID, slack.MsgOptionText(text, false)); err != nil {
		return fmt.Errorf("post summary: %w", err)
	}
	return nil
}
