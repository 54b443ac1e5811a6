package notify

import (
	"context"
	"fmt"

	slacklib "github.com/slack-go/slack"
)

// SlackAPI abstracts the subset of the Slack client used by SlackNotifier.
// This allows testing without real HTTP calls.
type SlackAPI interface {
	PostMessage(channelID string, options ...slacklib.MsgOption) (string, string, error)
}

// SlackNotifier posts a completion message to a fixed channel.
type SlackNotifier struct {
	api     SlackAPI
	channel string
}

var _ Notifier = (*SlackNotifier)(nil)

func NewSlackNotifier(api SlackAPI, channel string) *SlackNotifier {
	return &SlackNotifier{api: api, channel: channel}
}

func (n *SlackNotifier) ReviewPublished(_ context.Context, userID, repoFull, commitHash string) error {
	short := commitHash
	if len(short) > 12 {
		short = short[:12]
	}

	text := fmt.Sprintf("Review published for %s at %s (requested by %s)", repoFull, short, userID)

	_, _, err := n.api.PostMessage(n.channel, slacklib.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("notify.SlackNotifier.ReviewPublished: %w", err)
	}

	return nil
}
