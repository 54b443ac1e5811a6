package notify_test

import (
	"context"
	"errors"
	"testing"

	slacklib "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/reviewd/internal/notify"
)

type fakeSlackAPI struct {
	channels []string
	err      error
}

func (f *fakeSlackAPI) PostMessage(channelID string, _ ...slacklib.MsgOption) (string, string, error) {
	f.channels = append(f.channels, channelID)
	return channelID, "1234.5678", f.err
}

func TestSlackNotifier_ReviewPublished(t *testing.T) {
	t.Parallel()

	api := &fakeSlackAPI{}
	n := notify.NewSlackNotifier(api, "#reviews")

	err := n.ReviewPublished(context.Background(), "u1", "acme/widgets@main", "abc123def456789")
	require.NoError(t, err)
	assert.Equal(t, []string{"#reviews"}, api.channels)
}

func TestSlackNotifier_PostFailure(t *testing.T) {
	t.Parallel()

	api := &fakeSlackAPI{err: errors.New("channel_not_found")}
	n := notify.NewSlackNotifier(api, "#reviews")

	err := n.ReviewPublished(context.Background(), "u1", "acme/widgets@main", "abc123")
	assert.Error(t, err)
}

func TestNoop(t *testing.T) {
	t.Parallel()

	assert.NoError(t, notify.Noop{}.ReviewPublished(context.Background(), "u1", "r", "c"))
}
