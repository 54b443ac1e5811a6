// Package notify pushes review-completion notifications to a chat platform.
package notify

import "context"

// Notifier announces a published review. Implementations must be safe to
// call from the hot path: failures are reported, never fatal.
type Notifier interface {
	ReviewPublished(ctx context.Context, userID, repoFull, commitHash string) error
}

// Noop discards all notifications. Used when no platform is configured.
type Noop struct{}

func (Noop) ReviewPublished(context.Context, string, string, string) error { return nil }
