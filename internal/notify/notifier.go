package notify

import "context"

// Notifier sends a message to a chat. Best-effort: no delivery guarantee is
// assumed by callers beyond the returned error.
type Notifier interface {
	Send(ctx context.Context, chatID int64, text string) error
}
