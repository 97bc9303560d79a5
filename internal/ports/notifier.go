package ports

import "context"

// Notifier delivers one human-readable message to the external sink.
// Rate limiting happens above this interface, never inside it.
type Notifier interface {
	Send(ctx context.Context, text string) error
}
