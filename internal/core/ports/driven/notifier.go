package driven

import "context"

// Notifier delivers a text message to the operator.
type Notifier interface {
	// Send delivers the message. Errors are reported to the caller,
	// which treats delivery as best effort.
	Send(ctx context.Context, message string) error
}
