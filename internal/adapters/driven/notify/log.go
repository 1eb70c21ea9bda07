package notify

import (
	"context"

	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/ports/driven"
	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/logger"
)

// Ensure Log implements the interface.
var _ driven.Notifier = Log{}

// Log writes notifications to the application log.
// Used when Telegram is disabled.
type Log struct{}

// Send logs the message at info level.
func (Log) Send(_ context.Context, message string) error {
	logger.Info("notification: %s", message)
	return nil
}
