package driving

import (
	"context"

	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/domain"
)

// Status summarises the refresher state for the operator.
type Status struct {
	// ResumeID is the configured résumé.
	ResumeID string
	// Namespace is the token store scope.
	Namespace string
	// HasAccessToken and HasRefreshToken report stored tokens.
	HasAccessToken  bool
	HasRefreshToken bool
	// Task is the refresh task state, nil if it never ran.
	Task *domain.ScheduledTask
	// History lists recent runs, most recent first.
	History []domain.TaskResult
}

// StatusService reports refresher state.
type StatusService interface {
	// Status returns the current state with up to historyLimit past runs.
	Status(ctx context.Context, historyLimit int) (*Status, error)
}
