package driven

import (
	"time"

	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/domain"
)

// MetricsRecorder receives counters for refresh activity.
type MetricsRecorder interface {
	// ResumeUpdate records one résumé update attempt.
	ResumeUpdate(outcome domain.CallOutcome)

	// TokenRefresh records one token grant. initial distinguishes the
	// authorization-code grant from the refresh-token grant.
	TokenRefresh(initial bool, err error)

	// Tick records a completed refresh cycle.
	Tick(err error, elapsed time.Duration)
}
