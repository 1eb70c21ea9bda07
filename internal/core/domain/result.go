package domain

import "fmt"

// CallOutcome classifies the result of a remote platform call.
type CallOutcome int

// Possible call outcomes.
const (
	// OutcomeSuccess means the call completed.
	OutcomeSuccess CallOutcome = iota
	// OutcomeUnauthorized means the access token was rejected.
	OutcomeUnauthorized
	// OutcomeFailed covers network, server and validation failures.
	OutcomeFailed
)

// String returns the outcome label used in logs and metrics.
func (o CallOutcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeUnauthorized:
		return "unauthorized"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// CallResult is the tagged outcome of a résumé update call.
type CallResult struct {
	Outcome CallOutcome
	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int
	// Err is nil only for OutcomeSuccess.
	Err error
}

// Succeeded builds a success result.
func Succeeded(status int) CallResult {
	return CallResult{Outcome: OutcomeSuccess, StatusCode: status}
}

// Unauthorized builds an authorization failure result.
func Unauthorized(status int, err error) CallResult {
	if err == nil {
		err = ErrUnauthorized
	}
	return CallResult{Outcome: OutcomeUnauthorized, StatusCode: status, Err: err}
}

// Failed builds a generic failure result.
func Failed(status int, err error) CallResult {
	return CallResult{Outcome: OutcomeFailed, StatusCode: status, Err: err}
}

// OK returns true for OutcomeSuccess.
func (r CallResult) OK() bool {
	return r.Outcome == OutcomeSuccess
}

// Error returns the failure as an error, or nil on success.
func (r CallResult) Error() error {
	if r.OK() {
		return nil
	}
	if r.Err != nil {
		return r.Err
	}
	if r.Outcome == OutcomeUnauthorized {
		return ErrUnauthorized
	}
	return fmt.Errorf("remote call failed with status %d", r.StatusCode)
}
