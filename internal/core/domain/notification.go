package domain

import "fmt"

// Operator notification texts.
const (
	MsgResumeUpdated = "Resume updated"
	MsgTokensUpdated = "Tokens updated"
)

// ResumeUpdateFailed formats the résumé failure notification.
func ResumeUpdateFailed(err error) string {
	return fmt.Sprintf("Resume update failed: %v", err)
}

// TokenUpdateFailed formats the token failure notification.
func TokenUpdateFailed(err error) string {
	return fmt.Sprintf("Token update failed: %v", err)
}
