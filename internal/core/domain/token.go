package domain

// Store keys and namespace for the persisted token pair.
//
//nolint:gosec // G101: These are key names, not actual credentials.
const (
	TokenNamespace  = "hh-autoupdate-resume"
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
)

// TokenPair holds the OAuth tokens issued by the job platform.
// The two tokens are always read and written together.
type TokenPair struct {
	// AccessToken authorises API calls. Short-lived.
	AccessToken string `json:"access_token"`
	// RefreshToken obtains a new pair without re-authorisation.
	RefreshToken string `json:"refresh_token"`
}

// IsValid returns true when both tokens are non-empty.
// A nil pair is never valid.
func (p *TokenPair) IsValid() bool {
	return p != nil && p.AccessToken != "" && p.RefreshToken != ""
}

// Values returns the pair as store key/value entries.
func (p TokenPair) Values() map[string]string {
	return map[string]string{
		KeyAccessToken:  p.AccessToken,
		KeyRefreshToken: p.RefreshToken,
	}
}
