package domain

// AuthProvider represents an OAuth provider.
type AuthProvider string

const (
	AuthProviderGoogle AuthProvider = "google"
	AuthProviderGitHub AuthProvider = "github"
)

// User is the identity carried in access tokens.
type User struct {
	Provider    AuthProvider `json:"provider"`
	ProviderID  string       `json:"provider_id"`
	Email       string       `json:"email"`
	DisplayName string       `json:"display_name"`
}

// Subject returns the token subject identifying the user across providers.
func (u User) Subject() string {
	return string(u.Provider) + ":" + u.ProviderID
}
