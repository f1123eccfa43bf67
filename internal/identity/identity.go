// Package identity resolves users from credentials and bearer tokens. The
// rest of the system treats the Provider as an opaque service returning a
// user identity or an authentication failure.
package identity

import "fintrack/internal/models"

// Session holds the tokens returned by a successful sign-in or refresh.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	TokenType    string `json:"token_type"`
}

// Provider is the narrow contract the application has with its identity
// service: account creation, session management, and resolving the user
// behind a bearer token.
type Provider interface {
	SignUp(email, password, fullname string) (*models.User, error)
	SignIn(email, password string) (*Session, error)
	SignOut(accessToken string) error
	RefreshSession(refreshToken string) (*Session, error)
	ResetPassword(email string) (string, error)
	UpdatePassword(userID, newPassword string) error
	UpdatePasswordWithToken(resetToken, newPassword string) error
	UserFromToken(accessToken string) (*models.User, error)
}
