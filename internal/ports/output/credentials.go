package output

// CredentialSource interface - Output port
// What the dispatcher adapter needs from the session to attach and renew credentials.
type CredentialSource interface {
	// AccessToken returns the current access token, ok is false when anonymous.
	AccessToken() (token string, ok bool)

	// RefreshToken returns the current refresh token, ok is false when absent.
	RefreshToken() (token string, ok bool)

	// RefreshTokens stores tokens obtained from a successful refresh.
	RefreshTokens(accessToken, refreshToken string) error

	// Logout drops the session when credentials can no longer be renewed.
	Logout()
}
