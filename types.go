package authcore

// SignupRequest is the input for Engine.Signup.
type SignupRequest struct {
	Name     string
	Email    string
	Password string
}

// SignupResult is returned by Engine.Signup.
type SignupResult struct {
	AccountID string
	// PendingReplaced is true when the signup retried an existing
	// unverified account and its pending verification was re-issued.
	PendingReplaced bool
}

// LoginRequest is the input for Engine.Login. DeviceInfo is an opaque,
// best-effort client descriptor stored alongside the refresh token;
// when empty, the value attached via WithDeviceInfo is used.
type LoginRequest struct {
	Email      string
	Password   string
	DeviceInfo string
}

// TokenPair is an access/refresh token pair returned by Login and
// Refresh. The refresh token is single-use: the next Refresh consumes
// it and returns a new pair.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
