package model

// Session is the identity handed to a client after sign-in.
type Session struct {
	UserID string `json:"user_id"`
	Token  string `json:"token"`
}

type TokenSignInRequest struct {
	Token string `json:"token"`
}
