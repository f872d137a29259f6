package domain

import "time"

// Session is the live authenticated identity. Token and UserID are empty when
// unauthenticated.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// IsAuthenticated reports whether the session holds a credential.
func (s Session) IsAuthenticated() bool {
	return s.Token != ""
}
