package domain

import "time"

// IssuedToken is what a successful login hands back.
type IssuedToken struct {
	AccessToken string
	TokenType   string // always "Bearer"
	ExpiresIn   time.Duration
	ExpiresAt   time.Time
}

// Grant is the outcome of a successful access check: the caller holds a
// valid token for Organization, issued to AdminID.
type Grant struct {
	AdminID      string
	Organization Organization
}
