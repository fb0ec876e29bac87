package domain

import "time"

// AdminCredential is the single administrator credential owned by an
// organization.
type AdminCredential struct {
	ID            string
	Email         string
	EmailKey      string // case-folded Email, unique across the whole system
	SecretHash    string // argon2id PHC string
	TOTPSecret    *string
	TOTPEnabledAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TOTPEnabled reports whether a confirmed second factor guards this credential.
func (a AdminCredential) TOTPEnabled() bool {
	return a.TOTPEnabledAt != nil && a.TOTPSecret != nil && *a.TOTPSecret != ""
}

// CredentialSnapshot captures the mutable credential fields before an update
// so a failed rename can put them back.
type CredentialSnapshot struct {
	AdminID    string `json:"admin_id"`
	Email      string `json:"email"`
	SecretHash string `json:"secret_hash"`
}

// TOTPEnrollment is handed back once when an admin starts TOTP enrollment.
type TOTPEnrollment struct {
	Secret string
	URL    string // otpauth:// URL for authenticator apps
}
