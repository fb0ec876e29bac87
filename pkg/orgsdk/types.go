package orgsdk

import (
	"encoding/json"
	"time"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	// Error is a stable machine-readable code, see the ErrorCode constants
	Error string `json:"error"`

	// ErrorDescription is a human-readable description of the error
	ErrorDescription string `json:"error_description"`

	// JournalID names the lifecycle journal entry of a partially failed
	// operation so an operator can find what was left behind.
	JournalID string `json:"journal_id,omitempty"`

	// CompletedSteps lists the lifecycle steps that had taken effect.
	CompletedSteps []string `json:"completed_steps,omitempty"`
}

// ============================================================================
// Organizations
// ============================================================================

// CreateOrganizationRequest registers an organization and its administrator.
type CreateOrganizationRequest struct {
	Name        string `json:"name"`
	AdminEmail  string `json:"admin_email"`
	AdminSecret string `json:"admin_secret"`
}

// UpdateOrganizationRequest changes any subset of the name and the admin
// credential. Nil fields are left as they are.
type UpdateOrganizationRequest struct {
	Name        *string `json:"name,omitempty"`
	AdminEmail  *string `json:"admin_email,omitempty"`
	AdminSecret *string `json:"admin_secret,omitempty"`
}

// OrganizationResponse is the public view of an organization record.
type OrganizationResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	PartitionID string    `json:"partition_id"`
	AdminEmail  string    `json:"admin_email"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ============================================================================
// Authentication
// ============================================================================

// LoginRequest exchanges admin credentials for an access token. OTP is
// required only when the admin has enabled TOTP.
type LoginRequest struct {
	Email  string `json:"email"`
	Secret string `json:"secret"`
	OTP    string `json:"otp,omitempty"`
}

// TokenResponse carries an access token scoped to one organization.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// TOTPEnrollResponse is returned when a TOTP secret is issued. The secret
// only becomes active once a code generated from it is verified.
type TOTPEnrollResponse struct {
	Secret string `json:"secret"`
	URL    string `json:"otpauth_url"`
}

// TOTPCodeRequest carries a 6-digit TOTP code.
type TOTPCodeRequest struct {
	Code string `json:"code"`
}

// ============================================================================
// Documents
// ============================================================================

// DocumentResponse is one opaque JSON document stored in a partition.
type DocumentResponse struct {
	ID        string          `json:"id"`
	Body      json.RawMessage `json:"body" swaggertype:"object"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ListDocumentsResponse lists the documents of a partition ordered by id.
type ListDocumentsResponse struct {
	Documents []DocumentResponse `json:"documents"`
}

// ============================================================================
// Health
// ============================================================================

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the state of each dependency checked by /readyz.
type HealthChecks struct {
	Database string `json:"database"`
	Signer   string `json:"signer"`
}

// Ptr returns a pointer to v, handy for UpdateOrganizationRequest fields.
func Ptr[T any](v T) *T { return &v }
