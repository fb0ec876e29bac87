package orgsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error codes carried in ErrorResponse.Error.
const (
	ErrorCodeInvalidRequest        = "invalid_request"
	ErrorCodeInvalidName           = "invalid_name"
	ErrorCodeDuplicateOrganization = "duplicate_organization"
	ErrorCodeDuplicateEmail        = "duplicate_email"
	ErrorCodeOrganizationNotFound  = "organization_not_found"
	ErrorCodeDocumentNotFound      = "document_not_found"
	ErrorCodeInvalidCredentials    = "invalid_credentials"
	ErrorCodeInvalidToken          = "invalid_token"
	ErrorCodeForbidden             = "forbidden"
	ErrorCodeTOTPAlreadyEnabled    = "totp_already_enabled"
	ErrorCodeTOTPNotEnrolled       = "totp_not_enrolled"
	ErrorCodeInvalidTOTPCode       = "invalid_totp_code"
	ErrorCodeStorageUnavailable    = "storage_unavailable"
	ErrorCodeLifecycleFailed       = "lifecycle_failed"
	ErrorCodeRateLimitExceeded     = "rate_limit_exceeded"
	ErrorCodeServerError           = "server_error"
)

// APIError is a decoded error response.
type APIError struct {
	StatusCode     int
	Code           string
	Description    string
	JournalID      string
	CompletedSteps []string
}

func (e *APIError) Error() string {
	if e.JournalID != "" {
		return fmt.Sprintf("%s: %s (journal %s)", e.Code, e.Description, e.JournalID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// IsCode reports whether err is an *APIError with the given code.
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// StatusCode returns the HTTP status of an *APIError, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func parseErrorResponse(resp *http.Response, body []byte) error {
	var er ErrorResponse
	if err := json.Unmarshal(body, &er); err != nil || er.Error == "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        ErrorCodeServerError,
			Description: fmt.Sprintf("unexpected status %d", resp.StatusCode),
		}
	}
	return &APIError{
		StatusCode:     resp.StatusCode,
		Code:           er.Error,
		Description:    er.ErrorDescription,
		JournalID:      er.JournalID,
		CompletedSteps: er.CompletedSteps,
	}
}
