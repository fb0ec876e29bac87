package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Validation errors
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrInvalidName    = errors.New("invalid organization name")
)

// Conflict errors
var (
	ErrDuplicateOrganization = errors.New("organization already exists")
	ErrDuplicateEmail        = errors.New("admin email already registered")
	ErrPartitionExists       = errors.New("partition already exists")
)

// Lookup errors
var (
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrPartitionNotFound    = errors.New("partition not found")
	ErrDocumentNotFound     = errors.New("document not found")
)

// Authentication and authorization errors. Every token failure matches
// errors.Is(err, ErrToken) and exactly one of the kinds below.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("forbidden")

	ErrToken                 = errors.New("invalid token")
	ErrTokenExpired          = fmt.Errorf("%w: expired", ErrToken)
	ErrTokenMalformed        = fmt.Errorf("%w: malformed", ErrToken)
	ErrTokenInvalidSignature = fmt.Errorf("%w: signature", ErrToken)
)

// MFA errors
var (
	ErrTOTPAlreadyEnabled = errors.New("totp already enabled")
	ErrTOTPNotEnrolled    = errors.New("totp not enrolled")
	ErrInvalidTOTPCode    = errors.New("invalid totp code")
)

// ErrStorageUnavailable marks transient storage failures. Every lifecycle
// sub-step is idempotent, so callers may always retry.
var ErrStorageUnavailable = errors.New("storage unavailable")

// ErrBusy is returned when another lifecycle operation holds the
// organization for longer than the configured lock timeout. It wraps
// ErrStorageUnavailable so it is retried the same way.
var ErrBusy = fmt.Errorf("%w: organization busy", ErrStorageUnavailable)

// LifecycleError reports a saga that failed after at least one side effect.
// Completed lists the steps that had taken effect when the failure happened;
// when RollbackErr is set the compensation did not finish either and the
// journal entry named by JournalID describes what is left to repair.
type LifecycleError struct {
	Op           LifecycleOp
	Organization string
	JournalID    string
	Completed    []LifecycleStep
	Err          error
	RollbackErr  error
}

func (e *LifecycleError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s organization %q failed", e.Op, e.Organization)
	if len(e.Completed) > 0 {
		steps := make([]string, len(e.Completed))
		for i, s := range e.Completed {
			steps[i] = string(s)
		}
		fmt.Fprintf(&b, " after [%s]", strings.Join(steps, ", "))
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	if e.RollbackErr != nil {
		fmt.Fprintf(&b, " (rollback incomplete: %v; journal %s)", e.RollbackErr, e.JournalID)
	}
	return b.String()
}

func (e *LifecycleError) Unwrap() error { return e.Err }

// RolledBack reports whether every completed step was compensated.
func (e *LifecycleError) RolledBack() bool { return e.RollbackErr == nil }
