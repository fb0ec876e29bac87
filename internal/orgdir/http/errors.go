package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/orgdir/internal/orgdir/domain"
	"github.com/aussiebroadwan/orgdir/pkg/httpx"
	"github.com/aussiebroadwan/orgdir/pkg/orgsdk"
	"github.com/aussiebroadwan/orgdir/pkg/slogx"
)

type errorMapping struct {
	err    error
	status int
	code   string
	desc   string
}

// Checked in order; the first match wins.
var errorMappings = []errorMapping{
	{domain.ErrInvalidName, http.StatusBadRequest, orgsdk.ErrorCodeInvalidName, ""},
	{domain.ErrInvalidRequest, http.StatusBadRequest, orgsdk.ErrorCodeInvalidRequest, ""},
	{domain.ErrDuplicateOrganization, http.StatusConflict, orgsdk.ErrorCodeDuplicateOrganization, ""},
	{domain.ErrPartitionExists, http.StatusConflict, orgsdk.ErrorCodeDuplicateOrganization, "organization already exists"},
	{domain.ErrDuplicateEmail, http.StatusConflict, orgsdk.ErrorCodeDuplicateEmail, ""},
	{domain.ErrOrganizationNotFound, http.StatusNotFound, orgsdk.ErrorCodeOrganizationNotFound, ""},
	{domain.ErrPartitionNotFound, http.StatusNotFound, orgsdk.ErrorCodeOrganizationNotFound, "organization not found"},
	{domain.ErrDocumentNotFound, http.StatusNotFound, orgsdk.ErrorCodeDocumentNotFound, ""},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, orgsdk.ErrorCodeInvalidCredentials, "invalid credentials"},
	{domain.ErrForbidden, http.StatusForbidden, orgsdk.ErrorCodeForbidden, "token does not grant access to this organization"},
	{domain.ErrTOTPAlreadyEnabled, http.StatusBadRequest, orgsdk.ErrorCodeTOTPAlreadyEnabled, ""},
	{domain.ErrTOTPNotEnrolled, http.StatusBadRequest, orgsdk.ErrorCodeTOTPNotEnrolled, ""},
	{domain.ErrInvalidTOTPCode, http.StatusBadRequest, orgsdk.ErrorCodeInvalidTOTPCode, ""},
	{domain.ErrStorageUnavailable, http.StatusServiceUnavailable, orgsdk.ErrorCodeStorageUnavailable, "storage temporarily unavailable, retry the request"},
}

// writeError maps a service error onto its HTTP status and error code. Token
// failures of every kind share one invalid_token response; the kind is only
// logged.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	log := slogx.FromContext(r.Context())

	if errors.Is(err, domain.ErrToken) {
		log.Warn("token rejected", "kind", tokenKind(err), "err", err)
		httpx.WriteBearerError(w, "access token is invalid or expired")
		return
	}

	resp := orgsdk.ErrorResponse{}
	status := http.StatusInternalServerError

	var lerr *domain.LifecycleError
	if errors.As(err, &lerr) {
		resp.JournalID = lerr.JournalID
		for _, s := range lerr.Completed {
			resp.CompletedSteps = append(resp.CompletedSteps, string(s))
		}
		if !lerr.RolledBack() {
			log.Error("lifecycle rollback incomplete",
				"op", lerr.Op,
				"organization", lerr.Organization,
				"journal_id", lerr.JournalID,
				"err", err,
			)
			resp.Error = orgsdk.ErrorCodeLifecycleFailed
			resp.ErrorDescription = "operation failed and could not be fully undone; it will be repaired in the background"
			httpx.WriteJSON(w, http.StatusInternalServerError, resp)
			return
		}
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			status = m.status
			resp.Error = m.code
			resp.ErrorDescription = m.desc
			if resp.ErrorDescription == "" {
				resp.ErrorDescription = err.Error()
			}
			break
		}
	}

	if resp.Error == "" {
		log.Error("request failed", "err", err)
		resp.Error = orgsdk.ErrorCodeServerError
		resp.ErrorDescription = "internal server error"
		if lerr != nil {
			resp.Error = orgsdk.ErrorCodeLifecycleFailed
			resp.ErrorDescription = "operation failed and was rolled back"
		}
	} else if status >= http.StatusInternalServerError {
		log.Warn("request failed", "err", err)
		w.Header().Set("Retry-After", "1")
	}

	httpx.WriteJSON(w, status, resp)
}

func tokenKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrTokenExpired):
		return "expired"
	case errors.Is(err, domain.ErrTokenInvalidSignature):
		return "invalid_signature"
	default:
		return "malformed"
	}
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, err error) {
	slogx.FromContext(r.Context()).Warn("failed to parse request", "err", err)
	httpx.WriteJSON(w, http.StatusBadRequest, orgsdk.ErrorResponse{
		Error:            orgsdk.ErrorCodeInvalidRequest,
		ErrorDescription: err.Error(),
	})
}
