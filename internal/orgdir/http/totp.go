package http

import (
	"net/http"

	"github.com/aussiebroadwan/orgdir/internal/orgdir/service"
	"github.com/aussiebroadwan/orgdir/pkg/httpx"
	"github.com/aussiebroadwan/orgdir/pkg/orgsdk"
)

// TOTPHandler handles the admin second factor endpoints.
type TOTPHandler struct {
	TOTP *service.TOTPService
}

// HandleEnroll handles POST /v1/organizations/{name}/admin/totp
//
//	@Summary		Enroll the admin in TOTP
//	@Description	Generates a TOTP secret for the organization's admin. It is enforced on login once verified.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Produce		json
//	@Param			name	path		string						true	"Organization name"
//	@Success		200		{object}	orgsdk.TOTPEnrollResponse	"TOTP secret and otpauth URL"
//	@Failure		400		{object}	orgsdk.ErrorResponse		"TOTP already enabled"
//	@Failure		401		{object}	orgsdk.ErrorResponse		"Invalid or missing access token"
//	@Failure		403		{object}	orgsdk.ErrorResponse		"Token belongs to another organization"
//	@Router			/v1/organizations/{name}/admin/totp [post]
func (h *TOTPHandler) HandleEnroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	raw, _ := httpx.BearerFromContext(ctx)

	enrollment, err := h.TOTP.Enroll(ctx, raw, r.PathValue("name"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, orgsdk.TOTPEnrollResponse{
		Secret: enrollment.Secret,
		URL:    enrollment.URL,
	})
}

// HandleVerify handles POST /v1/organizations/{name}/admin/totp/verify
//
//	@Summary		Verify a TOTP code and enable TOTP
//	@Tags			MFA
//	@Security		BearerAuth
//	@Accept			json
//	@Param			name	path	string					true	"Organization name"
//	@Param			request	body	orgsdk.TOTPCodeRequest	true	"TOTP code"
//	@Success		204		"TOTP enabled"
//	@Failure		400		{object}	orgsdk.ErrorResponse	"Invalid code or not enrolled"
//	@Failure		401		{object}	orgsdk.ErrorResponse	"Invalid or missing access token"
//	@Failure		403		{object}	orgsdk.ErrorResponse	"Token belongs to another organization"
//	@Router			/v1/organizations/{name}/admin/totp/verify [post]
func (h *TOTPHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	raw, _ := httpx.BearerFromContext(ctx)

	var req orgsdk.TOTPCodeRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, err)
		return
	}

	if err := h.TOTP.Verify(ctx, raw, r.PathValue("name"), req.Code); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleDisable handles DELETE /v1/organizations/{name}/admin/totp
//
//	@Summary		Disable TOTP
//	@Description	Turns the second factor off. Requires a current code.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Accept			json
//	@Param			name	path	string					true	"Organization name"
//	@Param			request	body	orgsdk.TOTPCodeRequest	true	"TOTP code"
//	@Success		204		"TOTP disabled"
//	@Failure		400		{object}	orgsdk.ErrorResponse	"Invalid code or not enabled"
//	@Failure		401		{object}	orgsdk.ErrorResponse	"Invalid or missing access token"
//	@Failure		403		{object}	orgsdk.ErrorResponse	"Token belongs to another organization"
//	@Router			/v1/organizations/{name}/admin/totp [delete]
func (h *TOTPHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	raw, _ := httpx.BearerFromContext(ctx)

	var req orgsdk.TOTPCodeRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, err)
		return
	}

	if err := h.TOTP.Disable(ctx, raw, r.PathValue("name"), req.Code); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
