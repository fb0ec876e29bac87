package http

import (
	"net/http"

	"github.com/aussiebroadwan/orgdir/internal/orgdir/service"
	"github.com/aussiebroadwan/orgdir/pkg/httpx"
	"github.com/aussiebroadwan/orgdir/pkg/orgsdk"
	"github.com/aussiebroadwan/orgdir/pkg/slogx"
)

// LoginHandler exchanges admin credentials for an access token.
type LoginHandler struct {
	Directory *service.Directory
}

// ServeHTTP handles POST /v1/admin/login
//
//	@Summary		Admin login
//	@Description	Verifies an admin email and secret and returns an access token scoped to the admin's organization.
//	@Description	When TOTP is enabled the otp field is required; a wrong code is reported like a wrong secret.
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			request	body		orgsdk.LoginRequest		true	"Admin credentials"
//	@Success		200		{object}	orgsdk.TokenResponse	"Access token"
//	@Failure		400		{object}	orgsdk.ErrorResponse	"Malformed request"
//	@Failure		401		{object}	orgsdk.ErrorResponse	"Invalid credentials"
//	@Failure		429		{object}	orgsdk.ErrorResponse	"Rate limit exceeded"
//	@Router			/v1/admin/login [post]
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req orgsdk.LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, err)
		return
	}

	tok, err := h.Directory.Login(ctx, req.Email, req.Secret, req.OTP)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slogx.FromContext(ctx).Info("admin logged in", "expires_at", tok.ExpiresAt)
	httpx.WriteJSON(w, http.StatusOK, orgsdk.TokenResponse{
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
		ExpiresIn:   int(tok.ExpiresIn.Seconds()),
		ExpiresAt:   tok.ExpiresAt,
	})
}
