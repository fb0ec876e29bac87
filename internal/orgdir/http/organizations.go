package http

import (
	"net/http"

	"github.com/aussiebroadwan/orgdir/internal/orgdir/domain"
	"github.com/aussiebroadwan/orgdir/internal/orgdir/service"
	"github.com/aussiebroadwan/orgdir/pkg/httpx"
	"github.com/aussiebroadwan/orgdir/pkg/orgsdk"
	"github.com/aussiebroadwan/orgdir/pkg/slogx"
)

// OrganizationsHandler serves the organization lifecycle endpoints.
type OrganizationsHandler struct {
	Directory *service.Directory
}

// HandleCreate handles POST /v1/organizations
//
//	@Summary		Create an organization
//	@Description	Registers an organization, provisions its partition and creates its administrator credential.
//	@Description	The partition id is derived from the name; names that normalize to an existing partition are rejected.
//	@Tags			Organizations
//	@Accept			json
//	@Produce		json
//	@Param			request	body		orgsdk.CreateOrganizationRequest	true	"Organization name and admin credential"
//	@Success		201		{object}	orgsdk.OrganizationResponse			"Created organization"
//	@Failure		400		{object}	orgsdk.ErrorResponse				"Invalid name or request"
//	@Failure		409		{object}	orgsdk.ErrorResponse				"Duplicate organization or admin email"
//	@Failure		429		{object}	orgsdk.ErrorResponse				"Rate limit exceeded"
//	@Failure		500		{object}	orgsdk.ErrorResponse				"Lifecycle failure, see journal_id"
//	@Failure		503		{object}	orgsdk.ErrorResponse				"Storage unavailable, retry"
//	@Router			/v1/organizations [post]
func (h *OrganizationsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req orgsdk.CreateOrganizationRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, err)
		return
	}

	org, err := h.Directory.Create(ctx, service.CreateOrganizationInput{
		Name:        req.Name,
		AdminEmail:  req.AdminEmail,
		AdminSecret: req.AdminSecret,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	log.Info("organization created", "org_id", org.ID, "partition_id", org.PartitionID)
	httpx.WriteJSON(w, http.StatusCreated, toOrganizationResponse(org))
}

// HandleGet handles GET /v1/organizations/{name}
//
//	@Summary		Get an organization
//	@Description	Looks an organization up by its name (case-insensitive) or by its partition id.
//	@Tags			Organizations
//	@Produce		json
//	@Param			name	path		string						true	"Organization name or partition id"
//	@Success		200		{object}	orgsdk.OrganizationResponse	"Organization record"
//	@Failure		404		{object}	orgsdk.ErrorResponse		"Organization not found"
//	@Router			/v1/organizations/{name} [get]
func (h *OrganizationsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	org, err := h.Directory.Get(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toOrganizationResponse(org))
}

// HandleUpdate handles PATCH /v1/organizations/{name}
//
//	@Summary		Update an organization
//	@Description	Renames the organization (moving its partition) and/or changes the admin credential.
//	@Description	Omitted fields are left unchanged. Retrying an applied rename with the same body succeeds.
//	@Tags			Organizations
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			name	path		string							true	"Current organization name"
//	@Param			request	body		orgsdk.UpdateOrganizationRequest	true	"Fields to change"
//	@Success		200		{object}	orgsdk.OrganizationResponse		"Updated organization"
//	@Failure		400		{object}	orgsdk.ErrorResponse			"Invalid name or request"
//	@Failure		401		{object}	orgsdk.ErrorResponse			"Invalid or missing access token"
//	@Failure		403		{object}	orgsdk.ErrorResponse			"Token belongs to another organization"
//	@Failure		404		{object}	orgsdk.ErrorResponse			"Organization not found"
//	@Failure		409		{object}	orgsdk.ErrorResponse			"Name or email already taken"
//	@Failure		500		{object}	orgsdk.ErrorResponse			"Lifecycle failure, see journal_id"
//	@Failure		503		{object}	orgsdk.ErrorResponse			"Storage unavailable, retry"
//	@Router			/v1/organizations/{name} [patch]
func (h *OrganizationsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	raw, _ := httpx.BearerFromContext(ctx)

	var req orgsdk.UpdateOrganizationRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, err)
		return
	}

	org, err := h.Directory.Update(ctx, raw, r.PathValue("name"), service.UpdateOrganizationInput{
		Name:        req.Name,
		AdminEmail:  req.AdminEmail,
		AdminSecret: req.AdminSecret,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	log.Info("organization updated", "org_id", org.ID, "partition_id", org.PartitionID)
	httpx.WriteJSON(w, http.StatusOK, toOrganizationResponse(org))
}

// HandleDelete handles DELETE /v1/organizations/{name}
//
//	@Summary		Delete an organization
//	@Description	Destroys the partition and its documents, removes the admin credential and the record.
//	@Description	A failed delete can be retried and resumes where it stopped.
//	@Tags			Organizations
//	@Security		BearerAuth
//	@Param			name	path	string	true	"Organization name"
//	@Success		204		"Organization deleted"
//	@Failure		401		{object}	orgsdk.ErrorResponse	"Invalid or missing access token"
//	@Failure		403		{object}	orgsdk.ErrorResponse	"Token belongs to another organization"
//	@Failure		404		{object}	orgsdk.ErrorResponse	"Organization not found"
//	@Failure		500		{object}	orgsdk.ErrorResponse	"Lifecycle failure, see journal_id"
//	@Failure		503		{object}	orgsdk.ErrorResponse	"Storage unavailable, retry"
//	@Router			/v1/organizations/{name} [delete]
func (h *OrganizationsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	raw, _ := httpx.BearerFromContext(ctx)

	name := r.PathValue("name")
	if err := h.Directory.Delete(ctx, raw, name); err != nil {
		writeError(w, r, err)
		return
	}

	slogx.FromContext(ctx).Info("organization deleted", "name", name)
	w.WriteHeader(http.StatusNoContent)
}

func toOrganizationResponse(org domain.Organization) orgsdk.OrganizationResponse {
	return orgsdk.OrganizationResponse{
		ID:          org.ID,
		Name:        org.Name,
		PartitionID: org.PartitionID,
		AdminEmail:  org.AdminEmail,
		CreatedAt:   org.CreatedAt,
		UpdatedAt:   org.UpdatedAt,
	}
}
