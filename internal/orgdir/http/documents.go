package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aussiebroadwan/orgdir/internal/orgdir/domain"
	"github.com/aussiebroadwan/orgdir/internal/orgdir/service"
	"github.com/aussiebroadwan/orgdir/pkg/httpx"
	"github.com/aussiebroadwan/orgdir/pkg/orgsdk"
)

// DocumentsHandler serves the documents stored in an organization's partition.
type DocumentsHandler struct {
	Documents *service.DocumentService
}

// HandleList handles GET /v1/organizations/{name}/documents
//
//	@Summary		List documents
//	@Description	Lists every document in the organization's partition ordered by id.
//	@Tags			Documents
//	@Security		BearerAuth
//	@Produce		json
//	@Param			name	path		string							true	"Organization name"
//	@Success		200		{object}	orgsdk.ListDocumentsResponse	"Documents"
//	@Failure		401		{object}	orgsdk.ErrorResponse			"Invalid or missing access token"
//	@Failure		403		{object}	orgsdk.ErrorResponse			"Token belongs to another organization"
//	@Failure		404		{object}	orgsdk.ErrorResponse			"Organization not found"
//	@Router			/v1/organizations/{name}/documents [get]
func (h *DocumentsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	raw, _ := httpx.BearerFromContext(ctx)

	docs, err := h.Documents.List(ctx, raw, r.PathValue("name"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := orgsdk.ListDocumentsResponse{Documents: make([]orgsdk.DocumentResponse, 0, len(docs))}
	for _, d := range docs {
		resp.Documents = append(resp.Documents, toDocumentResponse(d))
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleGet handles GET /v1/organizations/{name}/documents/{id}
//
//	@Summary		Get a document
//	@Tags			Documents
//	@Security		BearerAuth
//	@Produce		json
//	@Param			name	path		string					true	"Organization name"
//	@Param			id		path		string					true	"Document id"
//	@Success		200		{object}	orgsdk.DocumentResponse	"Document"
//	@Failure		401		{object}	orgsdk.ErrorResponse	"Invalid or missing access token"
//	@Failure		403		{object}	orgsdk.ErrorResponse	"Token belongs to another organization"
//	@Failure		404		{object}	orgsdk.ErrorResponse	"Organization or document not found"
//	@Router			/v1/organizations/{name}/documents/{id} [get]
func (h *DocumentsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	raw, _ := httpx.BearerFromContext(ctx)

	doc, err := h.Documents.Get(ctx, raw, r.PathValue("name"), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toDocumentResponse(doc))
}

// HandlePut handles PUT /v1/organizations/{name}/documents/{id}
//
//	@Summary		Store a document
//	@Description	Creates or replaces a JSON document in the organization's partition.
//	@Tags			Documents
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			name	path		string					true	"Organization name"
//	@Param			id		path		string					true	"Document id"
//	@Param			request	body		object					true	"Any JSON value"
//	@Success		200		{object}	orgsdk.DocumentResponse	"Stored document"
//	@Failure		400		{object}	orgsdk.ErrorResponse	"Invalid id or body"
//	@Failure		401		{object}	orgsdk.ErrorResponse	"Invalid or missing access token"
//	@Failure		403		{object}	orgsdk.ErrorResponse	"Token belongs to another organization"
//	@Failure		404		{object}	orgsdk.ErrorResponse	"Organization not found"
//	@Failure		413		{object}	orgsdk.ErrorResponse	"Document too large"
//	@Router			/v1/organizations/{name}/documents/{id} [put]
func (h *DocumentsHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	raw, _ := httpx.BearerFromContext(ctx)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, service.MaxDocumentSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.WriteJSON(w, http.StatusRequestEntityTooLarge, orgsdk.ErrorResponse{
				Error:            orgsdk.ErrorCodeInvalidRequest,
				ErrorDescription: fmt.Sprintf("document exceeds %d bytes", service.MaxDocumentSize),
			})
			return
		}
		writeBadRequest(w, r, err)
		return
	}

	doc, err := h.Documents.Put(ctx, raw, r.PathValue("name"), r.PathValue("id"), body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toDocumentResponse(doc))
}

// HandleDelete handles DELETE /v1/organizations/{name}/documents/{id}
//
//	@Summary		Delete a document
//	@Tags			Documents
//	@Security		BearerAuth
//	@Param			name	path	string	true	"Organization name"
//	@Param			id		path	string	true	"Document id"
//	@Success		204		"Document deleted"
//	@Failure		401		{object}	orgsdk.ErrorResponse	"Invalid or missing access token"
//	@Failure		403		{object}	orgsdk.ErrorResponse	"Token belongs to another organization"
//	@Failure		404		{object}	orgsdk.ErrorResponse	"Organization or document not found"
//	@Router			/v1/organizations/{name}/documents/{id} [delete]
func (h *DocumentsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	raw, _ := httpx.BearerFromContext(ctx)

	if err := h.Documents.Delete(ctx, raw, r.PathValue("name"), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toDocumentResponse(d domain.Document) orgsdk.DocumentResponse {
	return orgsdk.DocumentResponse{
		ID:        d.ID,
		Body:      d.Body,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}
