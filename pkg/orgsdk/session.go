package orgsdk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// Session performs calls authenticated as one organization's admin.
type Session struct {
	client      *SDKClient
	accessToken string
}

// NewSession wraps an existing access token.
func (c *SDKClient) NewSession(accessToken string) *Session {
	return &Session{client: c, accessToken: accessToken}
}

// AccessToken returns the bearer token the session sends.
func (s *Session) AccessToken() string { return s.accessToken }

func (s *Session) do(ctx context.Context, method, path string, in, out any, expected int) error {
	return s.client.do(ctx, method, path, s.accessToken, in, out, expected)
}

// UpdateOrganization renames the organization and/or changes its admin
// credential.
func (s *Session) UpdateOrganization(ctx context.Context, name string, req UpdateOrganizationRequest) (*OrganizationResponse, error) {
	var out OrganizationResponse
	if err := s.do(ctx, http.MethodPatch, orgPath(name), req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteOrganization removes the organization, its partition and its admin.
func (s *Session) DeleteOrganization(ctx context.Context, name string) error {
	return s.do(ctx, http.MethodDelete, orgPath(name), nil, nil, http.StatusNoContent)
}

// PutDocument stores body under id in the organization's partition.
func (s *Session) PutDocument(ctx context.Context, name, id string, body any) (*DocumentResponse, error) {
	var out DocumentResponse
	if err := s.do(ctx, http.MethodPut, orgPath(name, "documents", url.PathEscape(id)), body, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetDocument fetches a single document.
func (s *Session) GetDocument(ctx context.Context, name, id string) (*DocumentResponse, error) {
	var out DocumentResponse
	if err := s.do(ctx, http.MethodGet, orgPath(name, "documents", url.PathEscape(id)), nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListDocuments lists every document in the partition.
func (s *Session) ListDocuments(ctx context.Context, name string) ([]DocumentResponse, error) {
	var out ListDocumentsResponse
	if err := s.do(ctx, http.MethodGet, orgPath(name, "documents"), nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Documents, nil
}

// DeleteDocument removes a document.
func (s *Session) DeleteDocument(ctx context.Context, name, id string) error {
	return s.do(ctx, http.MethodDelete, orgPath(name, "documents", url.PathEscape(id)), nil, nil, http.StatusNoContent)
}

// EnrollTOTP issues a new, not yet active, TOTP secret.
func (s *Session) EnrollTOTP(ctx context.Context, name string) (*TOTPEnrollResponse, error) {
	var out TOTPEnrollResponse
	if err := s.do(ctx, http.MethodPost, orgPath(name, "admin", "totp"), nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyTOTP activates the enrolled secret.
func (s *Session) VerifyTOTP(ctx context.Context, name, code string) error {
	return s.do(ctx, http.MethodPost, orgPath(name, "admin", "totp", "verify"), TOTPCodeRequest{Code: code}, nil, http.StatusNoContent)
}

// DisableTOTP removes the second factor; a current code is required.
func (s *Session) DisableTOTP(ctx context.Context, name, code string) error {
	return s.do(ctx, http.MethodDelete, orgPath(name, "admin", "totp"), TOTPCodeRequest{Code: code}, nil, http.StatusNoContent)
}

// RawDocument is a convenience for callers that already hold JSON.
func RawDocument(s string) json.RawMessage { return json.RawMessage(s) }
