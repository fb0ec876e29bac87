package orgsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SDKClient talks to the organization directory service.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a client with a 10 second request timeout.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// CreateOrganization registers a new organization.
func (c *SDKClient) CreateOrganization(ctx context.Context, req CreateOrganizationRequest) (*OrganizationResponse, error) {
	var out OrganizationResponse
	if err := c.do(ctx, http.MethodPost, "/v1/organizations", "", req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetOrganization looks an organization up by name or partition id.
func (c *SDKClient) GetOrganization(ctx context.Context, name string) (*OrganizationResponse, error) {
	var out OrganizationResponse
	if err := c.do(ctx, http.MethodGet, orgPath(name), "", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges admin credentials for a Session.
func (c *SDKClient) Login(ctx context.Context, email, secret, otp string) (*Session, error) {
	var tok TokenResponse
	req := LoginRequest{Email: email, Secret: secret, OTP: otp}
	if err := c.do(ctx, http.MethodPost, "/v1/admin/login", "", req, &tok, http.StatusOK); err != nil {
		return nil, err
	}
	return c.NewSession(tok.AccessToken), nil
}

// GetLiveness checks if the service is alive.
func (c *SDKClient) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	var health HealthResponse
	if err := c.do(ctx, http.MethodGet, "/livez", "", nil, &health, http.StatusOK); err != nil {
		return nil, err
	}
	return &health, nil
}

// GetReadiness checks if the service is ready.
func (c *SDKClient) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	var health HealthResponse
	if err := c.do(ctx, http.MethodGet, "/readyz", "", nil, &health, http.StatusOK); err != nil {
		return nil, err
	}
	return &health, nil
}

func orgPath(name string, rest ...string) string {
	p := "/v1/organizations/" + url.PathEscape(name)
	for _, r := range rest {
		p += "/" + r
	}
	return p
}

// do sends in as JSON (when non-nil), checks for expectedStatus and decodes
// the body into out (when non-nil).
func (c *SDKClient) do(
	ctx context.Context,
	method, path, token string,
	in, out any,
	expectedStatus int,
) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != expectedStatus {
		return parseErrorResponse(resp, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
