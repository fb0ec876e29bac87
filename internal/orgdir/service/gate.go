package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aussiebroadwan/orgdir/internal/orgdir/domain"
	"github.com/aussiebroadwan/orgdir/internal/orgdir/naming"
	"github.com/aussiebroadwan/orgdir/internal/orgdir/store"
	"github.com/aussiebroadwan/orgdir/pkg/jwtx"
)

// AccessGate decides whether a bearer token may act on an organization.
// Tokens are bound to the organization id, which survives renames.
type AccessGate struct {
	Tokens *TokenService
	Store  store.Store
}

// Authenticate verifies raw without looking at any target.
func (g *AccessGate) Authenticate(raw string) (jwtx.Claims, error) {
	if strings.TrimSpace(raw) == "" {
		return jwtx.Claims{}, fmt.Errorf("%w (missing bearer token)", domain.ErrTokenMalformed)
	}
	return g.Tokens.Verify(raw)
}

// Authorize verifies raw, resolves targetName and checks that the token was
// issued to that organization's admin. Token failures come first, then
// ErrOrganizationNotFound, then ErrForbidden.
func (g *AccessGate) Authorize(ctx context.Context, raw, targetName string) (domain.Grant, error) {
	claims, err := g.Authenticate(raw)
	if err != nil {
		return domain.Grant{}, err
	}

	org, err := lookupOrganization(ctx, g.Store.Organizations(), targetName)
	if err != nil {
		return domain.Grant{}, err
	}
	if err := checkOwnership(claims, org); err != nil {
		return domain.Grant{}, err
	}
	return domain.Grant{AdminID: claims.Subject, Organization: org}, nil
}

func checkOwnership(claims jwtx.Claims, org domain.Organization) error {
	if claims.OrgID != org.ID || claims.Subject != org.AdminID {
		return domain.ErrForbidden
	}
	return nil
}

// lookupOrganization resolves a name case-insensitively, falling back to
// its normalized partition id.
func lookupOrganization(ctx context.Context, orgs store.Organizations, name string) (domain.Organization, error) {
	key := naming.NameKey(name)
	if key == "" {
		return domain.Organization{}, domain.ErrOrganizationNotFound
	}

	org, err := orgs.GetOrganizationByNameKey(ctx, key)
	if err == nil {
		return org, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.Organization{}, err
	}

	pid, nerr := naming.Normalize(name)
	if nerr != nil {
		return domain.Organization{}, domain.ErrOrganizationNotFound
	}
	org, err = orgs.GetOrganizationByPartition(ctx, pid)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Organization{}, domain.ErrOrganizationNotFound
	}
	return org, err
}

func getOrganizationByID(ctx context.Context, orgs store.Organizations, id string) (domain.Organization, error) {
	org, err := orgs.GetOrganizationByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Organization{}, domain.ErrOrganizationNotFound
	}
	return org, err
}
