package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/orgdir/internal/orgdir/domain"
	"github.com/aussiebroadwan/orgdir/pkg/jwtx"
)

// TokenService issues and verifies stateless admin access tokens.
type TokenService struct {
	Signer   jwtx.Signer
	Verifier jwtx.Verifier
	Issuer   string
	TTL      time.Duration

	// Now is overridable in tests.
	Now func() time.Time
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *TokenService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return jwtx.DefaultAccessTokenTTL
}

// Issue signs a token for adminID scoped to org's immutable id.
func (s *TokenService) Issue(adminID string, org domain.Organization, amr []string) (domain.IssuedToken, error) {
	now := s.now().UTC().Truncate(time.Second)
	claims := jwtx.NewOrgClaims(adminID, org.ID, org.Name, org.PartitionID, amr, s.ttl(), s.Issuer, now)

	token, err := s.Signer.Sign(claims)
	if err != nil {
		return domain.IssuedToken{}, fmt.Errorf("sign access token: %w", err)
	}

	return domain.IssuedToken{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   s.ttl(),
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

// Verify checks signature, issuer and validity window. Failures match
// domain.ErrToken and exactly one of its kinds.
func (s *TokenService) Verify(raw string) (jwtx.Claims, error) {
	claims, err := s.Verifier.Verify(raw)
	if err != nil {
		return jwtx.Claims{}, tokenError(err)
	}
	return claims, nil
}

func tokenError(err error) error {
	switch {
	case errors.Is(err, jwtx.ErrExpired):
		return fmt.Errorf("%w (%v)", domain.ErrTokenExpired, err)
	case errors.Is(err, jwtx.ErrInvalidSig), errors.Is(err, jwtx.ErrIssuer):
		return fmt.Errorf("%w (%v)", domain.ErrTokenInvalidSignature, err)
	default:
		return fmt.Errorf("%w (%v)", domain.ErrTokenMalformed, err)
	}
}
