package service

import (
	"errors"
	"testing"
	"time"

	"github.com/aussiebroadwan/orgdir/internal/orgdir/domain"
	"github.com/aussiebroadwan/orgdir/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestTokenService(t *testing.T) {
	t.Parallel()

	secret := []byte("0123456789abcdef0123456789abcdef")
	org := domain.Organization{ID: "org-id", Name: "SRM", PartitionID: "org_srm", AdminID: "admin-id"}

	for _, alg := range []string{"HS256", "HS384", "HS512"} {
		t.Run(alg, func(t *testing.T) {
			signer, err := jwtx.NewSignerHMAC(alg, secret)
			require.NoError(t, err)
			verifier, err := jwtx.NewVerifierHMAC(alg, secret, testIssuer, 0)
			require.NoError(t, err)

			now := time.Now()
			s := &TokenService{Signer: signer, Verifier: verifier, Issuer: testIssuer, TTL: 5 * time.Minute, Now: func() time.Time { return now }}

			tok, err := s.Issue("admin-id", org, []string{jwtx.AMRPassword})
			require.NoError(t, err)
			require.WithinDuration(t, now.Add(5*time.Minute), tok.ExpiresAt, time.Second)

			claims, err := s.Verify(tok.AccessToken)
			require.NoError(t, err)
			require.Equal(t, "admin-id", claims.Subject)
			require.Equal(t, "org-id", claims.OrgID)
			require.Equal(t, "org_srm", claims.PartitionID)
			require.NotEmpty(t, claims.ID)
		})
	}

	t.Run("error kinds are distinct", func(t *testing.T) {
		signer, err := jwtx.NewSignerHMAC("HS256", secret)
		require.NoError(t, err)
		verifier, err := jwtx.NewVerifierHMAC("HS256", secret, testIssuer, 0)
		require.NoError(t, err)
		s := &TokenService{Signer: signer, Verifier: verifier, Issuer: testIssuer, TTL: time.Minute}

		_, err = s.Verify("garbage")
		require.ErrorIs(t, err, domain.ErrTokenMalformed)

		s.Now = func() time.Time { return time.Now().Add(-time.Hour) }
		old, err := s.Issue("admin-id", org, nil)
		require.NoError(t, err)
		s.Now = nil
		_, err = s.Verify(old.AccessToken)
		require.ErrorIs(t, err, domain.ErrTokenExpired)

		wrongIssuer := &TokenService{Signer: signer, Issuer: "someone-else", TTL: time.Minute}
		tok, err := wrongIssuer.Issue("admin-id", org, nil)
		require.NoError(t, err)
		_, err = s.Verify(tok.AccessToken)
		require.ErrorIs(t, err, domain.ErrTokenInvalidSignature)

		for _, kind := range []error{domain.ErrTokenMalformed, domain.ErrTokenExpired, domain.ErrTokenInvalidSignature} {
			require.True(t, errors.Is(kind, domain.ErrToken))
		}
		require.False(t, errors.Is(domain.ErrTokenExpired, domain.ErrTokenMalformed))
	})

	t.Run("default ttl", func(t *testing.T) {
		s := &TokenService{}
		require.Equal(t, jwtx.DefaultAccessTokenTTL, s.ttl())
	})
}
