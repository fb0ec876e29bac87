package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultAccessTokenTTL is the lifetime of an admin access token when the
// service does not configure one.
const DefaultAccessTokenTTL = 15 * time.Minute

// Authentication method references (RFC 8176) carried in the "amr" claim.
const (
	AMRPassword = "pwd"
	AMROTP      = "otp"
	AMRMFA      = "mfa"
)

// Claims are the admin access-token claims. The subject is the admin
// credential id; OrgID is the immutable organization id the token is scoped
// to. OrgName and PartitionID are a snapshot taken at issuance and are only
// informational: a rename does not invalidate the token.
type Claims struct {
	jwt.RegisteredClaims

	OrgID       string `json:"org_id"`
	OrgName     string `json:"org_name,omitempty"`
	PartitionID string `json:"partition_id,omitempty"`

	// Authentication Methods Reference ["pwd"] or ["pwd","otp","mfa"]
	AMR []string `json:"amr,omitempty"`
}

// NewOrgClaims builds claims for an admin of the given organization.
func NewOrgClaims(
	adminID, orgID, orgName, partitionID string,
	amr []string,
	ttl time.Duration,
	issuer string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   adminID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		OrgID:       orgID,
		OrgName:     orgName,
		PartitionID: partitionID,
		AMR:         amr,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateSubject ensures the token names both an admin and an organization.
func (c *Claims) ValidateSubject() error {
	if c.Subject == "" || c.OrgID == "" {
		return ErrInvalidClaim
	}
	return nil
}
