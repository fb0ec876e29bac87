package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

var (
	ErrMalformed    = errors.New("jwtx: malformed token")
	ErrInvalidSig   = errors.New("jwtx: invalid signature")
	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)

// HMACVerifier validates tokens produced by an HMACSigner with the same
// algorithm and secret. Tokens using any other algorithm are rejected as
// signature failures.
type HMACVerifier struct {
	method *jwt.SigningMethodHMAC
	secret []byte
	issuer string
	leeway time.Duration
}

// NewVerifierHMAC creates a verifier for alg. An empty issuer is not enforced.
func NewVerifierHMAC(alg string, secret []byte, issuer string, leeway time.Duration) (*HMACVerifier, error) {
	method, err := hmacMethod(alg)
	if err != nil {
		return nil, err
	}
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("jwtx: hmac secret must be at least %d bytes", MinSecretLength)
	}
	return &HMACVerifier{method: method, secret: secret, issuer: issuer, leeway: leeway}, nil
}

// Verify validates the JWT string and returns its parsed Claims. Every
// failure wraps exactly one of the jwtx sentinel errors.
func (v *HMACVerifier) Verify(tokenStr string) (Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{v.method.Alg()}),
		jwt.WithLeeway(v.leeway),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var claims Claims
	token, err := jwt.NewParser(opts...).ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return Claims{}, classify(err)
	}
	if !token.Valid {
		return Claims{}, ErrInvalidClaim
	}

	if err := claims.ValidateSubject(); err != nil {
		return Claims{}, err
	}

	return claims, nil
}

// classify maps golang-jwt's error tree onto our sentinels. Signature
// problems are checked before claim problems because the parser only
// validates claims of a correctly signed token.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrInvalidSig, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return fmt.Errorf("%w: %v", ErrNotYetValid, err)
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return fmt.Errorf("%w: %v", ErrIssuer, err)
	default:
		return fmt.Errorf("%w: %v", ErrInvalidClaim, err)
	}
}
