package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the shortest HMAC secret accepted, in bytes.
const MinSecretLength = 32

// Signer is our interface for anything that can sign JWTs.
type Signer interface {
	Alg() string
	Sign(Claims) (string, error)
	Validate() error
}

// HMACSigner signs tokens with a shared secret using HS256, HS384 or HS512.
type HMACSigner struct {
	method *jwt.SigningMethodHMAC
	secret []byte
}

// NewSignerHMAC creates an HMAC signer for alg.
func NewSignerHMAC(alg string, secret []byte) (*HMACSigner, error) {
	method, err := hmacMethod(alg)
	if err != nil {
		return nil, err
	}

	s := &HMACSigner{method: method, secret: secret}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *HMACSigner) Alg() string { return s.method.Alg() }

// Sign takes your claims and turns them into a signed JWT string.
func (s *HMACSigner) Sign(claims Claims) (string, error) {
	return jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
}

// Validate does a quick sanity check on the secret.
func (s *HMACSigner) Validate() error {
	if len(s.secret) < MinSecretLength {
		return fmt.Errorf("jwtx: hmac secret must be at least %d bytes", MinSecretLength)
	}
	return nil
}

func hmacMethod(alg string) (*jwt.SigningMethodHMAC, error) {
	switch alg {
	case jwt.SigningMethodHS256.Alg():
		return jwt.SigningMethodHS256, nil
	case jwt.SigningMethodHS384.Alg():
		return jwt.SigningMethodHS384, nil
	case jwt.SigningMethodHS512.Alg():
		return jwt.SigningMethodHS512, nil
	case "":
		return nil, errors.New("jwtx: algorithm is required")
	default:
		return nil, fmt.Errorf("jwtx: unsupported algorithm %q", alg)
	}
}
