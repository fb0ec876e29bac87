package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// ErrSealed is returned when sealed data cannot be opened: it was tampered
// with, or it was sealed under a different pepper.
var ErrSealed = errors.New("cryptox: cannot open sealed value")

// sealKey derives the AES-256 key from the pepper. The label keeps it
// independent of the pepper's use in secret hashing.
func sealKey() ([]byte, error) {
	p, err := Pepper()
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256([]byte("orgdir-seal-v1:" + p))
	return sum[:], nil
}

func sealGCM() (cipher.AEAD, error) {
	key, err := sealKey()
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// SealString encrypts plaintext with AES-256-GCM for storage at rest.
// The output is base64([12-byte nonce][ciphertext][16-byte auth tag]).
func SealString(plaintext string) (string, error) {
	gcm, err := sealGCM()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawStdEncoding.EncodeToString(sealed), nil
}

// OpenString reverses SealString.
func OpenString(sealed string) (string, error) {
	gcm, err := sealGCM()
	if err != nil {
		return "", err
	}

	raw, err := base64.RawStdEncoding.DecodeString(sealed)
	if err != nil || len(raw) < gcm.NonceSize() {
		return "", ErrSealed
	}

	nonce, ciphertext := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrSealed
	}
	return string(plaintext), nil
}
