package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Configuration for Argon2id hashing.
const (
	memory      = 19 * 1024 // Memory usage in KiB (19 MiB)
	iterations  = 2         // Iteration count
	parallelism = 1         // Number of threads
	keyLength   = 32        // Length of the generated hash
	saltLength  = 16        // Length of the salt
)

// ErrNoPepper is returned by the hash functions before a pepper is configured.
var ErrNoPepper = errors.New("cryptox: pepper not configured")

var (
	pepperMu sync.RWMutex
	pepper   string
)

// Pepper returns the secret mixed into every password hash.
func Pepper() (string, error) {
	pepperMu.RLock()
	defer pepperMu.RUnlock()

	if pepper == "" {
		return "", ErrNoPepper
	}
	return pepper, nil
}

// SetPepper installs p directly. Tests use this; services load from a file.
func SetPepper(p string) {
	pepperMu.Lock()
	defer pepperMu.Unlock()

	pepper = p
}

// LoadPepper reads the pepper from file, generating and persisting a new one
// on first start. Losing this file invalidates every stored credential.
func LoadPepper(file string) error {
	file = filepath.Clean(file)
	if err := os.MkdirAll(filepath.Dir(file), 0o750); err != nil {
		return fmt.Errorf("create pepper dir: %w", err)
	}

	raw, err := os.ReadFile(file) // #nosec G304 - operator supplied path
	switch {
	case err == nil:
		p := strings.TrimSpace(string(raw))
		if p == "" {
			return fmt.Errorf("pepper file %s is empty", file)
		}
		SetPepper(p)
		return nil

	case errors.Is(err, os.ErrNotExist):
		buf := make([]byte, keyLength)
		if _, err := rand.Read(buf); err != nil {
			return err
		}
		p := base64.RawURLEncoding.EncodeToString(buf)
		if err := os.WriteFile(file, []byte(p), 0o600); err != nil {
			return fmt.Errorf("write pepper: %w", err)
		}
		SetPepper(p)
		return nil

	default:
		return fmt.Errorf("read pepper: %w", err)
	}
}
