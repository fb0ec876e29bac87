package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/aussiebroadwan/orgdir/internal/orgdir/domain"
	"github.com/aussiebroadwan/orgdir/internal/orgdir/store"
	"github.com/aussiebroadwan/orgdir/pkg/cryptox"
	"github.com/aussiebroadwan/orgdir/pkg/idx"
)

// maxSecretLength bounds the work a single hash can cost.
const maxSecretLength = 1024

// CredentialStore owns admin credentials. Plain secrets only ever pass
// through; the store sees argon2id hashes.
type CredentialStore struct {
	Store store.Store
}

// Create hashes secret and stores a new credential for email.
func (c *CredentialStore) Create(ctx context.Context, email, secret string) (domain.AdminCredential, error) {
	return c.create(ctx, idx.New().String(), email, secret)
}

func (c *CredentialStore) create(ctx context.Context, id, email, secret string) (domain.AdminCredential, error) {
	email, err := validateEmail(email)
	if err != nil {
		return domain.AdminCredential{}, err
	}
	if err := validateSecret(secret); err != nil {
		return domain.AdminCredential{}, err
	}

	hash, err := cryptox.HashPassword(secret)
	if err != nil {
		return domain.AdminCredential{}, fmt.Errorf("hash secret: %w", err)
	}

	now := time.Now().UTC()
	a := domain.AdminCredential{
		ID:         id,
		Email:      email,
		EmailKey:   emailKey(email),
		SecretHash: hash,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := c.Store.Admins().CreateAdmin(ctx, a); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.AdminCredential{}, domain.ErrDuplicateEmail
		}
		return domain.AdminCredential{}, fmt.Errorf("create admin: %w", err)
	}
	return a, nil
}

// Verify checks email and secret. An unknown email still pays for one hash
// verification, and every failure is ErrInvalidCredentials.
func (c *CredentialStore) Verify(ctx context.Context, email, secret string) (domain.AdminCredential, error) {
	a, err := c.Store.Admins().GetAdminByEmailKey(ctx, emailKey(email))
	if errors.Is(err, store.ErrNotFound) {
		_ = cryptox.DummyVerify(secret)
		return domain.AdminCredential{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return domain.AdminCredential{}, fmt.Errorf("lookup admin: %w", err)
	}

	if err := cryptox.VerifyPassword(secret, a.SecretHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) || errors.Is(err, cryptox.ErrInvalidHash) {
			return domain.AdminCredential{}, domain.ErrInvalidCredentials
		}
		return domain.AdminCredential{}, fmt.Errorf("verify secret: %w", err)
	}
	return a, nil
}

func (c *CredentialStore) Get(ctx context.Context, adminID string) (domain.AdminCredential, error) {
	a, err := c.Store.Admins().GetAdminByID(ctx, adminID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.AdminCredential{}, domain.ErrInvalidCredentials
	}
	return a, err
}

// Snapshot captures what Update may overwrite so Restore can undo it.
func (c *CredentialStore) Snapshot(ctx context.Context, adminID string) (domain.CredentialSnapshot, error) {
	a, err := c.Get(ctx, adminID)
	if err != nil {
		return domain.CredentialSnapshot{}, err
	}
	return domain.CredentialSnapshot{AdminID: a.ID, Email: a.Email, SecretHash: a.SecretHash}, nil
}

// Update changes the email, the secret, or both. Nil fields are kept. An
// email owned by another credential fails with ErrDuplicateEmail and leaves
// the record untouched.
func (c *CredentialStore) Update(ctx context.Context, adminID string, newEmail, newSecret *string) (domain.AdminCredential, error) {
	a, err := c.Get(ctx, adminID)
	if err != nil {
		return domain.AdminCredential{}, err
	}
	if newEmail == nil && newSecret == nil {
		return a, nil
	}

	if newEmail != nil {
		email, err := validateEmail(*newEmail)
		if err != nil {
			return domain.AdminCredential{}, err
		}
		a.Email = email
		a.EmailKey = emailKey(email)
	}
	if newSecret != nil {
		if err := validateSecret(*newSecret); err != nil {
			return domain.AdminCredential{}, err
		}
		hash, err := cryptox.HashPassword(*newSecret)
		if err != nil {
			return domain.AdminCredential{}, fmt.Errorf("hash secret: %w", err)
		}
		a.SecretHash = hash
	}

	if err := c.Store.Admins().UpdateAdminCredential(ctx, a.ID, a.Email, a.EmailKey, a.SecretHash); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.AdminCredential{}, domain.ErrDuplicateEmail
		}
		return domain.AdminCredential{}, fmt.Errorf("update admin: %w", err)
	}
	return a, nil
}

// Restore writes back a snapshot taken before Update. A credential that has
// since been deleted is left alone.
func (c *CredentialStore) Restore(ctx context.Context, snap domain.CredentialSnapshot) error {
	err := c.Store.Admins().UpdateAdminCredential(ctx, snap.AdminID, snap.Email, emailKey(snap.Email), snap.SecretHash)
	switch {
	case err == nil, errors.Is(err, store.ErrNotFound):
		return nil
	case errors.Is(err, store.ErrAlreadyExists):
		return domain.ErrDuplicateEmail
	default:
		return fmt.Errorf("restore admin: %w", err)
	}
}

// Delete removes a credential. Deleting a missing credential succeeds.
func (c *CredentialStore) Delete(ctx context.Context, adminID string) error {
	err := c.Store.Admins().DeleteAdmin(ctx, adminID)
	if err == nil || errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return fmt.Errorf("delete admin: %w", err)
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: admin_email must be a plain email address", domain.ErrInvalidRequest)
	}
	return email, nil
}

func validateSecret(secret string) error {
	if strings.TrimSpace(secret) == "" {
		return fmt.Errorf("%w: admin_secret is required", domain.ErrInvalidRequest)
	}
	if len(secret) > maxSecretLength {
		return fmt.Errorf("%w: admin_secret is too long", domain.ErrInvalidRequest)
	}
	return nil
}
