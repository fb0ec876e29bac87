package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aussiebroadwan/orgdir/internal/orgdir/domain"
	"github.com/aussiebroadwan/orgdir/internal/orgdir/store"
	"github.com/aussiebroadwan/orgdir/pkg/cryptox"
	"github.com/aussiebroadwan/orgdir/pkg/slogx"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// TOTPService manages the optional second factor on admin credentials.
type TOTPService struct {
	Store  store.Store
	Gate   *AccessGate
	Issuer string // shown in authenticator apps
}

// Enroll generates a secret for the organization's admin. TOTP is not
// enforced until Verify confirms a code from it.
func (s *TOTPService) Enroll(ctx context.Context, rawToken, orgName string) (domain.TOTPEnrollment, error) {
	grant, err := s.Gate.Authorize(ctx, rawToken, orgName)
	if err != nil {
		return domain.TOTPEnrollment{}, err
	}

	admin, err := s.admin(ctx, grant.AdminID)
	if err != nil {
		return domain.TOTPEnrollment{}, err
	}
	if admin.TOTPEnabled() {
		return domain.TOTPEnrollment{}, domain.ErrTOTPAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: admin.Email,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return domain.TOTPEnrollment{}, fmt.Errorf("generate totp key: %w", err)
	}

	sealed, err := cryptox.SealString(key.Secret())
	if err != nil {
		return domain.TOTPEnrollment{}, fmt.Errorf("seal totp secret: %w", err)
	}
	if err := s.Store.Admins().SetTOTPSecret(ctx, admin.ID, sealed); err != nil {
		return domain.TOTPEnrollment{}, fmt.Errorf("store totp secret: %w", err)
	}

	return domain.TOTPEnrollment{Secret: key.Secret(), URL: key.URL()}, nil
}

// Verify confirms enrollment with a current code and turns TOTP on.
func (s *TOTPService) Verify(ctx context.Context, rawToken, orgName, code string) error {
	grant, err := s.Gate.Authorize(ctx, rawToken, orgName)
	if err != nil {
		return err
	}

	admin, err := s.admin(ctx, grant.AdminID)
	if err != nil {
		return err
	}
	if admin.TOTPEnabled() {
		return domain.ErrTOTPAlreadyEnabled
	}
	if admin.TOTPSecret == nil || *admin.TOTPSecret == "" {
		return domain.ErrTOTPNotEnrolled
	}
	ok, err := checkTOTPCode(code, admin)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrInvalidTOTPCode
	}

	if err := s.Store.Admins().EnableTOTP(ctx, admin.ID); err != nil {
		return fmt.Errorf("enable totp: %w", err)
	}
	slogx.FromContext(ctx).Info("totp enabled", slog.String("admin_id", admin.ID))
	return nil
}

// Disable turns TOTP off. It needs a current code.
func (s *TOTPService) Disable(ctx context.Context, rawToken, orgName, code string) error {
	grant, err := s.Gate.Authorize(ctx, rawToken, orgName)
	if err != nil {
		return err
	}

	admin, err := s.admin(ctx, grant.AdminID)
	if err != nil {
		return err
	}
	if !admin.TOTPEnabled() {
		return domain.ErrTOTPNotEnrolled
	}
	ok, err := checkTOTPCode(code, admin)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrInvalidTOTPCode
	}

	if err := s.Store.Admins().DisableTOTP(ctx, admin.ID); err != nil {
		return fmt.Errorf("disable totp: %w", err)
	}
	slogx.FromContext(ctx).Info("totp disabled", slog.String("admin_id", admin.ID))
	return nil
}

func (s *TOTPService) admin(ctx context.Context, adminID string) (domain.AdminCredential, error) {
	a, err := s.Store.Admins().GetAdminByID(ctx, adminID)
	if err != nil {
		return domain.AdminCredential{}, fmt.Errorf("get admin: %w", err)
	}
	return a, nil
}

// checkTOTPCode validates code against the admin's sealed TOTP secret.
func checkTOTPCode(code string, admin domain.AdminCredential) (bool, error) {
	if admin.TOTPSecret == nil {
		return false, nil
	}
	secret, err := cryptox.OpenString(*admin.TOTPSecret)
	if err != nil {
		return false, fmt.Errorf("open totp secret of admin %s: %w", admin.ID, err)
	}
	return validateTOTPCode(code, secret), nil
}

func validateTOTPCode(code, secret string) bool {
	code = strings.TrimSpace(code)
	if code == "" || secret == "" {
		return false
	}
	return totp.Validate(code, secret)
}
