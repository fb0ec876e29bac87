package app

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/orgdir/internal/orgdir/service"
	"github.com/aussiebroadwan/orgdir/pkg/cryptox"
	"github.com/aussiebroadwan/orgdir/pkg/jwtx"
)

// tokenLeeway absorbs clock skew between replicas sharing a secret.
const tokenLeeway = 5 * time.Second

// InitTokens builds the token service from the configured HMAC secret.
//
// Without TOKEN_SECRET (only allowed in dev) a random secret is generated on
// startup; every token becomes invalid when the service restarts.
func InitTokens(cfg Config, logger *slog.Logger) (*service.TokenService, error) {
	secret := []byte(cfg.TokenSecret)
	if len(secret) == 0 {
		ephemeral, err := cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			return nil, fmt.Errorf("generate token secret: %w", err)
		}
		secret = []byte(ephemeral)
		logger.Warn("TOKEN_SECRET not set, using an ephemeral secret; tokens will not survive a restart")
	}

	signer, err := jwtx.NewSignerHMAC(cfg.TokenAlgorithm, secret)
	if err != nil {
		return nil, fmt.Errorf("create token signer: %w", err)
	}
	verifier, err := jwtx.NewVerifierHMAC(cfg.TokenAlgorithm, secret, cfg.TokenIssuer, tokenLeeway)
	if err != nil {
		return nil, fmt.Errorf("create token verifier: %w", err)
	}

	logger.Info("token signer ready", "algorithm", signer.Alg(), "ttl", cfg.TokenTTL, "issuer", cfg.TokenIssuer)

	return &service.TokenService{
		Signer:   signer,
		Verifier: verifier,
		Issuer:   cfg.TokenIssuer,
		TTL:      cfg.TokenTTL,
	}, nil
}
