package httpx

import (
	"context"

	"github.com/aussiebroadwan/orgdir/pkg/cryptox"
)

type ctxKey string

const (
	CtxKeyBearer      ctxKey = "bearer"
	CtxKeyFingerprint ctxKey = "bearer_fingerprint"
)

func contextWithBearer(ctx context.Context, raw string) context.Context {
	ctx = context.WithValue(ctx, CtxKeyBearer, raw)
	ctx = context.WithValue(ctx, CtxKeyFingerprint, cryptox.FingerprintToken(raw))
	return ctx
}

// BearerFromContext returns the raw bearer token RequireBearer accepted.
func BearerFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(CtxKeyBearer).(string)
	return v, ok && v != ""
}

func fingerprintFromContext(ctx context.Context) string {
	v, _ := ctx.Value(CtxKeyFingerprint).(string)
	return v
}
