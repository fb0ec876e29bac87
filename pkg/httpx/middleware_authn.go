package httpx

import (
	"net/http"
	"strings"
)

// RequireBearer rejects requests without an "Authorization: Bearer" header
// and stores the raw token in the request context. It does not verify the
// token: what a token grants depends on the resource it is presented for, so
// verification belongs to the handler's access check.
func RequireBearer() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := BearerToken(r)
			if !ok {
				WriteBearerError(w, "missing bearer token")
				return
			}
			next.ServeHTTP(w, r.WithContext(contextWithBearer(r.Context(), raw)))
		})
	}
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	scheme, raw, found := strings.Cut(authz, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

// WriteBearerError writes an RFC 6750 invalid_token challenge.
func WriteBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteJSON(w, http.StatusUnauthorized, map[string]string{
		"error":             "invalid_token",
		"error_description": desc,
	})
}
