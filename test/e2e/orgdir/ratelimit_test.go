//go:build e2e

package orgdir_test

import (
	"net/http"
	"testing"

	"github.com/aussiebroadwan/orgdir/pkg/orgsdk"
	"github.com/stretchr/testify/require"
)

// TestLoginRateLimit runs with the production defaults.
func TestLoginRateLimit(t *testing.T) {
	client := orgsdk.NewSDKClient(setupContainer(t, nil))

	var limited bool
	for range 20 {
		_, err := client.Login(t.Context(), "nobody@example.com", "wrong", "")
		require.Error(t, err)
		if orgsdk.StatusCode(err) == http.StatusTooManyRequests {
			limited = true
			break
		}
		require.True(t, orgsdk.IsCode(err, orgsdk.ErrorCodeInvalidCredentials))
	}
	require.True(t, limited, "login should be rate limited")
}
