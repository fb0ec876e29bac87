//go:build e2e

package orgdir_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/orgdir/pkg/orgsdk"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

func TestTOTPLogin(t *testing.T) {
	client := orgsdk.NewSDKClient(setupContainer(t, relaxedLimits()))
	ctx := t.Context()

	_, sess := createOrganization(t, client, "SRM", "admin@srm.example")

	enrollment, err := sess.EnrollTOTP(ctx, "SRM")
	require.NoError(t, err)

	code, err := totp.GenerateCode(enrollment.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, sess.VerifyTOTP(ctx, "SRM", code))

	_, err = client.Login(ctx, "admin@srm.example", adminSecret, "")
	require.True(t, orgsdk.IsCode(err, orgsdk.ErrorCodeInvalidCredentials))

	code, err = totp.GenerateCode(enrollment.Secret, time.Now())
	require.NoError(t, err)
	_, err = client.Login(ctx, "admin@srm.example", adminSecret, code)
	require.NoError(t, err)
}
