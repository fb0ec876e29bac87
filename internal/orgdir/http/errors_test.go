package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/orgdir/internal/orgdir/domain"
	"github.com/aussiebroadwan/orgdir/pkg/orgsdk"
	"github.com/stretchr/testify/require"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid name", fmt.Errorf("%w: empty", domain.ErrInvalidName), http.StatusBadRequest, orgsdk.ErrorCodeInvalidName},
		{"duplicate organization", domain.ErrDuplicateOrganization, http.StatusConflict, orgsdk.ErrorCodeDuplicateOrganization},
		{"partition taken", domain.ErrPartitionExists, http.StatusConflict, orgsdk.ErrorCodeDuplicateOrganization},
		{"partition gone", domain.ErrPartitionNotFound, http.StatusNotFound, orgsdk.ErrorCodeOrganizationNotFound},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden, orgsdk.ErrorCodeForbidden},
		{"expired token", domain.ErrTokenExpired, http.StatusUnauthorized, orgsdk.ErrorCodeInvalidToken},
		{"bad signature", domain.ErrTokenInvalidSignature, http.StatusUnauthorized, orgsdk.ErrorCodeInvalidToken},
		{"busy", domain.ErrBusy, http.StatusServiceUnavailable, orgsdk.ErrorCodeStorageUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, orgsdk.ErrorCodeServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := recordError(t, tt.err)
			require.Equal(t, tt.status, resp.status)
			require.Equal(t, tt.code, resp.body.Error)
		})
	}
}

func TestWriteError_Lifecycle(t *testing.T) {
	t.Run("rolled back keeps the cause", func(t *testing.T) {
		resp := recordError(t, &domain.LifecycleError{
			Op:           domain.OpCreate,
			Organization: "SRM",
			JournalID:    "01J0000000000000000000000",
			Completed:    []domain.LifecycleStep{domain.StepCredentialCreated},
			Err:          domain.ErrDuplicateEmail,
		})
		require.Equal(t, http.StatusConflict, resp.status)
		require.Equal(t, orgsdk.ErrorCodeDuplicateEmail, resp.body.Error)
		require.Equal(t, "01J0000000000000000000000", resp.body.JournalID)
		require.Equal(t, []string{"credential_created"}, resp.body.CompletedSteps)
	})

	t.Run("incomplete rollback", func(t *testing.T) {
		resp := recordError(t, &domain.LifecycleError{
			Op:          domain.OpUpdate,
			JournalID:   "01J0000000000000000000001",
			Completed:   []domain.LifecycleStep{domain.StepPartitionRenamed},
			Err:         domain.ErrStorageUnavailable,
			RollbackErr: domain.ErrStorageUnavailable,
		})
		require.Equal(t, http.StatusInternalServerError, resp.status)
		require.Equal(t, orgsdk.ErrorCodeLifecycleFailed, resp.body.Error)
		require.Equal(t, "01J0000000000000000000001", resp.body.JournalID)
	})
}

type recordedError struct {
	status int
	body   orgsdk.ErrorResponse
}

func recordError(t *testing.T, err error) recordedError {
	t.Helper()
	w := httptest.NewRecorder()
	writeError(w, httptest.NewRequest(http.MethodGet, "/", nil), err)

	var body orgsdk.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return recordedError{status: w.Code, body: body}
}
