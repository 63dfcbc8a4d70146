// internal/workers/entitlements/check-feature-access/handler_test.go
package checkfeatureaccess

import (
	"context"
	"errors"
	"testing"
	"time"

	"subtrack-workers/internal/common/camunda/camundatest"
	apperrors "subtrack-workers/internal/common/errors"
	"subtrack-workers/internal/common/logger"
	"subtrack-workers/internal/common/usage"
	"subtrack-workers/internal/entitlements"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type stubUsage struct {
	snap usage.Snapshot
	err  error
}

func (s stubUsage) Load(_ context.Context, userID string) (usage.Snapshot, error) {
	if s.err != nil {
		return usage.Snapshot{}, s.err
	}
	snap := s.snap
	snap.UserID = userID
	return snap, nil
}

// blockingUsage waits until the lookup context is done.
type blockingUsage struct{}

func (blockingUsage) Load(ctx context.Context, _ string) (usage.Snapshot, error) {
	<-ctx.Done()
	return usage.Snapshot{}, ctx.Err()
}

func createTestHandler(t *testing.T, source UsageSource) *Handler {
	return NewHandler(&Config{Timeout: 5 * time.Second}, source, entitlements.NewEvaluator(nil), logger.NewTestLogger(t))
}

func snapshot(tier string, subs, members int) stubUsage {
	return stubUsage{snap: usage.Snapshot{Tier: tier, Subscriptions: subs, TeamMembers: members}}
}

func codeOf(t *testing.T, err error) apperrors.ErrorCode {
	t.Helper()
	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	return stdErr.Code
}

// ==========================
// Execute
// ==========================

func TestExecute_Decisions(t *testing.T) {
	tests := []struct {
		name         string
		source       stubUsage
		feature      string
		allowed      bool
		remaining    *int
		requiredTier string
	}{
		{"free under subscription cap", snapshot("free", 3, 0), "maxSubscriptions", true, intPtr(2), ""},
		{"free at subscription cap", snapshot("free", 5, 0), "maxSubscriptions", false, intPtr(0), "pro"},
		{"free has no bulk upload", snapshot("free", 0, 0), "bulkUpload", false, nil, "pro"},
		{"pro has bulk upload", snapshot("pro", 0, 0), "bulkUpload", true, nil, ""},
		{"priority support needs team", snapshot("pro", 0, 0), "prioritySupport", false, nil, "team"},
		{"team member cap", snapshot("team", 0, 50), "maxTeamMembers", false, intPtr(0), "free"},
		{"tier is case insensitive", snapshot("PRO", 0, 0), "smartInsights", true, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := createTestHandler(t, tt.source)
			out, err := h.Execute(context.Background(), &Input{UserID: "u1", Feature: tt.feature})

			require.NoError(t, err)
			assert.Equal(t, tt.allowed, out.Allowed)
			assert.Equal(t, tt.remaining, out.Remaining)
			assert.Equal(t, tt.requiredTier, out.RequiredTier)
		})
	}
}

func TestExecute_Errors(t *testing.T) {
	tests := []struct {
		name   string
		source stubUsage
		input  Input
		code   apperrors.ErrorCode
	}{
		{"missing user", snapshot("free", 0, 0), Input{Feature: "bulkUpload"}, apperrors.ErrCodeInvalidInput},
		{"unknown feature", snapshot("free", 0, 0), Input{UserID: "u1", Feature: "teleport"}, apperrors.ErrCodeFeatureUnknown},
		{"unknown tier", snapshot("enterprise", 0, 0), Input{UserID: "u1", Feature: "bulkUpload"}, apperrors.ErrCodeInvalidInput},
		{"store down", stubUsage{err: errors.New("db down")}, Input{UserID: "u1", Feature: "bulkUpload"}, apperrors.ErrCodeEntitlementCheckFailed},
		{"enforced denial", snapshot("free", 0, 0), Input{UserID: "u1", Feature: "bulkUpload", Enforce: true}, apperrors.ErrCodeFeatureAccessDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := createTestHandler(t, tt.source)
			_, err := h.Execute(context.Background(), &tt.input)
			assert.Equal(t, tt.code, codeOf(t, err))
		})
	}
}

func TestExecute_EnforcedDenialCarriesRequiredTier(t *testing.T) {
	h := createTestHandler(t, snapshot("free", 0, 0))
	_, err := h.Execute(context.Background(), &Input{UserID: "u1", Feature: "customReports", Enforce: true})

	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, "pro", stdErr.Metadata["requiredTier"])
}

func TestExecute_WithUsageStore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	rdb, redisMock := redismock.NewClientMock()

	redisMock.ExpectGet("usage:u9").RedisNil()
	mock.ExpectQuery(`SELECT COALESCE`).
		WithArgs("u9").
		WillReturnRows(sqlmock.NewRows([]string{"tier", "subs", "members"}).AddRow("free", 4, 0))
	redisMock.ExpectSet("usage:u9",
		[]byte(`{"userId":"u9","tier":"free","subscriptions":4,"teamMembers":0}`), time.Minute).SetVal("OK")

	store := usage.NewStore(db, rdb, time.Minute, logger.NewNoOpLogger())
	h := createTestHandler(t, store)

	out, err := h.Execute(context.Background(), &Input{UserID: "u9", Feature: "maxSubscriptions"})
	require.NoError(t, err)
	assert.True(t, out.Allowed)
	assert.Equal(t, 1, *out.Remaining)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

// ==========================
// Handle
// ==========================

func TestHandle_Completes(t *testing.T) {
	client := camundatest.NewJobClient()
	job := camundatest.Job(t, 1, TaskType, 3, Input{UserID: "u1", Feature: "maxSubscriptions"})

	err := createTestHandler(t, snapshot("pro", 40, 0)).Handle(context.Background(), client, job)

	require.NoError(t, err)
	vars := client.CompletedVariables(t)
	assert.Equal(t, true, vars["allowed"])
	assert.Nil(t, vars["remaining"])
	assert.Equal(t, "pro", vars["tier"])
}

func TestHandle_ThrowsDenied(t *testing.T) {
	client := camundatest.NewJobClient()
	job := camundatest.Job(t, 2, TaskType, 3, Input{UserID: "u1", Feature: "adFree", Enforce: true})

	err := createTestHandler(t, snapshot("free", 0, 0)).Handle(context.Background(), client, job)

	require.Error(t, err)
	assert.Equal(t, "FEATURE_ACCESS_DENIED", client.ThrownCode(t))
	assert.Empty(t, client.Failed)
}

func TestHandle_FailsRetryable(t *testing.T) {
	client := camundatest.NewJobClient()
	job := camundatest.Job(t, 3, TaskType, 3, Input{UserID: "u1", Feature: "adFree"})

	err := createTestHandler(t, stubUsage{err: errors.New("timeout")}).Handle(context.Background(), client, job)

	require.Error(t, err)
	require.Len(t, client.Failed, 1)
	assert.Equal(t, int32(2), client.Failed[0].Retries)
	assert.Empty(t, client.Thrown)
}

func TestHandle_ReportsFailureAfterTimeout(t *testing.T) {
	client := camundatest.NewJobClient()
	job := camundatest.Job(t, 5, TaskType, 3, Input{UserID: "u1", Feature: "adFree"})
	h := NewHandler(&Config{Timeout: 20 * time.Millisecond}, blockingUsage{}, entitlements.NewEvaluator(nil), logger.NewTestLogger(t))

	err := h.Handle(context.Background(), client, job)

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeEntitlementCheckFailed, codeOf(t, err))
	require.Len(t, client.Failed, 1)
	assert.Equal(t, int32(2), client.Failed[0].Retries)
}

func TestHandle_BadVariables(t *testing.T) {
	client := camundatest.NewJobClient()
	job := camundatest.Job(t, 4, TaskType, 3, "{not json")

	err := createTestHandler(t, snapshot("free", 0, 0)).Handle(context.Background(), client, job)

	require.Error(t, err)
	assert.Equal(t, "PARSE_ERROR", client.ThrownCode(t))
}

func intPtr(n int) *int { return &n }
