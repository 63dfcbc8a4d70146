package usage

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"subtrack-workers/internal/common/logger"
	"subtrack-workers/internal/entitlements"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const queryPattern = `SELECT COALESCE\(\(SELECT tier FROM user_plans WHERE user_id = \$1\), 'free'\)`

// ==========================
// Load
// ==========================

func TestLoad_CacheHit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	rdb, redisMock := redismock.NewClientMock()

	cached, _ := json.Marshal(Snapshot{UserID: "u1", Tier: "pro", Subscriptions: 12})
	redisMock.ExpectGet("usage:u1").SetVal(string(cached))

	store := NewStore(db, rdb, time.Minute, logger.NewTestLogger(t))
	snap, err := store.Load(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, "pro", snap.Tier)
	assert.Equal(t, 12, snap.Usage().Get(entitlements.UsageSubscriptions))
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestLoad_CacheMissQueriesAndCaches(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	rdb, redisMock := redismock.NewClientMock()

	redisMock.ExpectGet("usage:u2").RedisNil()
	mock.ExpectQuery(queryPattern).
		WithArgs("u2").
		WillReturnRows(sqlmock.NewRows([]string{"tier", "subs", "members"}).AddRow("free", 3, 0))

	want := Snapshot{UserID: "u2", Tier: "free", Subscriptions: 3}
	data, _ := json.Marshal(want)
	redisMock.ExpectSet("usage:u2", data, time.Minute).SetVal("OK")

	store := NewStore(db, rdb, time.Minute, logger.NewTestLogger(t))
	snap, err := store.Load(context.Background(), "u2")

	require.NoError(t, err)
	assert.Equal(t, want, snap)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestLoad_RedisDownFallsBackToDB(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	rdb, redisMock := redismock.NewClientMock()

	redisMock.ExpectGet("usage:u3").SetErr(errors.New("connection refused"))
	mock.ExpectQuery(queryPattern).
		WithArgs("u3").
		WillReturnRows(sqlmock.NewRows([]string{"tier", "subs", "members"}).AddRow("team", 40, 4))
	data, _ := json.Marshal(Snapshot{UserID: "u3", Tier: "team", Subscriptions: 40, TeamMembers: 4})
	redisMock.ExpectSet("usage:u3", data, time.Minute).SetErr(errors.New("connection refused"))

	store := NewStore(db, rdb, time.Minute, logger.NewNoOpLogger())
	snap, err := store.Load(context.Background(), "u3")

	require.NoError(t, err)
	assert.Equal(t, 4, snap.TeamMembers)
}

func TestLoad_DBError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(queryPattern).WithArgs("u4").WillReturnError(errors.New("db down"))

	store := NewStore(db, nil, time.Minute, logger.NewNoOpLogger())
	_, err = store.Load(context.Background(), "u4")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

// ==========================
// Invalidate
// ==========================

func TestInvalidate(t *testing.T) {
	rdb, redisMock := redismock.NewClientMock()
	redisMock.ExpectDel("usage:u5").SetVal(1)

	store := NewStore(nil, rdb, time.Minute, logger.NewNoOpLogger())
	assert.NoError(t, store.Invalidate(context.Background(), "u5"))
	assert.NoError(t, redisMock.ExpectationsWereMet())

	assert.NoError(t, NewStore(nil, nil, 0, logger.NewNoOpLogger()).Invalidate(context.Background(), "u5"))
}
