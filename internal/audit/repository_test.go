package audit

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bosves/bosves-api/internal/infrastructure/database"
	_ "github.com/bosves/bosves-api/migrations"
)

func setupTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	db, err := database.Open(database.Config{Path: database.MemoryPath, BusyTimeout: 1})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // test cleanup

	_, err = db.Migrate(context.Background())
	require.NoError(t, err)

	return NewSQLiteRepository(db.DB)
}

func TestCreateAndList(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 31, 8, 0, 0, 0, time.UTC)
	entries := []*AuditLog{
		{Action: ActionCreate, EntityType: EntityWagon, EntityID: "1", Subject: "weighbridge-2", Details: map[string]any{"nvag": "52345678"}, CreatedAt: base},
		{Action: ActionUpdate, EntityType: EntityWagon, EntityID: "1", Subject: "weighbridge-2", CreatedAt: base.Add(time.Minute)},
		{Action: ActionDelete, EntityType: EntityWagon, EntityID: "1", Subject: "supervisor", CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, e := range entries {
		require.NoError(t, repo.Create(ctx, e))
		assert.NotEmpty(t, e.ID)
		assert.Equal(t, SourceAPI, e.Source)
	}

	result, err := repo.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, defaultLimit, result.Limit)
	require.Len(t, result.Logs, 3)

	assert.Equal(t, ActionDelete, result.Logs[0].Action, "newest first")
	assert.Equal(t, ActionCreate, result.Logs[2].Action)
	assert.Equal(t, "52345678", result.Logs[2].Details["nvag"])
	assert.True(t, result.Logs[2].CreatedAt.Equal(base))
	assert.Equal(t, "weighbridge-2", result.Logs[2].Subject)
}

func TestList_Filters(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	for _, e := range []*AuditLog{
		{Action: ActionCreate, EntityType: EntityWagon, EntityID: "1", Subject: "a"},
		{Action: ActionCreate, EntityType: EntityWagon, EntityID: "2", Subject: "b"},
		{Action: ActionDelete, EntityType: EntityWagon, EntityID: "2", Subject: "b"},
	} {
		require.NoError(t, repo.Create(ctx, e))
	}

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"by action", Filter{Action: ActionCreate}, 2},
		{"by entity", Filter{EntityType: EntityWagon, EntityID: "2"}, 2},
		{"by subject", Filter{Subject: "a"}, 1},
		{"combined", Filter{Action: ActionDelete, Subject: "b"}, 1},
		{"no match", Filter{Subject: "nobody"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Total)
			assert.Len(t, result.Logs, tt.want)
			assert.NotNil(t, result.Logs)
		})
	}
}

func TestList_Pagination(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, &AuditLog{Action: ActionCreate, EntityType: EntityWagon}))
	}

	result, err := repo.List(ctx, Filter{Limit: 2, Offset: 4})
	require.NoError(t, err)
	assert.Equal(t, 5, result.Total)
	assert.Len(t, result.Logs, 1)

	result, err = repo.List(ctx, Filter{Limit: 1000, Offset: -3})
	require.NoError(t, err)
	assert.Equal(t, maxLimit, result.Limit)
	assert.Equal(t, 0, result.Offset)
	assert.Len(t, result.Logs, 5)
}

func TestCreate_MarshalError(t *testing.T) {
	repo := setupTestRepo(t)

	err := repo.Create(context.Background(), &AuditLog{
		Action:     ActionCreate,
		EntityType: EntityWagon,
		Details:    map[string]any{"bad": make(chan int)},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "marshalling audit details")
}

func TestCreate_DatabaseFault(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO audit_logs").WillReturnError(assert.AnError)

	err = NewSQLiteRepository(db).Create(context.Background(), &AuditLog{Action: ActionCreate, EntityType: EntityWagon})
	require.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}
