package database

import (
	"context"
	"embed"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//go:embed testdata/*.sql
var testMigrationsFS embed.FS

// useTestMigrations points the package at testdata for the duration of t.
func useTestMigrations(t *testing.T) {
	t.Helper()
	origFS, origDir := MigrationsFS, MigrationsDir
	MigrationsFS, MigrationsDir = testMigrationsFS, "testdata"
	t.Cleanup(func() { MigrationsFS, MigrationsDir = origFS, origDir })
}

func tableExists(t *testing.T, db *DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&n)
	require.NoError(t, err)
	return n == 1
}

func TestMigrate(t *testing.T) {
	useTestMigrations(t)
	db := openTestDB(t)
	ctx := context.Background()

	n, err := db.Migrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, tableExists(t, db, "test_wagons"))
	assert.True(t, tableExists(t, db, "test_scales"))

	applied, pending, err := db.MigrationStatus(ctx)
	require.NoError(t, err)
	require.Len(t, applied, 2)
	assert.Equal(t, "20260101_000000", applied[0].Version)
	assert.False(t, applied[0].AppliedAt.IsZero())
	assert.Empty(t, pending)

	n, err = db.Migrate(ctx)
	require.NoError(t, err, "second run must be a no-op")
	assert.Zero(t, n)
}

func TestMigrateDown(t *testing.T) {
	useTestMigrations(t)
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.Migrate(ctx)
	require.NoError(t, err)

	// The newest test migration ships without a down file.
	_, err = db.MigrateDown(ctx)
	require.ErrorIs(t, err, ErrNoDownMigration)
	assert.True(t, tableExists(t, db, "test_scales"))

	_, err = db.ExecContext(ctx, "DELETE FROM schema_migrations WHERE version = ?", "20260102_000000")
	require.NoError(t, err)

	version, err := db.MigrateDown(ctx)
	require.NoError(t, err)
	assert.Equal(t, "20260101_000000", version)
	assert.False(t, tableExists(t, db, "test_wagons"))

	version, err = db.MigrateDown(ctx)
	require.NoError(t, err)
	assert.Empty(t, version, "nothing left to roll back")
}

func TestMigrate_NoMigrations(t *testing.T) {
	origFS, origDir := MigrationsFS, MigrationsDir
	t.Cleanup(func() { MigrationsFS, MigrationsDir = origFS, origDir })
	MigrationsFS = embed.FS{}

	db := openTestDB(t)
	n, err := db.Migrate(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMigrationStatus_Pending(t *testing.T) {
	useTestMigrations(t)
	db := openTestDB(t)
	ctx := context.Background()

	applied, pending, err := db.MigrationStatus(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied)
	require.Len(t, pending, 2)
	assert.Equal(t, "test_wagons", pending[0].Name)
	assert.NotEmpty(t, pending[0].DownSQL)
	assert.Empty(t, pending[1].DownSQL)
}

func TestApplyMigration_RollsBackOnFailure(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() }) //nolint:errcheck // test cleanup

	db := &DB{DB: mockDB}
	m := Migration{Version: "20260101_000000", Name: "broken", UpSQL: "CREATE TABLE broken (id INTEGER)"}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(m.UpSQL)).WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	err = db.applyMigration(context.Background(), m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyMigration_RecordFailure(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() }) //nolint:errcheck // test cleanup

	db := &DB{DB: mockDB}
	m := Migration{Version: "20260101_000000", Name: "ok", UpSQL: "CREATE TABLE ok (id INTEGER)"}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(m.UpSQL)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO schema_migrations").
		WithArgs(m.Version, sqlmock.AnyArg()).
		WillReturnError(errors.New("constraint failed"))
	mock.ExpectRollback()

	err = db.applyMigration(context.Background(), m)
	require.ErrorContains(t, err, "recording migration")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		filename    string
		wantVersion string
		wantIsUp    bool
		wantOk      bool
	}{
		{filename: "20260301_090000_incoming_wagons.up.sql", wantVersion: "20260301_090000", wantIsUp: true, wantOk: true},
		{filename: "20260301_090000_incoming_wagons.down.sql", wantVersion: "20260301_090000", wantOk: true},
		{filename: "readme.txt"},
		{filename: "20260301_090000_incoming_wagons.sql"},
		{filename: "invalid.up.sql"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, isUp, ok := parseMigrationFilename(tt.filename)
			assert.Equal(t, tt.wantOk, ok)
			if ok {
				assert.Equal(t, tt.wantVersion, version)
				assert.Equal(t, tt.wantIsUp, isUp)
			}
		})
	}
}

func TestExtractMigrationName(t *testing.T) {
	assert.Equal(t, "incoming_wagons", extractMigrationName("20260301_090000_incoming_wagons.up.sql"))
	assert.Equal(t, "audit_logs", extractMigrationName("20260301_090100_audit_logs.down.sql"))
}
