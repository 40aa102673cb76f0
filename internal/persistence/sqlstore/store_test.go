package sqlstore_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/example/shift-scheduler/internal/persistence/sqlstore"
	"github.com/example/shift-scheduler/internal/persistence/storetest"
	"github.com/example/shift-scheduler/internal/testfixtures"
)

func TestSQLiteConformance(t *testing.T) {
	storetest.Run(t, testfixtures.NewSQLiteStore)
}

func TestPgxConformance(t *testing.T) {
	storetest.Run(t, testfixtures.PostgresFactory(sqlstore.DialectPgx))
}

func TestLibPQConformance(t *testing.T) {
	storetest.Run(t, testfixtures.PostgresFactory(sqlstore.DialectPostgres))
}

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	cfg := sqlstore.DefaultConfig(sqlstore.DialectSQLite, "file:"+filepath.Join(t.TempDir(), "migrate.db"))

	store, err := sqlstore.Open(ctx, cfg)
	require.NoError(t, err)
	defer store.Close()

	applied, err := store.Migrate(ctx, testfixtures.DiscardLogger())
	require.NoError(t, err)
	require.Equal(t, 1, applied)

	applied, err = store.Migrate(ctx, testfixtures.DiscardLogger())
	require.NoError(t, err)
	require.Zero(t, applied)

	status, err := store.MigrationStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, "001", status.CurrentVersion)
	require.Empty(t, status.Pending)
	require.Len(t, status.Applied, 1)
}

func TestDataSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	cfg := sqlstore.DefaultConfig(sqlstore.DialectSQLite, "file:"+filepath.Join(t.TempDir(), "durable.db"))

	store, err := sqlstore.Open(ctx, cfg)
	require.NoError(t, err)
	_, err = store.Migrate(ctx, testfixtures.DiscardLogger())
	require.NoError(t, err)
	user := testfixtures.SeedUser(t, store)
	schedule := testfixtures.SeedSchedule(t, store, user.ID)
	require.NoError(t, store.Close())

	reopened, err := sqlstore.Open(ctx, cfg)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetSchedule(ctx, schedule.ID)
	require.NoError(t, err)
	require.Equal(t, schedule.Name, got.Name)
	require.True(t, schedule.CreatedAt.Equal(got.CreatedAt))
}

func TestParseDialect(t *testing.T) {
	for _, tc := range []struct {
		in      string
		want    sqlstore.Dialect
		wantErr bool
	}{
		{in: "sqlite", want: sqlstore.DialectSQLite},
		{in: "PGX", want: sqlstore.DialectPgx},
		{in: " postgres ", want: sqlstore.DialectPostgres},
		{in: "mysql", wantErr: true},
		{in: "", wantErr: true},
	} {
		t.Run(tc.in, func(t *testing.T) {
			got, err := sqlstore.ParseDialect(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}
