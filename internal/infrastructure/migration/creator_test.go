package migration

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/mlmshop/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add withdrawals table", "add_withdrawals_table"},
		{"Add-Withdrawals-Table", "add_withdrawals_table"},
		{"ADD__LEDGER__CHECKS", "add_ledger_checks"},
		{"   spaces   ", "spaces"},
		{"level 20 cap", "level_20_cap"},
		{"special!@#$chars", "specialchars"},
		{"_leading and trailing_", "leading_and_trailing"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "add payout batches", "Group paid commissions per payout run")
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_add_payout_batches.up.sql"), first.UpPath)
	assert.Equal(t, filepath.Join(dir, "000001_add_payout_batches.down.sql"), first.DownPath)

	up, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- add_payout_batches")
	assert.Contains(t, string(up), "-- Group paid commissions per payout run")

	down, err := os.ReadFile(first.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "Rollback of add_payout_batches")

	t.Run("numbers after the highest version", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "000007_manual.up.sql"), []byte("--"), 0o644))

		next, err := CreateMigration(dir, "index records", "")
		require.NoError(t, err)
		assert.Equal(t, uint(8), next.Version)

		up, err := os.ReadFile(next.UpPath)
		require.NoError(t, err)
		assert.NotContains(t, string(up), "\n-- \n")
	})

	t.Run("rejects a name without usable characters", func(t *testing.T) {
		_, err := CreateMigration(dir, "!!!", "")
		assert.Error(t, err)
	})
}

func TestCreateMigration_CreatesDirectory(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "nested", "migrations")

	_, err := CreateMigration(nested, "init", "")
	require.NoError(t, err)

	info, err := os.Stat(nested)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestListMigrations(t *testing.T) {
	t.Run("orders by version and tracks down files", func(t *testing.T) {
		dir := t.TempDir()
		for _, f := range []string{
			"000010_add_withdrawals.up.sql",
			"000002_create_orders.up.sql",
			"000002_create_orders.down.sql",
			"000001_create_members.up.sql",
			"000001_create_members.down.sql",
			"README.md",
			".gitkeep",
		} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("--"), 0o644))
		}
		require.NoError(t, os.Mkdir(filepath.Join(dir, "000003_dir.up.sql"), 0o755))

		entries, err := ListMigrations(dir)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, "000001_create_members", entries[0].BaseName())
		assert.Equal(t, uint(2), entries[1].Version)
		assert.Equal(t, uint(10), entries[2].Version)
		assert.True(t, entries[0].HasDown)
		assert.False(t, entries[2].HasDown)
	})

	t.Run("missing directory is empty", func(t *testing.T) {
		entries, err := ListMigrations(filepath.Join(t.TempDir(), "absent"))
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("rejects two names for one version", func(t *testing.T) {
		fsys := fstest.MapFS{
			"000001_a.up.sql": &fstest.MapFile{Data: []byte("--")},
			"000001_b.up.sql": &fstest.MapFile{Data: []byte("--")},
		}
		_, err := ListMigrationsFS(fsys)
		assert.Error(t, err)
	})
}

func TestEmbeddedSchema(t *testing.T) {
	entries, err := ListMigrationsFS(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	for i, e := range entries {
		assert.Equal(t, uint(i+1), e.Version, "versions must be contiguous")
		assert.True(t, e.HasDown, "%s has no down migration", e.BaseName())
	}

	ledger, err := migrations.FS.ReadFile("000003_create_commission_ledger.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(ledger), "ON commission_records(order_id, level)")
	assert.Contains(t, string(ledger), "order_id     UUID PRIMARY KEY")
}
