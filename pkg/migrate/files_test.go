package migrate

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goodBody = "-- +goose Up\nSELECT 1;\n-- +goose Down\nSELECT 1;\n"

func TestValidateEmbeddedMigrations(t *testing.T) {
	require.NoError(t, Validate(Embedded()))
}

func TestValidateReportsEveryProblem(t *testing.T) {
	fsys := fstest.MapFS{
		"20260101000000_ok.sql":        {Data: []byte(goodBody)},
		"20260101000000_clash.sql":     {Data: []byte(goodBody)},
		"create_things.sql":            {Data: []byte(goodBody)},
		"20260102000000_no_down.sql":   {Data: []byte("-- +goose Up\nSELECT 1;\n")},
		"20260103000000_backwards.sql": {Data: []byte("-- +goose Down\n-- +goose Up\n")},
		"README.md":                    {Data: []byte("ignored")},
	}

	err := Validate(fsys)
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "create_things.sql: expected")
	assert.Contains(t, msg, "already used by")
	assert.Contains(t, msg, "missing -- +goose Down")
	assert.Contains(t, msg, "Down section precedes Up")
	assert.NotContains(t, msg, "README")
}

func TestCreateSQLMigration(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "migrations")
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	path, err := CreateSQLMigration(dir, "Add Coupon Usage-Limit", now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "20260304050607_add_coupon_usage_limit.sql"), path)

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(body), "-- +goose Up")
	require.NoError(t, ValidateDir(dir))

	_, err = CreateSQLMigration(dir, "add coupon usage limit", now)
	assert.Error(t, err, "same version must not overwrite")

	_, err = CreateSQLMigration(dir, "!!!", now)
	assert.Error(t, err)
}
