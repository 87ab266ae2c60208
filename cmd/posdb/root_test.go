package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func useTempDatabase(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("POS_DB_DRIVER", "sqlite")
	t.Setenv("POS_DB_NAME", filepath.Join(dir, "pos"))
}

func TestSampleCommand(t *testing.T) {
	out, err := runCmd(t, "sample")
	require.NoError(t, err)

	var data struct {
		Products []map[string]any `json:"products"`
		Users    []map[string]any `json:"users"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &data))
	assert.Len(t, data.Products, 10)
	assert.Len(t, data.Users, 3)
}

func TestMigrateAndQuery(t *testing.T) {
	useTempDatabase(t)

	out, err := runCmd(t, "migrate", "--sample")
	require.NoError(t, err)
	assert.Contains(t, out, "schema ready")
	assert.Contains(t, out, "loaded 10 sample products")

	out, err = runCmd(t, "query", "SELECT username, role FROM users WHERE username = ?", "admin")
	require.NoError(t, err)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "admin", rows[0]["role"])

	out, err = runCmd(t, "query", "--write", "UPDATE products SET stock_quantity = ? WHERE name = ?", "20", "Tea")
	require.NoError(t, err)
	assert.Contains(t, out, "1 rows affected")
}

func TestQueryCommandReportsFailure(t *testing.T) {
	useTempDatabase(t)

	_, err := runCmd(t, "query", "SELECT * FROM missing_table")
	assert.Error(t, err)
}
