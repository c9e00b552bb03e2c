package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"netbaseline/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "netbaseline.yaml")
	content := fmt.Sprintf(`
database:
  driver: sqlite
  dsn: %s
  auto_migrate: true
log:
  level: error
`, filepath.Join(dir, "netbaseline.db"))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version:")
	assert.Contains(t, out, "Go Version:")
}

func TestMigrateCommand(t *testing.T) {
	cfgPath := writeConfig(t)

	out, err := execute(t, "migrate", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "schema version 1 (dirty: false)")

	out, err = execute(t, "migrate", "--config", cfgPath, "--rollback", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "schema version 0 (dirty: false)")
}

func TestCompareCommand_UnknownBaseline(t *testing.T) {
	cfgPath := writeConfig(t)
	scan := filepath.Join(t.TempDir(), "scan.json")
	require.NoError(t, os.WriteFile(scan, []byte(`{
  "baselineId": "missing",
  "orgId": "org-1",
  "siteId": "site-1",
  "hosts": [{"ip": "10.0.0.1"}]
}`), 0o644))

	_, err := execute(t, "compare", scan, "--config", cfgPath)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestCompareCommand_BadInput(t *testing.T) {
	scan := filepath.Join(t.TempDir(), "scan.json")
	require.NoError(t, os.WriteFile(scan, []byte(`not json`), 0o644))

	_, err := execute(t, "compare", scan, "--config", writeConfig(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode scan file")
}

func TestCompareCommand_RequiresFile(t *testing.T) {
	_, err := execute(t, "compare")
	require.Error(t, err)
}
