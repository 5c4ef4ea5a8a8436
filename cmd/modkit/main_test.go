package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type env struct {
	dir string
	db  string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	return &env{dir: dir, db: filepath.Join(dir, "settings.db")}
}

func (e *env) exec(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCommand(&out, &errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{
		"--config", filepath.Join(e.dir, "absent.toml"),
		"--db", e.db,
	}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *env) mustExec(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.exec(t, "", args...)
	require.NoError(t, err)
	return out
}

func TestVersionString(t *testing.T) {
	orig := []string{buildVersion, buildCommit, buildDate}
	t.Cleanup(func() { buildVersion, buildCommit, buildDate = orig[0], orig[1], orig[2] })

	buildVersion = "dev"
	assert.Equal(t, "dev (built from source)", versionString())

	buildVersion, buildCommit, buildDate = "v1.2.3", "abc1234", "2026-01-02"
	assert.Equal(t, "v1.2.3 (commit: abc1234, built: 2026-01-02)", versionString())
}

func TestVersionCompare(t *testing.T) {
	e := newEnv(t)

	out := e.mustExec(t, "version", "compare", "1.2.0", "1.3.0")
	assert.Equal(t, "1.3.0 is newer than 1.2.0\n", out)

	out, err := e.exec(t, "", "version", "compare", "1.9.0", "1.10.0")
	var exitErr *exitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.code)
	assert.Contains(t, out, "is not newer")
}

func TestSettingsSetGetDelete(t *testing.T) {
	e := newEnv(t)

	e.mustExec(t, "settings", "set", "Clock.zones", `["UTC"]`)
	e.mustExec(t, "settings", "set", "Clock.format", "24h")
	e.mustExec(t, "settings", "set", "Clock.label", "true", "--string")

	assert.Equal(t, "[\"UTC\"]\n", e.mustExec(t, "settings", "get", "Clock.zones"))
	assert.Equal(t, "24h\n", e.mustExec(t, "settings", "get", "Clock.format"))
	assert.Equal(t, "true\n", e.mustExec(t, "settings", "get", "Clock.label"))

	out := e.mustExec(t, "settings", "show", "Clock", "--format", "yaml")
	assert.Contains(t, out, "format: 24h")
	assert.Contains(t, out, "- UTC")

	e.mustExec(t, "settings", "delete", "Clock.format")
	_, err := e.exec(t, "", "settings", "get", "Clock.format")
	var exitErr *exitError
	require.ErrorAs(t, err, &exitErr)

	_, err = e.exec(t, "", "settings", "delete", "Clock.format")
	require.ErrorAs(t, err, &exitErr)
}

func TestSettingsShowAndSize(t *testing.T) {
	e := newEnv(t)
	e.mustExec(t, "settings", "set", "GlobalModule.modEnabled", "false")

	out := e.mustExec(t, "settings", "show")
	assert.Contains(t, out, `"modEnabled": false`)
	assert.Contains(t, out, `"Version"`)

	_, err := e.exec(t, "", "settings", "show", "Missing")
	assert.Error(t, err)
	_, err = e.exec(t, "", "settings", "show", "--format", "xml")
	assert.Error(t, err)

	size := strings.TrimSpace(e.mustExec(t, "settings", "size"))
	assert.NotEqual(t, "0", size)
}

func TestExportImport(t *testing.T) {
	e := newEnv(t)
	e.mustExec(t, "settings", "set", "GlobalModule.modEnabled", "false")
	e.mustExec(t, "settings", "set", "Clock.zones", `["UTC"]`)

	payload := e.mustExec(t, "export", "Clock", "GlobalModule")
	require.NotEmpty(t, strings.TrimSpace(payload))

	// Without --create a fresh slot knows no modules.
	out, err := e.exec(t, payload, "--slot", "other", "import")
	require.NoError(t, err)
	assert.Contains(t, out, "skipped Clock")

	out, err = e.exec(t, payload, "--slot", "other", "import", "--create")
	require.NoError(t, err)
	assert.Contains(t, out, "imported Clock")
	assert.Contains(t, out, "imported GlobalModule")
	assert.Equal(t, "false\n", e.mustExec(t, "--slot", "other", "settings", "get", "GlobalModule.modEnabled"))

	// An import replaces the module's settings with the payload.
	file := filepath.Join(e.dir, "export.txt")
	e.mustExec(t, "export", "Clock", "-o", file)
	e.mustExec(t, "settings", "set", "Clock.zones", `["Local"]`)
	e.mustExec(t, "import", file, "--only", "Clock")
	assert.Equal(t, "[\"UTC\"]\n", e.mustExec(t, "settings", "get", "Clock.zones"))
}

func TestRunLuaHost(t *testing.T) {
	e := newEnv(t)
	script := filepath.Join(e.dir, "host.lua")
	require.NoError(t, os.WriteFile(script, []byte(`
function ChatRoomSync() return "synced" end
function LoginResponse(data) return "ok" end
`), 0o644))

	out := e.mustExec(t, "run", script, "--call", "ChatRoomSync")
	assert.Contains(t, out, "ChatRoomSync: synced")

	assert.Equal(t, "0.0.0\n", e.mustExec(t, "version", "stored"))
	assert.Equal(t, "true\n", e.mustExec(t, "settings", "get", "GlobalModule.modEnabled"))
}

func TestRunRequiresScript(t *testing.T) {
	e := newEnv(t)
	_, err := e.exec(t, "", "run")
	assert.ErrorContains(t, err, "no host script")

	_, err = e.exec(t, "", "run", filepath.Join(e.dir, "missing.lua"))
	assert.ErrorContains(t, err, "load host script")
}

func TestParseCall(t *testing.T) {
	hc, err := parseCall("ChatRoomSync")
	require.NoError(t, err)
	assert.Equal(t, "ChatRoomSync", hc.name)
	assert.Empty(t, hc.args)

	hc, err = parseCall(`LoginResponse={"Name":"a","AccountName":"b"}`)
	require.NoError(t, err)
	assert.Equal(t, []any{map[string]any{"Name": "a", "AccountName": "b"}}, hc.args)

	_, err = parseCall("=1")
	assert.Error(t, err)
	_, err = parseCall("F={bad")
	assert.Error(t, err)
}
