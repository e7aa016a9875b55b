package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/CageChen/assethub/internal/resource"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupProject(t *testing.T) (dir, cfgPath string) {
	t.Helper()
	color.NoColor = true

	dir = t.TempDir()
	mtime := time.Unix(1_700_000_000, 0)
	for name, content := range map[string]string{
		"web/css/site.css":  "body{}",
		"web/css/print.css": "@media print{}",
		"web/.sass/x.css":   "hidden",
		"web/js/app.js":     "run()",
	} {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		require.NoError(t, os.Chtimes(p, mtime, mtime))
	}

	cfgPath = filepath.Join(dir, "assethub.yaml")
	cfg := "sources:\n  - name: css\n    path: web\n    pattern: '\\.css$'\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))
	return dir, cfgPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestFreshCommand(t *testing.T) {
	_, cfgPath := setupProject(t)

	out, err := run(t, "--config", cfgPath, "fresh", "css", "--since", "1700000000")
	require.NoError(t, err)
	assert.Equal(t, "FRESH\n", out)

	out, err = run(t, "--config", cfgPath, "fresh", "css", "--since", "1600000000")
	assert.ErrorIs(t, err, errStale)
	assert.Equal(t, "STALE\n", out)

	_, err = run(t, "--config", cfgPath, "fresh", "css")
	assert.Error(t, err)
}

func TestContentCommand(t *testing.T) {
	_, cfgPath := setupProject(t)

	out, err := run(t, "--config", cfgPath, "content", "css")
	require.NoError(t, err)
	assert.Equal(t, "@media print{}\nbody{}", out)
}

func TestFilesCommand_Adhoc(t *testing.T) {
	dir, cfgPath := setupProject(t)
	web := filepath.Join(dir, "web")

	out, err := run(t, "--config", cfgPath, "files", "--path", web, "--pattern", `/\.JS$/i`, "--engine", "pcre")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(web, "js", "app.js")+"\n", out)

	out, err = run(t, "--config", cfgPath, "files", "-l", "css")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "2023-11-14T22:13:20Z")
	assert.True(t, strings.HasSuffix(lines[1], filepath.Join(web, "css", "site.css")))
}

func TestCommands_Errors(t *testing.T) {
	dir, cfgPath := setupProject(t)

	_, err := run(t, "--config", cfgPath, "content", "nope")
	assert.ErrorIs(t, err, resource.ErrNotFound)

	_, err = run(t, "--config", cfgPath, "content", "--path", filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, resource.ErrNotFound)

	_, err = run(t, "--config", cfgPath, "content", "--path", dir, "--pattern", "(")
	assert.ErrorIs(t, err, resource.ErrInvalidArgument)

	_, err = run(t, "--config", cfgPath, "content", "css", "--path", dir)
	assert.Error(t, err)

	_, err = run(t, "--config", cfgPath, "content")
	assert.Error(t, err)

	_, err = run(t, "--config", filepath.Join(dir, "absent.yaml"), "content", "css")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
