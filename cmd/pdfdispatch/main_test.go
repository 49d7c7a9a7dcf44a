package main

import (
	"bytes"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfdispatch/internal/config"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: ":0"
dispatch:
  work_dir: ` + filepath.Join(dir, "work") + `
  timeout: 10s
tools:
  - id: copy
    command: cp {input} {output}
  - id: noisy
    command: sh -c 'echo boom >&2; exit 3' {input} {output}
  - id: vendor
    command: vendor-pdf {input} {output}
    probe: /definitely/missing/vendor
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("CONFIG_PATH", path)
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestToolsCommand(t *testing.T) {
	writeConfig(t)

	out, err := run(t, "tools")
	require.NoError(t, err)
	assert.Equal(t, "copy\nnoisy\n", out)

	out, err = run(t, "tools", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "copy           available")
	assert.Contains(t, out, "vendor         missing /definitely/missing/vendor")
}

func TestToolsCommand_DoesNotNeedWorkDir(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	path := filepath.Join(dir, "config.yaml")
	yaml := `
dispatch:
  work_dir: ` + filepath.Join(blocker, "work") + `
tools:
  - id: copy
    command: cp {input} {output}
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("CONFIG_PATH", path)

	out, err := run(t, "tools")
	require.NoError(t, err)
	assert.Equal(t, "copy\n", out)
}

func TestConvertCommand_WritesOutput(t *testing.T) {
	dir := writeConfig(t)
	input := filepath.Join(dir, "page.html")
	require.NoError(t, os.WriteFile(input, []byte("<h1>hello</h1>"), 0o644))
	dest := filepath.Join(dir, "page.pdf")

	out, err := run(t, "convert", "--tool", "copy", "-o", dest, input)
	require.NoError(t, err)
	assert.Contains(t, out, dest)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "<h1>hello</h1>", string(data))
}

func TestConvertCommand_ToolFailure(t *testing.T) {
	dir := writeConfig(t)
	input := filepath.Join(dir, "page.html")
	require.NoError(t, os.WriteFile(input, []byte("x"), 0o644))

	_, err := run(t, "convert", "--tool", "noisy", input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "noisy failed")
	assert.Contains(t, err.Error(), "boom")

	_, err = run(t, "convert", "--tool", "vendor", input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported tool")
}

func TestConvertCommand_RequiresTool(t *testing.T) {
	writeConfig(t)

	_, err := run(t, "convert", "page.html")
	require.Error(t, err)
}

func TestStartServer_StopsOnSignal(t *testing.T) {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = ":0"

	idleConnsClosed := make(chan struct{})
	go startServer(app, cfg, idleConnsClosed)

	time.Sleep(200 * time.Millisecond)
	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGTERM))

	select {
	case <-idleConnsClosed:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
