package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rshade/planetzero/internal/cli"
	"github.com/rshade/planetzero/internal/config"
	"github.com/rshade/planetzero/pkg/version"
)

func isolate(t *testing.T) {
	t.Helper()
	for _, env := range []string{
		config.EnvLogFormat, config.EnvLogFile, config.EnvStoreDriver, config.EnvStorePath,
		config.EnvUser, config.EnvProjectDir, config.EnvBaseline,
	} {
		t.Setenv(env, "")
	}
	t.Setenv(config.EnvHome, t.TempDir())
	t.Setenv(config.EnvLogLevel, "error")
	t.Chdir(t.TempDir())
	t.Cleanup(func() {
		config.ResetGlobalConfigForTest()
		config.SetResolvedProjectDir("")
	})
}

func TestRun(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{name: "version", args: []string{"--version"}, wantCode: cli.ExitOK, wantStdout: version.GetVersion()},
		{name: "factors", args: []string{"factors"}, wantCode: cli.ExitOK, wantStdout: "car_petrol"},
		{name: "bad output format", args: []string{"factors", "-o", "xml"}, wantCode: cli.ExitValidation, wantStderr: "Error:"},
		{name: "no user", args: []string{"dashboard"}, wantCode: cli.ExitValidation, wantStderr: "no user selected"},
		{name: "missing log", args: []string{"log", "get", "2026-01-01", "-u", "alice"}, wantCode: cli.ExitNotFound},
		{name: "unknown command", args: []string{"frobnicate"}, wantCode: cli.ExitFailure, wantStderr: "unknown command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			var stdout, stderr bytes.Buffer
			code := run(tt.args, &stdout, &stderr)
			assert.Equal(t, tt.wantCode, code, stderr.String())
			assert.Contains(t, stdout.String(), tt.wantStdout)
			assert.Contains(t, stderr.String(), tt.wantStderr)
		})
	}
}

func TestRun_ConflictExitCode(t *testing.T) {
	isolate(t)
	args := []string{"log", "submit", "-u", "alice", "--date", "2026-01-10", "--kwh", "5", "--create-only"}

	var out bytes.Buffer
	assert.Equal(t, cli.ExitOK, run(args, &out, &out), out.String())
	assert.Equal(t, cli.ExitConflict, run(args, &out, &out))
}
