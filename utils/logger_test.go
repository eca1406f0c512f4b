package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	SetOutput(buf)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
	})
	return buf
}

func TestSetVerbose_And_IsVerbose(t *testing.T) {
	// save original state and restore after test
	original := IsVerbose()
	defer SetVerbose(original)

	SetVerbose(true)
	if !IsVerbose() {
		t.Error("expected IsVerbose() = true after SetVerbose(true)")
	}

	SetVerbose(false)
	if IsVerbose() {
		t.Error("expected IsVerbose() = false after SetVerbose(false)")
	}
}

func TestVerbose_SilentWhenDisabled(t *testing.T) {
	original := IsVerbose()
	defer SetVerbose(original)

	buf := captureOutput(t)
	SetVerbose(false)
	Verbose("test message %s %d", "arg", 42)

	assert.Empty(t, buf.String())
}

func TestVerbose_WritesWhenEnabled(t *testing.T) {
	original := IsVerbose()
	defer SetVerbose(original)

	buf := captureOutput(t)
	SetVerbose(true)
	Verbose("test message %s %d", "arg", 42)

	assert.Contains(t, buf.String(), "test message arg 42")
	assert.Contains(t, buf.String(), "level=debug")
}

func TestInfoWarnError_Levels(t *testing.T) {
	buf := captureOutput(t)

	Info("info %s", "message")
	Warn("warn %s", "message")
	Error("error %s", "message")

	out := buf.String()
	assert.Contains(t, out, "level=info")
	assert.Contains(t, out, "level=warning")
	assert.Contains(t, out, "level=error")
	assert.Contains(t, out, "error message")
}

func TestLogToFile_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frappe.log")
	require.NoError(t, os.WriteFile(path, []byte("earlier run\n"), 0o640))

	f, err := LogToFile(path)
	require.NoError(t, err)
	t.Cleanup(func() { SetOutput(os.Stderr) })

	Info("tray started")
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "earlier run")
	assert.Contains(t, string(data), "tray started")
}

func TestLogToFile_MissingDirectory(t *testing.T) {
	_, err := LogToFile(filepath.Join(t.TempDir(), "missing", "frappe.log"))
	assert.Error(t, err)
}
