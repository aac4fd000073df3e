package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommand runs a fresh root command with the given args and captures
// its output.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()

	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestVersionFlag(t *testing.T) {
	out, err := executeCommand(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, Version, strings.TrimSpace(out))
}

func TestHelpListsCommands(t *testing.T) {
	out, err := executeCommand(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "run")
	assert.Contains(t, out, "status")
}

func TestStatusCommand(t *testing.T) {
	out, err := executeCommand(t, "status")
	require.NoError(t, err)

	assert.Contains(t, out, "vertical fov")
	assert.Contains(t, out, "effective fov")
	assert.Contains(t, out, "micro<=15")
	assert.Contains(t, out, "ultra_precision")
}

func TestRunCommandBoundedDuration(t *testing.T) {
	_, err := executeCommand(t, "run", "--duration", "150ms", "--tick-rate", "120", "--seed", "7")
	assert.NoError(t, err)
}

func TestRunCommandRejectsBadPreset(t *testing.T) {
	_, err := executeCommand(t, "run", "--duration", "50ms", "--preset", "imaginary")
	assert.Error(t, err)
}
