package main

import (
	"os"
	"os/exec"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

const reexecEnv = "AGRIVOICE_TEST_REEXEC"

// TestMain runs main itself when the test binary is re-executed by runMain.
func TestMain(m *testing.M) {
	if os.Getenv(reexecEnv) == "1" {
		args := os.Args
		if i := slices.Index(args, "--"); i >= 0 {
			args = args[i+1:]
		} else {
			args = nil
		}
		os.Args = append([]string{"agrivoice"}, args...)
		main()
		return
	}
	os.Exit(m.Run())
}

func runMain(t *testing.T, args ...string) (string, int) {
	t.Helper()

	cmd := exec.Command(os.Args[0], append([]string{"--"}, args...)...)
	cmd.Env = append(os.Environ(), reexecEnv+"=1")
	out, err := cmd.CombinedOutput()
	if exitErr, ok := err.(*exec.ExitError); ok {
		return string(out), exitErr.ExitCode()
	}
	require.NoError(t, err)
	return string(out), 0
}

func TestMainExitCodes(t *testing.T) {
	tests := []struct {
		args     []string
		code     int
		contains string
	}{
		{args: []string{"--help"}, code: 0, contains: "mic <field|chat>"},
		{args: []string{"--version"}, code: 0, contains: "agrivoice dev"},
		{args: []string{"harvest"}, code: 2, contains: "unknown command: harvest"},
		{args: []string{"lang"}, code: 2, contains: "usage: lang <en|te>"},
	}

	for _, tt := range tests {
		out, code := runMain(t, tt.args...)
		require.Equal(t, tt.code, code, out)
		require.Contains(t, out, tt.contains)
	}
}
