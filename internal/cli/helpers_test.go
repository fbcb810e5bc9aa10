package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const revertFutureScenario = `
name: revert_future
description: an increment races a load
steps:
  - dispatch: {kind: REMOTE_LOAD_COUNTER}
  - dispatch: {kind: INCREASE_COUNTER}
  - resolve: {}
  - expect: {state: {counter: 6}, phase: idle}
`

const failingScenario = `
name: failing
description: expects the wrong state
steps:
  - dispatch: {kind: INCREASE_COUNTER}
  - expect: {state: {counter: 7}}
`

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}
