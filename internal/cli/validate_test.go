package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCommand_Valid(t *testing.T) {
	dir := t.TempDir()
	cue := writeTestFile(t, dir, "engine.cue", "conservative: true\n")
	toml := writeTestFile(t, dir, "engine.toml", "reapply = \"replay\"\n")
	scenario := writeTestFile(t, dir, "s.yaml", revertFutureScenario)

	out, err := execute(t, "validate", cue, toml, scenario)
	require.NoError(t, err)
	assert.Contains(t, out, "engine.cue (config)")
	assert.Contains(t, out, "engine.toml (config)")
	assert.Contains(t, out, "s.yaml (scenario)")
}

func TestValidateCommand_Invalid(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		path string
		want string
	}{
		{"bad cue", writeTestFile(t, dir, "bad.cue", `merge: "sum"`), "E004"},
		{"bad scenario", writeTestFile(t, dir, "bad.yaml", "name: x\n"), "E004"},
		{"unsupported", writeTestFile(t, dir, "engine.json", "{}"), "E004"},
		{"missing", filepath.Join(dir, "missing.cue"), "E005"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, "validate", tt.path)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))
			assert.Contains(t, out, tt.want)
		})
	}
}
