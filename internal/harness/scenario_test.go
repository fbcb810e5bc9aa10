package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fastpath/internal/config"
	"github.com/roach88/fastpath/internal/ir"
)

func TestParseScenario_Defaults(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: minimal
description: a single increment
steps:
  - dispatch: {kind: INCREASE_COUNTER}
`))
	require.NoError(t, err)

	assert.Equal(t, config.Default(), s.Config)

	initial, err := s.InitialState()
	require.NoError(t, err)
	assert.True(t, ir.Equal(ir.NewObject(ir.O("counter", ir.Int(0))), initial))
}

func TestParseScenario_ConfigOverridesKeepDefaults(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: conservative
description: conservative policy only
config:
  conservative: true
steps:
  - dispatch: {kind: INCREASE_COUNTER}
`))
	require.NoError(t, err)

	assert.True(t, s.Config.Conservative)
	assert.Equal(t, "REMOTE_", s.Config.RemotePrefix)
	assert.Equal(t, "baseline", s.Config.Reapply)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: "description: d\nsteps: [{dispatch: {kind: A}}]\n",
			want: "name is required",
		},
		{
			name: "missing description",
			yaml: "name: n\nsteps: [{dispatch: {kind: A}}]\n",
			want: "description is required",
		},
		{
			name: "no steps",
			yaml: "name: n\ndescription: d\n",
			want: "steps list is required",
		},
		{
			name: "unknown field",
			yaml: "name: n\ndescription: d\nstep: []\n",
			want: "failed to parse YAML",
		},
		{
			name: "two actions in one step",
			yaml: "name: n\ndescription: d\nsteps: [{dispatch: {kind: A}, resolve: {}}]\n",
			want: "exactly one of dispatch, resolve or expect",
		},
		{
			name: "dispatch without kind",
			yaml: "name: n\ndescription: d\nsteps: [{dispatch: {id: x}}]\n",
			want: "kind is required",
		},
		{
			name: "result without response_to",
			yaml: "name: n\ndescription: d\nsteps: [{dispatch: {kind: A, result: {counter: 1}}}]\n",
			want: "result requires response_to",
		},
		{
			name: "unknown error code",
			yaml: "name: n\ndescription: d\nsteps: [{dispatch: {kind: A, error: BOOM}}]\n",
			want: "unknown error code",
		},
		{
			name: "unknown phase",
			yaml: "name: n\ndescription: d\nsteps: [{expect: {phase: busy}}]\n",
			want: "unknown phase",
		},
		{
			name: "bad config",
			yaml: "name: n\ndescription: d\nconfig: {reapply: never}\nsteps: [{dispatch: {kind: A}}]\n",
			want: "config",
		},
		{
			name: "float in initial state",
			yaml: "name: n\ndescription: d\ninitial: {counter: 1.5}\nsteps: [{dispatch: {kind: A}}]\n",
			want: "floats are forbidden",
		},
		{
			name: "unknown assertion",
			yaml: "name: n\ndescription: d\nsteps: [{dispatch: {kind: A}}]\nassertions: [{type: nope}]\n",
			want: "unknown assertion type",
		},
		{
			name: "trace_order without kinds",
			yaml: "name: n\ndescription: d\nsteps: [{dispatch: {kind: A}}]\nassertions: [{type: trace_order}]\n",
			want: "kinds list is required",
		},
		{
			name: "unknown event type",
			yaml: "name: n\ndescription: d\nsteps: [{dispatch: {kind: A}}]\nassertions: [{type: trace_count, event: bogus}]\n",
			want: "unknown event type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_AllTestdataValid(t *testing.T) {
	entries, err := os.ReadDir(filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	for _, entry := range entries {
		_, err := LoadScenario(filepath.Join("testdata", "scenarios", entry.Name()))
		assert.NoError(t, err, entry.Name())
	}
}
