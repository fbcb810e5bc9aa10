// Package config loads engine configuration from CUE or TOML files.
//
// CUE files are unified with an embedded schema that supplies defaults and
// rejects unknown fields. TOML files are decoded over Default() and then
// validated by the same rules.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/BurntSushi/toml"

	"github.com/roach88/fastpath/internal/engine"
)

//go:embed schema.cue
var schemaCUE string

// Merge names for the response merge used by the counter domain.
const (
	MergeReplace   = "replace"
	MergeRecompute = "recompute"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config is the engine configuration.
type Config struct {
	Conservative     bool   `json:"conservative" toml:"conservative" yaml:"conservative"`
	RemotePrefix     string `json:"remote_prefix" toml:"remote_prefix" yaml:"remote_prefix"`
	Reapply          string `json:"reapply" toml:"reapply" yaml:"reapply"`
	RebaseOnDispatch bool   `json:"rebase_on_dispatch" toml:"rebase_on_dispatch" yaml:"rebase_on_dispatch"`
	Merge            string `json:"merge" toml:"merge" yaml:"merge"`
	Journal          string `json:"journal" toml:"journal" yaml:"journal"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		RemotePrefix: "REMOTE_",
		Reapply:      string(engine.ReapplyBaseline),
		Merge:        MergeReplace,
	}
}

// Load reads a configuration file. The format is chosen by extension:
// .cue or .toml.
func Load(path string) (Config, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".cue":
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		return ParseCUE(data, path)
	case ".toml":
		return loadTOML(path)
	default:
		return Config{}, fmt.Errorf("%w: unsupported config format %q", ErrInvalid, ext)
	}
}

// ParseCUE unifies data with the embedded schema and decodes the result.
// filename is used only for error positions.
func ParseCUE(data []byte, filename string) (Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return Config{}, formatCUEError(err)
	}

	unified := def.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return Config{}, formatCUEError(err)
	}

	var cfg Config
	if err := unified.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func loadTOML(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%w: unknown field %q", ErrInvalid, undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the same constraints the CUE schema enforces.
func (c Config) Validate() error {
	if c.RemotePrefix == "" {
		return fmt.Errorf("%w: remote_prefix must not be empty", ErrInvalid)
	}
	switch engine.ReapplyMode(c.Reapply) {
	case engine.ReapplyBaseline, engine.ReapplyReplay:
	default:
		return fmt.Errorf("%w: reapply must be %q or %q, got %q",
			ErrInvalid, engine.ReapplyBaseline, engine.ReapplyReplay, c.Reapply)
	}
	switch c.Merge {
	case MergeReplace, MergeRecompute:
	default:
		return fmt.Errorf("%w: merge must be %q or %q, got %q",
			ErrInvalid, MergeReplace, MergeRecompute, c.Merge)
	}
	return nil
}

// EngineOptions converts the configuration into engine options.
// The response merge is domain specific and left to the caller.
func (c Config) EngineOptions() []engine.Option {
	opts := []engine.Option{
		engine.WithConservative(c.Conservative),
		engine.WithRebaseOnDispatch(c.RebaseOnDispatch),
	}
	if c.RemotePrefix != "" {
		opts = append(opts, engine.WithClassifier(engine.PrefixClassifier(c.RemotePrefix)))
	}
	if c.Reapply != "" {
		opts = append(opts, engine.WithReapply(engine.ReapplyMode(c.Reapply)))
	}
	return opts
}
