package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/fastpath/internal/config"
	"github.com/roach88/fastpath/internal/harness"
)

// ValidateResult describes a validated file.
type ValidateResult struct {
	Path string `json:"path"`
	Kind string `json:"kind"` // "config" or "scenario"
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file>...",
		Short: "Validate config and scenario files",
		Long: `Validate engine configuration (.cue, .toml) and scenario (.yaml, .yml)
files without running anything.

Examples:
  fastpath validate engine.cue
  fastpath validate engine.toml scenarios/*.yaml`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	results := make([]ValidateResult, 0, len(paths))
	for _, path := range paths {
		kind, err := validateFile(path)
		if err != nil {
			code := ErrCodeLoadFailed
			if os.IsNotExist(err) {
				code = ErrCodeNotFound
			}
			if outErr := out.Error(code, fmt.Sprintf("%s: %v", path, err), nil); outErr != nil {
				return outErr
			}
			return WrapExitError(ExitFailure, fmt.Sprintf("validation failed for %s", path), err)
		}
		results = append(results, ValidateResult{Path: path, Kind: kind})
	}

	if opts.Format == "json" {
		return out.JSON(results, nil)
	}
	for _, r := range results {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s (%s)\n", r.Path, r.Kind)
	}
	return nil
}

func validateFile(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue", ".toml":
		_, err := config.Load(path)
		return "config", err
	case ".yaml", ".yml":
		_, err := harness.LoadScenario(path)
		return "scenario", err
	default:
		return "", fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
}
