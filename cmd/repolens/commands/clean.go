package commands

import (
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hmoritama/repolens/cmd/repolens/opts"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

// NewCleanCmd creates the clean command, which removes session logs
// matching the configured patterns.
func NewCleanCmd(o *opts.RootOpts) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove recorded session logs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logDir := o.Config.LogDir
			if _, err := os.Stat(logDir); os.IsNotExist(err) {
				o.UserLogger.Info("Nothing to clean, %s does not exist", logDir)
				return nil
			}

			fsys := os.DirFS(logDir)
			removed := 0
			for _, pattern := range o.Config.CleanPatterns {
				matches, err := doublestar.Glob(fsys, pattern)
				if err != nil {
					return errors.Errorf("matching pattern %q: %w", pattern, err)
				}
				for _, match := range matches {
					path := filepath.Join(logDir, match)
					if dryRun {
						o.UserLogger.Info("Would remove %s", path)
						removed++
						continue
					}
					if err := os.Remove(path); err != nil {
						return errors.Errorf("removing %s: %w", path, err)
					}
					removed++
				}
			}

			if dryRun {
				o.UserLogger.Info("%d file(s) would be removed", removed)
			} else {
				o.UserLogger.Success("Removed %d file(s)", removed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "show what would be removed without removing it")
	return cmd
}
