// astro clean [dir]
package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/astromake/astro/internal/manifest"
	"github.com/astromake/astro/internal/model"
	"github.com/astromake/astro/internal/msg"
	"github.com/astromake/astro/internal/workspace"
	"github.com/spf13/cobra"
)

// findManifest looks next to the root first, then at the solution location.
func findManifest(root string) (string, error) {
	path := filepath.Join(root, model.ManifestName)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	ws, err := workspace.Load(root, flagSources)
	if err != nil {
		return "", err
	}
	path = ws.Solution.ManifestPath()
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: no manifest at %s, nothing was generated", workspace.ErrNoInput, path)
	}
	return path, nil
}

func doClean(cmd *cobra.Command, args []string) error {
	path, err := findManifest(targetDir(args))
	if err != nil {
		return err
	}
	m, err := manifest.Load(path)
	if err != nil {
		return err
	}

	removed, cleanErr := m.Clean()
	for _, p := range removed {
		msg.Trace("removed %s", p)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		cleanErr = errors.Join(cleanErr, err)
	}
	msg.Info("removed %d of %d generated paths", len(removed), m.Len())
	return cleanErr
}

var cleanCmd = &cobra.Command{
	Use:   "clean [dir]",
	Short: "Delete everything the last generation wrote",
	Args:  maxArgs(1),
	RunE:  doClean,
}

func init() {
	// astro clean subcommand
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().StringSliceVarP(&flagSources, "source", "s", nil, "Build description to evaluate instead of discovering them (repeatable)")
}
