// Package workspace turns build descriptions on disk into a solution and its
// projects. Descriptions are TOML, YAML or HCL files named *.astro.<ext>.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/astromake/astro/internal/model"
	"github.com/astromake/astro/internal/msg"
)

var (
	ErrNoInput  = errors.New("no build description found")
	ErrFrontEnd = errors.New("build description could not be evaluated")
)

// Workspace is the result of evaluating every build description of a run.
type Workspace struct {
	Root     string
	Scripts  []string
	Solution *model.Solution
	Projects []*model.Project
}

// Load evaluates the build descriptions under root. A non-empty sources list
// replaces discovery; its entries are relative to root.
func Load(root string, sources []string) (*Workspace, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrNoInput, root)
	}

	var scripts []string
	if len(sources) > 0 {
		for _, src := range sources {
			path := resolvePath(root, src)
			if info, err := os.Stat(path); err != nil || info.IsDir() {
				return nil, fmt.Errorf("%w: %s does not exist", ErrNoInput, path)
			}
			scripts = append(scripts, filepath.Clean(path))
		}
	} else {
		if scripts, err = Discover(root); err != nil {
			return nil, err
		}
		if len(scripts) == 0 {
			return nil, fmt.Errorf("%w in %s", ErrNoInput, root)
		}
	}

	ws := &Workspace{Root: root, Scripts: scripts}
	var solutions []string
	for _, path := range scripts {
		msg.Trace("evaluating %s", path)
		s, err := loadScript(path, root)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrFrontEnd, path, err)
		}
		if s.solution != nil {
			ws.Solution = s.solution
			solutions = append(solutions, path)
		}
		ws.Projects = append(ws.Projects, s.projects...)
	}

	switch len(solutions) {
	case 0:
		return nil, fmt.Errorf("%w: no script declares a solution", ErrFrontEnd)
	case 1:
	default:
		return nil, fmt.Errorf("%w: several scripts declare a solution: %s", ErrFrontEnd, strings.Join(solutions, ", "))
	}

	ws.Solution.Scripts = scripts
	return ws, nil
}

// loadScript dispatches on the file name ending.
func loadScript(path, root string) (*script, error) {
	switch {
	case strings.HasSuffix(path, ".toml"):
		return loadDocument(path, root, decodeTOML)
	case strings.HasSuffix(path, ".yaml"), strings.HasSuffix(path, ".yml"):
		return loadDocument(path, root, decodeYAML)
	case strings.HasSuffix(path, ".hcl"):
		return loadHCL(path, root)
	}
	return nil, fmt.Errorf("unsupported build description %s", filepath.Base(path))
}
