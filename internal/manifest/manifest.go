package manifest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/astromake/astro/internal/version"
)

// Manifest records every path written by a generation run. Paths are stored
// cleaned and absolute; Add is safe for concurrent use.
type Manifest struct {
	mu    sync.Mutex
	paths map[string]struct{}
}

func New() *Manifest {
	return &Manifest{paths: make(map[string]struct{})}
}

// Parse reads a manifest, ignoring blank lines and lines starting with `#`.
func Parse(rdr io.Reader) (*Manifest, error) {
	m := New()
	sc := bufio.NewScanner(rdr)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m.paths[filepath.Clean(line)] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

func Load(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(bufio.NewReader(f))
}

func (m *Manifest) Add(path string) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	m.mu.Lock()
	m.paths[filepath.Clean(path)] = struct{}{}
	m.mu.Unlock()
}

func (m *Manifest) Has(path string) bool {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.paths[filepath.Clean(path)]
	return ok
}

func (m *Manifest) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.paths)
}

// Paths returns the recorded paths in lexical order.
func (m *Manifest) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make([]string, 0, len(m.paths))
	for p := range m.paths {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

func (m *Manifest) WriteTo(w io.Writer) (int64, error) {
	bufw := bufio.NewWriter(w)
	var n int64
	for _, line := range version.Banner("manifest") {
		c, _ := fmt.Fprintf(bufw, "# %s\n", line)
		n += int64(c)
	}
	for _, p := range m.Paths() {
		c, _ := fmt.Fprintln(bufw, p)
		n += int64(c)
	}
	return n, bufw.Flush()
}

func (m *Manifest) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := m.WriteTo(f); err != nil {
		return err
	}
	return f.Close()
}

// Clean deletes every recorded file, then every recorded directory that ended
// up empty, deepest first. Paths that no longer exist are skipped. It returns
// the removed paths and the joined removal failures.
func (m *Manifest) Clean() ([]string, error) {
	var files, dirs, removed []string
	var errs []error

	for _, p := range m.Paths() {
		info, err := os.Lstat(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		} else if err != nil {
			errs = append(errs, err)
			continue
		}
		if info.IsDir() {
			dirs = append(dirs, p)
		} else {
			files = append(files, p)
		}
	}

	for _, f := range files {
		if err := os.Remove(f); err != nil {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, f)
	}

	// deeper directories first so parents can become empty
	slices.SortFunc(dirs, func(a, b string) int {
		return strings.Count(b, string(filepath.Separator)) - strings.Count(a, string(filepath.Separator))
	})
	for _, d := range dirs {
		entries, err := os.ReadDir(d)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if len(entries) > 0 {
			continue
		}
		if err := os.Remove(d); err != nil {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, d)
	}

	return removed, errors.Join(errs...)
}
