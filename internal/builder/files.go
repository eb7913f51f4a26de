package builder

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/astromake/astro/internal/builder/gen"
	"github.com/astromake/astro/internal/model"
	"github.com/bmatcuk/doublestar/v4"
)

var (
	nativeSources = []string{".c", ".cpp", ".cxx", ".cc"}
	nativeHeaders = []string{".h", ".hpp", ".hxx", ".hh", ".inl", ".inc"}
	managedSource = []string{".cs"}
)

// a `**` that is not a whole path segment, as in `src/**.cpp`
var inlineRecursive = regexp.MustCompile(`\*\*([^/])`)

// splitPattern separates the literal directory of a wildcard pattern from the
// part that has to be matched: `src/gfx/*.cpp` gives `src/gfx` and `*.cpp`.
func splitPattern(pattern string) (dir, rest string) {
	star := strings.Index(pattern, "*")
	slash := strings.LastIndex(pattern[:star], "/")
	if slash < 0 {
		return ".", pattern
	}
	dir = pattern[:slash]
	if dir == "" {
		dir = "/"
	}
	return dir, pattern[slash+1:]
}

// resolvePattern expands pattern relative to location into absolute file paths.
// A single `*` matches inside one directory, `**` recurses. Literal patterns
// resolve to themselves if the file exists. Missing directories and files
// resolve to nothing.
func (b *Builder) resolvePattern(location, pattern string) []string {
	pattern = strings.ReplaceAll(strings.TrimSpace(pattern), `\`, "/")
	if pattern == "" {
		return nil
	}

	if !strings.Contains(pattern, "*") {
		path := filepath.FromSlash(pattern)
		if !filepath.IsAbs(path) {
			path = filepath.Join(location, path)
		}
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			b.warn("file %s does not exist", path)
			return nil
		}
		return []string{filepath.Clean(path)}
	}

	dir, rest := splitPattern(pattern)
	rest = inlineRecursive.ReplaceAllString(rest, "**/*$1")
	if !doublestar.ValidatePattern(rest) {
		b.warn("invalid file pattern %q", pattern)
		return nil
	}

	searchDir := filepath.FromSlash(dir)
	if !filepath.IsAbs(searchDir) {
		searchDir = filepath.Join(location, searchDir)
	}
	if info, err := os.Stat(searchDir); err != nil || !info.IsDir() {
		b.warn("pattern %q: directory %s does not exist", pattern, searchDir)
		return nil
	}

	matches, err := doublestar.Glob(os.DirFS(searchDir), rest, doublestar.WithFilesOnly())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		b.warn("pattern %q: %v", pattern, err)
		return nil
	}
	if len(matches) == 0 {
		b.warn("pattern %q matched no files", pattern)
	}
	slices.Sort(matches)

	files := make([]string, 0, len(matches))
	for _, match := range matches {
		files = append(files, filepath.Join(searchDir, filepath.FromSlash(match)))
	}
	return files
}

// resolveFiles expands the file lists of p and classifies the result. Paths are
// deduplicated in first-seen order before classification. Compile units and
// headers are recognized by extension; anything else is kept as an opaque file
// when it comes from AdditionalFiles and dropped otherwise.
func (b *Builder) resolveFiles(p *model.Project) *gen.Target {
	t := &gen.Target{Project: p}
	seen := make(map[string]bool)

	sources, headers := nativeSources, nativeHeaders
	if p.Language == model.LanguageCSharp {
		sources, headers = managedSource, nil
	}

	classify := func(patterns []string, additional bool) {
		for _, pattern := range patterns {
			for _, file := range b.resolvePattern(p.Location, pattern) {
				if seen[file] {
					continue
				}
				seen[file] = true

				ext := strings.ToLower(filepath.Ext(file))
				switch {
				case slices.Contains(sources, ext):
					t.Sources = append(t.Sources, file)
				case slices.Contains(headers, ext):
					t.Headers = append(t.Headers, file)
				case additional:
					t.Additional = append(t.Additional, file)
				default:
					b.trace("%s: ignoring %s, not a %s source or header", p.Name, file, p.Language)
				}
			}
		}
	}
	classify(p.Files, false)
	classify(p.AdditionalFiles, true)

	return t
}
