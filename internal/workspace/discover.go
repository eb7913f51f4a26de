package workspace

import (
	"bufio"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-git/go-git/v6/plumbing/format/gitignore"
)

// ScriptSuffixes are the file name endings of build descriptions.
var ScriptSuffixes = []string{".astro.toml", ".astro.yaml", ".astro.yml", ".astro.hcl"}

// IsScript reports whether name is a build description.
func IsScript(name string) bool {
	for _, suffix := range ScriptSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// readIgnorePatterns parses the .gitignore in root, if any
func readIgnorePatterns(root string) ([]gitignore.Pattern, error) {
	f, err := os.Open(filepath.Join(root, ".gitignore"))
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	defer f.Close()

	var patterns []gitignore.Pattern
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}
	return patterns, scanner.Err()
}

// Discover finds build descriptions below root, skipping .git and whatever the
// root .gitignore excludes. The result is sorted.
func Discover(root string) ([]string, error) {
	patterns, err := readIgnorePatterns(root)
	if err != nil {
		return nil, err
	}
	matcher := gitignore.NewMatcher(patterns)

	var scripts []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")

		if d.IsDir() {
			if d.Name() == ".git" || matcher.Match(parts, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if IsScript(d.Name()) && !matcher.Match(parts, false) {
			scripts = append(scripts, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(scripts)
	return scripts, nil
}
