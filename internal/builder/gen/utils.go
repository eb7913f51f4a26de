package gen

import (
	"path/filepath"
	"strings"
)

func write(sb *strings.Builder, s ...string) {
	for _, str := range s {
		sb.WriteString(str)
	}
}

func writeln(sb *strings.Builder, s ...string) {
	for _, str := range s {
		sb.WriteString(str)
	}
	sb.WriteByte('\n')
}

// relPath returns target relative to the directory base using backslash
// separators, as Visual Studio artifacts expect. Paths on different volumes
// are returned absolute.
func relPath(base, target string) string {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		rel = target
	}
	return toBackslash(rel)
}

// relDir is relPath with a trailing backslash, the form MSBuild wants for directories.
func relDir(base, target string) string {
	rel := relPath(base, target)
	if rel == "." {
		return `.\`
	}
	if !strings.HasSuffix(rel, `\`) {
		rel += `\`
	}
	return rel
}

func toBackslash(p string) string {
	return strings.ReplaceAll(filepath.ToSlash(p), "/", `\`)
}

// joinList joins a list MSBuild style, keeping the inherited value last.
func joinList(items []string, inherited string) string {
	if len(items) == 0 {
		return ""
	}
	return strings.Join(items, ";") + ";%(" + inherited + ")"
}
