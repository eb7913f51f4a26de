package gen

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/astromake/astro/internal/model"
	"github.com/astromake/astro/internal/version"
)

// slnWriter builds a solution file. Sections nest through an explicit stack so
// every End line closes the innermost open section by name.
type slnWriter struct {
	sb       strings.Builder
	sections []string
}

func (w *slnWriter) indent() string {
	return strings.Repeat("\t", len(w.sections))
}

func (w *slnWriter) line(s ...string) {
	write(&w.sb, w.indent())
	writeln(&w.sb, s...)
}

func (w *slnWriter) property(key, value string) {
	w.line(key, " = ", value)
}

// begin opens `name(key) = value`, or a bare `name` when key is empty.
func (w *slnWriter) begin(name, key, value string) {
	if key == "" {
		w.line(name)
	} else {
		w.line(name, "(", key, ") = ", value)
	}
	w.sections = append(w.sections, name)
}

func (w *slnWriter) end() {
	if len(w.sections) == 0 {
		panic("sln: end without an open section")
	}
	name := w.sections[len(w.sections)-1]
	w.sections = w.sections[:len(w.sections)-1]
	w.line("End", name)
}

func (w *slnWriter) project(kind, name, path, guid string) {
	w.begin("Project", fmt.Sprintf(`"%s"`, kind), fmt.Sprintf(`"%s", "%s", "%s"`, name, path, guid))
}

// writeSolution renders the solution artifact of g.
func writeSolution(out io.Writer, g *Graph) error {
	sln := g.Solution
	dir := sln.TargetDirectory
	matrix := model.MatrixNames(sln.Matrix())

	var w slnWriter
	w.line("Microsoft Visual Studio Solution File, Format Version 12.00")
	w.line("# Visual Studio Version 17")
	for _, l := range version.Banner("solution") {
		w.line("# ", l)
	}
	w.line("VisualStudioVersion = 17.0.31903.59")
	w.line("MinimumVisualStudioVersion = 10.0.40219.1")

	for _, t := range g.Targets {
		w.project(model.FormatIdentifier(t.KindIdentifier()), t.Name, relPath(dir, t.TargetPath()), t.GUID())
		w.end()
	}

	w.project(model.FormatIdentifier(model.KindSolutionFolder), "Solution Items", "Solution Items",
		model.FormatIdentifier(model.SolutionItemsIdentifier))
	if len(sln.Scripts) > 0 {
		w.begin("ProjectSection", "SolutionItems", "preProject")
		for _, script := range sln.Scripts {
			if !filepath.IsAbs(script) {
				script = filepath.Join(sln.Location, script)
			}
			rel := relPath(dir, script)
			w.property(rel, rel)
		}
		w.end()
	}
	w.end()

	w.begin("Global", "", "")

	w.begin("GlobalSection", "SolutionConfigurationPlatforms", "preSolution")
	for _, name := range matrix {
		w.property(name, name)
	}
	w.end()

	w.begin("GlobalSection", "ProjectConfigurationPlatforms", "postSolution")
	for _, t := range g.Targets {
		guid := t.GUID()
		for _, name := range matrix {
			w.property(guid+"."+name+".ActiveCfg", name)
			w.property(guid+"."+name+".Build.0", name)
		}
	}
	w.end()

	w.begin("GlobalSection", "SolutionProperties", "preSolution")
	w.property("HideSolutionNode", "FALSE")
	w.end()

	w.end()

	if len(w.sections) != 0 {
		return fmt.Errorf("unclosed solution sections: %v", w.sections)
	}
	_, err := io.WriteString(out, w.sb.String())
	return err
}
