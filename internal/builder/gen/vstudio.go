package gen

import (
	"io"
)

// VisualStudioGen writes a .sln and one .vcxproj (with its .filters) or .csproj
// per project.
type VisualStudioGen struct {
	// Jobs bounds how many project files are rendered at once.
	Jobs int
}

func NewVisualStudioGen(jobs int) *VisualStudioGen {
	return &VisualStudioGen{Jobs: jobs}
}

func (g *VisualStudioGen) Artifacts(graph *Graph) int {
	n := len(graph.Targets) + 1
	for _, t := range graph.Targets {
		if t.Language.Native() {
			n++
		}
	}
	return n
}

// Generate writes every project file in parallel, then the solution file.
// A project only reads other projects' identity, never their in-flight output.
func (g *VisualStudioGen) Generate(graph *Graph, e *Emitter) error {
	sln := graph.Solution

	// failures are recorded by the emitter, a failing project never cancels the others
	runJobs(graph.Targets, func(t *Target) error {
		if !t.Language.Native() {
			e.Emit(t.TargetPath(), func(w io.Writer) error {
				return writeCsproj(w, sln, t)
			})
			return nil
		}
		if e.Emit(t.TargetPath(), func(w io.Writer) error {
			return writeVcxproj(w, sln, t)
		}) == nil {
			e.Emit(FiltersPath(t.Project), func(w io.Writer) error {
				return writeFilters(w, t)
			})
		}
		return nil
	}, g.Jobs)

	e.Emit(sln.Path(), func(w io.Writer) error {
		return writeSolution(w, graph)
	})
	return nil
}
