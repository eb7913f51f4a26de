package builder

import (
	"github.com/astromake/astro/internal/model"
)

// resolveLinks maps the link names of p to projects of sln. Unknown names and
// self references are reported and left out; duplicates collapse.
func (b *Builder) resolveLinks(sln *model.Solution, p *model.Project) []*model.Project {
	var deps []*model.Project
	seen := make(map[string]bool)
	for _, name := range p.Links {
		name = normalizeName(name)
		if seen[name] {
			continue
		}
		seen[name] = true

		if name == p.Name {
			b.warn("project %s links against itself, ignoring", p.Name)
			continue
		}
		dep := sln.Project(name)
		if dep == nil {
			b.warn("project %s links against unknown project %q, ignoring", p.Name, name)
			continue
		}
		deps = append(deps, dep)
	}
	return deps
}
