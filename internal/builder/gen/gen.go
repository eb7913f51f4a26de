package gen

import (
	"context"
	"fmt"
	"slices"

	"github.com/astromake/astro/internal/model"
	"golang.org/x/sync/errgroup"
)

// Target is a validated project together with its resolved inputs. All file
// paths are absolute.
type Target struct {
	*model.Project

	Sources    []string
	Headers    []string
	Additional []string

	// Dependencies are the resolved links, in declaration order.
	Dependencies []*model.Project
}

// Graph is the resolved solution handed to generators. It is read-only except
// for the configuration hooks of its projects.
type Graph struct {
	Solution *model.Solution
	Targets  []*Target
}

func (g *Graph) Target(name string) *Target {
	for _, t := range g.Targets {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Generator writes the artifacts of one backend.
type Generator interface {
	// Artifacts is the number of files Generate emits for g.
	Artifacts(g *Graph) int
	// Generate emits every artifact through e. Failures of single artifacts are
	// recorded by e; a returned error means the backend could not run at all.
	Generate(g *Graph, e *Emitter) error
}

// runJobs runs jobs in parallel with at most limit of them in flight
func runJobs[T any](jobs []T, jobfunc func(job T) error, limit int) error {
	if len(jobs) == 0 {
		return nil
	}

	eg, _ := errgroup.WithContext(context.Background())
	eg.SetLimit(max(limit, 1))

	for _, job := range jobs {
		eg.Go(func() error {
			return jobfunc(job)
		})
	}

	return eg.Wait()
}

// buildOrder sorts targets so that every target comes after the targets it
// links against. Ties are broken by name.
func buildOrder(targets []*Target) ([]*Target, error) {
	byName := make(map[string]*Target, len(targets))
	dependents := make(map[string][]string) // target -> targets that link it
	inDegree := make(map[string]int)        // target -> unmet dependency count

	for _, t := range targets {
		byName[t.Name] = t
		inDegree[t.Name] = 0
	}
	for _, t := range targets {
		for _, dep := range t.Dependencies {
			if _, ok := byName[dep.Name]; !ok {
				continue // not built by this generator
			}
			dependents[dep.Name] = append(dependents[dep.Name], t.Name)
			inDegree[t.Name]++
		}
	}

	var queue []string
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}
	slices.Sort(queue)

	sorted := make([]*Target, 0, len(targets))
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		sorted = append(sorted, byName[u])

		next := dependents[u]
		slices.Sort(next)
		for _, v := range next {
			inDegree[v]--
			if inDegree[v] == 0 {
				queue = append(queue, v)
			}
		}
	}

	if len(sorted) != len(targets) {
		var cycle []string
		for name, degree := range inDegree {
			if degree > 0 {
				cycle = append(cycle, name)
			}
		}
		slices.Sort(cycle)
		return nil, fmt.Errorf("link cycle detected involving projects: %v", cycle)
	}
	return sorted, nil
}
