package model

import (
	"os"
	"path/filepath"
)

// ManifestName is the file, relative to the solution location, that lists
// every artifact of the last generation run.
const ManifestName = "astromake"

// Solution is the top-level unit of a workspace.
type Solution struct {
	Name            string
	Location        string
	TargetDirectory string

	Configurations []Configuration
	Platforms      []string
	Systems        SystemSet
	Architecture   Architecture

	// ProjectNames selects the authored projects taking part in the solution;
	// Projects holds them once resolved.
	ProjectNames []string
	Projects     []*Project

	PreBuildCommands  []string
	PostBuildCommands []string

	// Scripts are the build descriptions that produced this solution.
	Scripts []string
}

// NewSolution returns a solution rooted at the working directory targeting x64.
func NewSolution(name string) *Solution {
	wd, _ := os.Getwd()
	return &Solution{
		Name:         name,
		Location:     wd,
		Architecture: X64,
	}
}

// PlatformLabels combines platforms with target systems. With systems set every
// platform is suffixed with every system (`{platform}{system}`), grouped by
// system in authored order, or the systems alone are used when there are no
// platforms.
func (s *Solution) PlatformLabels() []string {
	systems := s.Systems.Systems()
	if len(systems) == 0 {
		return s.Platforms
	}
	if len(s.Platforms) == 0 {
		labels := make([]string, len(systems))
		for i, sys := range systems {
			labels[i] = sys.String()
		}
		return labels
	}
	labels := make([]string, 0, len(s.Platforms)*len(systems))
	for _, sys := range systems {
		for _, platform := range s.Platforms {
			labels = append(labels, platform+sys.String())
		}
	}
	return labels
}

func (s *Solution) Matrix() []MatrixEntry {
	return Expand(s.Configurations, s.PlatformLabels(), s.Architecture)
}

// MatrixFor returns the entries of a single configuration, in matrix order.
func (s *Solution) MatrixFor(cfg Configuration) []MatrixEntry {
	return Expand([]Configuration{cfg}, s.PlatformLabels(), s.Architecture)
}

// Path of the solution artifact.
func (s *Solution) Path() string {
	return filepath.Join(s.TargetDirectory, s.Name+".sln")
}

func (s *Solution) ManifestPath() string {
	return filepath.Join(s.Location, ManifestName)
}

// Project looks up a resolved project by name.
func (s *Solution) Project(name string) *Project {
	for _, p := range s.Projects {
		if p.Name == name {
			return p
		}
	}
	return nil
}
