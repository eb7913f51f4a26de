package model

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
)

// ConfigureFunc is the per-configuration hook of a project. It runs once per
// configuration, in configuration order, before that configuration's block of
// the project artifact is written.
type ConfigureFunc func(p *Project, cfg Configuration) error

// Project is one compilation unit of a solution.
type Project struct {
	Name     string
	Location string

	TargetDirectory string
	TargetName      string

	BinariesDirectory     string
	IntermediateDirectory string

	Type          OutputType
	Language      Language
	CStandard     CStandard
	CppStandard   CppStandard
	CSharpVersion CSharpVersion
	DotNetSDK     DotNetSDK
	Flags         ProjectFlags

	Files              []string
	AdditionalFiles    []string
	IncludeDirectories []string
	LibraryDirectories []string
	Defines            []string
	Links              []string

	// Script is the build description that authored the project, if any.
	Script string

	OnConfigure ConfigureFunc

	id uuid.UUID
}

// NewProject returns a C++ console project with a freshly assigned identifier.
func NewProject(name string) *Project {
	return NewProjectWithIdentifier(name, uuid.New())
}

// NewProjectWithIdentifier is NewProject with a caller supplied identifier,
// used by front ends that pin identifiers across runs.
func NewProjectWithIdentifier(name string, id uuid.UUID) *Project {
	return &Project{
		Name:          name,
		TargetName:    name,
		Language:      LanguageCPlusPlus,
		CStandard:     C17,
		CppStandard:   Cpp20,
		CSharpVersion: CSharp11,
		DotNetSDK:     DotNet8,
		id:            id,
	}
}

func (p *Project) Identifier() uuid.UUID { return p.id }

// GUID is the identifier as embedded in solution and project artifacts.
func (p *Project) GUID() string { return FormatIdentifier(p.id) }

// KindIdentifier tags the project type in the solution artifact.
func (p *Project) KindIdentifier() uuid.UUID {
	if p.Language == LanguageCSharp {
		return KindManaged
	}
	return KindNative
}

// Extension of the project artifact.
func (p *Project) Extension() string {
	if p.Language == LanguageCSharp {
		return ".csproj"
	}
	return ".vcxproj"
}

// TargetPath is the location of the project artifact.
func (p *Project) TargetPath() string {
	return filepath.Join(p.TargetDirectory, p.TargetName+p.Extension())
}

// Configure runs the configuration hook, if any.
func (p *Project) Configure(cfg Configuration) error {
	if p.OnConfigure == nil {
		return nil
	}
	if err := p.OnConfigure(p, cfg); err != nil {
		return fmt.Errorf("configure %s for %s: %w", p.Name, cfg.Name, err)
	}
	return nil
}

// UsesModules reports whether C++ module support is both requested and allowed.
func (p *Project) UsesModules() bool {
	return p.Flags.ModuleSupport && p.Language == LanguageCPlusPlus && p.CppStandard >= ModulesMinimum
}
