package workspace

import (
	"fmt"
	"path/filepath"
	"reflect"
	"slices"

	"github.com/astromake/astro/internal/model"
	"github.com/expr-lang/expr"
	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"
)

// solutionSection defines the [solution] section and the solution block
type solutionSection struct {
	Name            string   `toml:"name" hcl:"name,label"`
	Location        string   `toml:"location" hcl:"location,optional"`
	TargetDirectory string   `toml:"target-directory" hcl:"target_directory,optional"`
	Architecture    string   `toml:"architecture" hcl:"architecture,optional"`
	Platforms       []string `toml:"platforms" hcl:"platforms,optional"`
	Systems         []string `toml:"systems" hcl:"systems,optional"`
	Projects        []string `toml:"projects" hcl:"projects,optional"`
	PreBuild        []string `toml:"pre-build" hcl:"pre_build,optional"`
	PostBuild       []string `toml:"post-build" hcl:"post_build,optional"`

	Configurations []configurationSection `toml:"-" hcl:"configuration,block"`
}

// configurationSection defines one [[configuration]] entry
type configurationSection struct {
	Name         string `toml:"name" hcl:"name,label"`
	Runtime      string `toml:"runtime" hcl:"runtime,optional"`
	Optimize     bool   `toml:"optimize" hcl:"optimize,optional"`
	DebugSymbols bool   `toml:"debug-symbols" hcl:"debug_symbols,optional"`
}

// projectSection defines a [project] section or the body of a project block
type projectSection struct {
	Name          string   `toml:"name"`
	GUID          string   `toml:"guid" hcl:"guid,optional"`
	Kind          string   `toml:"kind" hcl:"kind,optional"`
	Language      string   `toml:"language" hcl:"language,optional"`
	CStandard     string   `toml:"c-standard" hcl:"c_standard,optional"`
	CppStandard   string   `toml:"cpp-standard" hcl:"cpp_standard,optional"`
	CSharpVersion string   `toml:"csharp-version" hcl:"csharp_version,optional"`
	DotNetSDK     string   `toml:"dotnet-sdk" hcl:"dotnet_sdk,optional"`
	Flags         []string `toml:"flags" hcl:"flags,optional"`

	Location              string `toml:"location" hcl:"location,optional"`
	TargetDirectory       string `toml:"target-directory" hcl:"target_directory,optional"`
	TargetName            string `toml:"target-name" hcl:"target_name,optional"`
	BinariesDirectory     string `toml:"binaries-directory" hcl:"binaries_directory,optional"`
	IntermediateDirectory string `toml:"intermediate-directory" hcl:"intermediate_directory,optional"`

	Files              []string `toml:"files" hcl:"files,optional"`
	AdditionalFiles    []string `toml:"additional-files" hcl:"additional_files,optional"`
	IncludeDirectories []string `toml:"include-directories" hcl:"include_directories,optional"`
	LibraryDirectories []string `toml:"library-directories" hcl:"library_directories,optional"`
	Defines            []string `toml:"defines" hcl:"defines,optional"`
	Links              []string `toml:"links" hcl:"links,optional"`
}

// mergeStructs merges the fields of the src struct into the dst struct
func mergeStructs(dst, src any) error {
	dstVal := reflect.ValueOf(dst)
	if dstVal.Kind() != reflect.Pointer || dstVal.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("dst must be a pointer to a struct")
	}

	dstElem := dstVal.Elem()
	srcVal := reflect.ValueOf(src)
	if srcVal.Kind() == reflect.Pointer {
		srcVal = srcVal.Elem()
	}
	if srcVal.Kind() != reflect.Struct {
		return fmt.Errorf("src must be a struct or a pointer to a struct")
	}
	if dstElem.Type() != srcVal.Type() {
		return fmt.Errorf("dst and src must be of the same struct type")
	}

	for i := range srcVal.NumField() {
		srcField := srcVal.Field(i)
		dstField := dstElem.Field(i)
		if !dstField.CanSet() {
			continue
		}

		switch dstField.Kind() {
		case reflect.Slice:
			if !srcField.IsNil() {
				dstField.Set(reflect.AppendSlice(dstField, srcField))
			}
		case reflect.Bool:
			dstField.SetBool(dstField.Bool() || srcField.Bool())
		default:
			if !srcField.IsZero() {
				dstField.Set(srcField)
			}
		}
	}

	return nil
}

func mustMarshal(v any) []byte {
	b, err := toml.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

// decodeSection unmarshals already evaluated script data into dst
func decodeSection(data any, dst any) error {
	return toml.Unmarshal(mustMarshal(data), dst)
}

// decodeConditional parses a section, then merges every table-valued key that
// compiles as an expression evaluating to true. Such keys are applied in
// sorted order so the result does not depend on map iteration.
func decodeConditional[T any](section map[string]any, name string, dst *T, env Env) error {
	base := make(map[string]any)
	conditional := make(map[string]map[string]any)

	for key, val := range section {
		if sub, ok := val.(map[string]any); ok {
			if _, err := expr.Compile(key, expr.Env(env), expr.AsBool()); err == nil {
				conditional[key] = sub
				continue
			}
		}
		base[key] = val
	}

	if len(base) > 0 {
		if err := decodeSection(base, dst); err != nil {
			return fmt.Errorf("failed to parse [%s] section: %w", name, err)
		}
	}

	keys := make([]string, 0, len(conditional))
	for key := range conditional {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	for _, expression := range keys {
		program, err := expr.Compile(expression, expr.Env(env), expr.AsBool())
		if err != nil {
			return fmt.Errorf("failed to compile expression for [%s.%q]: %w", name, expression, err)
		}
		result, err := expr.Run(program, env)
		if err != nil {
			return fmt.Errorf("failed to run expression for [%s.%q]: %w", name, expression, err)
		}
		if matched, ok := result.(bool); !ok || !matched {
			continue
		}

		var cond T
		if err := decodeSection(conditional[expression], &cond); err != nil {
			return fmt.Errorf("failed to parse conditional section [%s.%q]: %w", name, expression, err)
		}
		if err := mergeStructs(dst, cond); err != nil {
			return fmt.Errorf("failed to merge conditional section [%s.%q]: %w", name, expression, err)
		}
	}

	return nil
}

// resolvePath makes path absolute against dir
func resolvePath(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, filepath.FromSlash(path))
}

func resolvePaths(dir string, paths []string) []string {
	if paths == nil {
		return nil
	}
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = resolvePath(dir, p)
	}
	return out
}

// buildSolution turns a decoded solution into the model. Relative paths are
// taken from scriptDir, which is also the default location.
func buildSolution(sec solutionSection, configs []configurationSection, scriptDir string) (*model.Solution, error) {
	sln := model.NewSolution(sec.Name)
	sln.Location = scriptDir
	if sec.Location != "" {
		sln.Location = resolvePath(scriptDir, sec.Location)
	}
	sln.TargetDirectory = resolvePath(scriptDir, sec.TargetDirectory)

	if sec.Architecture != "" {
		arch, err := model.ParseArchitecture(sec.Architecture)
		if err != nil {
			return nil, err
		}
		sln.Architecture = arch
	}
	systems, err := model.ParseSystemSet(sec.Systems)
	if err != nil {
		return nil, err
	}
	sln.Systems = systems
	sln.Platforms = sec.Platforms
	sln.ProjectNames = sec.Projects
	sln.PreBuildCommands = sec.PreBuild
	sln.PostBuildCommands = sec.PostBuild

	for _, c := range configs {
		cfg := model.Configuration{Name: c.Name, Optimize: c.Optimize, DebugSymbols: c.DebugSymbols}
		if c.Runtime != "" {
			if cfg.Runtime, err = model.ParseRuntime(c.Runtime); err != nil {
				return nil, fmt.Errorf("configuration %s: %w", c.Name, err)
			}
		}
		sln.Configurations = append(sln.Configurations, cfg)
	}
	return sln, nil
}

// buildProject turns a decoded project into the model.
func buildProject(sec projectSection, scriptPath string) (*model.Project, error) {
	scriptDir := filepath.Dir(scriptPath)

	var p *model.Project
	if sec.GUID != "" {
		id, err := uuid.Parse(sec.GUID)
		if err != nil {
			return nil, fmt.Errorf("project %s: guid: %w", sec.Name, err)
		}
		p = model.NewProjectWithIdentifier(sec.Name, id)
	} else {
		p = model.NewProject(sec.Name)
	}
	p.Script = scriptPath

	var err error
	if sec.Kind != "" {
		if p.Type, err = model.ParseOutputType(sec.Kind); err != nil {
			return nil, fmt.Errorf("project %s: %w", sec.Name, err)
		}
	}
	if sec.Language != "" {
		if p.Language, err = model.ParseLanguage(sec.Language); err != nil {
			return nil, fmt.Errorf("project %s: %w", sec.Name, err)
		}
	}
	if sec.CStandard != "" {
		if p.CStandard, err = model.ParseCStandard(sec.CStandard); err != nil {
			return nil, fmt.Errorf("project %s: %w", sec.Name, err)
		}
	}
	if sec.CppStandard != "" {
		if p.CppStandard, err = model.ParseCppStandard(sec.CppStandard); err != nil {
			return nil, fmt.Errorf("project %s: %w", sec.Name, err)
		}
	}
	if sec.CSharpVersion != "" {
		if p.CSharpVersion, err = model.ParseCSharpVersion(sec.CSharpVersion); err != nil {
			return nil, fmt.Errorf("project %s: %w", sec.Name, err)
		}
	}
	if sec.DotNetSDK != "" {
		if p.DotNetSDK, err = model.ParseDotNetSDK(sec.DotNetSDK); err != nil {
			return nil, fmt.Errorf("project %s: %w", sec.Name, err)
		}
	}
	if p.Flags, err = model.ParseProjectFlags(sec.Flags); err != nil {
		return nil, fmt.Errorf("project %s: %w", sec.Name, err)
	}

	p.Location = scriptDir
	if sec.Location != "" {
		p.Location = resolvePath(scriptDir, sec.Location)
	}
	p.TargetDirectory = scriptDir
	if sec.TargetDirectory != "" {
		p.TargetDirectory = resolvePath(scriptDir, sec.TargetDirectory)
	}
	if sec.TargetName != "" {
		p.TargetName = sec.TargetName
	}

	p.Files = sec.Files
	p.AdditionalFiles = sec.AdditionalFiles
	p.IncludeDirectories = resolvePaths(scriptDir, sec.IncludeDirectories)
	p.LibraryDirectories = resolvePaths(scriptDir, sec.LibraryDirectories)
	p.Links = sec.Links
	applyConfigured(p, sec, scriptDir)

	return p, nil
}

// applyConfigured sets the fields a configuration hook may change
func applyConfigured(p *model.Project, sec projectSection, scriptDir string) {
	p.BinariesDirectory = resolvePath(scriptDir, sec.BinariesDirectory)
	p.IntermediateDirectory = resolvePath(scriptDir, sec.IntermediateDirectory)
	p.Defines = sec.Defines
}
