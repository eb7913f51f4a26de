package workspace

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/astromake/astro/internal/model"
	"github.com/astromake/astro/internal/msg"
	"github.com/google/go-cmp/cmp"
)

func TestMain(m *testing.M) {
	msg.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func write(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	write(t, root, map[string]string{
		".gitignore":             "# generated\nignored/\n*.local.astro.toml\n",
		"demo.astro.toml":        "",
		"App/app.astro.yaml":     "",
		"Lib/lib.astro.hcl":      "",
		"Lib/old.astro.yml":      "",
		"me.local.astro.toml":    "",
		"ignored/x.astro.toml":   "",
		".git/hooks/y.astro.hcl": "",
		"notes.toml":             "",
	})

	scripts, err := Discover(root)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, s := range scripts {
		rel, _ := filepath.Rel(root, s)
		got = append(got, filepath.ToSlash(rel))
	}
	want := []string{"App/app.astro.yaml", "Lib/lib.astro.hcl", "Lib/old.astro.yml", "demo.astro.toml"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Discover mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadNoInput(t *testing.T) {
	root := t.TempDir()
	write(t, root, map[string]string{"README.md": "nothing here"})

	if _, err := Load(root, nil); !errors.Is(err, ErrNoInput) {
		t.Errorf("err = %v, want ErrNoInput", err)
	}
	if _, err := Load(root, []string{"missing.astro.toml"}); !errors.Is(err, ErrNoInput) {
		t.Errorf("err = %v, want ErrNoInput for a missing source", err)
	}
}

const demoTOML = `
[solution]
name = "Demo"
target-directory = "build"
platforms = ["OpenGL"]
systems = ["windows"]
projects = ["App", "Lib"]
pre-build = ["echo {{ configuration == '' ? 'start' : configuration }}"]

[[configuration]]
name = "Debug"
debug-symbols = true

[[configuration]]
name = "Release"
runtime = "release"
optimize = true

[project]
name = "App"
guid = "11111111-1111-4111-8111-111111111111"
files = ["src/**.cpp"]
flags = ["multi-processor-compile"]
binaries-directory = "bin/{{ configuration }}"
defines = ["APP_VERSION={{ ReadFile('VERSION') }}"]
links = ["Lib"]

[project.'configuration == "Debug"']
defines = ["DEBUG"]

[project.'host_os == "plan9"']
kind = "windowed"
`

const libYAML = `
project:
  - name: Lib
    kind: static-library
    cpp-standard: c++17
    files: ["src/*.cpp"]
    include-directories: [include]
    intermediate-directory: "obj/{{ configuration }}"
  - name: Tests
    target-name: lib_tests
    links: [Lib]
`

func TestLoadTOMLAndYAML(t *testing.T) {
	root := t.TempDir()
	write(t, root, map[string]string{
		"demo.astro.toml":    demoTOML,
		"VERSION":            "1.2.3\n",
		"Lib/lib.astro.yaml": libYAML,
	})

	ws, err := Load(root, nil)
	if err != nil {
		t.Fatal(err)
	}

	sln := ws.Solution
	if sln.Name != "Demo" || sln.Location != root || sln.TargetDirectory != filepath.Join(root, "build") {
		t.Errorf("solution = %q at %q -> %q", sln.Name, sln.Location, sln.TargetDirectory)
	}
	wantConfigs := []model.Configuration{
		{Name: "Debug", DebugSymbols: true},
		{Name: "Release", Runtime: model.RuntimeRelease, Optimize: true},
	}
	if diff := cmp.Diff(wantConfigs, sln.Configurations); diff != "" {
		t.Errorf("configurations (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"OpenGLWindows"}, sln.PlatformLabels()); diff != "" {
		t.Errorf("platform labels (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"echo start"}, sln.PreBuildCommands); diff != "" {
		t.Errorf("pre-build (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(ws.Scripts, sln.Scripts); diff != "" {
		t.Errorf("scripts (-want +got):\n%s", diff)
	}

	if len(ws.Projects) != 3 {
		t.Fatalf("got %d projects, want 3", len(ws.Projects))
	}
	lib, tests, app := ws.Projects[0], ws.Projects[1], ws.Projects[2]

	if app.GUID() != "{11111111-1111-4111-8111-111111111111}" {
		t.Errorf("App GUID = %s", app.GUID())
	}
	if app.Type != model.Console || !app.Flags.MultiProcessorCompile {
		t.Errorf("App type %s flags %v", app.Type, app.Flags.Names())
	}
	if app.Location != root || app.TargetDirectory != root {
		t.Errorf("App location %q target %q", app.Location, app.TargetDirectory)
	}
	if diff := cmp.Diff([]string{"APP_VERSION=1.2.3"}, app.Defines); diff != "" {
		t.Errorf("App defines before configure (-want +got):\n%s", diff)
	}

	if err := app.Configure(sln.Configurations[0]); err != nil {
		t.Fatal(err)
	}
	if app.BinariesDirectory != filepath.Join(root, "bin", "Debug") {
		t.Errorf("Debug binaries directory = %q", app.BinariesDirectory)
	}
	if diff := cmp.Diff([]string{"APP_VERSION=1.2.3", "DEBUG"}, app.Defines); diff != "" {
		t.Errorf("Debug defines (-want +got):\n%s", diff)
	}

	if err := app.Configure(sln.Configurations[1]); err != nil {
		t.Fatal(err)
	}
	if app.BinariesDirectory != filepath.Join(root, "bin", "Release") {
		t.Errorf("Release binaries directory = %q", app.BinariesDirectory)
	}
	if diff := cmp.Diff([]string{"APP_VERSION=1.2.3"}, app.Defines); diff != "" {
		t.Errorf("Release defines (-want +got):\n%s", diff)
	}

	libDir := filepath.Join(root, "Lib")
	if lib.Type != model.StaticLibrary || lib.CppStandard != model.Cpp17 || lib.Location != libDir {
		t.Errorf("Lib = %s %v at %q", lib.Type, lib.CppStandard, lib.Location)
	}
	if diff := cmp.Diff([]string{filepath.Join(libDir, "include")}, lib.IncludeDirectories); diff != "" {
		t.Errorf("Lib include directories (-want +got):\n%s", diff)
	}
	if err := lib.Configure(sln.Configurations[1]); err != nil {
		t.Fatal(err)
	}
	if lib.IntermediateDirectory != filepath.Join(libDir, "obj", "Release") {
		t.Errorf("Lib intermediate directory = %q", lib.IntermediateDirectory)
	}

	if tests.TargetName != "lib_tests" || tests.Script != filepath.Join(libDir, "lib.astro.yaml") {
		t.Errorf("Tests target %q script %q", tests.TargetName, tests.Script)
	}
}

const demoHCL = `
solution "Demo" {
  target_directory = "${script_dir}/out"
  projects         = ["Tool"]
  platforms        = concat(["Desktop"], ["Console"])

  configuration "Debug" {
    debug_symbols = true
  }

  configuration "Release" {
    runtime  = "release"
    optimize = true
  }
}

project "Tool" {
  language           = "c#"
  dotnet_sdk         = "net6.0"
  files              = ["**.cs"]
  target_name        = join("-", ["tool", lower(arch)])
  binaries_directory = "bin/${lower(configuration)}"
  defines            = [format("LEVEL_%s", upper(configuration))]
}
`

func TestLoadHCL(t *testing.T) {
	root := t.TempDir()
	write(t, root, map[string]string{"tool.astro.hcl": demoHCL})

	ws, err := Load(root, []string{"tool.astro.hcl"})
	if err != nil {
		t.Fatal(err)
	}

	sln := ws.Solution
	if sln.Name != "Demo" || sln.TargetDirectory != filepath.Join(root, "out") {
		t.Errorf("solution %q -> %q", sln.Name, sln.TargetDirectory)
	}
	if diff := cmp.Diff([]string{"Desktop", "Console"}, sln.Platforms); diff != "" {
		t.Errorf("platforms (-want +got):\n%s", diff)
	}
	if len(sln.Configurations) != 2 || sln.Configurations[1].Runtime != model.RuntimeRelease || !sln.Configurations[0].DebugSymbols {
		t.Errorf("configurations = %+v", sln.Configurations)
	}

	tool := ws.Projects[0]
	if tool.Language != model.LanguageCSharp || tool.DotNetSDK != model.DotNet6 {
		t.Errorf("Tool language %s sdk %v", tool.Language, tool.DotNetSDK)
	}
	if want := "tool-" + strings.ToLower(model.HostArchitecture().String()); tool.TargetName != want {
		t.Errorf("target name = %q, want %q", tool.TargetName, want)
	}

	if err := tool.Configure(sln.Configurations[1]); err != nil {
		t.Fatal(err)
	}
	if tool.BinariesDirectory != filepath.Join(root, "bin", "release") {
		t.Errorf("binaries directory = %q", tool.BinariesDirectory)
	}
	if diff := cmp.Diff([]string{"LEVEL_RELEASE"}, tool.Defines); diff != "" {
		t.Errorf("defines (-want +got):\n%s", diff)
	}
}

func TestLoadFrontEndErrors(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
	}{
		{"no solution", map[string]string{"a.astro.toml": "[project]\nname = \"A\"\n"}},
		{"two solutions", map[string]string{
			"a.astro.toml": "[solution]\nname = \"A\"\n",
			"b.astro.yaml": "solution:\n  name: B\n",
		}},
		{"toml syntax", map[string]string{"a.astro.toml": "[solution\nname = \"A\"\n"}},
		{"hcl syntax", map[string]string{"a.astro.hcl": "solution \"A\" {\n"}},
		{"unknown section", map[string]string{"a.astro.toml": "[solution]\nname = \"A\"\n[package]\nname = \"B\"\n"}},
		{"bad expression", map[string]string{"a.astro.toml": "[solution]\nname = \"{{ nope( }}\"\n"}},
		{"unknown kind", map[string]string{"a.astro.toml": "[solution]\nname = \"A\"\n[project]\nname = \"B\"\nkind = \"plugin\"\n"}},
		{"unknown hcl variable", map[string]string{"a.astro.hcl": "solution \"A\" {\n  target_directory = missing\n}\n"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			write(t, root, tt.files)
			if _, err := Load(root, nil); !errors.Is(err, ErrFrontEnd) {
				t.Errorf("err = %v, want ErrFrontEnd", err)
			}
		})
	}
}

func TestEvaluateString(t *testing.T) {
	env := Env{HostOS: "linux", Arch: "x64", Configuration: "Debug", Environ: map[string]string{"CC": "clang"}}
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"bin/{{ configuration }}", "bin/Debug"},
		{"{{ host_os }}-{{ arch }}", "linux-x64"},
		{"{{ environ['CC'] }}", "clang"},
		{"{{ configuration == 'Debug' }}", "true"},
	}
	for _, tt := range tests {
		got, err := evaluateString(tt.in, env)
		if err != nil {
			t.Errorf("evaluateString(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("evaluateString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMergeStructs(t *testing.T) {
	dst := projectSection{Kind: "console", Defines: []string{"A"}}
	src := projectSection{Kind: "windowed", Defines: []string{"B"}, Files: []string{"x.cpp"}}
	if err := mergeStructs(&dst, src); err != nil {
		t.Fatal(err)
	}
	want := projectSection{Kind: "windowed", Defines: []string{"A", "B"}, Files: []string{"x.cpp"}}
	if diff := cmp.Diff(want, dst); diff != "" {
		t.Errorf("mergeStructs (-want +got):\n%s", diff)
	}

	if err := mergeStructs(dst, src); err == nil {
		t.Error("expected an error for a non-pointer destination")
	}
}
