package gen

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/astromake/astro/internal/manifest"
	"github.com/astromake/astro/internal/model"
	"github.com/astromake/astro/internal/msg"
	"github.com/astromake/astro/internal/version"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

func TestMain(m *testing.M) {
	msg.SetOutput(io.Discard)
	os.Exit(m.Run())
}

var (
	appID = uuid.MustParse("11111111-1111-4111-8111-111111111111")
	libID = uuid.MustParse("22222222-2222-4222-8222-222222222222")
)

// testGraph is App linking Lib, both emitted to /ws/build.
func testGraph() *Graph {
	sln := &model.Solution{
		Name:            "Demo",
		Location:        "/ws",
		TargetDirectory: "/ws/build",
		Configurations: []model.Configuration{
			{Name: "Debug", Runtime: model.RuntimeDebug, DebugSymbols: true},
			{Name: "Release", Runtime: model.RuntimeRelease, Optimize: true},
		},
		Architecture: model.X64,
		Scripts:      []string{"/ws/demo.astro.toml"},
	}

	lib := model.NewProjectWithIdentifier("Lib", libID)
	lib.Location = "/ws/Lib"
	lib.TargetDirectory = "/ws/build"
	lib.Type = model.StaticLibrary

	app := model.NewProjectWithIdentifier("App", appID)
	app.Location = "/ws/App"
	app.TargetDirectory = "/ws/build"
	app.Defines = []string{"APP"}
	app.IncludeDirectories = []string{"/ws/Lib/include"}
	app.Links = []string{"Lib"}

	sln.ProjectNames = []string{"App", "Lib"}
	sln.Projects = []*model.Project{app, lib}

	return &Graph{
		Solution: sln,
		Targets: []*Target{
			{
				Project:      app,
				Sources:      []string{"/ws/App/src/main.cpp"},
				Headers:      []string{"/ws/App/src/main.h"},
				Additional:   []string{"/ws/App/README.md"},
				Dependencies: []*model.Project{lib},
			},
			{
				Project: lib,
				Sources: []string{"/ws/Lib/src/lib.cpp", "/ws/Lib/src/util.c"},
			},
		},
	}
}

func TestWriteSolution(t *testing.T) {
	var buf bytes.Buffer
	if err := writeSolution(&buf, testGraph()); err != nil {
		t.Fatal(err)
	}

	banner := version.Banner("solution")
	want := strings.Join([]string{
		"Microsoft Visual Studio Solution File, Format Version 12.00",
		"# Visual Studio Version 17",
		"# " + banner[0],
		"# " + banner[1],
		"VisualStudioVersion = 17.0.31903.59",
		"MinimumVisualStudioVersion = 10.0.40219.1",
		`Project("{8BC9CEB8-8B4A-11D0-8D11-00A0C91BC942}") = "App", "App.vcxproj", "{11111111-1111-4111-8111-111111111111}"`,
		"EndProject",
		`Project("{8BC9CEB8-8B4A-11D0-8D11-00A0C91BC942}") = "Lib", "Lib.vcxproj", "{22222222-2222-4222-8222-222222222222}"`,
		"EndProject",
		`Project("{2150E333-8FDC-42A3-9474-1A3956D46DE8}") = "Solution Items", "Solution Items", "{0A57C0DE-0000-0000-0000-A57A0A57A0A5}"`,
		"\tProjectSection(SolutionItems) = preProject",
		`		..\demo.astro.toml = ..\demo.astro.toml`,
		"\tEndProjectSection",
		"EndProject",
		"Global",
		"\tGlobalSection(SolutionConfigurationPlatforms) = preSolution",
		"\t\tDebug|x64 = Debug|x64",
		"\t\tRelease|x64 = Release|x64",
		"\tEndGlobalSection",
		"\tGlobalSection(ProjectConfigurationPlatforms) = postSolution",
		"\t\t{11111111-1111-4111-8111-111111111111}.Debug|x64.ActiveCfg = Debug|x64",
		"\t\t{11111111-1111-4111-8111-111111111111}.Debug|x64.Build.0 = Debug|x64",
		"\t\t{11111111-1111-4111-8111-111111111111}.Release|x64.ActiveCfg = Release|x64",
		"\t\t{11111111-1111-4111-8111-111111111111}.Release|x64.Build.0 = Release|x64",
		"\t\t{22222222-2222-4222-8222-222222222222}.Debug|x64.ActiveCfg = Debug|x64",
		"\t\t{22222222-2222-4222-8222-222222222222}.Debug|x64.Build.0 = Debug|x64",
		"\t\t{22222222-2222-4222-8222-222222222222}.Release|x64.ActiveCfg = Release|x64",
		"\t\t{22222222-2222-4222-8222-222222222222}.Release|x64.Build.0 = Release|x64",
		"\tEndGlobalSection",
		"\tGlobalSection(SolutionProperties) = preSolution",
		"\t\tHideSolutionNode = FALSE",
		"\tEndGlobalSection",
		"EndGlobal",
		"",
	}, "\n")

	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("solution mismatch (-want +got):\n%s", diff)
	}
}

func TestSlnWriterSectionStack(t *testing.T) {
	var w slnWriter
	w.begin("Global", "", "")
	w.begin("GlobalSection", "A", "preSolution")
	w.begin("Nested", "", "")
	w.end()
	w.end()
	w.end()

	want := "Global\n\tGlobalSection(A) = preSolution\n\t\tNested\n\t\tEndNested\n\tEndGlobalSection\nEndGlobal\n"
	if got := w.sb.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	defer func() {
		if recover() == nil {
			t.Error("end without begin did not panic")
		}
	}()
	w.end()
}

// element is a flattened XML element used to inspect generated project files
type element struct {
	name   string
	parent string
	attrs  map[string]string
	text   string
}

func parseElements(t *testing.T, data []byte) []element {
	t.Helper()
	type open struct {
		el   element
		text strings.Builder
	}
	var stack []*open
	var out []element
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("invalid XML: %v", err)
		}
		switch tok := tok.(type) {
		case xml.StartElement:
			el := element{name: tok.Name.Local, attrs: map[string]string{}}
			if len(stack) > 0 {
				el.parent = stack[len(stack)-1].el.name
			}
			for _, a := range tok.Attr {
				el.attrs[a.Name.Local] = a.Value
			}
			stack = append(stack, &open{el: el})
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(tok)
			}
		case xml.EndElement:
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			top.el.text = strings.TrimSpace(top.text.String())
			out = append(out, top.el)
		}
	}
	return out
}

func find(els []element, name string) []element {
	var found []element
	for _, el := range els {
		if el.name == name {
			found = append(found, el)
		}
	}
	return found
}

func attrs(els []element, attr string) []string {
	var values []string
	for _, el := range els {
		values = append(values, el.attrs[attr])
	}
	return values
}

func texts(els []element) []string {
	var values []string
	for _, el := range els {
		values = append(values, el.text)
	}
	return values
}

func TestWriteVcxproj(t *testing.T) {
	g := testGraph()
	app := g.Target("App")

	var buf bytes.Buffer
	if err := writeVcxproj(&buf, g.Solution, app); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), xml.Header) {
		t.Errorf("missing XML declaration")
	}
	els := parseElements(t, buf.Bytes())

	if diff := cmp.Diff([]string{"Debug|x64", "Release|x64"}, attrs(find(els, "ProjectConfiguration"), "Include")); diff != "" {
		t.Errorf("project configurations (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{app.GUID()}, texts(find(els, "ProjectGuid"))); diff != "" {
		t.Errorf("project guid (-want +got):\n%s", diff)
	}

	refs := find(els, "ProjectReference")
	if diff := cmp.Diff([]string{"Lib.vcxproj"}, attrs(refs, "Include")); diff != "" {
		t.Errorf("reference path (-want +got):\n%s", diff)
	}
	var refIDs []string
	for _, el := range find(els, "Project") {
		if el.parent == "ProjectReference" {
			refIDs = append(refIDs, el.text)
		}
	}
	if diff := cmp.Diff([]string{g.Target("Lib").GUID()}, refIDs); diff != "" {
		t.Errorf("reference identifier (-want +got):\n%s", diff)
	}

	var compiled []string
	for _, el := range find(els, "ClCompile") {
		if el.parent == "ItemGroup" {
			compiled = append(compiled, el.attrs["Include"])
		}
	}
	if diff := cmp.Diff([]string{`..\App\src\main.cpp`}, compiled); diff != "" {
		t.Errorf("compile units (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{`..\App\src\main.h`}, attrs(find(els, "ClInclude"), "Include")); diff != "" {
		t.Errorf("headers (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{`..\App\README.md`}, attrs(find(els, "None"), "Include")); diff != "" {
		t.Errorf("additional files (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(map[string]string{
		"'$(Configuration)|$(Platform)'=='Debug|x64'":   "APP;%(PreprocessorDefinitions)",
		"'$(Configuration)|$(Platform)'=='Release|x64'": "APP;%(PreprocessorDefinitions)",
	}, definesByCondition(els)); diff != "" {
		t.Errorf("defines (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{`..\Lib\include;%(AdditionalIncludeDirectories)`}, texts(find(els, "AdditionalIncludeDirectories"))); diff != "" {
		t.Errorf("include directories (-want +got):\n%s", diff)
	}

	var conditions []string
	for _, el := range find(els, "ItemDefinitionGroup") {
		if c := el.attrs["Condition"]; c != "" {
			conditions = append(conditions, c)
		}
	}
	want := []string{
		"'$(Configuration)|$(Platform)'=='Debug|x64'",
		"'$(Configuration)|$(Platform)'=='Release|x64'",
	}
	if diff := cmp.Diff(want, conditions); diff != "" {
		t.Errorf("configuration blocks (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Disabled", "MaxSpeed"}, texts(find(els, "Optimization"))); diff != "" {
		t.Errorf("optimization (-want +got):\n%s", diff)
	}
}

func TestVcxprojModules(t *testing.T) {
	g := testGraph()
	app := g.Target("App")
	app.Flags.ModuleSupport = true

	for std, want := range map[model.CppStandard]string{model.Cpp17: "false", model.Cpp20: "true"} {
		app.CppStandard = std
		var buf bytes.Buffer
		if err := writeVcxproj(&buf, g.Solution, app); err != nil {
			t.Fatal(err)
		}
		got := texts(find(parseElements(t, buf.Bytes()), "EnableModules"))
		if diff := cmp.Diff([]string{want}, got); diff != "" {
			t.Errorf("%s: EnableModules (-want +got):\n%s", std.MSBuild(), diff)
		}
	}
}

func TestVcxprojConfigureOrder(t *testing.T) {
	g := testGraph()
	g.Solution.Platforms = []string{"OpenGL", "Vulkan"}
	app := g.Target("App")

	var calls []string
	app.OnConfigure = func(p *model.Project, cfg model.Configuration) error {
		calls = append(calls, cfg.Name)
		p.BinariesDirectory = "/ws/bin/" + cfg.Name
		return nil
	}

	var buf bytes.Buffer
	if err := writeVcxproj(&buf, g.Solution, app); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"Debug", "Release"}, calls); diff != "" {
		t.Errorf("hook calls (-want +got):\n%s", diff)
	}

	els := parseElements(t, buf.Bytes())
	var outDirs []string
	for _, el := range find(els, "OutDir") {
		outDirs = append(outDirs, el.text)
	}
	want := []string{`..\bin\Debug\`, `..\bin\Debug\`, `..\bin\Release\`, `..\bin\Release\`}
	if diff := cmp.Diff(want, outDirs); diff != "" {
		t.Errorf("output directories (-want +got):\n%s", diff)
	}
	includes := attrs(find(els, "ProjectConfiguration"), "Include")
	if diff := cmp.Diff([]string{"OpenGL Debug|x64", "Vulkan Debug|x64", "OpenGL Release|x64", "Vulkan Release|x64"}, includes); diff != "" {
		t.Errorf("configurations (-want +got):\n%s", diff)
	}
}

// definesByCondition maps the condition of every ItemDefinitionGroup to the
// PreprocessorDefinitions it declares. The shared group uses the key "".
func definesByCondition(els []element) map[string]string {
	defines := make(map[string]string)
	var pending []string
	for _, el := range els {
		switch {
		case el.name == "PreprocessorDefinitions":
			pending = append(pending, el.text)
		case el.name == "ItemDefinitionGroup":
			if len(pending) > 0 {
				defines[el.attrs["Condition"]] = strings.Join(pending, " | ")
			}
			pending = nil
		}
	}
	return defines
}

func TestVcxprojConfiguredDefines(t *testing.T) {
	g := testGraph()
	app := g.Target("App")
	app.Defines = []string{"CFG="}
	app.OnConfigure = func(p *model.Project, cfg model.Configuration) error {
		p.Defines = []string{"APP", "CFG=" + cfg.Name}
		return nil
	}

	var buf bytes.Buffer
	if err := writeVcxproj(&buf, g.Solution, app); err != nil {
		t.Fatal(err)
	}
	want := map[string]string{
		"'$(Configuration)|$(Platform)'=='Debug|x64'":   "APP;CFG=Debug;%(PreprocessorDefinitions)",
		"'$(Configuration)|$(Platform)'=='Release|x64'": "APP;CFG=Release;%(PreprocessorDefinitions)",
	}
	if diff := cmp.Diff(want, definesByCondition(parseElements(t, buf.Bytes()))); diff != "" {
		t.Errorf("effective defines per configuration (-want +got):\n%s", diff)
	}
}

func TestWriteFilters(t *testing.T) {
	g := testGraph()
	app := g.Targets[0]
	app.Sources = append(app.Sources, "/ws/App/src/gfx/draw.cpp", "/ws/App/main.cpp", "/ws/Shared/common.cpp")

	var first, second bytes.Buffer
	if err := writeFilters(&first, app); err != nil {
		t.Fatal(err)
	}
	if err := writeFilters(&second, app); err != nil {
		t.Fatal(err)
	}
	if first.String() != second.String() {
		t.Error("filters differ between runs")
	}

	els := parseElements(t, first.Bytes())
	filters := find(els, "Filter")
	var declared, assigned []string
	for _, f := range filters {
		if f.parent == "ItemGroup" {
			declared = append(declared, f.attrs["Include"])
		} else {
			assigned = append(assigned, f.text)
		}
	}
	if diff := cmp.Diff([]string{"src", `src\gfx`}, declared); diff != "" {
		t.Errorf("declared filters (-want +got):\n%s", diff)
	}
	// main.cpp, draw.cpp, main.h; top level and outside files have none
	if diff := cmp.Diff([]string{"src", `src\gfx`, "src"}, assigned); diff != "" {
		t.Errorf("assigned filters (-want +got):\n%s", diff)
	}

	ids := texts(find(els, "UniqueIdentifier"))
	if len(ids) != 2 || ids[0] == ids[1] || ids[0] != filterIdentifier(app.Project, "src") {
		t.Errorf("filter identifiers = %v", ids)
	}
	if diff := cmp.Diff([]string{`..\App\src\main.cpp`, `..\App\src\gfx\draw.cpp`, `..\App\main.cpp`, `..\Shared\common.cpp`},
		attrs(find(els, "ClCompile"), "Include")); diff != "" {
		t.Errorf("items (-want +got):\n%s", diff)
	}
}

func TestWriteCsproj(t *testing.T) {
	g := testGraph()
	tool := model.NewProject("Tool")
	tool.Language = model.LanguageCSharp
	tool.Location = "/ws/Tool"
	tool.TargetDirectory = "/ws/build"
	target := &Target{Project: tool, Sources: []string{"/ws/Tool/Program.cs"}, Dependencies: []*model.Project{g.Target("Lib").Project}}

	var buf bytes.Buffer
	if err := writeCsproj(&buf, g.Solution, target); err != nil {
		t.Fatal(err)
	}
	els := parseElements(t, buf.Bytes())

	root := find(els, "Project")
	if sdk := root[len(root)-1].attrs["Sdk"]; sdk != "Microsoft.NET.Sdk" {
		t.Errorf("Sdk = %q", sdk)
	}
	if diff := cmp.Diff([]string{"Exe"}, texts(find(els, "OutputType"))); diff != "" {
		t.Errorf("output type (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"net8.0"}, texts(find(els, "TargetFramework"))); diff != "" {
		t.Errorf("framework (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{`..\Tool\Program.cs`}, attrs(find(els, "Compile"), "Include")); diff != "" {
		t.Errorf("compile items (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Program.cs"}, texts(find(els, "Link"))); diff != "" {
		t.Errorf("link names (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Lib.vcxproj"}, attrs(find(els, "ProjectReference"), "Include")); diff != "" {
		t.Errorf("references (-want +got):\n%s", diff)
	}
}

func TestEmitter(t *testing.T) {
	dir := t.TempDir()
	m := manifest.New()
	e := NewEmitter(m, nil)

	path := filepath.Join(dir, "out", "a.txt")
	render := func(w io.Writer) error {
		_, err := io.WriteString(w, "hello\n")
		return err
	}
	if err := e.Emit(path, render); err != nil {
		t.Fatal(err)
	}
	if data, err := os.ReadFile(path); err != nil || string(data) != "hello\n" {
		t.Fatalf("file = %q, %v", data, err)
	}
	if !m.Has(path) || !m.Has(filepath.Join(dir, "out")) {
		t.Errorf("manifest is missing the file or its directory: %v", m.Paths())
	}

	if err := e.Emit(path, render); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{path}, e.Unchanged()); diff != "" {
		t.Errorf("unchanged (-want +got):\n%s", diff)
	}

	failing := filepath.Join(dir, "out", "b.txt")
	err := e.Emit(failing, func(w io.Writer) error {
		io.WriteString(w, "partial")
		return errors.New("boom")
	})
	var artifactErr *ArtifactError
	if !errors.As(err, &artifactErr) || artifactErr.Path != failing {
		t.Fatalf("err = %v, want ArtifactError for %s", err, failing)
	}
	if _, err := os.Stat(failing); !os.IsNotExist(err) {
		t.Errorf("failed artifact was written")
	}

	panicking := filepath.Join(dir, "out", "c.txt")
	if err := e.Emit(panicking, func(w io.Writer) error { panic("nil project") }); err == nil {
		t.Error("panicking render did not fail")
	}

	if err := e.Err(); !errors.As(err, &artifactErr) {
		t.Errorf("Err() = %v", err)
	}
	if len(e.Written()) != 1 {
		t.Errorf("written = %v", e.Written())
	}
}

func TestLineChanges(t *testing.T) {
	ins, del := lineChanges("a\nb\nc\n", "a\nB\nc\nd\n")
	if ins != 2 || del != 1 {
		t.Errorf("lineChanges = +%d -%d, want +2 -1", ins, del)
	}
}

func TestVisualStudioGen(t *testing.T) {
	dir := t.TempDir()
	g := testGraph()
	g.Solution.TargetDirectory = dir
	for _, target := range g.Targets {
		target.TargetDirectory = dir
	}

	var mu sync.Mutex
	calls := map[string][]string{}
	for _, target := range g.Targets {
		target.OnConfigure = func(p *model.Project, cfg model.Configuration) error {
			mu.Lock()
			calls[p.Name] = append(calls[p.Name], cfg.Name)
			mu.Unlock()
			return nil
		}
	}
	failing := model.NewProject("Broken")
	failing.TargetDirectory = dir
	failing.OnConfigure = func(*model.Project, model.Configuration) error { return errors.New("hook failed") }
	g.Targets = append(g.Targets, &Target{Project: failing})

	gen := NewVisualStudioGen(2)
	if n := gen.Artifacts(g); n != 7 {
		t.Errorf("Artifacts = %d, want 7", n)
	}
	e := NewEmitter(nil, nil)
	if err := gen.Generate(g, e); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"App.vcxproj", "App.vcxproj.filters", "Lib.vcxproj", "Lib.vcxproj.filters", "Demo.sln"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
	for _, name := range []string{"Broken.vcxproj", "Broken.vcxproj.filters"} {
		if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
			t.Errorf("%s was written for a failed project", name)
		}
	}
	if e.Err() == nil {
		t.Error("expected the failing project to be reported")
	}
	for _, name := range []string{"App", "Lib"} {
		if diff := cmp.Diff([]string{"Debug", "Release"}, calls[name]); diff != "" {
			t.Errorf("%s hook calls (-want +got):\n%s", name, diff)
		}
	}
}

func TestNinjaGen(t *testing.T) {
	dir := t.TempDir()
	g := testGraph()
	g.Solution.TargetDirectory = dir

	gen := NewNinjaGen("cc", "c++", "ar")
	if n := gen.Artifacts(g); n != 2 {
		t.Errorf("Artifacts = %d, want 2", n)
	}
	if err := gen.Generate(g, NewEmitter(nil, nil)); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "ninja", "Debug", "build.ninja"))
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	buildDir := filepath.ToSlash(filepath.Join(dir, "ninja", "Debug"))
	for _, want := range []string{
		"rule cxx",
		"build " + buildDir + "/obj/Lib/src/util.c.o: cc /ws/Lib/src/util.c",
		"build " + buildDir + "/bin/libLib.a: ar",
		"  cflags = -std=c++20 -O0 -g -I/ws/Lib/include -DAPP",
		"/bin/App: link " + buildDir + "/obj/App/src/main.cpp.o " + buildDir + "/bin/libLib.a",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("build.ninja is missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "# Lib") > strings.Index(out, "# App") {
		t.Errorf("Lib is not built before App")
	}
	if _, err := os.Stat(filepath.Join(dir, "ninja", "Release", "build.ninja")); err != nil {
		t.Error(err)
	}
}

func TestBuildOrderCycle(t *testing.T) {
	a := model.NewProject("A")
	b := model.NewProject("B")
	_, err := buildOrder([]*Target{
		{Project: a, Dependencies: []*model.Project{b}},
		{Project: b, Dependencies: []*model.Project{a}},
	})
	if err == nil || !strings.Contains(err.Error(), "[A B]") {
		t.Errorf("err = %v, want a cycle involving A and B", err)
	}
}
