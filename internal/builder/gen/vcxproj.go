package gen

import (
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/astromake/astro/internal/model"
	"github.com/astromake/astro/internal/version"
)

const msbuildNamespace = "http://schemas.microsoft.com/developer/msbuild/2003"

//
// structures for .vcxproj
//

// VSProject keeps its children in document order, MSBuild evaluates them top to bottom.
type VSProject struct {
	XMLName        xml.Name `xml:"Project"`
	DefaultTargets string   `xml:"DefaultTargets,attr,omitempty"`
	ToolsVersion   string   `xml:"ToolsVersion,attr,omitempty"`
	Sdk            string   `xml:"Sdk,attr,omitempty"`
	XMLNS          string   `xml:"xmlns,attr,omitempty"`
	Nodes          []any    `xml:",any"`
}

type VSItemGroup struct {
	XMLName xml.Name `xml:"ItemGroup"`
	Label   string   `xml:"Label,attr,omitempty"`
	Items   []any    `xml:",any"`
}

type VSProjectConfiguration struct {
	XMLName       xml.Name `xml:"ProjectConfiguration"`
	Include       string   `xml:"Include,attr"`
	Configuration string   `xml:"Configuration"`
	Platform      string   `xml:"Platform"`
}

// VSFileItem is a ClCompile, ClInclude, None or Compile item.
type VSFileItem struct {
	XMLName xml.Name
	Include string `xml:"Include,attr"`
	Link    string `xml:"Link,omitempty"`
}

type VSProjectReference struct {
	XMLName xml.Name `xml:"ProjectReference"`
	Include string   `xml:"Include,attr"`
	Project string   `xml:"Project"`
	Name    string   `xml:"Name"`
}

type VSPropertyGroup struct {
	XMLName    xml.Name     `xml:"PropertyGroup"`
	Condition  string       `xml:"Condition,attr,omitempty"`
	Label      string       `xml:"Label,attr,omitempty"`
	Properties []VSProperty `xml:",any"`
}

type VSProperty struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

type VSImportGroup struct {
	XMLName xml.Name   `xml:"ImportGroup"`
	Label   string     `xml:"Label,attr,omitempty"`
	Imports []VSImport `xml:"Import"`
}

type VSImport struct {
	XMLName   xml.Name `xml:"Import"`
	Project   string   `xml:"Project,attr"`
	Condition string   `xml:"Condition,attr,omitempty"`
	Label     string   `xml:"Label,attr,omitempty"`
}

type VSItemDefinitionGroup struct {
	XMLName   xml.Name        `xml:"ItemDefinitionGroup"`
	Condition string          `xml:"Condition,attr,omitempty"`
	ClCompile *VSToolSettings `xml:"ClCompile,omitempty"`
	Link      *VSToolSettings `xml:"Link,omitempty"`
}

type VSToolSettings struct {
	Properties []VSProperty `xml:",any"`
}

// properties collects name/value pairs in order, skipping empty values.
type properties []VSProperty

func (p *properties) set(name, value string) {
	if value == "" {
		return
	}
	*p = append(*p, VSProperty{XMLName: xml.Name{Local: name}, Value: value})
}

func (p *properties) setBool(name string, value bool) {
	p.set(name, strconv.FormatBool(value))
}

func (p properties) tool() *VSToolSettings {
	if len(p) == 0 {
		return nil
	}
	return &VSToolSettings{Properties: p}
}

func condition(entry model.MatrixEntry) string {
	return "'$(Configuration)|$(Platform)'=='" + entry.String() + "'"
}

func fileItems(kind, base string, files []string) []any {
	items := make([]any, 0, len(files))
	for _, f := range files {
		items = append(items, VSFileItem{XMLName: xml.Name{Local: kind}, Include: relPath(base, f)})
	}
	return items
}

func projectReferences(base string, deps []*model.Project) []any {
	refs := make([]any, 0, len(deps))
	for _, dep := range deps {
		refs = append(refs, VSProjectReference{
			Include: relPath(base, dep.TargetPath()),
			Project: dep.GUID(),
			Name:    dep.Name,
		})
	}
	return refs
}

func configurationType(t model.OutputType) string {
	switch t {
	case model.SharedLibrary:
		return "DynamicLibrary"
	case model.StaticLibrary:
		return "StaticLibrary"
	}
	return "Application"
}

func subSystem(t model.OutputType) string {
	if t == model.Windowed {
		return "Windows"
	}
	return "Console"
}

// encodeProject writes the XML declaration, the banner comments and project.
func encodeProject(out io.Writer, what string, project VSProject) error {
	if _, err := io.WriteString(out, xml.Header); err != nil {
		return err
	}
	for _, l := range version.Banner(what) {
		if _, err := fmt.Fprintf(out, "<!-- %s -->\n", l); err != nil {
			return err
		}
	}
	enc := xml.NewEncoder(out)
	enc.Indent("", "  ")
	if err := enc.Encode(project); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(out, "\n")
	return err
}

// writeVcxproj renders the project artifact of a C or C++ target. It runs the
// configuration hook of t once per configuration, right before that
// configuration's conditional groups.
func writeVcxproj(out io.Writer, sln *model.Solution, t *Target) error {
	base := t.TargetDirectory
	matrix := sln.Matrix()
	nodes := make([]any, 0, 16+2*len(matrix))

	configs := make([]any, 0, len(matrix))
	for _, entry := range matrix {
		configs = append(configs, VSProjectConfiguration{
			Include:       entry.String(),
			Configuration: entry.Name(),
			Platform:      entry.Architecture.String(),
		})
	}
	nodes = append(nodes, VSItemGroup{Label: "ProjectConfigurations", Items: configs})

	var globals properties
	globals.set("ProjectGuid", t.GUID())
	globals.set("RootNamespace", t.Name)
	globals.set("ProjectName", t.Name)
	globals.set("Keyword", "Win32Proj")
	globals.set("WindowsTargetPlatformVersion", "10.0")
	globals.setBool("IgnoreWarnCompileDuplicatedFilename", true)
	nodes = append(nodes, VSPropertyGroup{Label: "Globals", Properties: globals})

	nodes = append(nodes, VSImport{Project: `$(VCTargetsPath)\Microsoft.Cpp.Default.props`})

	var kind properties
	kind.set("ConfigurationType", configurationType(t.Type))
	kind.set("PlatformToolset", "v143")
	kind.set("CharacterSet", "Unicode")
	nodes = append(nodes, VSPropertyGroup{Label: "Configuration", Properties: kind})

	for _, entry := range matrix {
		var runtime properties
		runtime.setBool("UseDebugLibraries", entry.Configuration.Runtime == model.RuntimeDebug)
		if entry.Configuration.Optimize || t.Flags.Optimize {
			runtime.setBool("WholeProgramOptimization", true)
		}
		nodes = append(nodes, VSPropertyGroup{Condition: condition(entry), Label: "Configuration", Properties: runtime})
	}

	nodes = append(nodes, VSImport{Project: `$(VCTargetsPath)\Microsoft.Cpp.props`})
	nodes = append(nodes, VSImportGroup{Label: "PropertySheets", Imports: []VSImport{{
		Project:   `$(UserRootDir)\Microsoft.Cpp.$(Platform).user.props`,
		Condition: `exists('$(UserRootDir)\Microsoft.Cpp.$(Platform).user.props')`,
		Label:     "LocalAppDataPlatform",
	}}})

	var defaults properties
	defaults.set("TargetName", t.TargetName)
	if t.BinariesDirectory != "" {
		defaults.set("OutDir", relDir(base, t.BinariesDirectory))
	}
	if t.IntermediateDirectory != "" {
		defaults.set("IntDir", relDir(base, t.IntermediateDirectory))
	}
	nodes = append(nodes, VSPropertyGroup{Properties: defaults})

	includes := make([]string, len(t.IncludeDirectories))
	for i, dir := range t.IncludeDirectories {
		includes[i] = relPath(base, dir)
	}
	libdirs := make([]string, len(t.LibraryDirectories))
	for i, dir := range t.LibraryDirectories {
		libdirs[i] = relPath(base, dir)
	}

	var compile properties
	compile.set("LanguageStandard", t.CppStandard.MSBuild())
	compile.set("LanguageStandard_C", t.CStandard.MSBuild())
	compile.setBool("EnableModules", t.UsesModules())
	compile.setBool("MultiProcessorCompilation", t.Flags.MultiProcessorCompile)
	compile.setBool("TreatWChar_tAsBuiltInType", !t.Flags.DisableBuiltInWideChar)
	compile.set("AdditionalIncludeDirectories", joinList(includes, "AdditionalIncludeDirectories"))
	var link properties
	link.set("SubSystem", subSystem(t.Type))
	link.set("AdditionalLibraryDirectories", joinList(libdirs, "AdditionalLibraryDirectories"))
	nodes = append(nodes, VSItemDefinitionGroup{ClCompile: compile.tool(), Link: link.tool()})

	if len(t.Dependencies) > 0 {
		nodes = append(nodes, VSItemGroup{Label: "ProjectReferences", Items: projectReferences(base, t.Dependencies)})
	}
	if len(t.Sources) > 0 {
		nodes = append(nodes, VSItemGroup{Label: "Sources", Items: fileItems("ClCompile", base, t.Sources)})
	}
	if len(t.Headers) > 0 {
		nodes = append(nodes, VSItemGroup{Label: "Headers", Items: fileItems("ClInclude", base, t.Headers)})
	}
	if len(t.Additional) > 0 {
		nodes = append(nodes, VSItemGroup{Label: "AdditionalFiles", Items: fileItems("None", base, t.Additional)})
	}

	for _, cfg := range sln.Configurations {
		if err := t.Configure(cfg); err != nil {
			return err
		}
		for _, entry := range sln.MatrixFor(cfg) {
			var dirs properties
			if t.BinariesDirectory != "" {
				dirs.set("OutDir", relDir(base, t.BinariesDirectory))
			}
			if t.IntermediateDirectory != "" {
				dirs.set("IntDir", relDir(base, t.IntermediateDirectory))
			}
			nodes = append(nodes, VSPropertyGroup{Condition: condition(entry), Properties: dirs})

			var compile properties
			if cfg.Optimize || t.Flags.Optimize {
				compile.set("Optimization", "MaxSpeed")
			} else {
				compile.set("Optimization", "Disabled")
			}
			// defines only live here, the hook may have replaced them
			compile.set("PreprocessorDefinitions", joinList(t.Defines, "PreprocessorDefinitions"))
			var link properties
			link.setBool("GenerateDebugInformation", cfg.DebugSymbols || t.Flags.DebugSymbols)
			nodes = append(nodes, VSItemDefinitionGroup{Condition: condition(entry), ClCompile: compile.tool(), Link: link.tool()})
		}
	}

	nodes = append(nodes, VSImport{Project: `$(VCTargetsPath)\Microsoft.Cpp.targets`})
	nodes = append(nodes, VSImportGroup{Label: "ExtensionTargets"})

	return encodeProject(out, "vcxproj", VSProject{
		DefaultTargets: "Build",
		ToolsVersion:   "17.0",
		XMLNS:          msbuildNamespace,
		Nodes:          nodes,
	})
}

// writeCsproj renders an SDK-style project for a C# target.
func writeCsproj(out io.Writer, sln *model.Solution, t *Target) error {
	base := t.TargetDirectory
	matrix := sln.Matrix()
	nodes := make([]any, 0, 4+len(matrix))

	var props properties
	switch t.Type {
	case model.Console:
		props.set("OutputType", "Exe")
	case model.Windowed:
		props.set("OutputType", "WinExe")
	default:
		props.set("OutputType", "Library")
	}
	props.set("TargetFramework", t.DotNetSDK.TargetFramework())
	props.set("LangVersion", t.CSharpVersion.LangVersion())
	props.set("AssemblyName", t.TargetName)
	props.set("RootNamespace", t.Name)
	props.set("ProjectGuid", t.GUID())
	props.setBool("EnableDefaultItems", false)
	names := make([]string, 0, len(matrix))
	for _, entry := range matrix {
		names = append(names, entry.Name())
	}
	props.set("Configurations", joinUnique(names))
	props.set("Platforms", sln.Architecture.String())
	nodes = append(nodes, VSPropertyGroup{Properties: props})

	if len(t.Sources) > 0 {
		items := make([]any, 0, len(t.Sources))
		for _, src := range t.Sources {
			items = append(items, VSFileItem{
				XMLName: xml.Name{Local: "Compile"},
				Include: relPath(base, src),
				Link:    toBackslash(linkName(t.Location, src)),
			})
		}
		nodes = append(nodes, VSItemGroup{Label: "Sources", Items: items})
	}
	if len(t.Additional) > 0 {
		nodes = append(nodes, VSItemGroup{Label: "AdditionalFiles", Items: fileItems("None", base, t.Additional)})
	}
	if len(t.Dependencies) > 0 {
		nodes = append(nodes, VSItemGroup{Label: "ProjectReferences", Items: projectReferences(base, t.Dependencies)})
	}

	for _, cfg := range sln.Configurations {
		if err := t.Configure(cfg); err != nil {
			return err
		}
		for _, entry := range sln.MatrixFor(cfg) {
			var props properties
			if t.BinariesDirectory != "" {
				props.set("OutputPath", relDir(base, t.BinariesDirectory))
			}
			if t.IntermediateDirectory != "" {
				props.set("IntermediateOutputPath", relDir(base, t.IntermediateDirectory))
			}
			props.set("DefineConstants", joinUnique(t.Defines))
			props.setBool("Optimize", cfg.Optimize || t.Flags.Optimize)
			props.setBool("DebugSymbols", cfg.DebugSymbols || t.Flags.DebugSymbols)
			nodes = append(nodes, VSPropertyGroup{Condition: condition(entry), Properties: props})
		}
	}

	return encodeProject(out, "csproj", VSProject{Sdk: "Microsoft.NET.Sdk", Nodes: nodes})
}

// linkName is the path shown in the IDE tree for a file outside the project directory.
func linkName(location, file string) string {
	rel, err := filepath.Rel(location, file)
	if err != nil || !filepath.IsLocal(rel) {
		return filepath.Base(file)
	}
	return rel
}

func joinUnique(items []string) string {
	seen := make(map[string]bool, len(items))
	out := ""
	for _, item := range items {
		if seen[item] {
			continue
		}
		seen[item] = true
		if out != "" {
			out += ";"
		}
		out += item
	}
	return out
}
