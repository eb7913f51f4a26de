package gen

import (
	"io"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/astromake/astro/internal/model"
	"github.com/astromake/astro/internal/msg"
	"github.com/astromake/astro/internal/version"
)

// sourceFile represents a single source file and its corresponding object file path
type sourceFile struct {
	src   string
	obj   string
	isCxx bool
}

// ninjaTarget represents a single unit to be built (a library or an executable)
type ninjaTarget struct {
	name    string
	out     string
	kind    model.OutputType
	sources []sourceFile
	deps    []string
	cflags  []string
	ldflags []string
	cstd    string
	cxxstd  string
}

// NinjaGen writes one build.ninja per configuration under
// {TargetDirectory}/ninja/{configuration}/ for every C and C++ project.
type NinjaGen struct {
	CC, CXX, AR string
}

func NewNinjaGen(cc, cxx, ar string) *NinjaGen {
	return &NinjaGen{CC: cc, CXX: cxx, AR: ar}
}

var ninjaPathEscaper = strings.NewReplacer("$", "$$", ":", "$:", " ", "$ ")

func quote(s string) string { return ninjaPathEscaper.Replace(filepath.ToSlash(s)) }

// shellArg prepares a single command argument for a ninja variable.
func shellArg(s string) string {
	s = filepath.ToSlash(s)
	if strings.ContainsAny(s, " \t\"'") {
		s = strconv.Quote(s)
	}
	return strings.ReplaceAll(s, "$", "$$")
}

func (g *NinjaGen) BuildFile(sln *model.Solution, cfg model.Configuration) string {
	return filepath.Join(sln.TargetDirectory, "ninja", cfg.Name, "build.ninja")
}

func nativeTargets(graph *Graph) []*Target {
	var native []*Target
	for _, t := range graph.Targets {
		if t.Language.Native() {
			native = append(native, t)
		} else {
			msg.Warn("ninja: skipping %s project %s", t.Language, t.Name)
		}
	}
	return native
}

func (g *NinjaGen) Artifacts(graph *Graph) int {
	for _, t := range graph.Targets {
		if t.Language.Native() {
			return len(graph.Solution.Configurations)
		}
	}
	return 0
}

func (g *NinjaGen) Generate(graph *Graph, e *Emitter) error {
	targets := nativeTargets(graph)
	if len(targets) == 0 {
		return nil
	}
	ordered, err := buildOrder(targets)
	if err != nil {
		return err
	}

	// configurations run in order, so every project sees its hooks in list order
	for _, cfg := range graph.Solution.Configurations {
		path := g.BuildFile(graph.Solution, cfg)
		e.Emit(path, func(w io.Writer) error {
			return g.writeConfiguration(w, filepath.Dir(path), ordered, cfg)
		})
	}
	return nil
}

func (g *NinjaGen) writeConfiguration(w io.Writer, buildDir string, ordered []*Target, cfg model.Configuration) error {
	// library -> files a dependent has to link, static libraries carry their own dependencies
	linkInputs := make(map[string][]string, len(ordered))
	units := make([]ninjaTarget, 0, len(ordered))

	for _, t := range ordered {
		if err := t.Configure(cfg); err != nil {
			return err
		}
		unit := g.target(buildDir, t, cfg)
		for _, dep := range t.Dependencies {
			for _, in := range linkInputs[dep.Name] {
				if !slices.Contains(unit.deps, in) {
					unit.deps = append(unit.deps, in)
				}
			}
		}
		switch t.Type {
		case model.StaticLibrary:
			linkInputs[t.Name] = append([]string{unit.out}, unit.deps...)
		case model.SharedLibrary:
			linkInputs[t.Name] = []string{unit.out}
		}
		units = append(units, unit)
	}

	var sb strings.Builder
	for _, l := range version.Banner("ninja build file for " + cfg.Name) {
		writeln(&sb, "# ", l)
	}
	writeln(&sb, "ninja_required_version = 1.1")
	writeln(&sb, "cc = ", g.CC)
	writeln(&sb, "cxx = ", g.CXX)
	writeln(&sb, "ar = ", g.AR)
	writeln(&sb)

	// gen rules
	write(&sb,
		`rule cc
  command = $cc $cflags -MD -MF $out.d -c $in -o $out
  depfile = $out.d
  deps = gcc
  description = CC $out
`)
	write(&sb,
		`rule cxx
  command = $cxx $cflags -MD -MF $out.d -c $in -o $out
  depfile = $out.d
  deps = gcc
  description = CXX $out
`)
	write(&sb,
		`rule link
  command = $ld -o $out $in $ldflags
  description = LINK $out
`)
	write(&sb,
		`rule ar
  command = $ar rcs $out $in
  description = AR $out
`)
	writeln(&sb)

	for _, unit := range units {
		writeln(&sb, "# ", unit.name)
		for _, source := range unit.sources {
			rule, std := "cc", unit.cstd
			if source.isCxx {
				rule, std = "cxx", unit.cxxstd
			}
			cflags := unit.cflags
			if std != "" {
				cflags = append([]string{std}, cflags...)
			}
			writeln(&sb, "build ", quote(source.obj), ": ", rule, " ", quote(source.src))
			writeln(&sb, "  cflags = ", strings.Join(cflags, " "))
		}

		// ar/link
		write(&sb, "build ", quote(unit.out), ": ")
		if unit.kind == model.StaticLibrary {
			write(&sb, "ar")
		} else {
			write(&sb, "link")
		}
		for _, source := range unit.sources {
			write(&sb, " ", quote(source.obj))
		}
		if unit.kind != model.StaticLibrary {
			for _, dep := range unit.deps {
				write(&sb, " ", quote(dep))
			}
		}
		writeln(&sb)
		if unit.kind != model.StaticLibrary {
			ld := "$cc"
			for _, source := range unit.sources {
				if source.isCxx {
					ld = "$cxx"
					break
				}
			}
			writeln(&sb, "  ld = ", ld)
			writeln(&sb, "  ldflags = ", strings.Join(unit.ldflags, " "))
		}
		writeln(&sb)
	}

	writeln(&sb, "default", defaultOutputs(units))

	_, err := io.WriteString(w, sb.String())
	return err
}

func defaultOutputs(units []ninjaTarget) string {
	var sb strings.Builder
	for _, unit := range units {
		write(&sb, " ", quote(unit.out))
	}
	return sb.String()
}

// target computes the flags and outputs of t for one configuration
func (g *NinjaGen) target(buildDir string, t *Target, cfg model.Configuration) ninjaTarget {
	objDir := filepath.Join(buildDir, "obj", t.Name)
	if t.IntermediateDirectory != "" {
		objDir = t.IntermediateDirectory
	}
	binDir := filepath.Join(buildDir, "bin")
	if t.BinariesDirectory != "" {
		binDir = t.BinariesDirectory
	}

	unit := ninjaTarget{
		name:   t.Name,
		out:    filepath.Join(binDir, outputName(t.TargetName, t.Type)),
		kind:   t.Type,
		cstd:   t.CStandard.Flag(),
		cxxstd: t.CppStandard.Flag(),
	}

	if cfg.Optimize || t.Flags.Optimize {
		unit.cflags = append(unit.cflags, "-O2")
	} else {
		unit.cflags = append(unit.cflags, "-O0")
	}
	if cfg.DebugSymbols || t.Flags.DebugSymbols {
		unit.cflags = append(unit.cflags, "-g")
	}
	if t.Type == model.SharedLibrary {
		unit.cflags = append(unit.cflags, "-fPIC")
		unit.ldflags = append(unit.ldflags, "-shared")
	}
	for _, dir := range t.IncludeDirectories {
		unit.cflags = append(unit.cflags, "-I"+shellArg(dir))
	}
	for _, define := range t.Defines {
		unit.cflags = append(unit.cflags, "-D"+shellArg(define))
	}
	for _, dir := range t.LibraryDirectories {
		unit.ldflags = append(unit.ldflags, "-L"+shellArg(dir))
	}

	for _, src := range t.Sources {
		rel, err := filepath.Rel(t.Location, src)
		if err != nil || !filepath.IsLocal(rel) {
			rel = filepath.Base(src)
		}
		isCxx := filepath.Ext(src) != ".c"
		unit.sources = append(unit.sources, sourceFile{
			src:   src,
			obj:   filepath.Join(objDir, rel) + ".o",
			isCxx: isCxx,
		})
	}

	return unit
}

// outputName returns the desired artifact name (e.g., `my_app` or `libmy_lib.a`)
func outputName(name string, kind model.OutputType) string {
	switch kind {
	case model.StaticLibrary:
		return "lib" + name + ".a"
	case model.SharedLibrary:
		return "lib" + name + ".so"
	}
	return name
}
