package model

import (
	"fmt"
	"strings"
)

// OutputType is the kind of artifact a project produces.
type OutputType int

const (
	Console OutputType = iota
	Windowed
	SharedLibrary
	StaticLibrary
)

func (t OutputType) String() string {
	switch t {
	case Console:
		return "console"
	case Windowed:
		return "windowed"
	case SharedLibrary:
		return "shared-library"
	case StaticLibrary:
		return "static-library"
	}
	return fmt.Sprintf("OutputType(%d)", int(t))
}

// IsLibrary reports whether the output is linked into other projects.
func (t OutputType) IsLibrary() bool { return t == SharedLibrary || t == StaticLibrary }

func ParseOutputType(s string) (OutputType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "console", "app", "application":
		return Console, nil
	case "windowed", "window", "gui":
		return Windowed, nil
	case "shared-library", "shared", "dll", "dynamic":
		return SharedLibrary, nil
	case "static-library", "static", "lib":
		return StaticLibrary, nil
	}
	return 0, fmt.Errorf("unknown project kind %q", s)
}

// ProjectFlags toggles optional compiler features of a project.
type ProjectFlags struct {
	MultiProcessorCompile  bool
	ModuleSupport          bool
	Optimize               bool
	DebugSymbols           bool
	DisableBuiltInWideChar bool
}

var flagNames = []string{
	"multi-processor-compile",
	"module-support",
	"optimize",
	"debug-symbols",
	"disable-builtin-wide-char",
}

func (f *ProjectFlags) field(name string) *bool {
	switch name {
	case "multi-processor-compile":
		return &f.MultiProcessorCompile
	case "module-support":
		return &f.ModuleSupport
	case "optimize":
		return &f.Optimize
	case "debug-symbols":
		return &f.DebugSymbols
	case "disable-builtin-wide-char":
		return &f.DisableBuiltInWideChar
	}
	return nil
}

func ParseProjectFlags(names []string) (ProjectFlags, error) {
	var f ProjectFlags
	for _, name := range names {
		ptr := f.field(strings.ToLower(strings.TrimSpace(name)))
		if ptr == nil {
			return ProjectFlags{}, fmt.Errorf("unknown project flag %q, expected one of %s", name, strings.Join(flagNames, ", "))
		}
		*ptr = true
	}
	return f, nil
}

// Names lists the enabled flags in their canonical spelling.
func (f ProjectFlags) Names() []string {
	var names []string
	for _, name := range flagNames {
		if *f.field(name) {
			names = append(names, name)
		}
	}
	return names
}
