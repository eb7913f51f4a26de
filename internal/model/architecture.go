package model

import (
	"fmt"
	"runtime"
	"strings"
)

// Architecture is the target CPU of a generation run.
type Architecture int

const (
	X86 Architecture = iota
	X64
	ARM
	ARM64
)

var architectureNames = [...]string{
	X86:   "x86",
	X64:   "x64",
	ARM:   "ARM",
	ARM64: "ARM64",
}

// aliases accepted by ParseArchitecture, keyed by their lower-cased spelling
var architectureAliases = map[string]Architecture{
	"x86":     X86,
	"x32":     X86,
	"x86_32":  X86,
	"win32":   X86,
	"386":     X86,
	"x64":     X64,
	"amd64":   X64,
	"x86_64":  X64,
	"arm":     ARM,
	"arm64":   ARM64,
	"aarch64": ARM64,
}

func (a Architecture) String() string {
	if a < 0 || int(a) >= len(architectureNames) {
		return fmt.Sprintf("Architecture(%d)", int(a))
	}
	return architectureNames[a]
}

func ParseArchitecture(s string) (Architecture, error) {
	if a, ok := architectureAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return a, nil
	}
	return 0, fmt.Errorf("unknown architecture %q", s)
}

// HostArchitecture maps the architecture the generator runs on, defaulting to x64.
func HostArchitecture() Architecture {
	if a, err := ParseArchitecture(runtime.GOARCH); err == nil {
		return a
	}
	return X64
}
