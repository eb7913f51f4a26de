package model

import (
	"fmt"
	"strings"
)

// Runtime selects the runtime libraries a configuration links against.
type Runtime int

const (
	RuntimeDebug Runtime = iota
	RuntimeRelease
)

func (r Runtime) String() string {
	if r == RuntimeRelease {
		return "release"
	}
	return "debug"
}

func ParseRuntime(s string) (Runtime, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "debug":
		return RuntimeDebug, nil
	case "release":
		return RuntimeRelease, nil
	}
	return 0, fmt.Errorf("unknown runtime %q, expected debug or release", s)
}

// Configuration is a named build profile such as Debug or Release.
type Configuration struct {
	Name         string
	Runtime      Runtime
	Optimize     bool
	DebugSymbols bool
}

// DefaultConfigurations are the profiles written by `astro init`.
func DefaultConfigurations() []Configuration {
	return []Configuration{
		{Name: "Debug", Runtime: RuntimeDebug, DebugSymbols: true},
		{Name: "Release", Runtime: RuntimeRelease, Optimize: true},
	}
}
