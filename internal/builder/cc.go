package builder

import (
	"os"
	"os/exec"
)

// TODO: zig cc
var (
	commonCCompilers   = []string{"clang", "gcc", "icx", "icc", "tcc", "cc"}
	commonCxxCompilers = []string{"clang++", "g++", "icpx", "icpc", "c++"}
	commonArchivers    = []string{"ar", "llvm-ar", "gcc-ar"}
)

// toolchain names the programs referenced by generated ninja files
type toolchain struct {
	cc, cxx, ar string
}

// detectToolchain honors CC, CXX and AR, then falls back to the first known
// program on PATH. Missing tools keep their conventional name so the generated
// file still documents what it expects.
func detectToolchain() toolchain {
	return toolchain{
		cc:  findTool("CC", commonCCompilers, "cc"),
		cxx: findTool("CXX", commonCxxCompilers, "c++"),
		ar:  findTool("AR", commonArchivers, "ar"),
	}
}

func findTool(env string, candidates []string, fallback string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	for _, name := range candidates {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return fallback
}
