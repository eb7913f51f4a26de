// astro init [name], astro new [path]
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/astromake/astro/internal/model"
	"github.com/astromake/astro/internal/workspace"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func writefile(content string, elem ...string) error {
	path := filepath.Join(elem...)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err = os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("create file %s: %w", path, err)
		}
		fmt.Printf("%s file: %s\n", color.HiGreenString("Created"), filepath.ToSlash(path))
	}
	return nil
}

func mkdir(elem ...string) error {
	path := filepath.Join(elem...)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", path, err)
	}
	return nil
}

func getProgramName() string {
	if len(os.Args) == 0 {
		return "astro"
	}
	basename := filepath.Base(os.Args[0])
	return strings.TrimSuffix(basename, filepath.Ext(basename))
}

// solutionScript renders the solution description written by init
func solutionScript(name string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `[solution]
name = %q
target-directory = "build"
projects = [%q]
`, name, name)

	for _, cfg := range model.DefaultConfigurations() {
		fmt.Fprintf(&sb, "\n[[configuration]]\nname = %q\nruntime = %q\n", cfg.Name, cfg.Runtime)
		if cfg.Optimize {
			sb.WriteString("optimize = true\n")
		}
		if cfg.DebugSymbols {
			sb.WriteString("debug-symbols = true\n")
		}
	}
	return sb.String()
}

// projectScript renders the project description written by init
func projectScript(name string, lib bool) string {
	kind := model.Console
	if lib {
		kind = model.StaticLibrary
	}
	return fmt.Sprintf(`[project]
name = %q
kind = %q
files = ["Source/**.cpp", "Source/**.h"]
target-directory = "build"
binaries-directory = "bin/{{ configuration }}"
intermediate-directory = "obj/{{ configuration }}"
`, name, kind)
}

// initIn initializes a workspace in an existing directory
func initIn(dir, name string, lib bool) error {
	if name = strings.TrimSpace(name); name == "" {
		return usageError{fmt.Errorf("a workspace needs a name")}
	}
	scripts, err := workspace.Discover(dir)
	if err != nil {
		return err
	}
	if len(scripts) > 0 {
		return usageError{fmt.Errorf("%s already contains build descriptions, first one is %s", dir, scripts[0])}
	}

	if err := writefile(solutionScript(name), dir, "solution.astro.toml"); err != nil {
		return err
	}
	if err := writefile(projectScript(name, lib), dir, strings.ToLower(name)+".astro.toml"); err != nil {
		return err
	}

	if err := mkdir(dir, "Source"); err != nil {
		return err
	}
	if lib {
		err = writefile(`#include "`+name+`.h"

#include <cstdio>

void HelloWorld()
{
    std::puts("Hello, World!");
}
`, dir, "Source", name+".cpp")
		if err == nil {
			err = writefile(`#pragma once

void HelloWorld();
`, dir, "Source", name+".h")
		}
	} else {
		err = writefile(`#include <cstdio>

int main()
{
    std::puts("Hello, World!");
    return 0;
}
`, dir, "Source", "Main.cpp")
	}
	if err != nil {
		return err
	}

	// .gitignore
	if err := writefile("build/\nbin/\nobj/\n"+model.ManifestName+"\n", dir, ".gitignore"); err != nil {
		return err
	}

	programName := getProgramName()
	fmt.Printf("You can now do %s to generate Visual Studio files, or %s for ninja.\n",
		color.HiCyanString(programName+" -d "+dir), color.HiCyanString(programName+" -b ninja -d "+dir))
	return nil
}

var library bool

var initCmd = &cobra.Command{
	Use:   "init [name]",
	Short: "Create a new workspace in the current directory",
	Args:  exactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return initIn(flagDir, args[0], library)
	},
}

var newCmd = &cobra.Command{
	Use:   "new [path]",
	Short: "Create a new workspace in a new directory",
	Args:  exactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := mkdir(args[0]); err != nil {
			return err
		}
		return initIn(args[0], filepath.Base(args[0]), library)
	},
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

func init() {
	// astro init subcommand
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVarP(&library, "lib", "l", false, "Create a static library project")

	// astro new subcommand
	rootCmd.AddCommand(newCmd)
	newCmd.Flags().BoolVarP(&library, "lib", "l", false, "Create a static library project")
}
