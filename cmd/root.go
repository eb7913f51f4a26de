// astro [dir], astro generate [dir]
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/astromake/astro/internal/builder"
	"github.com/astromake/astro/internal/msg"
	"github.com/astromake/astro/internal/workspace"
	"github.com/spf13/cobra"
)

// exit statuses
const (
	exitOK               = 0
	exitGenerationFailed = 1
	exitNoInput          = 2
	exitUsage            = 3
	exitNotImplemented   = 4
	exitFrontEnd         = 5
)

var (
	flagDir     string
	flagSources []string
	flagJobs    int
	flagVerbose bool
	flagBackend = newBackendValue(
		backendInfo{builder.BackendVisualStudio, "Visual Studio solution and project files", true},
		backendInfo{builder.BackendNinja, "build.ninja files, one per configuration", true},
		backendInfo{builder.BackendMakefile, "Makefiles", false},
		backendInfo{builder.BackendXcode, "Xcode project", false},
		backendInfo{builder.BackendMinGW, "MinGW makefiles", false},
	)
)

// usageError marks bad command line input
type usageError struct{ error }

func (e usageError) Unwrap() error { return e.error }

func exitCode(err error) int {
	var verr *builder.ValidationError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, new(usageError)), errors.Is(err, builder.ErrUnknownBackend), errors.As(err, &verr):
		return exitUsage
	case errors.Is(err, workspace.ErrNoInput):
		return exitNoInput
	case errors.Is(err, workspace.ErrFrontEnd):
		return exitFrontEnd
	case errors.Is(err, builder.ErrNotImplemented):
		return exitNotImplemented
	}
	return exitGenerationFailed
}

// targetDir is the positional directory if given, --dir otherwise
func targetDir(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return flagDir
}

func doGenerate(cmd *cobra.Command, args []string) error {
	ws, err := workspace.Load(targetDir(args), flagSources)
	if err != nil {
		return err
	}
	b := builder.New(ws.Solution, ws.Projects, builder.Options{
		Backend:       flagBackend.String(),
		RootDirectory: ws.Root,
		Jobs:          flagJobs,
		Verbose:       flagVerbose,
		Progress:      true,
	})
	return b.Generate()
}

func maxArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MaximumNArgs(n)(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

var rootCmd = &cobra.Command{
	Use:   "astro [dir]",
	Short: "Astro Make build configuration generator",
	Long: `Astro Make evaluates the *.astro.toml, *.astro.yaml and *.astro.hcl build
descriptions below a directory and writes native build files for them.`,
	Args:          maxArgs(1),
	RunE:          doGenerate,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		msg.SetVerbose(flagVerbose)
	},
}

var generateCmd = &cobra.Command{
	Use:     "generate [dir]",
	Aliases: []string{"gen", "build"},
	Short:   "Generate build files",
	Long:    `Generate build files. If no directory is given, uses --dir.`,
	Args:    maxArgs(1),
	RunE:    doGenerate,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagDir, "dir", "d", ".", "Root directory of the workspace")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Print trace output")
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err}
	})
	addGenerateFlags(rootCmd)

	// astro generate subcommand
	rootCmd.AddCommand(generateCmd)
	addGenerateFlags(generateCmd)
}

func addGenerateFlags(cmd *cobra.Command) {
	cmd.Flags().VarP(&flagBackend, "backend", "b", flagBackend.usage())
	cmd.RegisterFlagCompletionFunc("backend", flagBackend.complete)
	cmd.Flags().StringSliceVarP(&flagSources, "source", "s", nil, "Build description to evaluate instead of discovering them (repeatable)")
	cmd.Flags().IntVarP(&flagJobs, "jobs", "j", 0, "Number of project files written in parallel (default: number of CPUs)")
}

// run executes the command line and returns the exit status.
func run(args []string) int {
	rootCmd.SetArgs(args)
	cmd, err := rootCmd.ExecuteC()
	if err == nil {
		return exitOK
	}

	msg.Errors(err)
	code := exitCode(err)
	if cmd != nil && (code == exitUsage || code == exitNoInput || code == exitFrontEnd) {
		fmt.Fprint(os.Stderr, cmd.UsageString())
	}
	return code
}

func Execute() {
	os.Exit(run(os.Args[1:]))
}
