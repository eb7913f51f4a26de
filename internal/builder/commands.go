package builder

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/astromake/astro/internal/msg"
)

// runCommands runs each command from the solution location. A command that
// cannot be started aborts the run; one that exits non-zero is only reported.
func (b *Builder) runCommands(stage string, commands []string) error {
	for _, line := range commands {
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}

		msg.Info("%s: %s", stage, line)
		cmd := exec.Command(args[0], args[1:]...)
		cmd.Dir = b.sln.Location
		cmd.Stdout = &msg.IndentWriter{Indent: "    ", W: os.Stdout}
		cmd.Stderr = &msg.IndentWriter{Indent: "    ", W: os.Stderr}

		if err := cmd.Start(); err != nil {
			return fmt.Errorf("%s command %q could not be started: %w", stage, line, err)
		}
		if err := cmd.Wait(); err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				b.warn("%s command %q exited with status %d", stage, line, exitErr.ExitCode())
			} else {
				b.warn("%s command %q failed: %v", stage, line, err)
			}
		}
	}
	return nil
}
