package msg

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
)

var (
	mu      sync.Mutex
	out     io.Writer = color.Output
	verbose bool
)

// SetOutput redirects all messages to w and returns the previous writer.
func SetOutput(w io.Writer) io.Writer {
	mu.Lock()
	defer mu.Unlock()
	prev := out
	out = w
	return prev
}

func SetVerbose(v bool) {
	mu.Lock()
	verbose = v
	mu.Unlock()
}

func Verbose() bool {
	mu.Lock()
	defer mu.Unlock()
	return verbose
}

// print writes a single `level: text` line; lines from concurrent writers never interleave
func print(level string, format string, a ...any) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprint(out, level)
	fmt.Fprint(out, ": ")
	fmt.Fprintf(out, format, a...)
	fmt.Fprint(out, "\n")
}

func Error(format string, a ...any) {
	print(color.HiRedString("error"), format, a...)
}

func Warn(format string, a ...any) {
	print(color.YellowString("warn"), format, a...)
}

func Fatal(format string, a ...any) {
	print(color.RedString("fatal"), format, a...)
	os.Exit(1)
}

func Info(format string, a ...any) {
	print(color.HiGreenString("info"), format, a...)
}

// Trace only prints in verbose mode.
func Trace(format string, a ...any) {
	if !Verbose() {
		return
	}
	print(color.HiBlackString("trace"), format, a...)
}

// Errors prints every line of a (possibly joined) error as its own message.
func Errors(err error) {
	if err == nil {
		return
	}
	for _, line := range strings.Split(err.Error(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			Error("%s", line)
		}
	}
}

// IndentWriter prefixes every line written through it with Indent.
type IndentWriter struct {
	Indent    string
	W         io.Writer
	didIndent bool
}

func (w *IndentWriter) Write(p []byte) (n int, err error) {
	start := 0
	for i, c := range p {
		if !w.didIndent {
			if _, err := io.WriteString(w.W, w.Indent); err != nil {
				return start, err
			}
			w.didIndent = true
		}
		if c == '\n' {
			if _, err := w.W.Write(p[start : i+1]); err != nil {
				return start, err
			}
			start = i + 1
			w.didIndent = false
		}
	}
	if start < len(p) {
		if _, err := w.W.Write(p[start:]); err != nil {
			return start, err
		}
	}
	return len(p), nil
}
