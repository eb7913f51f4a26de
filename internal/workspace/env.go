package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/astromake/astro/internal/model"
	"github.com/expr-lang/expr"
)

// Env is what `{{ }}` interpolations and conditional section keys can see.
type Env struct {
	HostOS        string            `expr:"host_os"`
	Arch          string            `expr:"arch"`
	Configuration string            `expr:"configuration"`
	Environ       map[string]string `expr:"environ"`
	ScriptDir     string            `expr:"script_dir"`
	RootDir       string            `expr:"root_dir"`
}

// NewEnv returns the environment of a script in scriptDir. Configuration is
// empty until a project is configured.
func NewEnv(rootDir, scriptDir string) Env {
	return Env{
		HostOS:    runtime.GOOS,
		Arch:      model.HostArchitecture().String(),
		Environ:   environ(),
		ScriptDir: scriptDir,
		RootDir:   rootDir,
	}
}

func environ() map[string]string {
	env := make(map[string]string)
	for _, e := range os.Environ() {
		if i := strings.Index(e, "="); i >= 0 {
			env[e[:i]] = e[i+1:]
		}
	}
	return env
}

// withConfiguration returns a copy of env bound to cfg
func (env Env) withConfiguration(cfg string) Env {
	env.Configuration = cfg
	return env
}

// ReadFile returns the contents of path, relative to the script directory.
func (env Env) ReadFile(path string) (string, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(env.ScriptDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

var exprRegex = regexp.MustCompile(`\{\{(.+?)\}\}`)

// evaluateString finds and evaluates all {{...}} expressions in a string
func evaluateString(s string, env Env) (string, error) {
	matches := exprRegex.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s, nil
	}

	var sb strings.Builder
	lastIndex := 0

	for _, m := range matches {
		sb.WriteString(s[lastIndex:m[0]])

		expression := strings.TrimSpace(s[m[2]:m[3]])
		program, err := expr.Compile(expression, expr.Env(env))
		if err != nil {
			return "", fmt.Errorf("failed to compile expression %q: %w", expression, err)
		}
		result, err := expr.Run(program, env)
		if err != nil {
			return "", fmt.Errorf("failed to run expression %q: %w", expression, err)
		}

		fmt.Fprintf(&sb, "%v", result)
		lastIndex = m[1]
	}
	sb.WriteString(s[lastIndex:])

	return sb.String(), nil
}

// processExpressions recursively walks parsed script data, evaluating
// expressions in strings and dropping null values.
func processExpressions(data any, env Env) (any, error) {
	switch v := data.(type) {
	case map[string]any:
		for key, val := range v {
			if val == nil {
				delete(v, key)
				continue
			}
			processed, err := processExpressions(val, env)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			v[key] = processed
		}
		return v, nil
	case []any:
		for i, item := range v {
			processed, err := processExpressions(item, env)
			if err != nil {
				return nil, err
			}
			v[i] = processed
		}
		return v, nil
	case string:
		return evaluateString(v, env)
	default:
		return data, nil
	}
}

// cloneValue deep copies parsed script data so it can be evaluated again
func cloneValue(data any) any {
	switch v := data.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			out[key] = cloneValue(val)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return data
	}
}
