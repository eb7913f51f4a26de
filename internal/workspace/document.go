package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/astromake/astro/internal/model"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// script is what one build description contributes to the workspace.
type script struct {
	path     string
	solution *model.Solution
	projects []*model.Project
}

type documentDecoder func(data []byte) (map[string]any, error)

func decodeTOML(data []byte) (map[string]any, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			return nil, errors.New(derr.String())
		}
		return nil, err
	}
	return raw, nil
}

func decodeYAML(data []byte) (map[string]any, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// tables accepts a single table or a list of tables
func tables(data any, name string) ([]map[string]any, error) {
	switch v := data.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return []map[string]any{v}, nil
	case []any:
		out := make([]map[string]any, 0, len(v))
		for i, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("invalid [%s] entry %d: expected a table", name, i)
			}
			out = append(out, m)
		}
		return out, nil
	case []map[string]any:
		return v, nil
	}
	return nil, fmt.Errorf("invalid [%s] section format: expected a table", name)
}

// loadDocument reads a TOML or YAML build description.
func loadDocument(path, root string, decode documentDecoder) (*script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	raw, err := decode(data)
	if err != nil {
		return nil, err
	}

	for key := range raw {
		switch key {
		case "solution", "configuration", "project":
		default:
			return nil, fmt.Errorf("unknown section [%s]", key)
		}
	}

	dir := filepath.Dir(path)
	env := NewEnv(root, dir)
	s := &script{path: path}

	slnTables, err := tables(raw["solution"], "solution")
	if err != nil {
		return nil, err
	}
	switch len(slnTables) {
	case 0:
		if _, ok := raw["configuration"]; ok {
			return nil, errors.New("[configuration] entries need a [solution] in the same script")
		}
	case 1:
		section, err := processExpressions(slnTables[0], env)
		if err != nil {
			return nil, fmt.Errorf("error processing expressions in [solution]: %w", err)
		}
		var sec solutionSection
		if err := decodeConditional(section.(map[string]any), "solution", &sec, env); err != nil {
			return nil, err
		}
		configs, err := decodeConfigurations(raw["configuration"], env)
		if err != nil {
			return nil, err
		}
		if s.solution, err = buildSolution(sec, configs, dir); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%d solutions declared, expected at most one", len(slnTables))
	}

	projects, err := tables(raw["project"], "project")
	if err != nil {
		return nil, err
	}
	for _, table := range projects {
		p, err := loadProject(table, path, env)
		if err != nil {
			return nil, err
		}
		s.projects = append(s.projects, p)
	}

	return s, nil
}

func decodeConfigurations(data any, env Env) ([]configurationSection, error) {
	entries, err := tables(data, "configuration")
	if err != nil {
		return nil, err
	}
	configs := make([]configurationSection, 0, len(entries))
	for i, entry := range entries {
		processed, err := processExpressions(entry, env)
		if err != nil {
			return nil, fmt.Errorf("error processing expressions in [[configuration]] %d: %w", i, err)
		}
		var c configurationSection
		if err := decodeSection(processed, &c); err != nil {
			return nil, fmt.Errorf("failed to parse [[configuration]] %d: %w", i, err)
		}
		configs = append(configs, c)
	}
	return configs, nil
}

// evalProject evaluates a raw project table; it consumes data
func evalProject(data map[string]any, env Env) (projectSection, error) {
	var sec projectSection
	processed, err := processExpressions(data, env)
	if err != nil {
		return sec, fmt.Errorf("error processing expressions in [project]: %w", err)
	}
	err = decodeConditional(processed.(map[string]any), "project", &sec, env)
	return sec, err
}

// loadProject builds a project whose Configure hook evaluates the raw table
// again with the configuration bound.
func loadProject(table map[string]any, path string, env Env) (*model.Project, error) {
	raw := cloneValue(table).(map[string]any)

	sec, err := evalProject(table, env)
	if err != nil {
		return nil, err
	}
	p, err := buildProject(sec, path)
	if err != nil {
		return nil, err
	}

	p.OnConfigure = func(p *model.Project, cfg model.Configuration) error {
		sec, err := evalProject(cloneValue(raw).(map[string]any), env.withConfiguration(cfg.Name))
		if err != nil {
			return err
		}
		applyConfigured(p, sec, env.ScriptDir)
		return nil
	}
	return p, nil
}
