package workspace

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/astromake/astro/internal/model"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// hclScript is the top level of an HCL build description.
type hclScript struct {
	Solutions []*hclSolution `hcl:"solution,block"`
	Projects  []*hclProject  `hcl:"project,block"`
}

// hclSolution keeps the body so it can be decoded with an evaluation context.
type hclSolution struct {
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

type hclProject struct {
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

var hclFunctions = map[string]function.Function{
	"upper":  stdlib.UpperFunc,
	"lower":  stdlib.LowerFunc,
	"join":   stdlib.JoinFunc,
	"concat": stdlib.ConcatFunc,
	"format": stdlib.FormatFunc,
}

// evalContext exposes env to HCL expressions.
func evalContext(env Env) *hcl.EvalContext {
	environ := make(map[string]cty.Value, len(env.Environ))
	for k, v := range env.Environ {
		environ[k] = cty.StringVal(v)
	}
	envVal := cty.MapValEmpty(cty.String)
	if len(environ) > 0 {
		envVal = cty.MapVal(environ)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"configuration": cty.StringVal(env.Configuration),
			"arch":          cty.StringVal(env.Arch),
			"host_os":       cty.StringVal(env.HostOS),
			"script_dir":    cty.StringVal(env.ScriptDir),
			"root_dir":      cty.StringVal(env.RootDir),
			"env":           envVal,
		},
		Functions: hclFunctions,
	}
}

// diagnosticsError keeps one entry per diagnostic so callers can print them
// line by line.
func diagnosticsError(diags hcl.Diagnostics) error {
	var errs []error
	for _, diag := range diags {
		if diag.Severity == hcl.DiagError {
			errs = append(errs, errors.New(diag.Error()))
		}
	}
	return errors.Join(errs...)
}

// loadHCL reads an HCL build description.
func loadHCL(path, root string) (*script, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, diagnosticsError(diags)
	}

	var top hclScript
	if diags := gohcl.DecodeBody(file.Body, nil, &top); diags.HasErrors() {
		return nil, diagnosticsError(diags)
	}

	dir := filepath.Dir(path)
	env := NewEnv(root, dir)
	ctx := evalContext(env)
	s := &script{path: path}

	switch len(top.Solutions) {
	case 0:
	case 1:
		sec := solutionSection{Name: top.Solutions[0].Name}
		if diags := gohcl.DecodeBody(top.Solutions[0].Body, ctx, &sec); diags.HasErrors() {
			return nil, diagnosticsError(diags)
		}
		sec.Name = top.Solutions[0].Name
		sln, err := buildSolution(sec, sec.Configurations, dir)
		if err != nil {
			return nil, err
		}
		s.solution = sln
	default:
		return nil, fmt.Errorf("%d solutions declared, expected at most one", len(top.Solutions))
	}

	for _, block := range top.Projects {
		p, err := loadHCLProject(block, path, env)
		if err != nil {
			return nil, err
		}
		s.projects = append(s.projects, p)
	}
	return s, nil
}

func decodeHCLProject(block *hclProject, env Env) (projectSection, error) {
	sec := projectSection{Name: block.Name}
	if diags := gohcl.DecodeBody(block.Body, evalContext(env), &sec); diags.HasErrors() {
		return sec, diagnosticsError(diags)
	}
	sec.Name = block.Name
	return sec, nil
}

// loadHCLProject builds a project whose Configure hook decodes the block again
// with the configuration bound.
func loadHCLProject(block *hclProject, path string, env Env) (*model.Project, error) {
	sec, err := decodeHCLProject(block, env)
	if err != nil {
		return nil, err
	}
	p, err := buildProject(sec, path)
	if err != nil {
		return nil, err
	}

	p.OnConfigure = func(p *model.Project, cfg model.Configuration) error {
		sec, err := decodeHCLProject(block, env.withConfiguration(cfg.Name))
		if err != nil {
			return err
		}
		applyConfigured(p, sec, env.ScriptDir)
		return nil
	}
	return p, nil
}
