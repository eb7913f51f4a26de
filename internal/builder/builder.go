package builder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/astromake/astro/internal/builder/gen"
	"github.com/astromake/astro/internal/manifest"
	"github.com/astromake/astro/internal/model"
	"github.com/astromake/astro/internal/msg"
)

var (
	ErrNotImplemented = errors.New("backend is not yet available")
	ErrUnknownBackend = errors.New("unknown backend")
)

const (
	BackendVisualStudio = "vstudio"
	BackendNinja        = "ninja"
	BackendMakefile     = "makefile"
	BackendXcode        = "xcode"
	BackendMinGW        = "mingw"
)

// Options configure a generation run.
type Options struct {
	Backend       string
	RootDirectory string
	// Jobs bounds parallel artifact rendering, zero means one per CPU.
	Jobs     int
	Verbose  bool
	Progress bool
}

// State is the position of a Builder in its lifecycle.
type State int

const (
	Unconfigured State = iota
	Validated
	Emitting
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Unconfigured:
		return "unconfigured"
	case Validated:
		return "validated"
	case Emitting:
		return "emitting"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Builder validates a solution and drives one backend over it.
type Builder struct {
	opts     Options
	sln      *model.Solution
	projects []*model.Project

	state    State
	graph    *gen.Graph
	manifest *manifest.Manifest
	emitter  *gen.Emitter

	mu       sync.Mutex
	warnings []string
}

// New returns a builder for sln. projects are all authored projects; the
// solution's ProjectNames pick the ones that take part.
func New(sln *model.Solution, projects []*model.Project, opts Options) *Builder {
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.NumCPU()
	}
	if opts.Backend == "" {
		opts.Backend = BackendVisualStudio
	}
	return &Builder{opts: opts, sln: sln, projects: projects}
}

func (b *Builder) State() State { return b.state }

// Graph is the resolved solution, available once validated.
func (b *Builder) Graph() *gen.Graph { return b.graph }

// Manifest lists what the last Generate wrote.
func (b *Builder) Manifest() *manifest.Manifest { return b.manifest }

// Warnings returns every warning reported so far.
func (b *Builder) Warnings() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.warnings...)
}

func (b *Builder) warn(format string, a ...any) {
	text := fmt.Sprintf(format, a...)
	b.mu.Lock()
	b.warnings = append(b.warnings, text)
	b.mu.Unlock()
	msg.Warn("%s", text)
}

func (b *Builder) trace(format string, a ...any) {
	msg.Trace(format, a...)
}

func (b *Builder) fail(err error) error {
	b.state = Failed
	return err
}

// Validate moves an unconfigured builder to Validated by checking the solution
// and resolving projects, files and links. Any validation error is fatal.
func (b *Builder) Validate() error {
	if b.state != Unconfigured {
		return fmt.Errorf("cannot validate a builder in state %s", b.state)
	}
	if err := b.validate(); err != nil {
		return b.fail(err)
	}

	graph := &gen.Graph{Solution: b.sln}
	for _, p := range b.sln.Projects {
		t := b.resolveFiles(p)
		t.Dependencies = b.resolveLinks(b.sln, p)
		graph.Targets = append(graph.Targets, t)
	}
	b.graph = graph
	b.state = Validated
	return nil
}

// createGenerator returns the generator for backend
func (b *Builder) createGenerator(backend string) (gen.Generator, error) {
	switch backend {
	case BackendVisualStudio:
		return gen.NewVisualStudioGen(b.opts.Jobs), nil
	case BackendNinja:
		tc := detectToolchain()
		return gen.NewNinjaGen(tc.cc, tc.cxx, tc.ar), nil
	case BackendMakefile, BackendXcode, BackendMinGW:
		return nil, fmt.Errorf("%s: %w", backend, ErrNotImplemented)
	}
	return nil, fmt.Errorf("%q: %w", backend, ErrUnknownBackend)
}

// Generate validates if needed, runs the pre-build commands, emits every
// artifact of the selected backend, saves the manifest and runs the post-build
// commands. Single artifact failures do not stop the run; they are returned
// joined once everything else is written, with the builder in state Done.
func (b *Builder) Generate() error {
	g, err := b.createGenerator(b.opts.Backend)
	if err != nil {
		return b.fail(err)
	}

	if b.state == Unconfigured {
		if err := b.Validate(); err != nil {
			return err
		}
	}
	if b.state != Validated {
		return fmt.Errorf("cannot generate from a builder in state %s", b.state)
	}

	if err := b.runCommands("pre-build", b.sln.PreBuildCommands); err != nil {
		return b.fail(err)
	}

	b.state = Emitting

	var progress *msg.ProgressBar
	if b.opts.Progress && !b.opts.Verbose {
		progress = msg.NewProgressBar(int64(g.Artifacts(b.graph)), 2, os.Stdout)
	}
	b.manifest = manifest.New()
	b.emitter = gen.NewEmitter(b.manifest, progress)

	if err := g.Generate(b.graph, b.emitter); err != nil {
		progress.Finish()
		return b.fail(fmt.Errorf("%s backend: %w", b.opts.Backend, err))
	}
	progress.Finish()

	artifactErr := b.emitter.Err()
	if err := b.manifest.Save(b.sln.ManifestPath()); err != nil {
		artifactErr = errors.Join(artifactErr, &gen.ArtifactError{Path: b.sln.ManifestPath(), Err: err})
	}

	written, unchanged := len(b.emitter.Written()), len(b.emitter.Unchanged())
	msg.Info("%s: wrote %d files, %d unchanged, manifest %s",
		b.sln.Name, written, unchanged, b.displayPath(b.sln.ManifestPath()))

	if artifactErr == nil {
		if err := b.runCommands("post-build", b.sln.PostBuildCommands); err != nil {
			return b.fail(err)
		}
	}

	b.state = Done
	return artifactErr
}

// displayPath shortens path relative to the root directory when possible
func (b *Builder) displayPath(path string) string {
	if b.opts.RootDirectory == "" {
		return path
	}
	if rel, err := filepath.Rel(b.opts.RootDirectory, path); err == nil && filepath.IsLocal(rel) {
		return rel
	}
	return path
}
