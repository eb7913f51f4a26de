package gen

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/astromake/astro/internal/manifest"
	"github.com/astromake/astro/internal/msg"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// ArtifactError reports a single artifact that could not be written. Other
// artifacts are unaffected.
type ArtifactError struct {
	Path string
	Err  error
}

func (e *ArtifactError) Error() string { return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err) }
func (e *ArtifactError) Unwrap() error { return e.Err }

// Emitter renders artifacts into memory and flushes each one to its own file.
// It records every written file and created directory in Manifest. Emit is
// safe for concurrent use.
type Emitter struct {
	Manifest *manifest.Manifest
	Progress *msg.ProgressBar

	mu        sync.Mutex
	errs      []error
	written   []string
	unchanged []string
}

func NewEmitter(m *manifest.Manifest, progress *msg.ProgressBar) *Emitter {
	if m == nil {
		m = manifest.New()
	}
	return &Emitter{Manifest: m, Progress: progress}
}

// Emit renders an artifact with render and writes it to path. A failing or
// panicking render abandons the artifact without touching the file on disk.
// Identical files are left as they are.
func (e *Emitter) Emit(path string, render func(w io.Writer) error) (err error) {
	defer e.Progress.Step()
	defer func() {
		if err != nil {
			err = &ArtifactError{Path: path, Err: err}
			msg.Error("%v", err)
			e.mu.Lock()
			e.errs = append(e.errs, err)
			e.mu.Unlock()
		}
	}()

	var buf bytes.Buffer
	if err := safeRender(&buf, render); err != nil {
		return err
	}

	old, readErr := os.ReadFile(path)
	if readErr == nil && bytes.Equal(old, buf.Bytes()) {
		msg.Trace("%s is up to date", path)
		e.Manifest.Add(path)
		e.mu.Lock()
		e.unchanged = append(e.unchanged, path)
		e.mu.Unlock()
		return nil
	}

	if err := e.mkdirAll(filepath.Dir(path)); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return err
	}
	e.Manifest.Add(path)

	if readErr == nil {
		ins, del := lineChanges(string(old), buf.String())
		msg.Trace("updated %s (+%d -%d)", path, ins, del)
	} else {
		msg.Trace("created %s", path)
	}

	e.mu.Lock()
	e.written = append(e.written, path)
	e.mu.Unlock()
	return nil
}

func safeRender(w io.Writer, render func(w io.Writer) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()
	return render(w)
}

// mkdirAll creates dir and its missing parents, recording each created directory.
func (e *Emitter) mkdirAll(dir string) error {
	var missing []string
	for d := dir; ; d = filepath.Dir(d) {
		if _, err := os.Stat(d); err == nil {
			break
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		missing = append(missing, d)
		if filepath.Dir(d) == d {
			break
		}
	}
	if len(missing) == 0 {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for _, d := range missing {
		e.Manifest.Add(d)
	}
	return nil
}

// lineChanges counts inserted and deleted lines between two texts.
func lineChanges(before, after string) (ins, del int) {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)
	for _, d := range diffs {
		n := strings.Count(d.Text, "\n")
		if n == 0 && d.Text != "" {
			n = 1
		}
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			ins += n
		case diffmatchpatch.DiffDelete:
			del += n
		}
	}
	return ins, del
}

// Err joins every artifact failure so far.
func (e *Emitter) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return errors.Join(e.errs...)
}

// Written returns the files created or updated so far.
func (e *Emitter) Written() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.written...)
}

// Unchanged returns the files that already had the rendered contents.
func (e *Emitter) Unchanged() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.unchanged...)
}
