package builder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/astromake/astro/internal/model"
)

// ValidationError names the field of a solution, configuration or project that
// prevents generation.
type ValidationError struct {
	Field   string
	Subject string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", e.Subject, e.Field, e.Reason)
}

func normalizeName(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
}

// normalize replaces spaces in *name with underscores, warning when it changes.
func (b *Builder) normalize(what string, name *string) {
	fixed := normalizeName(*name)
	if fixed != *name {
		b.warn("%s name %q contains spaces, renamed to %q", what, *name, fixed)
		*name = fixed
	}
}

// validate checks the solution and resolves its projects. Every problem is
// reported; the result joins all of them.
func (b *Builder) validate() error {
	sln := b.sln
	var errs []error
	fail := func(subject, field, reason string, args ...any) {
		errs = append(errs, &ValidationError{Field: field, Subject: subject, Reason: fmt.Sprintf(reason, args...)})
	}

	if sln == nil {
		return &ValidationError{Field: "solution", Subject: "workspace", Reason: "is missing"}
	}

	b.normalize("solution", &sln.Name)
	subject := "solution " + sln.Name
	if sln.Name == "" {
		subject = "solution"
		fail(subject, "name", "must not be empty")
	}
	if sln.Location == "" {
		fail(subject, "location", "must not be empty")
	}
	if sln.TargetDirectory == "" {
		fail(subject, "target directory", "must not be empty")
	}

	if len(sln.Configurations) == 0 {
		fail(subject, "configurations", "must list at least one configuration")
	}
	configs := make(map[string]bool)
	for i := range sln.Configurations {
		cfg := &sln.Configurations[i]
		b.normalize("configuration", &cfg.Name)
		if cfg.Name == "" {
			fail(subject, "configurations", "entry %d has no name", i)
			continue
		}
		if configs[cfg.Name] {
			fail(subject, "configurations", "list %q more than once", cfg.Name)
		}
		configs[cfg.Name] = true
	}

	platforms := make(map[string]bool)
	for _, label := range sln.PlatformLabels() {
		if label == "" {
			fail(subject, "platforms", "contain an empty label")
		} else if platforms[label] {
			fail(subject, "platforms", "list %q more than once", label)
		}
		platforms[label] = true
	}

	// authored projects by normalized name
	authored := make(map[string][]*model.Project)
	for _, p := range b.projects {
		name := p.Name
		b.normalize("project", &p.Name)
		// a target name derived from the project name follows the rename
		if p.TargetName == name {
			p.TargetName = p.Name
		}
		authored[p.Name] = append(authored[p.Name], p)
	}

	if len(sln.ProjectNames) == 0 {
		fail(subject, "projects", "must name at least one project")
	}
	sln.Projects = sln.Projects[:0]
	requested := make(map[string]bool)
	for _, name := range sln.ProjectNames {
		name = normalizeName(name)
		if requested[name] {
			fail(subject, "projects", "list %q more than once", name)
			continue
		}
		requested[name] = true

		switch found := authored[name]; len(found) {
		case 0:
			fail(subject, "projects", "reference unknown project %q", name)
		case 1:
			if p := found[0]; b.validateProject(sln, p, fail) {
				sln.Projects = append(sln.Projects, p)
			}
		default:
			fail(subject, "projects", "reference %q which is defined %d times", name, len(found))
		}
	}

	return errors.Join(errs...)
}

func (b *Builder) validateProject(sln *model.Solution, p *model.Project, fail func(subject, field, reason string, args ...any)) bool {
	subject := "project " + p.Name
	ok := true
	if p.Name == "" {
		fail("project", "name", "must not be empty")
		ok = false
	}
	if p.Location == "" {
		fail(subject, "location", "must not be empty")
		ok = false
	}
	if p.TargetDirectory == "" {
		p.TargetDirectory = sln.TargetDirectory
	}
	if p.TargetName == "" {
		p.TargetName = p.Name
	}
	return ok
}
