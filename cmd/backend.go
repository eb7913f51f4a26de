package cmd

import (
	"fmt"
	"strings"

	"github.com/astromake/astro/internal/builder"
	"github.com/spf13/cobra"
)

type backendInfo struct {
	name      string
	help      string
	available bool
}

// backendValue is the --backend flag. Planned backends are accepted so the
// builder can report them as not implemented.
type backendValue struct {
	name     string
	backends []backendInfo
}

func newBackendValue(backends ...backendInfo) backendValue {
	return backendValue{name: backends[0].name, backends: backends}
}

func (v *backendValue) String() string { return v.name }
func (v *backendValue) Type() string   { return "backend" }

func (v *backendValue) Set(s string) error {
	for _, b := range v.backends {
		if strings.EqualFold(b.name, strings.TrimSpace(s)) {
			v.name = b.name
			return nil
		}
	}
	return fmt.Errorf("%q: %w, choose one of %s", s, builder.ErrUnknownBackend, strings.Join(v.names(), ", "))
}

func (v *backendValue) names() []string {
	names := make([]string, len(v.backends))
	for i, b := range v.backends {
		names[i] = b.name
	}
	return names
}

// usage lists the backends for the flag help, the first one being the default.
func (v *backendValue) usage() string {
	var sb strings.Builder
	sb.WriteString("Backend to generate for:")
	for _, b := range v.backends {
		fmt.Fprintf(&sb, "\n  %-8s %s", b.name, b.help)
		if !b.available {
			sb.WriteString(" (not yet available)")
		}
	}
	return sb.String()
}

func (v *backendValue) complete(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var items []string
	for _, b := range v.backends {
		if b.available && strings.HasPrefix(b.name, toComplete) {
			items = append(items, b.name+"\t"+b.help)
		}
	}
	return items, cobra.ShellCompDirectiveNoFileComp
}
