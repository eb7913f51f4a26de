package gen

import (
	"encoding/xml"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/astromake/astro/internal/model"
	"github.com/google/uuid"
)

//
// structures for .vcxproj.filters
//

type VSFilter struct {
	XMLName          xml.Name `xml:"Filter"`
	Include          string   `xml:"Include,attr"`
	UniqueIdentifier string   `xml:"UniqueIdentifier"`
}

// VSFilterItem places a ClCompile, ClInclude or None item into a filter.
type VSFilterItem struct {
	XMLName xml.Name
	Include string `xml:"Include,attr"`
	Filter  string `xml:"Filter,omitempty"`
}

// FiltersPath is where the filters of a native project are written.
func FiltersPath(p *model.Project) string {
	return p.TargetPath() + ".filters"
}

// filterOf returns the folder of file below location in backslash form, or ""
// for files at the top or outside of it.
func filterOf(location, file string) string {
	rel, err := filepath.Rel(location, filepath.Dir(file))
	if err != nil || rel == "." || !filepath.IsLocal(rel) {
		return ""
	}
	return toBackslash(rel)
}

// filterIdentifier is stable across runs so unchanged projects stay unchanged.
func filterIdentifier(p *model.Project, filter string) string {
	return model.FormatIdentifier(uuid.NewSHA1(p.Identifier(), []byte(filter)))
}

// writeFilters renders the folder view of a native project, mirroring the
// directory layout of its files below the project location.
func writeFilters(out io.Writer, t *Target) error {
	base := t.TargetDirectory
	folders := make(map[string]bool)

	items := func(kind string, files []string) []any {
		group := make([]any, 0, len(files))
		for _, f := range files {
			filter := filterOf(t.Location, f)
			for dir := filter; dir != ""; {
				folders[dir] = true
				i := strings.LastIndex(dir, `\`)
				if i < 0 {
					break
				}
				dir = dir[:i]
			}
			group = append(group, VSFilterItem{XMLName: xml.Name{Local: kind}, Include: relPath(base, f), Filter: filter})
		}
		return group
	}
	sources := items("ClCompile", t.Sources)
	headers := items("ClInclude", t.Headers)
	additional := items("None", t.Additional)

	names := make([]string, 0, len(folders))
	for name := range folders {
		names = append(names, name)
	}
	slices.Sort(names)

	var nodes []any
	if len(names) > 0 {
		filters := make([]any, len(names))
		for i, name := range names {
			filters[i] = VSFilter{Include: name, UniqueIdentifier: filterIdentifier(t.Project, name)}
		}
		nodes = append(nodes, VSItemGroup{Items: filters})
	}
	for _, group := range [][]any{sources, headers, additional} {
		if len(group) > 0 {
			nodes = append(nodes, VSItemGroup{Items: group})
		}
	}

	return encodeProject(out, "filters", VSProject{ToolsVersion: "4.0", XMLNS: msbuildNamespace, Nodes: nodes})
}
