package model

// MatrixEntry is one cell of the configuration matrix.
type MatrixEntry struct {
	Configuration Configuration
	Platform      string
	Architecture  Architecture
}

// Name is the configuration name as seen by the IDE: `{platform} {configuration}`
// or just `{configuration}` when no platform is set.
func (e MatrixEntry) Name() string {
	if e.Platform == "" {
		return e.Configuration.Name
	}
	return e.Platform + " " + e.Configuration.Name
}

// String returns `{Name}|{architecture}`, the form shared by every artifact that
// references a configuration.
func (e MatrixEntry) String() string {
	return e.Name() + "|" + e.Architecture.String()
}

// Expand builds the configuration matrix: configurations in the outer loop,
// platforms in the inner one. Without platforms there is one entry per configuration.
func Expand(configs []Configuration, platforms []string, arch Architecture) []MatrixEntry {
	entries := make([]MatrixEntry, 0, len(configs)*max(len(platforms), 1))
	for _, cfg := range configs {
		if len(platforms) == 0 {
			entries = append(entries, MatrixEntry{Configuration: cfg, Architecture: arch})
			continue
		}
		for _, platform := range platforms {
			entries = append(entries, MatrixEntry{Configuration: cfg, Platform: platform, Architecture: arch})
		}
	}
	return entries
}

// MatrixNames renders every entry with String.
func MatrixNames(entries []MatrixEntry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.String()
	}
	return names
}
