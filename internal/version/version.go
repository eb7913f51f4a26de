package version

// Version is the generator version stamped into every artifact.
const Version = "1.3.0"

// Name is the human readable generator name.
const Name = "Astro Make"

// Banner returns the informational lines written at the top of generated
// files and manifests, without any comment prefix.
func Banner(what string) []string {
	return []string{
		Name + " " + Version + " generated " + what,
		"Do not edit, regenerate with `astro generate` instead",
	}
}
