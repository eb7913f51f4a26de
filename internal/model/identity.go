package model

import (
	"strings"

	"github.com/google/uuid"
)

// Project kind identifiers understood by Visual Studio solutions.
// https://github.com/VISTALL/visual-studio-project-type-guids
var (
	KindNative         = uuid.MustParse("8BC9CEB8-8B4A-11D0-8D11-00A0C91BC942")
	KindManaged        = uuid.MustParse("FAE04EC0-301F-11D3-BF4B-00C04F79EFBC")
	KindSolutionFolder = uuid.MustParse("2150E333-8FDC-42A3-9474-1A3956D46DE8")
)

// SolutionItemsIdentifier identifies the pseudo-project that lists the build
// scripts of a solution. It never collides with a generated project identifier
// because those are random version 4 values and this one is not.
var SolutionItemsIdentifier = uuid.MustParse("0A57C0DE-0000-0000-0000-A57A0A57A0A5")

// FormatIdentifier renders id as `{XXXXXXXX-XXXX-XXXX-XXXX-XXXXXXXXXXXX}`.
func FormatIdentifier(id uuid.UUID) string {
	return "{" + strings.ToUpper(id.String()) + "}"
}
