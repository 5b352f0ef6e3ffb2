package kernel

import "strings"

// Tensor names in model files routinely carry separators that cannot appear
// in a WGSL identifier. The characters below are stripped before a name is
// substituted into a binding declaration.
var bindingNameSanitizer = strings.NewReplacer(
	"(", "",
	")", "",
	",", "",
	"\"", "",
	".", "",
	";", "",
	":", "",
	"'", "",
	"/", "",
)

// SanitizeName returns name with every character the binding namespace
// cannot carry removed.
func SanitizeName(name string) string {
	return bindingNameSanitizer.Replace(name)
}

func sanitizeNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, SanitizeName(name))
	}
	return out
}
