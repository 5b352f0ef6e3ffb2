package kernel

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.wgsl
var embeddedTemplates embed.FS

// TemplatesFS exposes the embedded kernel skeletons so callers can mount
// them into their own template engine or inspect the raw template text.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		// The embed directive guarantees the subpath exists.
		panic(err)
	}
	return sub
}
