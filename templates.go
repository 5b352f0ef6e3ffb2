package kernelgen

import (
	"io/fs"

	"github.com/goliatone/go-kernelgen/pkg/kernel"
)

// EmbeddedTemplates exposes the built-in kernel skeletons so callers can
// reuse or extend them without importing the kernel package directly.
func EmbeddedTemplates() fs.FS {
	fsys := kernel.TemplatesFS()
	return fsys
}
