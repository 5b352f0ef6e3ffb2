// Package schema pins the buffer layout every generated kernel is written
// against: which layout revision the struct declarations follow and which
// scalar type the storage buffers hold. Kernel templates include the
// declarations rendered from this package so that every program in a build
// shares one view of buffer memory.
package schema

import (
	"embed"
	"fmt"
	"io/fs"
)

// Version identifies a buffer layout revision.
type Version string

// V1 is the only layout revision currently defined: runtime-sized arrays of
// tightly packed scalars, vec4 lanes, or mat4x4 tiles, one array per struct.
const V1 Version = "v1"

// Scalar names the element type stored in kernel buffers.
type Scalar string

// F32 is the 32-bit float scalar type used by the v1 layout.
const F32 Scalar = "f32"

// VectorWidth and MatrixWidth are the scalars covered by one ArrayVector lane
// and one ArrayMatrix tile in the v1 layout. Dispatch geometry divides element
// counts by these when a kernel walks the packed forms.
const (
	VectorWidth = 4
	MatrixWidth = 16
)

var (
	// ErrUnknownVersion is returned when a layout revision has no template
	// support.
	ErrUnknownVersion = fmt.Errorf("schema: unknown layout version")
	// ErrUnknownScalar is returned when a scalar type has no template
	// support.
	ErrUnknownScalar = fmt.Errorf("schema: unknown scalar type")
)

// Layout pins the revision and scalar type kernels are generated against.
type Layout struct {
	Version Version
	Scalar  Scalar
}

// Default returns the layout generators use unless configured otherwise:
// revision v1 over 32-bit floats.
func Default() Layout {
	return Layout{Version: V1, Scalar: F32}
}

// Validate reports whether the revision and scalar combination is one the
// declaration templates can render.
func (l Layout) Validate() error {
	if l.Version != V1 {
		return fmt.Errorf("%w: %q", ErrUnknownVersion, l.Version)
	}
	if l.Scalar != F32 {
		return fmt.Errorf("%w: %q", ErrUnknownScalar, l.Scalar)
	}
	return nil
}

// Context returns the render context contribution for the layout, keyed the
// way the kernel templates expect.
func (l Layout) Context() map[string]any {
	return map[string]any{
		"scalar": string(l.Scalar),
	}
}

//go:embed templates/structs.wgsl
var embeddedTemplates embed.FS

// TemplatesFS exposes the embedded struct declaration templates so template
// engines can resolve includes of structs.wgsl against them.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		// The embed directive guarantees the subpath exists.
		panic(err)
	}
	return sub
}
