// Package shader defines the descriptor types produced by kernel generation.
// A Program is a fully rendered WGSL compute shader together with the
// metadata a caller needs to bind buffers and launch it; a Kernel adds the
// dispatch geometry computed for a concrete tensor shape.
package shader

// Access enumerates the storage access modes a generated binding declares.
// The values mirror the WGSL access-mode spelling so descriptors can be
// compared against rendered source directly.
type Access string

const (
	AccessRead      Access = "read"
	AccessReadWrite Access = "read_write"
)

// Binding describes one storage buffer slot referenced by a generated
// program. Elements carries the scalar count the buffer is expected to hold;
// it is zero when the generator had no shape information.
type Binding struct {
	Group    uint32 `json:"group"`
	Slot     uint32 `json:"slot"`
	Name     string `json:"name"`
	Access   Access `json:"access"`
	Elements int64  `json:"elements,omitempty"`
}

// ByteSize reports the buffer size in bytes needed to back the binding,
// assuming 32-bit scalars. It returns zero when the element count is unknown.
func (b Binding) ByteSize() int64 {
	return b.Elements * 4
}

// Dispatch carries the workgroup counts for a compute pass.
type Dispatch struct {
	X uint32 `json:"x"`
	Y uint32 `json:"y"`
	Z uint32 `json:"z"`
}

// Program is a rendered WGSL compute shader plus its launch metadata.
type Program struct {
	Name          string    `json:"name"`
	Source        string    `json:"source"`
	EntryPoint    string    `json:"entryPoint"`
	WorkgroupSize uint32    `json:"workgroupSize"`
	Bindings      []Binding `json:"bindings"`
}

// Binding returns the binding declared under name and reports whether it
// exists.
func (p Program) Binding(name string) (Binding, bool) {
	for _, b := range p.Bindings {
		if b.Name == name {
			return b, true
		}
	}
	return Binding{}, false
}

// Kernel pairs a program with the dispatch geometry derived from the shapes
// it was compiled for.
type Kernel struct {
	Program
	Dispatch Dispatch `json:"dispatch"`
}
