// Package kernel turns operation descriptions into dispatchable WGSL compute
// programs. The Compiler renders a fixed set of embedded skeletons through a
// template engine: Generate substitutes buffer names and an operation
// identifier into the unary elementwise skeleton, while Compile routes a
// graph node to the skeleton for its operation family and derives dispatch
// geometry from tensor shapes.
package kernel

import (
	"fmt"

	"github.com/goliatone/go-kernelgen/pkg/schema"
	"github.com/goliatone/go-kernelgen/pkg/shader"
	"github.com/goliatone/go-kernelgen/pkg/template"
)

// entryPoint is the function name every skeleton declares.
const entryPoint = "main"

// Option configures the compiler before construction.
type Option func(*config)

type config struct {
	layout        schema.Layout
	workgroupSize uint32
	renderer      template.Renderer
}

// WithLayout pins the buffer layout kernels are generated against.
func WithLayout(layout schema.Layout) Option {
	return func(cfg *config) {
		cfg.layout = layout
	}
}

// WithWorkgroupSize overrides the workgroup size substituted into every
// skeleton. Dispatch geometry shrinks accordingly, so each element keeps
// exactly one invocation.
func WithWorkgroupSize(size uint32) Option {
	return func(cfg *config) {
		if size == 0 {
			return
		}
		cfg.workgroupSize = size
	}
}

// WithRenderer overrides the template engine the compiler renders through.
func WithRenderer(r template.Renderer) Option {
	return func(cfg *config) {
		cfg.renderer = r
	}
}

// Compiler renders kernel skeletons into dispatchable programs. It is
// stateless after construction and safe for concurrent use.
type Compiler struct {
	renderer      template.Renderer
	layout        schema.Layout
	workgroupSize uint32
}

// New constructs a Compiler. By default it renders the embedded skeletons
// against the v1 f32 buffer layout with workgroup size 1.
func New(options ...Option) (*Compiler, error) {
	cfg := &config{
		layout:        schema.Default(),
		workgroupSize: 1,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	if err := cfg.layout.Validate(); err != nil {
		return nil, err
	}

	renderer := cfg.renderer
	if renderer == nil {
		engine, err := template.New(
			template.WithFS(TemplatesFS()),
			template.WithFS(schema.TemplatesFS()),
		)
		if err != nil {
			return nil, fmt.Errorf("kernel: build template engine: %w", err)
		}
		renderer = engine
	}

	return &Compiler{
		renderer:      renderer,
		layout:        cfg.layout,
		workgroupSize: cfg.workgroupSize,
	}, nil
}

// Generate renders the unary elementwise skeleton for the supplied buffer
// names and operation identifier. Substitution is purely textual: the names
// land in the binding declarations exactly as given and the operation lands
// as the call token in the body, so the same triple always yields the same
// bytes. No validation happens here; an unresolvable operation or aliased
// buffer names surface downstream when the program is compiled or
// dispatched.
func (c *Compiler) Generate(inputName, outputName, opType string) (shader.Program, error) {
	data := c.baseContext()
	data["input"] = []string{inputName}
	data["output"] = []string{outputName}
	data["op_type"] = opType

	source, err := c.renderer.RenderTemplate("map", data)
	if err != nil {
		return shader.Program{}, fmt.Errorf("kernel: render map skeleton: %w", err)
	}

	return shader.Program{
		Name:          "map_" + opType,
		Source:        source,
		EntryPoint:    entryPoint,
		WorkgroupSize: c.workgroupSize,
		Bindings: []shader.Binding{
			{Group: 0, Slot: 0, Name: inputName, Access: shader.AccessRead},
			{Group: 0, Slot: 1, Name: outputName, Access: shader.AccessReadWrite},
		},
	}, nil
}

// WorkgroupSize reports the workgroup size substituted into generated
// programs.
func (c *Compiler) WorkgroupSize() uint32 {
	return c.workgroupSize
}

// Layout reports the buffer layout programs are generated against.
func (c *Compiler) Layout() schema.Layout {
	return c.layout
}

func (c *Compiler) baseContext() map[string]any {
	data := c.layout.Context()
	data["workgroup_size"] = int64(c.workgroupSize)
	return data
}
