// Package orchestrator coordinates the pipeline from kernel manifest to
// compiled shader plan: load the manifest, build its graph, order the
// operator nodes, compile each one, and optionally gate the results through
// the shader validator. It applies sensible defaults while remaining open to
// dependency injection for advanced callers.
package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-kernelgen/pkg/kernel"
	"github.com/goliatone/go-kernelgen/pkg/manifest"
	"github.com/goliatone/go-kernelgen/pkg/schema"
	"github.com/goliatone/go-kernelgen/pkg/shader"
	"github.com/goliatone/go-kernelgen/pkg/verify"
)

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithCompiler injects a pre-built kernel compiler. When one is supplied the
// layout and workgroup size options are ignored, since the compiler already
// carries both.
func WithCompiler(c *kernel.Compiler) Option {
	return func(o *Orchestrator) {
		o.compiler = c
	}
}

// WithSchema pins the buffer layout the default compiler generates against.
func WithSchema(layout schema.Layout) Option {
	return func(o *Orchestrator) {
		o.layout = layout
	}
}

// WithWorkgroupSize sets the workgroup size substituted into every compiled
// kernel. Zero keeps the compiler default.
func WithWorkgroupSize(size uint32) Option {
	return func(o *Orchestrator) {
		o.workgroupSize = size
	}
}

// WithLoader injects a custom manifest loader, letting callers resolve fs
// sources against an embedded or test filesystem.
func WithLoader(loader *manifest.Loader) Option {
	return func(o *Orchestrator) {
		o.loader = loader
	}
}

// WithVerification gates every compiled kernel through the shader validator
// before it lands in the plan. Generation itself never checks its output, so
// this is the switch for callers that want malformed kernels caught at build
// time.
func WithVerification() Option {
	return func(o *Orchestrator) {
		o.verifyKernels = true
	}
}

// Orchestrator coordinates manifest loading, graph ordering, and kernel
// compilation into executable plans.
type Orchestrator struct {
	loader          *manifest.Loader
	compiler        *kernel.Compiler
	layout          schema.Layout
	workgroupSize   uint32
	verifyKernels   bool
	initialiseErr   error
	defaultsApplied bool
}

// New constructs an Orchestrator applying any provided options. Missing
// dependencies are initialised with the built-in implementations so callers
// can start with a single constructor call.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		layout: schema.Default(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

// Request describes the inputs for one generation run.
type Request struct {
	// Source identifies where the manifest document lives. Optional when
	// Manifest is supplied.
	Source manifest.Source

	// Manifest allows callers to bypass the loader when they already hold a
	// parsed manifest.
	Manifest *manifest.Manifest

	// Outputs narrows the plan to the kernels needed for these tensors. When
	// empty, the manifest's own outputs drive the schedule.
	Outputs []string
}

// Plan is an ordered kernel schedule; every producer precedes its consumers.
type Plan struct {
	// Name echoes the manifest name.
	Name string

	// Kernels in execution order.
	Kernels []shader.Kernel

	// Inputs lists the tensors a caller must feed at dispatch time, in
	// manifest spelling. Binding names inside the kernels are the sanitised
	// forms of these.
	Inputs []string

	// Outputs lists the tensors the plan produces, in manifest spelling.
	Outputs []string
}

// Generate executes the loader → graph → compiler sequence and returns the
// compiled plan.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (Plan, error) {
	if ctx == nil {
		return Plan{}, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return Plan{}, err
	}
	if err := o.initialiseErr; err != nil {
		return Plan{}, err
	}
	if !o.defaultsApplied {
		o.applyDefaults()
		if err := o.initialiseErr; err != nil {
			return Plan{}, err
		}
	}

	m, err := o.resolveManifest(ctx, req)
	if err != nil {
		return Plan{}, err
	}

	g, err := m.Graph()
	if err != nil {
		return Plan{}, err
	}
	if len(req.Outputs) > 0 {
		g.Outputs = append([]string(nil), req.Outputs...)
	}

	order, err := g.Sort()
	if err != nil {
		return Plan{}, err
	}

	kernels := make([]shader.Kernel, 0, len(order))
	for _, node := range order {
		compiled, err := o.compiler.Compile(node, g.Shapes)
		if err != nil {
			return Plan{}, fmt.Errorf("orchestrator: compile node %q: %w", node.ID(), err)
		}
		if o.verifyKernels {
			if err := verify.Program(compiled.Program); err != nil {
				return Plan{}, fmt.Errorf("orchestrator: node %q: %w", node.ID(), err)
			}
		}
		kernels = append(kernels, compiled)
	}

	return Plan{
		Name:    m.Name,
		Kernels: kernels,
		Inputs:  append([]string(nil), g.Inputs...),
		Outputs: append([]string(nil), g.Outputs...),
	}, nil
}

func (o *Orchestrator) resolveManifest(ctx context.Context, req Request) (manifest.Manifest, error) {
	if req.Manifest != nil {
		return *req.Manifest, nil
	}
	if req.Source == nil {
		return manifest.Manifest{}, errors.New("orchestrator: source or manifest is required")
	}
	doc, err := o.loader.Load(ctx, req.Source)
	if err != nil {
		return manifest.Manifest{}, fmt.Errorf("orchestrator: load manifest: %w", err)
	}
	m, err := manifest.Parse(doc)
	if err != nil {
		return manifest.Manifest{}, fmt.Errorf("orchestrator: parse manifest: %w", err)
	}
	return m, nil
}

func (o *Orchestrator) applyDefaults() {
	if o.defaultsApplied {
		return
	}

	if o.loader == nil {
		o.loader = manifest.NewLoader()
	}
	if o.compiler == nil {
		opts := []kernel.Option{kernel.WithLayout(o.layout)}
		if o.workgroupSize > 0 {
			opts = append(opts, kernel.WithWorkgroupSize(o.workgroupSize))
		}
		compiler, err := kernel.New(opts...)
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: default compiler: %w", err)
		} else {
			o.compiler = compiler
		}
	}

	o.defaultsApplied = true
}
