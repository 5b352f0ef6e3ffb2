// Package kernelgen generates WGSL compute kernels from operator graphs. The
// root package re-exports the high-level entry points; callers with more
// involved needs can import pkg/kernel, pkg/manifest, and pkg/orchestrator
// directly.
package kernelgen

import (
	"context"

	"github.com/goliatone/go-kernelgen/pkg/kernel"
	"github.com/goliatone/go-kernelgen/pkg/manifest"
	"github.com/goliatone/go-kernelgen/pkg/orchestrator"
	"github.com/goliatone/go-kernelgen/pkg/shader"
)

// Request describes one generation run; alias exported via the root package
// for convenience.
type Request = orchestrator.Request

// Plan is an ordered kernel schedule in which every producer precedes its
// consumers.
type Plan = orchestrator.Plan

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// NewLoader constructs a manifest loader, letting callers resolve fs sources
// against embedded or test filesystems.
func NewLoader(options ...manifest.LoaderOption) *manifest.Loader {
	return manifest.NewLoader(options...)
}

// GenerateKernels loads a manifest, compiles every operator node it
// schedules, and returns the kernels in execution order. It is the simplest
// entry point for callers that want a full plan from a single call.
func GenerateKernels(ctx context.Context, source manifest.Source, options ...orchestrator.Option) (Plan, error) {
	gen := orchestrator.New(options...)
	return gen.Generate(ctx, orchestrator.Request{Source: source})
}

// MapKernel renders the unary elementwise skeleton for one input buffer, one
// output buffer, and an operation identifier, bypassing manifests entirely.
// Substitution is verbatim, so the caller owns name hygiene.
func MapKernel(inputName, outputName, opType string, options ...kernel.Option) (shader.Program, error) {
	c, err := kernel.New(options...)
	if err != nil {
		return shader.Program{}, err
	}
	return c.Generate(inputName, outputName, opType)
}
