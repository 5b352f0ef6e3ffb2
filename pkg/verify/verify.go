// Package verify gates generated programs through a pure Go WGSL compiler:
// parse, lower to typed IR, validate. Generation never validates its own
// output, so this is the checkpoint for callers that want malformed shaders
// rejected at build time instead of at pipeline creation.
package verify

import (
	"fmt"

	"github.com/gogpu/naga"

	"github.com/goliatone/go-kernelgen/pkg/shader"
)

// Program parses and validates the program source, returning nil when the
// shader is well formed.
func Program(p shader.Program) error {
	ast, err := naga.Parse(p.Source)
	if err != nil {
		return fmt.Errorf("verify: parse %s: %w", p.Name, err)
	}

	module, err := naga.LowerWithSource(ast, p.Source)
	if err != nil {
		return fmt.Errorf("verify: lower %s: %w", p.Name, err)
	}

	diags, err := naga.Validate(module)
	if err != nil {
		return fmt.Errorf("verify: validate %s: %w", p.Name, err)
	}
	if len(diags) > 0 {
		return fmt.Errorf("verify: program %s: validation failed: %w", p.Name, &diags[0])
	}

	return nil
}

// CompileSPIRV cross-compiles the program to a SPIR-V binary, validating it
// on the way.
func CompileSPIRV(p shader.Program) ([]byte, error) {
	words, err := naga.Compile(p.Source)
	if err != nil {
		return nil, fmt.Errorf("verify: compile %s: %w", p.Name, err)
	}
	return words, nil
}
