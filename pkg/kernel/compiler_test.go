package kernel_test

import (
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-kernelgen/pkg/kernel"
	"github.com/goliatone/go-kernelgen/pkg/schema"
	"github.com/goliatone/go-kernelgen/pkg/shader"
	"github.com/goliatone/go-kernelgen/pkg/testsupport"
)

func newCompiler(t *testing.T, options ...kernel.Option) *kernel.Compiler {
	t.Helper()

	compiler, err := kernel.New(options...)
	if err != nil {
		t.Fatalf("new compiler: %v", err)
	}
	return compiler
}

func TestGenerateMatchesGolden(t *testing.T) {
	compiler := newCompiler(t)

	program, err := compiler.Generate("x", "y", "abs")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	goldenPath := filepath.Join("testdata", "map_abs.golden")
	if testsupport.WriteMaybeGolden(t, goldenPath, []byte(program.Source)) {
		return
	}

	want := testsupport.MustReadGoldenString(t, goldenPath)
	if diff := cmp.Diff(want, program.Source); diff != "" {
		t.Fatalf("generated source mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	compiler := newCompiler(t)

	first, err := compiler.Generate("x", "y", "abs")
	if err != nil {
		t.Fatalf("first generate: %v", err)
	}
	second, err := compiler.Generate("x", "y", "abs")
	if err != nil {
		t.Fatalf("second generate: %v", err)
	}
	if first.Source != second.Source {
		t.Fatalf("same triple produced different source\nfirst: %q\nsecond: %q", first.Source, second.Source)
	}

	// A fresh compiler must agree byte for byte as well.
	other := newCompiler(t)
	third, err := other.Generate("x", "y", "abs")
	if err != nil {
		t.Fatalf("third generate: %v", err)
	}
	if first.Source != third.Source {
		t.Fatalf("fresh compiler produced different source\nfirst: %q\nthird: %q", first.Source, third.Source)
	}
}

func TestGenerateStructuralInvariants(t *testing.T) {
	compiler := newCompiler(t)

	for _, op := range []string{"abs", "ceil", "sqrt", "tanh", "neg"} {
		program, err := compiler.Generate("src", "dst", op)
		if err != nil {
			t.Fatalf("generate %s: %v", op, err)
		}
		source := program.Source

		if got := strings.Count(source, "@binding(0)"); got != 1 {
			t.Fatalf("op %s: expected one slot 0 declaration, got %d", op, got)
		}
		if got := strings.Count(source, "@binding(1)"); got != 1 {
			t.Fatalf("op %s: expected one slot 1 declaration, got %d", op, got)
		}
		if got := strings.Count(source, "var<storage, read>"); got != 1 {
			t.Fatalf("op %s: expected one read-only binding, got %d", op, got)
		}
		if got := strings.Count(source, "var<storage, read_write>"); got != 1 {
			t.Fatalf("op %s: expected one writable binding, got %d", op, got)
		}
		if got := strings.Count(source, "@compute"); got != 1 {
			t.Fatalf("op %s: expected one entry point, got %d", op, got)
		}
		if got := strings.Count(source, "@workgroup_size(1)"); got != 1 {
			t.Fatalf("op %s: expected workgroup size (1,1,1), got %d occurrences", op, got)
		}
		// The index must come from the x component alone.
		if !strings.Contains(source, "let gidx = global_id.x;") {
			t.Fatalf("op %s: missing gidx derivation:\n%s", op, source)
		}
		if strings.Contains(source, "global_id.y") || strings.Contains(source, "global_id.z") {
			t.Fatalf("op %s: y or z component must stay unused:\n%s", op, source)
		}
		// The writable buffer is written exactly once and never read.
		if got := strings.Count(source, "dst.data[gidx]"); got != 1 {
			t.Fatalf("op %s: expected a single write to the output buffer, got %d references", op, got)
		}
	}
}

func TestGenerateSubstitutionFidelity(t *testing.T) {
	compiler := newCompiler(t)

	program, err := compiler.Generate("conv_out", "final_result", "sqrt")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if !strings.Contains(program.Source, "var<storage, read> conv_out: ArrayVector;") {
		t.Fatalf("input name not substituted verbatim:\n%s", program.Source)
	}
	if !strings.Contains(program.Source, "var<storage, read_write> final_result: ArrayVector;") {
		t.Fatalf("output name not substituted verbatim:\n%s", program.Source)
	}
	if !strings.Contains(program.Source, "final_result.data[gidx] = sqrt(conv_out.data[gidx]);") {
		t.Fatalf("operation token not substituted verbatim:\n%s", program.Source)
	}

	input, ok := program.Binding("conv_out")
	if !ok || input.Slot != 0 || input.Access != shader.AccessRead {
		t.Fatalf("unexpected input binding metadata: %+v", input)
	}
	output, ok := program.Binding("final_result")
	if !ok || output.Slot != 1 || output.Access != shader.AccessReadWrite {
		t.Fatalf("unexpected output binding metadata: %+v", output)
	}
}

func TestGenerateOpChangesOnlyCallToken(t *testing.T) {
	compiler := newCompiler(t)

	absProgram, err := compiler.Generate("x", "y", "abs")
	if err != nil {
		t.Fatalf("generate abs: %v", err)
	}
	ceilProgram, err := compiler.Generate("x", "y", "ceil")
	if err != nil {
		t.Fatalf("generate ceil: %v", err)
	}

	rewritten := strings.Replace(absProgram.Source, "abs(x.data[gidx])", "ceil(x.data[gidx])", 1)
	if rewritten != ceilProgram.Source {
		t.Fatalf("swapping the operation changed more than the call token:\n%s",
			cmp.Diff(rewritten, ceilProgram.Source))
	}
}

func TestGenerateAllowsAliasedBuffers(t *testing.T) {
	compiler := newCompiler(t)

	// Aliasing input and output is undefined behaviour at execution time,
	// but generation performs no validation and must succeed.
	program, err := compiler.Generate("a", "a", "neg")
	if err != nil {
		t.Fatalf("generate with aliased buffers: %v", err)
	}
	if !strings.Contains(program.Source, "a.data[gidx] = neg(a.data[gidx]);") {
		t.Fatalf("aliased body not rendered:\n%s", program.Source)
	}
}

func TestGenerateWithWorkgroupSize(t *testing.T) {
	compiler := newCompiler(t, kernel.WithWorkgroupSize(64))

	program, err := compiler.Generate("x", "y", "abs")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(program.Source, "@workgroup_size(64)") {
		t.Fatalf("expected configured workgroup size in source:\n%s", program.Source)
	}
	if program.WorkgroupSize != 64 {
		t.Fatalf("expected workgroup size metadata 64, got %d", program.WorkgroupSize)
	}
}

func TestGenerateIncludesLayoutDeclarations(t *testing.T) {
	compiler := newCompiler(t)

	program, err := compiler.Generate("x", "y", "abs")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, decl := range []string{
		"struct Array {",
		"struct ArrayVector {",
		"struct ArrayMatrix {",
		"array<vec4<f32>>",
	} {
		if !strings.Contains(program.Source, decl) {
			t.Fatalf("expected %q from the layout declarations:\n%s", decl, program.Source)
		}
	}
}

func TestNewRejectsInvalidLayout(t *testing.T) {
	_, err := kernel.New(kernel.WithLayout(schema.Layout{Version: "v9", Scalar: schema.F32}))
	if err == nil {
		t.Fatalf("expected layout validation to fail")
	}
}

func TestTemplatesFSListsSkeletons(t *testing.T) {
	entries, err := fs.Glob(kernel.TemplatesFS(), "*.wgsl")
	if err != nil {
		t.Fatalf("glob skeletons: %v", err)
	}

	want := []string{"activation.wgsl", "arithmetic.wgsl", "copy.wgsl", "map.wgsl"}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Fatalf("skeleton bundle mismatch (-want +got):\n%s", diff)
	}
}
