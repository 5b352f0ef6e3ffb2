package kernel

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goliatone/go-kernelgen/pkg/graph"
	"github.com/goliatone/go-kernelgen/pkg/schema"
	"github.com/goliatone/go-kernelgen/pkg/shader"
)

// route pairs a skeleton with the number of work units its dispatch covers
// and the number of input and output buffers the skeleton declares.
type route struct {
	template string
	units    int64
	inputs   int
	outputs  int
}

// Compile renders the kernel for a graph node and derives its dispatch
// geometry from the supplied tensor shapes. Tensor names are sanitised
// before substitution so model-file names survive as WGSL identifiers;
// the dims and lengths of every input and output are exposed to the
// skeleton under i_dims_N, o_dims_N, i_len_N, and o_len_N. Binding
// metadata mirrors the buffers the skeleton declares, so graph inputs
// beyond that (a reshape target shape, say) stay compile-time data.
func (c *Compiler) Compile(node graph.Node, shapes map[string]graph.Shape) (shader.Kernel, error) {
	inputShapes, err := resolveShapes(node.Inputs, shapes)
	if err != nil {
		return shader.Kernel{}, err
	}
	outputShapes, err := resolveShapes(node.Outputs, shapes)
	if err != nil {
		return shader.Kernel{}, err
	}
	if len(outputShapes) == 0 {
		return shader.Kernel{}, fmt.Errorf("kernel: node %q declares no outputs", node.ID())
	}

	data := c.baseContext()
	inputLens := make([]int64, len(inputShapes))
	for i, dims := range inputShapes {
		inputLens[i] = dims.Elements()
		data[fmt.Sprintf("i_dims_%d", i)] = []int64(dims)
		data[fmt.Sprintf("i_len_%d", i)] = inputLens[i]
	}
	outputLens := make([]int64, len(outputShapes))
	for i, dims := range outputShapes {
		outputLens[i] = dims.Elements()
		data[fmt.Sprintf("o_dims_%d", i)] = []int64(dims)
		data[fmt.Sprintf("o_len_%d", i)] = outputLens[i]
	}

	inputs := sanitizeNames(node.Inputs)
	outputs := sanitizeNames(node.Outputs)
	data["input"] = inputs
	data["output"] = outputs
	data["op_type"] = strings.ToLower(node.Op)

	route, err := routeNode(node, data, outputLens[0])
	if err != nil {
		return shader.Kernel{}, err
	}
	if len(inputs) < route.inputs {
		return shader.Kernel{}, fmt.Errorf("kernel: %s node %q needs %d inputs, got %d", node.Op, node.ID(), route.inputs, len(inputs))
	}

	source, err := c.renderer.RenderTemplate(route.template, data)
	if err != nil {
		return shader.Kernel{}, fmt.Errorf("kernel: render %s for node %q: %w", route.template, node.ID(), err)
	}

	bindings := make([]shader.Binding, 0, route.inputs+route.outputs)
	slot := uint32(0)
	for i := 0; i < route.inputs; i++ {
		bindings = append(bindings, shader.Binding{
			Group:    0,
			Slot:     slot,
			Name:     inputs[i],
			Access:   shader.AccessRead,
			Elements: inputLens[i],
		})
		slot++
	}
	for i := 0; i < route.outputs; i++ {
		bindings = append(bindings, shader.Binding{
			Group:    0,
			Slot:     slot,
			Name:     outputs[i],
			Access:   shader.AccessReadWrite,
			Elements: outputLens[i],
		})
		slot++
	}

	return shader.Kernel{
		Program: shader.Program{
			Name:          node.ID(),
			Source:        source,
			EntryPoint:    entryPoint,
			WorkgroupSize: c.workgroupSize,
			Bindings:      bindings,
		},
		Dispatch: shader.Dispatch{X: c.dispatchX(route.units), Y: 1, Z: 1},
	}, nil
}

// routeNode picks the skeleton for the node's operation family and fills in
// any family-specific context values.
func routeNode(node graph.Node, data map[string]any, outputLen int64) (route, error) {
	op := node.Op

	if _, ok := mapOps[op]; ok {
		return route{template: "map", units: ceilDiv(outputLen, schema.VectorWidth), inputs: 1, outputs: 1}, nil
	}

	if _, ok := copyOps[op]; ok {
		return route{template: "copy", units: ceilDiv(outputLen, schema.MatrixWidth), inputs: 1, outputs: 1}, nil
	}

	if symbol, ok := arithmeticOps[op]; ok {
		data["op_type"] = symbol
		return route{template: "arithmetic", units: ceilDiv(outputLen, schema.VectorWidth), inputs: 2, outputs: 1}, nil
	}

	if _, ok := activationOps[op]; ok {
		switch op {
		case "Celu", "Elu":
			data["alpha"] = wgslLiteral(node.AttrFloat("alpha", 1.0))
		case "Clip":
			data["min"] = wgslLiteral(node.AttrFloat("min", -math.MaxFloat32))
			data["max"] = wgslLiteral(node.AttrFloat("max", math.MaxFloat32))
		}
		return route{template: "activation", units: ceilDiv(outputLen, schema.VectorWidth), inputs: 1, outputs: 1}, nil
	}

	return route{}, fmt.Errorf("%w: %s", ErrUnsupportedOp, op)
}

func resolveShapes(names []string, shapes map[string]graph.Shape) ([]graph.Shape, error) {
	out := make([]graph.Shape, 0, len(names))
	for _, name := range names {
		dims, ok := shapes[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTensor, name)
		}
		out = append(out, dims)
	}
	return out, nil
}

// dispatchX converts a work unit count into a workgroup count along x,
// covering every unit even when the configured workgroup size does not
// divide it evenly.
func (c *Compiler) dispatchX(units int64) uint32 {
	if units < 1 {
		units = 1
	}
	return uint32(ceilDiv(units, int64(c.workgroupSize)))
}

func ceilDiv(n, div int64) int64 {
	return (n + div - 1) / div
}

// wgslLiteral renders an attribute value as a WGSL float literal. Values are
// formatted at f32 precision and always carry a decimal point or exponent so
// the token stays a float in shader source.
func wgslLiteral(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 32)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
