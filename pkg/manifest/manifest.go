package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-kernelgen/pkg/graph"
)

// Version1 is the only manifest format version currently understood. A
// manifest that omits its version is treated as Version1.
const Version1 = "v1"

var (
	// ErrUnknownFormat is returned when a document location carries no
	// recognised manifest extension.
	ErrUnknownFormat = errors.New("manifest: unknown document format")
	// ErrUnsupportedVersion is returned when a manifest declares a format
	// version this package cannot parse.
	ErrUnsupportedVersion = errors.New("manifest: unsupported version")
)

// Manifest is the parsed form of a kernel manifest document.
type Manifest struct {
	Version string   `json:"version" yaml:"version"`
	Name    string   `json:"name" yaml:"name"`
	Tensors []Tensor `json:"tensors" yaml:"tensors"`
	Nodes   []Node   `json:"nodes" yaml:"nodes"`
	Outputs []string `json:"outputs" yaml:"outputs"`
}

// Tensor declares a named buffer and its dimensions.
type Tensor struct {
	Name string  `json:"name" yaml:"name"`
	Dims []int64 `json:"dims" yaml:"dims"`
}

// Node declares one operator application.
type Node struct {
	Name       string         `json:"name" yaml:"name"`
	Op         string         `json:"op" yaml:"op"`
	Inputs     []string       `json:"inputs" yaml:"inputs"`
	Outputs    []string       `json:"outputs" yaml:"outputs"`
	Attributes map[string]any `json:"attributes" yaml:"attributes"`
}

// Parse decodes a loaded document into a Manifest. The decoder follows the
// document location's extension: .json decodes as JSON, .yaml and .yml as
// YAML, anything else is rejected.
func Parse(doc Document) (Manifest, error) {
	raw := doc.Raw()

	var m Manifest
	switch strings.ToLower(filepath.Ext(doc.Location())) {
	case ".json":
		if err := json.Unmarshal(raw, &m); err != nil {
			return Manifest{}, fmt.Errorf("manifest: parse %s: %w", doc.Location(), err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &m); err != nil {
			return Manifest{}, fmt.Errorf("manifest: parse %s: %w", doc.Location(), err)
		}
	default:
		return Manifest{}, fmt.Errorf("%w: %s", ErrUnknownFormat, doc.Location())
	}

	if m.Version == "" {
		m.Version = Version1
	}
	if m.Version != Version1 {
		return Manifest{}, fmt.Errorf("%w: %s", ErrUnsupportedVersion, m.Version)
	}

	return m, nil
}

// Graph converts the manifest into an executable graph. Tensor names must be
// unique and carry dimensions; every node needs an op and at least one
// output. When the manifest requests no outputs the final node's outputs are
// used, so single-chain manifests stay terse.
func (m Manifest) Graph() (graph.Graph, error) {
	shapes := make(map[string]graph.Shape, len(m.Tensors))
	for _, tensor := range m.Tensors {
		if tensor.Name == "" {
			return graph.Graph{}, errors.New("manifest: tensor without a name")
		}
		if _, dup := shapes[tensor.Name]; dup {
			return graph.Graph{}, fmt.Errorf("manifest: duplicate tensor %q", tensor.Name)
		}
		if len(tensor.Dims) == 0 {
			return graph.Graph{}, fmt.Errorf("manifest: tensor %q has no dims", tensor.Name)
		}
		shapes[tensor.Name] = graph.Shape(append([]int64(nil), tensor.Dims...))
	}

	produced := make(map[string]struct{})
	nodes := make([]graph.Node, 0, len(m.Nodes))
	for i, node := range m.Nodes {
		if node.Op == "" {
			return graph.Graph{}, fmt.Errorf("manifest: node %d has no op", i)
		}
		if len(node.Outputs) == 0 {
			return graph.Graph{}, fmt.Errorf("manifest: %s node %d has no outputs", node.Op, i)
		}

		converted := graph.Node{
			Name:    node.Name,
			Op:      node.Op,
			Inputs:  append([]string(nil), node.Inputs...),
			Outputs: append([]string(nil), node.Outputs...),
		}
		if len(node.Attributes) > 0 {
			converted.Attributes = make(map[string]any, len(node.Attributes))
			for key, value := range node.Attributes {
				converted.Attributes[key] = value
			}
		}
		nodes = append(nodes, converted)

		for _, out := range node.Outputs {
			produced[out] = struct{}{}
		}
	}

	outputs := append([]string(nil), m.Outputs...)
	if len(outputs) == 0 {
		if len(nodes) == 0 {
			return graph.Graph{}, errors.New("manifest: no nodes and no outputs")
		}
		outputs = append(outputs, nodes[len(nodes)-1].Outputs...)
	}

	var inputs []string
	seen := make(map[string]struct{})
	for _, node := range nodes {
		for _, in := range node.Inputs {
			if in == "" {
				continue
			}
			if _, ok := produced[in]; ok {
				continue
			}
			if _, ok := seen[in]; ok {
				continue
			}
			seen[in] = struct{}{}
			inputs = append(inputs, in)
		}
	}

	return graph.Graph{
		Nodes:   nodes,
		Shapes:  shapes,
		Inputs:  inputs,
		Outputs: outputs,
	}, nil
}
