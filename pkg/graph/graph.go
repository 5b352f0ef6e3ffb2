// Package graph models a kernel graph as a DAG of operations exchanging
// named tensors. Nodes are identified by their first output name; explicit
// node names are diagnostic only. The graph can order itself so that every
// producer runs before its consumers, walking backwards from the requested
// outputs so unreachable operations are never scheduled.
package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrOutputNotFound is returned when no node produces a requested
	// output tensor.
	ErrOutputNotFound = errors.New("graph: no node produces output")
	// ErrCycle is returned when the operations cannot be ordered because
	// they depend on each other.
	ErrCycle = errors.New("graph: cycle detected")
)

// Shape is the dimension vector of a tensor.
type Shape []int64

// Elements returns the total element count of the shape. An empty shape
// counts as a scalar.
func (s Shape) Elements() int64 {
	n := int64(1)
	for _, d := range s {
		n *= d
	}
	return n
}

// Node is one operation in a kernel graph.
type Node struct {
	Name       string
	Op         string
	Inputs     []string
	Outputs    []string
	Attributes map[string]any
}

// ID returns the identifier used for ordering and lookups: the first output
// name, falling back to the diagnostic name for output-less nodes.
func (n Node) ID() string {
	if len(n.Outputs) > 0 && n.Outputs[0] != "" {
		return n.Outputs[0]
	}
	return n.Name
}

// AttrFloat returns the named attribute as a float, or fallback when the
// node does not carry one. Integer values convert, so a manifest can write
// alpha: 1 and alpha: 1.0 interchangeably.
func (n Node) AttrFloat(name string, fallback float64) float64 {
	switch v := n.Attributes[name].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return fallback
}

// AttrInt returns the named attribute as an integer, or fallback.
func (n Node) AttrInt(name string, fallback int64) int64 {
	switch v := n.Attributes[name].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return fallback
}

// AttrInts returns the named attribute as an integer list, or nil when the
// node does not carry one.
func (n Node) AttrInts(name string) []int64 {
	switch v := n.Attributes[name].(type) {
	case []int64:
		return append([]int64(nil), v...)
	case []any:
		out := make([]int64, 0, len(v))
		for _, item := range v {
			switch d := item.(type) {
			case int:
				out = append(out, int64(d))
			case int64:
				out = append(out, d)
			case float64:
				out = append(out, int64(d))
			default:
				return nil
			}
		}
		return out
	}
	return nil
}

// AttrString returns the named attribute as a string, or fallback.
func (n Node) AttrString(name, fallback string) string {
	if v, ok := n.Attributes[name].(string); ok {
		return v
	}
	return fallback
}

// Graph is a set of operations plus the tensors they exchange.
type Graph struct {
	Nodes []Node
	// Shapes maps tensor names to their dimensions.
	Shapes map[string]Shape
	// Inputs lists tensors fed by the caller at dispatch time.
	Inputs []string
	// Outputs lists the tensors the graph exists to produce.
	Outputs []string
}

// Sort returns the nodes needed to produce the graph outputs, ordered so
// every producer appears before its consumers. Input names with no producer
// are treated as externally materialised (graph inputs, constants, or
// optional inputs left empty). The walk is deterministic: it follows output
// and input declaration order, so the same graph always yields the same
// schedule.
func (g Graph) Sort() ([]Node, error) {
	producers := make(map[string]int, len(g.Nodes))
	for i, node := range g.Nodes {
		for _, out := range node.Outputs {
			if out == "" {
				continue
			}
			producers[out] = i
		}
	}

	const (
		unvisited = iota
		visiting
		visited
	)
	state := make([]int, len(g.Nodes))
	order := make([]Node, 0, len(g.Nodes))

	var visit func(idx int) error
	visit = func(idx int) error {
		switch state[idx] {
		case visited:
			return nil
		case visiting:
			return fmt.Errorf("%w: %s", ErrCycle, g.Nodes[idx].ID())
		}
		state[idx] = visiting
		for _, input := range g.Nodes[idx].Inputs {
			if input == "" {
				continue
			}
			src, ok := producers[input]
			if !ok {
				continue
			}
			if err := visit(src); err != nil {
				return err
			}
		}
		state[idx] = visited
		order = append(order, g.Nodes[idx])
		return nil
	}

	for _, output := range g.Outputs {
		idx, ok := producers[output]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrOutputNotFound, output)
		}
		if err := visit(idx); err != nil {
			return nil, err
		}
	}
	return order, nil
}
