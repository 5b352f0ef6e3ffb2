package graph_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-kernelgen/pkg/graph"
)

func TestSortOrdersProducersFirst(t *testing.T) {
	g := graph.Graph{
		Nodes: []graph.Node{
			{Op: "Add", Inputs: []string{"b", "c"}, Outputs: []string{"d"}},
			{Op: "Abs", Inputs: []string{"a"}, Outputs: []string{"b"}},
			{Op: "Relu", Inputs: []string{"a"}, Outputs: []string{"c"}},
		},
		Inputs:  []string{"a"},
		Outputs: []string{"d"},
	}

	order, err := g.Sort()
	if err != nil {
		t.Fatalf("sort: %v", err)
	}

	got := make([]string, 0, len(order))
	for _, node := range order {
		got = append(got, node.ID())
	}
	want := []string{"b", "c", "d"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("schedule mismatch (-want +got):\n%s", diff)
	}
}

func TestSortSkipsUnreachableNodes(t *testing.T) {
	g := graph.Graph{
		Nodes: []graph.Node{
			{Op: "Abs", Inputs: []string{"a"}, Outputs: []string{"b"}},
			{Op: "Relu", Inputs: []string{"a"}, Outputs: []string{"unused"}},
		},
		Inputs:  []string{"a"},
		Outputs: []string{"b"},
	}

	order, err := g.Sort()
	if err != nil {
		t.Fatalf("sort: %v", err)
	}
	if len(order) != 1 || order[0].ID() != "b" {
		t.Fatalf("expected only the producer of b to be scheduled, got %v", order)
	}
}

func TestSortIgnoresOptionalInputs(t *testing.T) {
	g := graph.Graph{
		Nodes: []graph.Node{
			{Op: "Clip", Inputs: []string{"a", ""}, Outputs: []string{"b"}},
		},
		Inputs:  []string{"a"},
		Outputs: []string{"b"},
	}

	if _, err := g.Sort(); err != nil {
		t.Fatalf("sort with optional input placeholder: %v", err)
	}
}

func TestSortReportsMissingOutput(t *testing.T) {
	g := graph.Graph{
		Nodes:   []graph.Node{{Op: "Abs", Inputs: []string{"a"}, Outputs: []string{"b"}}},
		Outputs: []string{"nope"},
	}

	_, err := g.Sort()
	if !errors.Is(err, graph.ErrOutputNotFound) {
		t.Fatalf("expected ErrOutputNotFound, got %v", err)
	}
}

func TestSortReportsCycles(t *testing.T) {
	g := graph.Graph{
		Nodes: []graph.Node{
			{Op: "Abs", Inputs: []string{"b"}, Outputs: []string{"a"}},
			{Op: "Relu", Inputs: []string{"a"}, Outputs: []string{"b"}},
		},
		Outputs: []string{"b"},
	}

	_, err := g.Sort()
	if !errors.Is(err, graph.ErrCycle) {
		t.Fatalf("expected ErrCycle, got %v", err)
	}
}

func TestSortIsDeterministic(t *testing.T) {
	g := graph.Graph{
		Nodes: []graph.Node{
			{Op: "Add", Inputs: []string{"b", "c"}, Outputs: []string{"d"}},
			{Op: "Abs", Inputs: []string{"a"}, Outputs: []string{"b"}},
			{Op: "Relu", Inputs: []string{"a"}, Outputs: []string{"c"}},
		},
		Outputs: []string{"d"},
	}

	first, err := g.Sort()
	if err != nil {
		t.Fatalf("sort: %v", err)
	}
	for i := 0; i < 10; i++ {
		next, err := g.Sort()
		if err != nil {
			t.Fatalf("sort: %v", err)
		}
		if diff := cmp.Diff(first, next); diff != "" {
			t.Fatalf("schedule changed between runs (-first +next):\n%s", diff)
		}
	}
}

func TestShapeElements(t *testing.T) {
	if got := (graph.Shape{2, 3, 4}).Elements(); got != 24 {
		t.Fatalf("expected 24 elements, got %d", got)
	}
	if got := (graph.Shape{}).Elements(); got != 1 {
		t.Fatalf("expected scalar shape to count 1 element, got %d", got)
	}
}

func TestNodeIDFallsBackToName(t *testing.T) {
	node := graph.Node{Name: "drop", Op: "Dropout"}
	if got := node.ID(); got != "drop" {
		t.Fatalf("expected diagnostic name fallback, got %q", got)
	}

	node = graph.Node{Name: "drop", Op: "Dropout", Outputs: []string{"y"}}
	if got := node.ID(); got != "y" {
		t.Fatalf("expected first output name, got %q", got)
	}
}

func TestNodeAttrAccessors(t *testing.T) {
	node := graph.Node{Attributes: map[string]any{
		"alpha": 0.5,
		"axis":  1,
		"axes":  []any{0, 2},
		"mode":  "constant",
	}}

	if got := node.AttrFloat("alpha", 1.0); got != 0.5 {
		t.Fatalf("expected stored float, got %v", got)
	}
	if got := node.AttrFloat("axis", 0); got != 1.0 {
		t.Fatalf("expected integer attribute to convert, got %v", got)
	}
	if got := node.AttrFloat("beta", 1.0); got != 1.0 {
		t.Fatalf("expected float fallback, got %v", got)
	}

	if got := node.AttrInt("axis", -1); got != 1 {
		t.Fatalf("expected stored int, got %v", got)
	}
	if got := node.AttrInt("missing", -1); got != -1 {
		t.Fatalf("expected int fallback, got %v", got)
	}

	if diff := cmp.Diff([]int64{0, 2}, node.AttrInts("axes")); diff != "" {
		t.Fatalf("axes mismatch (-want +got):\n%s", diff)
	}
	if got := node.AttrInts("missing"); got != nil {
		t.Fatalf("expected nil for missing int list, got %v", got)
	}

	if got := node.AttrString("mode", "edge"); got != "constant" {
		t.Fatalf("expected stored string, got %q", got)
	}
	if got := node.AttrString("missing", "edge"); got != "edge" {
		t.Fatalf("expected string fallback, got %q", got)
	}
}
