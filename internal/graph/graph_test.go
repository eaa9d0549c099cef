package graph

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// chain строит узлы a → b → c.
func chain() []Node {
	return []Node{
		{Name: "a", Kind: KindInitiator, OutRate: 1, Outputs: []IO{{Port: "X", Hash: 1}}},
		{Name: "b", Kind: KindFilter, InRate: 1, OutRate: 1,
			Inputs:  []IO{{Port: "X", Hash: 1}},
			Outputs: []IO{{Port: "Y", Hash: 2}}},
		{Name: "c", Kind: KindTerminator, InRate: 1, Inputs: []IO{{Port: "Y", Hash: 2}}},
	}
}

func TestNew_EdgesByHash(t *testing.T) {
	g := New("chain", chain())

	if len(g.Edges) != 2 {
		t.Fatalf("expected 2 edges, got %d", len(g.Edges))
	}
	if g.Edges[0].From != "a" || g.Edges[0].To != "b" || g.Edges[0].Port != "X" {
		t.Errorf("unexpected first edge: %+v", g.Edges[0])
	}
	if g.Edges[1].From != "b" || g.Edges[1].To != "c" {
		t.Errorf("unexpected second edge: %+v", g.Edges[1])
	}
}

func TestNew_Multiplex(t *testing.T) {
	nodes := []Node{
		{Name: "src", Outputs: []IO{{Port: "X", Hash: 7}}},
		{Name: "s1", Inputs: []IO{{Port: "X", Hash: 7}}},
		{Name: "s2", Inputs: []IO{{Port: "X", Hash: 7, Unbounded: true}}},
	}
	g := New("fanout", nodes)

	if len(g.Edges) != 2 {
		t.Fatalf("expected 2 edges, got %d", len(g.Edges))
	}
	if !g.Edges[1].Unbounded {
		t.Error("edge to s2 should be unbounded")
	}
}

func TestTopologicalOrder(t *testing.T) {
	order, err := New("chain", chain()).TopologicalOrder()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(order, ",") != "a,b,c" {
		t.Errorf("unexpected order: %v", order)
	}
}

func TestUnbootstrappedCycle(t *testing.T) {
	feedback := func(bootstrap bool) []Node {
		return []Node{
			{Name: "a", Inputs: []IO{{Port: "B2A", Hash: 2}},
				Outputs: []IO{{Port: "A2B", Hash: 1, Bootstrap: bootstrap}}},
			{Name: "b", Inputs: []IO{{Port: "A2B", Hash: 1}},
				Outputs: []IO{{Port: "B2A", Hash: 2}}},
		}
	}

	g := New("loop", feedback(false))
	if _, err := g.TopologicalOrder(); !errors.Is(err, ErrCyclic) {
		t.Errorf("expected ErrCyclic, got %v", err)
	}
	if rest := g.UnbootstrappedCycle(); strings.Join(rest, ",") != "a,b" {
		t.Errorf("expected cycle a,b, got %v", rest)
	}

	// Затравка разрывает цикл
	if rest := New("loop", feedback(true)).UnbootstrappedCycle(); len(rest) != 0 {
		t.Errorf("expected no cycle, got %v", rest)
	}
}

func TestDOT(t *testing.T) {
	nodes := chain()
	nodes[1].Label = "Filter B"
	dot := New("chain", nodes).DOT(ThemePaper)

	for _, want := range []string{
		"digraph G {",
		`"b" [label="Filter B"]`,
		`"a" -> "b"`,
		`label="Y"`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("dot output missing %q:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "bgcolor") {
		t.Error("paper theme should not set background")
	}
}

func TestDotExporter_Export(t *testing.T) {
	dir := t.TempDir()
	exp := NewDotExporter(DotConfig{Dir: dir})

	if err := exp.Export(context.Background(), New("chain", chain())); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "chain.dot"))
	if err != nil {
		t.Fatalf("read dot file: %v", err)
	}
	if !strings.HasPrefix(string(data), "digraph G") {
		t.Errorf("unexpected file content: %s", data)
	}

	if err := exp.Export(context.Background(), New("empty", nil)); !errors.Is(err, ErrEmptyGraph) {
		t.Errorf("expected ErrEmptyGraph, got %v", err)
	}
}
