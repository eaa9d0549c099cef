package graph

import (
	"fmt"
	"os"
	"strings"
)

// Theme — оформление диаграммы.
type Theme string

const (
	// ThemeScreen — тёмный фон (по умолчанию).
	ThemeScreen Theme = "screen"
	// ThemePaper — светлый фон для печати.
	ThemePaper Theme = "paper"
)

// ThemeFromEnv читает тему из FLOWCHART_THEME.
func ThemeFromEnv() Theme {
	if strings.EqualFold(os.Getenv("FLOWCHART_THEME"), string(ThemePaper)) {
		return ThemePaper
	}
	return ThemeScreen
}

// DOT возвращает диаграмму на языке Graphviz dot.
//
// Цвет ребра определяется частотой выхода: одинаковые частоты
// рисуются одним цветом из палитры dark28.
func (g *Graph) DOT(theme Theme) string {
	var b strings.Builder

	b.WriteString("digraph G {\n")
	b.WriteString("  overlap = scale;\n  splines = true;\n")
	nodeStyle := `shape=box, width=1.5, style="rounded,filled"`
	edgeFont := `fontsize=9, fontname="times:italic"`
	if theme != ThemePaper {
		b.WriteString("  bgcolor = gray24;\n")
		nodeStyle += ", fillcolor=lightgray"
		edgeFont += ", fontcolor=lightgray"
	}

	fmt.Fprintf(&b, "  node [%s];\n", nodeStyle)
	for _, n := range g.Nodes {
		label := n.Name
		if n.Label != "" {
			label = n.Label
		}
		shape := ""
		if n.Kind == KindSampler {
			shape = ", shape=ellipse"
		}
		fmt.Fprintf(&b, "  %q [label=%q%s];\n", n.Name, label, shape)
	}

	colors := newColorMap()
	rates := make(map[string]int, len(g.Nodes))
	for _, n := range g.Nodes {
		rates[n.Name] = n.OutRate
	}

	fmt.Fprintf(&b, "  edge [arrowhead=vee, colorscheme=dark28, %s];\n", edgeFont)
	for _, e := range g.Edges {
		attrs := []string{
			fmt.Sprintf("label=%q", e.Port),
			fmt.Sprintf("color=%d", colors.get(rates[e.From])),
		}
		var style []string
		if e.Bootstrap {
			style = append(style, "bold")
		}
		if e.Unbounded {
			style = append(style, "dashed")
		}
		if len(style) > 0 {
			attrs = append(attrs, fmt.Sprintf("style=%q", strings.Join(style, ",")))
		}
		fmt.Fprintf(&b, "  %q -> %q [%s];\n", e.From, e.To, strings.Join(attrs, ", "))
	}

	b.WriteString("}\n")
	return b.String()
}

// colorMap назначает цвет (1..8) каждой встреченной частоте.
type colorMap struct {
	lookup map[int]int
	next   int
}

func newColorMap() *colorMap {
	return &colorMap{lookup: make(map[int]int)}
}

func (c *colorMap) get(rate int) int {
	if color, ok := c.lookup[rate]; ok {
		return color
	}
	color := c.next%8 + 1
	c.next++
	c.lookup[rate] = color
	return color
}
