package graph

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
)

// Exporter передаёт граф внешнему рендереру.
type Exporter interface {
	Export(ctx context.Context, g *Graph) error
}

// Layout — программа раскладки Graphviz.
type Layout string

const (
	LayoutDot   Layout = "dot"
	LayoutNeato Layout = "neato"
	LayoutFdp   Layout = "fdp"
)

// DotConfig — конфигурация DotExporter.
type DotConfig struct {
	// Dir — каталог для файлов. По умолчанию $DATA_REPO или текущий каталог.
	Dir string

	// Theme — оформление. По умолчанию из FLOWCHART_THEME.
	Theme Theme

	// Render — вызвать Graphviz для получения SVG.
	Render bool

	// Layout — программа раскладки. По умолчанию из FLOWCHART или neato.
	Layout Layout

	Logger *slog.Logger
}

// DotExporter записывает граф в <Dir>/<name>.dot и при необходимости
// рендерит <name>.svg внешней программой Graphviz.
type DotExporter struct {
	dir    string
	theme  Theme
	render bool
	layout Layout
	logger *slog.Logger
}

// NewDotExporter создаёт экспортёр.
func NewDotExporter(cfg DotConfig) *DotExporter {
	if cfg.Dir == "" {
		cfg.Dir = os.Getenv("DATA_REPO")
	}
	if cfg.Dir == "" {
		cfg.Dir = "."
	}
	if cfg.Theme == "" {
		cfg.Theme = ThemeFromEnv()
	}
	if cfg.Layout == "" {
		cfg.Layout = Layout(os.Getenv("FLOWCHART"))
	}
	switch cfg.Layout {
	case LayoutDot, LayoutNeato, LayoutFdp:
	default:
		cfg.Layout = LayoutNeato
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &DotExporter{
		dir:    cfg.Dir,
		theme:  cfg.Theme,
		render: cfg.Render,
		layout: cfg.Layout,
		logger: cfg.Logger,
	}
}

// Path возвращает путь к .dot файлу графа с именем name.
func (e *DotExporter) Path(name string) string {
	return filepath.Join(e.dir, name+".dot")
}

// Export записывает граф на диск.
func (e *DotExporter) Export(ctx context.Context, g *Graph) error {
	if len(g.Nodes) == 0 {
		return ErrEmptyGraph
	}
	name := g.Name
	if name == "" {
		name = "model"
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return fmt.Errorf("create graph dir: %w", err)
	}

	path := e.Path(name)
	if err := os.WriteFile(path, []byte(g.DOT(e.theme)), 0o644); err != nil {
		return fmt.Errorf("write graph: %w", err)
	}
	e.logger.Info("flowchart written", "path", path)

	if !e.render {
		return nil
	}

	svg := filepath.Join(e.dir, name+".svg")
	cmd := exec.CommandContext(ctx, string(e.layout), "-Tsvg", "-o", svg, path)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: %s: %v: %s", ErrRenderFailed, e.layout, err, out)
	}
	e.logger.Info("flowchart rendered", "path", svg)

	return nil
}

// ExporterFunc позволяет использовать функцию как Exporter.
type ExporterFunc func(ctx context.Context, g *Graph) error

// Export реализует Exporter.
func (f ExporterFunc) Export(ctx context.Context, g *Graph) error {
	return f(ctx, g)
}
