package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shaiso/Actors/internal/config"
	"github.com/shaiso/Actors/internal/domain"
	"github.com/shaiso/Actors/internal/graph"
	"github.com/shaiso/Actors/internal/network"
	"github.com/shaiso/Actors/internal/runner"
	"github.com/shaiso/Actors/internal/scope"
)

// loadSource читает вход команды: файл сценария (.yaml, .yml),
// текст сети из файла или из stdin ("-").
func loadSource(path string, stdin io.Reader) (*config.Scenario, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return config.LoadScenario(path)
	}

	var (
		data []byte
		err  error
		name = "model"
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	sc := &config.Scenario{Name: name, Script: string(data)}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

// NewCompileCmd создаёт команду compile: печатает акторы с выведенными
// частотами и провода сети.
func NewCompileCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "compile FILE",
		Short: "Compile a network and print actors and wires",
		Long:  "Compile a network script (or the script of a scenario file) and print the inferred rates, generated samplers, loggers and scopes, and the wire list. Use - to read the script from stdin.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			sc, err := loadSource(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			prog, err := network.Compile(sc.Script)
			if err != nil {
				return err
			}

			if out.jsonMode {
				out.JSON(prog)
				return nil
			}

			rows := make([][]string, len(prog.Actors))
			for i, a := range prog.Actors {
				rows[i] = []string{a.Name, a.Kind, strconv.Itoa(a.InRate), strconv.Itoa(a.OutRate), a.Label}
			}
			out.Table([]string{"ACTOR", "KIND", "IN", "OUT", "LABEL"}, rows)
			fmt.Fprintln(out.Writer())

			rows = make([][]string, len(prog.Wires))
			for i, w := range prog.Wires {
				rows[i] = []string{w.From, w.Output, w.To, wireFlags(w)}
			}
			out.Table([]string{"FROM", "OUTPUT", "TO", "FLAGS"}, rows)

			out.Success(fmt.Sprintf("model %s: %d actors, %d wires, state %s",
				prog.Model.Name, len(prog.Actors), len(prog.Wires), prog.Model.State))
			return nil
		},
	}
}

func wireFlags(w network.Wire) string {
	var flags []string
	if w.Bootstrap {
		flags = append(flags, "bootstrap")
	}
	if w.Unbounded {
		flags = append(flags, "unbounded")
	}
	return strings.Join(flags, ",")
}

// NewCheckCmd создаёт команду check: собирает модель сценария до READY.
func NewCheckCmd(outputFn func() *Output, loggerFn func() *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE",
		Short: "Build a scenario model and validate its topology",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			sc, r, err := newLocalRunner(args[0], cmd.InOrStdin(), runner.Config{Logger: loggerFn()})
			if err != nil {
				return err
			}
			defer r.Stop()

			res, err := r.Check(cmd.Context(), sc.Name)
			if err != nil {
				return err
			}

			if out.jsonMode {
				out.JSON(res.Model.Graph())
				return nil
			}
			out.Success(fmt.Sprintf("model %s is %s: %d actors", res.Program.Model.Name, res.Model.State(), res.Model.Len()))
			return nil
		},
	}
}

// NewGraphCmd создаёт команду graph: экспортирует граф модели в DOT.
func NewGraphCmd(outputFn func() *Output, loggerFn func() *slog.Logger) *cobra.Command {
	var (
		dir    string
		layout string
		render bool
		stdout bool
	)

	cmd := &cobra.Command{
		Use:   "graph FILE",
		Short: "Export the model flowchart as Graphviz DOT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()
			logger := loggerFn()

			var exporter *graph.DotExporter
			cfg := runner.Config{Logger: logger}
			if !stdout {
				exporter = graph.NewDotExporter(graph.DotConfig{
					Dir:    dir,
					Render: render,
					Layout: graph.Layout(layout),
					Logger: logger,
				})
				cfg.Exporter = exporter
			}

			sc, r, err := newLocalRunner(args[0], cmd.InOrStdin(), cfg)
			if err != nil {
				return err
			}
			defer r.Stop()

			g, err := r.Graph(cmd.Context(), sc.Name)
			if err != nil {
				return err
			}

			if stdout {
				fmt.Fprint(out.Writer(), g.DOT(graph.ThemeFromEnv()))
				return nil
			}
			out.Success("wrote " + exporter.Path(g.Name))
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Output directory (default $DATA_REPO or .)")
	cmd.Flags().StringVar(&layout, "layout", "", "Graphviz layout: dot, neato, fdp (default $FLOWCHART or neato)")
	cmd.Flags().BoolVar(&render, "render", false, "Render SVG with Graphviz")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "Print DOT to stdout instead of writing a file")

	return cmd
}

// NewRunCmd создаёт команду run: выполняет сценарий локально.
func NewRunCmd(outputFn func() *Output, loggerFn func() *slog.Logger) *cobra.Command {
	var (
		timeout     time.Duration
		showSamples bool
	)

	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Run a scenario locally and print its outcome",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			sink := &collector{}
			sc, r, err := newLocalRunner(args[0], cmd.InOrStdin(), runner.Config{
				Sinks:  []runner.SampleSink{sink},
				Scope:  scope.Discard,
				Logger: loggerFn(),
			})
			if err != nil {
				return err
			}
			defer r.Stop()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			run, err := r.RunOnce(ctx, sc.Name)
			if err != nil {
				return err
			}

			if out.jsonMode {
				out.JSON(struct {
					Run     *domain.Run     `json:"run"`
					Samples []domain.Sample `json:"samples,omitempty"`
				}{run, sink.samples})
			} else {
				printReports(out, run)
				if showSamples {
					fmt.Fprintln(out.Writer())
					printSamples(out, sink.samples)
				}
			}

			if run.Status != domain.RunStatusSucceeded {
				return fmt.Errorf("run %s %s: %s", run.ID, run.Status, run.Error)
			}
			out.Success(fmt.Sprintf("run %s %s: model %s %s, %d actors, %d samples, %s",
				run.ID, run.Status, run.Model, run.State, run.Actors, len(sink.samples), run.Duration()))
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Cancel the run after this duration")
	cmd.Flags().BoolVar(&showSamples, "samples", false, "Print logged samples")

	return cmd
}

func newLocalRunner(path string, stdin io.Reader, cfg runner.Config) (*config.Scenario, *runner.Runner, error) {
	sc, err := loadSource(path, stdin)
	if err != nil {
		return nil, nil, err
	}
	cfg.Scenarios = []*config.Scenario{sc}
	r, err := runner.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return sc, r, nil
}

func printReports(out *Output, run *domain.Run) {
	rows := make([][]string, len(run.Reports))
	for i, rep := range run.Reports {
		rows[i] = []string{rep.Actor, string(rep.Kind), rep.Error}
	}
	out.Table([]string{"ACTOR", "TERMINATION", "ERROR"}, rows)
}

func printSamples(out *Output, samples []domain.Sample) {
	rows := make([][]string, len(samples))
	for i, s := range samples {
		values := make([]string, len(s.Values))
		for j, v := range s.Values {
			values[j] = strconv.FormatFloat(v, 'g', 6, 64)
		}
		rows[i] = []string{s.Sink, s.Port, strconv.Itoa(s.Step), strings.Join(values, " ")}
	}
	out.Table([]string{"SINK", "PORT", "STEP", "VALUES"}, rows)
}

// collector — SampleSink, копящий отсчёты в памяти.
type collector struct {
	mu      sync.Mutex
	samples []domain.Sample
}

func (c *collector) WriteSamples(_ context.Context, _ uuid.UUID, samples []domain.Sample) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.samples = append(c.samples, samples...)
	return nil
}
