package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewScenariosCmd создаёт группу команд для сценариев раннера.
func NewScenariosCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "Inspect scenarios loaded by the runner",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List scenarios",
			RunE: func(cmd *cobra.Command, args []string) error {
				scenarios, err := clientFn().ListScenarios()
				if err != nil {
					return err
				}

				headers := []string{"NAME", "SCHEDULE", "NEXT RUN"}
				rows := make([][]string, len(scenarios))
				for i, s := range scenarios {
					rows[i] = []string{s.Name, s.Schedule, s.NextRunAt}
				}

				outputFn().Print(headers, rows, scenarios)
				return nil
			},
		},
		&cobra.Command{
			Use:   "graph NAME",
			Short: "Print the scenario model as Graphviz DOT",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				dot, err := clientFn().Graph(args[0])
				if err != nil {
					return err
				}
				fmt.Fprint(outputFn().Writer(), dot)
				return nil
			},
		},
	)

	return cmd
}

// NewRunsCmd создаёт группу команд для runs на раннере.
func NewRunsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Manage runs on the runner",
	}

	cmd.AddCommand(
		newRunsListCmd(clientFn, outputFn),
		newRunsStartCmd(clientFn, outputFn),
		newRunsShowCmd(clientFn, outputFn),
	)

	return cmd
}

func newRunsListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var opts ListRunsOpts

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := clientFn().ListRuns(opts)
			if err != nil {
				return err
			}

			headers := []string{"ID", "SCENARIO", "STATUS", "STATE", "ACTORS", "CREATED"}
			rows := make([][]string, len(runs))
			for i, r := range runs {
				rows[i] = []string{r.ID, r.Scenario, r.Status, r.State, strconv.Itoa(r.Actors), r.CreatedAt}
			}

			outputFn().Print(headers, rows, runs)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Scenario, "scenario", "", "Filter by scenario")
	cmd.Flags().StringVar(&opts.Status, "status", "", "Filter by status (PENDING, RUNNING, SUCCEEDED, FAILED, CANCELLED)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Maximum number of results")

	return cmd
}

func newRunsStartCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "start SCENARIO",
		Short: "Start a scenario run on the runner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			run, err := clientFn().StartRun(args[0])
			if err != nil {
				return err
			}

			if out.jsonMode {
				out.JSON(run)
				return nil
			}
			out.Success(fmt.Sprintf("Run %s started for scenario %s", run.ID, run.Scenario))
			return nil
		},
	}
}

func newRunsShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show run details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			run, err := clientFn().GetRun(args[0])
			if err != nil {
				return err
			}

			if out.jsonMode {
				out.JSON(run)
				return nil
			}

			out.Table([]string{"FIELD", "VALUE"}, [][]string{
				{"ID", run.ID},
				{"Scenario", run.Scenario},
				{"Model", run.Model},
				{"Status", run.Status},
				{"State", run.State},
				{"Actors", strconv.Itoa(run.Actors)},
				{"Started", run.StartedAt},
				{"Finished", run.FinishedAt},
				{"Error", run.Error},
			})

			if len(run.Reports) > 0 {
				fmt.Fprintln(out.Writer())
				rows := make([][]string, len(run.Reports))
				for i, rep := range run.Reports {
					rows[i] = []string{rep.Actor, rep.Kind, rep.Error}
				}
				out.Table([]string{"ACTOR", "TERMINATION", "ERROR"}, rows)
			}
			return nil
		},
	}
}
