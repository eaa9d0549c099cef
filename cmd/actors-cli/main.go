// Actors CLI — инструмент командной строки для сетей акторов.
//
// Использование:
//
//	actors [--api-url URL] [--json] [--verbose] <command> [flags]
//
// Локальные команды:
//
//	compile   Компиляция текста сети
//	check     Сборка модели сценария до READY
//	graph     Экспорт диаграммы модели в DOT
//	run       Локальный прогон сценария
//
// Команды раннера:
//
//	scenarios Сценарии раннера
//	runs      Управление runs
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Actors/internal/cli"
	"github.com/shaiso/Actors/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput bool
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "actors",
		Short:         "Actors CLI — actor network compiler and runner client",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8084", "Runner API URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log model and actor events to stderr")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }
	loggerFn := func() *slog.Logger {
		if verbose {
			return telemetry.SetupLoggerTo(os.Stderr)
		}
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	rootCmd.AddCommand(
		cli.NewCompileCmd(outputFn),
		cli.NewCheckCmd(outputFn, loggerFn),
		cli.NewGraphCmd(outputFn, loggerFn),
		cli.NewRunCmd(outputFn, loggerFn),
		cli.NewScenariosCmd(clientFn, outputFn),
		cli.NewRunsCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
