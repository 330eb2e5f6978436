// Command cleaningrobot simulates a cleaning robot walking a room map.
//
// It supports several modes:
//  1. "run" (default) – reads an input document, runs the robot and writes the result document
//  2. "serve" – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  3. "mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//  4. "validate" / "analyze" – checks scenario documents and prints statistics about them
//
// Flags control logging, host/port, scenario directory, and optional ngrok
// tunneling for easy external access during development.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/cleaningrobot/logging"
	"github.com/wricardo/mcp-training/cleaningrobot/robot/document"
	"github.com/wricardo/mcp-training/cleaningrobot/robot/engine"
	"github.com/wricardo/mcp-training/cleaningrobot/validate"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "cleaning_robot"
)

// Exit codes of the run command
const (
	exitInvalidParameters = 1
	exitInvalidInput      = 2
	exitInvalidOutput     = 3
)

// main loads .env, builds the command tree and runs it.
func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
	}

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		logging.Error().Add(logging.ErrorField(err)).Msg("Command failed")
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:      AppName,
		Usage:     "simulate a cleaning robot over a room map",
		Version:   Version,
		ArgsUsage: "<source.json> <result.json>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "enable debug logging (every executed command)",
				Sources: cli.EnvVars("DEBUG"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level: debug, info, warn, error",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "log format: console or json",
				Value:   "console",
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
		},
		Before: setupLogging,
		Action: runAction,
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "run one input document and write the result document",
				ArgsUsage: "<source.json> <result.json>",
				Action:    runAction,
			},
			serveCommand(),
			mcpCommand(),
			{
				Name:      "validate",
				Usage:     "validate every scenario document in a directory",
				ArgsUsage: "[dir]",
				Action:    validateAction,
			},
			{
				Name:      "analyze",
				Usage:     "print statistics and a dry run for every scenario in a directory",
				ArgsUsage: "[dir]",
				Action:    analyzeAction,
			},
		},
	}
}

func setupLogging(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	config := logging.DefaultConfig()
	config.Level = cmd.String("log-level")
	config.Format = cmd.String("log-format")
	if cmd.Bool("debug") {
		config.Level = "debug"
	}
	logging.Init(config)
	return ctx, nil
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	if code := runSimulation(cmd.Args().Slice()); code != 0 {
		return cli.Exit("", code)
	}
	return nil
}

// runSimulation runs one input document and writes the result document.
// It returns the process exit code.
func runSimulation(args []string) int {
	if len(args) != 2 {
		logging.Error().Msg(fmt.Sprintf("Usage: %s <source.json> <result.json>. Provide exactly 2 parameters!", AppName))
		return exitInvalidParameters
	}
	source, result := absPath(args[0]), absPath(args[1])

	info, err := os.Stat(source)
	if err != nil {
		logging.Error().Add(logging.Str("path", source)).
			Msg("The input file does not exist; please, provide a valid file path.")
		return exitInvalidParameters
	}
	if !info.Mode().IsRegular() {
		logging.Error().Add(logging.Str("path", source)).
			Msg("The input file is not a valid file; please, provide path to a valid file.")
		return exitInvalidParameters
	}

	if info, err := os.Stat(result); err == nil {
		if !info.Mode().IsRegular() {
			logging.Error().Add(logging.Str("path", result)).
				Msg("The output file already exists and can't be overwritten.")
			return exitInvalidParameters
		}
		logging.Warn().Add(logging.Str("path", result)).Msg("The output file will be overwritten.")
	}

	logging.Info().Add(logging.Str("input", source), logging.Str("output", result)).Msg("Starting run")

	doc, err := document.Load(source)
	if err != nil {
		logging.Error().Add(logging.Str("path", source), logging.ErrorField(err)).
			Msg("Can't parse the input document")
		return exitInvalidInput
	}

	eng, err := doc.NewEngine(engine.WithObserver(func(step engine.Step) {
		logging.Debug().Add(logging.Step(step)).Msg("Step")
	}))
	if err != nil {
		logging.Error().Add(logging.ErrorField(err)).Msg("Can't start the robot")
		return exitInvalidInput
	}

	report := eng.Work()
	logRunStatus(report)

	if err := document.WriteOutput(result, document.NewOutput(report)); err != nil {
		logging.Error().Add(logging.Str("path", result), logging.ErrorField(err)).
			Msg("Can't write the output document")
		return exitInvalidOutput
	}
	return 0
}

func logRunStatus(report *engine.Report) {
	fields := []logging.Field{
		logging.Status(report.Status),
		logging.Position(report.Final),
		logging.Battery(report.Battery),
		logging.Count("visited", len(report.Visited)),
		logging.Count("cleaned", len(report.Cleaned)),
	}
	switch report.Status {
	case engine.Completed:
		logging.Info().Add(fields...).Msg("Run completed")
	case engine.LowBatteryHalt:
		logging.Error().Add(append(fields, logging.ErrorField(report.Err))...).Msg("Robot stopped: battery too low")
	default:
		logging.Error().Add(append(fields, logging.ErrorField(report.Err))...).Msg("Robot is stuck")
	}
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func scenarioDirArg(cmd *cli.Command) string {
	if cmd.NArg() > 0 {
		return cmd.Args().First()
	}
	return getScenarioDirDefault()
}

func validateAction(ctx context.Context, cmd *cli.Command) error {
	results, err := validate.Dir(scenarioDirArg(cmd))
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.Root().Writer, validate.Report(results))
	if !validate.AllValid(results) {
		return cli.Exit("", 1)
	}
	return nil
}

func analyzeAction(ctx context.Context, cmd *cli.Command) error {
	results, err := validate.Dir(scenarioDirArg(cmd))
	if err != nil {
		return err
	}

	var invalid []string
	for _, result := range results {
		if result.Analysis == nil {
			invalid = append(invalid, result.File)
			continue
		}
		fmt.Fprintln(cmd.Root().Writer, result.Analysis.Summary(result.File))
	}
	if len(invalid) > 0 {
		return fmt.Errorf("%d invalid scenarios skipped: %v", len(invalid), invalid)
	}
	return nil
}
