package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"spese-insights/internal/backend"
	"spese-insights/internal/cli"
	"spese-insights/internal/config"
	"spese-insights/internal/core"
	"spese-insights/internal/insights"
	applog "spese-insights/internal/log"
	"spese-insights/internal/sheets/memory"
)

const usage = `Usage: insights [flags] <command> [args]

Commands:
  classify <description>   suggest a category
  forecast                 predict daily spending
  analyze                  spending patterns and unusual transactions
  ask <question>           answer a question about spending
  insights                 analysis and forecast together
  import <file.csv>        load records into the configured backend

Flags:
`

var errUsage = errors.New("invalid usage")

// options are the command-line settings layered over the environment.
type options struct {
	user    string
	horizon int
	args    []string
}

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()

	var opts options
	flag.StringVar(&opts.user, "user", "", "only use records of this user")
	flag.IntVar(&opts.horizon, "horizon", 0, "forecast horizon in days (default FORECAST_HORIZON_DAYS)")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	opts.args = flag.Args()

	// Logs go to stderr so that stdout carries only JSON
	logger := cli.SetupLogger(cfg, applog.ComponentCLI, os.Stderr)
	cli.ValidateConfig(logger, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = applog.WithContext(ctx, logger)

	code := run(ctx, cfg, opts, os.Stdout)
	if code == 2 {
		flag.Usage()
	}
	stop()
	os.Exit(code)
}

// run executes one command and writes its JSON result to out. It returns
// the process exit code.
func run(ctx context.Context, cfg *config.Config, opts options, out io.Writer) int {
	result, err := execute(ctx, cfg, opts)
	if err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "Command failed", applog.FieldError, err)
		writeJSON(out, map[string]string{"error": insights.ErrorMessage(err)})
		if errors.Is(err, errUsage) {
			return 2
		}
		return 1
	}
	if err := writeJSON(out, result); err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "Failed to write result", applog.FieldError, err)
		return 1
	}
	return 0
}

func execute(ctx context.Context, cfg *config.Config, opts options) (any, error) {
	if len(opts.args) == 0 {
		return nil, fmt.Errorf("%w: missing command", errUsage)
	}
	command, rest := opts.args[0], opts.args[1:]

	switch command {
	case "classify", "forecast", "analyze", "ask", "insights", "import":
	default:
		return nil, fmt.Errorf("%w: unknown command %q", errUsage, command)
	}

	if command == "classify" {
		engine, err := cli.NewEngine(ctx, cfg)
		if err != nil {
			return nil, err
		}
		defer engine.Close()
		return engine.Classify(ctx, strings.Join(rest, " ")), nil
	}

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	result, err := backend.NewFactory(applog.FromContext(ctx).Logger).CreateBackend(ctx, backendConfig)
	if err != nil {
		return nil, err
	}
	defer result.Close()

	if command == "import" {
		if len(rest) != 1 {
			return nil, fmt.Errorf("%w: import takes one CSV file", errUsage)
		}
		n, err := importFile(ctx, result.Backend, rest[0])
		if err != nil {
			return nil, err
		}
		return map[string]int{"imported": n}, nil
	}

	expenses, err := result.Backend.ListExpenses(ctx, opts.user)
	if err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}

	engine, err := cli.NewEngine(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer engine.Close()

	switch command {
	case "forecast":
		return engine.Forecast(ctx, expenses, opts.horizon)
	case "analyze":
		return engine.Analyze(ctx, expenses)
	case "ask":
		q := strings.TrimSpace(strings.Join(rest, " "))
		if q == "" {
			return nil, fmt.Errorf("%w: ask needs a question", errUsage)
		}
		return engine.Answer(ctx, q, expenses)
	default:
		return engine.Insights(ctx, expenses)
	}
}

type batchAppender interface {
	AppendBatch(ctx context.Context, expenses []core.Expense) (int, error)
}

func importFile(ctx context.Context, dst backend.Backend, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	expenses, err := memory.ReadCSV(f)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}

	if batch, ok := dst.(batchAppender); ok {
		return batch.AppendBatch(ctx, expenses)
	}
	for i, e := range expenses {
		if _, err := dst.Append(ctx, e); err != nil {
			return i, fmt.Errorf("append record %d: %w", i+1, err)
		}
	}
	applog.FromContext(ctx).InfoContext(ctx, "Expenses imported", applog.FieldExpenses, len(expenses))
	return len(expenses), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
