package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/thagki9/batchfetch"
	"github.com/thagki9/batchfetch/constant"
)

type options struct {
	configPath string
	envPath    string
	version    bool
}

func main() {
	raw, opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fatalf("%v", err)
	}
	if opts.version {
		fmt.Println("batchfetch", constant.Version)
		return
	}

	config, err := raw.ToConfig()
	if err != nil {
		fatalf("%v", err)
	}

	tasks, err := batchfetch.LoadTasks(config.Input)
	switch {
	case errors.Is(err, os.ErrNotExist):
		fatalf("file '%s' not found!\n        Create '%s' with one URL per line.", config.Input, config.Input)
	case errors.Is(err, batchfetch.ErrNoTasks):
		fatalf("file '%s' is empty or every line is commented out (#).", config.Input)
	case err != nil:
		fatalf("%v", err)
	}

	if err := os.MkdirAll(config.Output.Dir, 0o755); err != nil {
		fatalf("cannot create output folder: %v", err)
	}

	os.Exit(run(config, tasks))
}

// run fetches tasks and writes the logs. The engine is shut down before
// the exit code is returned so queue keys are always removed.
func run(config *batchfetch.Config, tasks []*batchfetch.Task) int {
	engine, err := batchfetch.NewEngine(config, batchfetch.WithObserver(batchfetch.Observers{
		batchfetch.NewConsoleObserver(os.Stdout, config),
		batchfetch.LogObserver{Logger: config.Logger},
	}))
	if err != nil {
		printError("%v", err)
		return 1
	}
	defer engine.Shutdown()

	results := engine.Start(context.Background(), tasks)

	if err := results.WriteLogs(config.Output.SuccessLog, config.Output.FailureLog); err != nil {
		config.Logger.Errorf("Fail to write result logs, reason: %v", err)
		return 1
	}
	if config.Output.Report != "" {
		if err := results.WriteReport(config.Output.Report); err != nil {
			config.Logger.Errorf("Fail to write report, reason: %v", err)
			return 1
		}
	}
	return 0
}

// parseFlags layers defaults, the YAML file, the environment and finally
// the flags the user set explicitly.
func parseFlags(args []string) (*batchfetch.RawConfig, *options, error) {
	fs := flag.NewFlagSet("batchfetch", flag.ContinueOnError)

	var (
		opts        options
		input       = fs.String("input", "", "file with one URL per line")
		output      = fs.String("output", "", "directory downloaded files are written to")
		concurrency = fs.Int("concurrency", 0, "number of simultaneous downloads")
		timeout     = fs.Int("timeout", 0, "per-request timeout in seconds")
		retries     = fs.Int("retries", 0, "maximum retries on transient HTTP statuses")
		report      = fs.String("report", "", "optional JSON report path")
		logLevel    = fs.String("log-level", "", "log level (trace, debug, info, warn, error)")
	)
	fs.StringVar(&opts.configPath, "config", "", "YAML config file")
	fs.StringVar(&opts.envPath, "env", ".env", "dotenv file loaded when present")
	fs.BoolVar(&opts.version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	raw, err := batchfetch.LoadRawConfig(opts.configPath)
	if err != nil {
		return nil, nil, err
	}
	if err := raw.ApplyEnv(opts.envPath); err != nil {
		return nil, nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			raw.Input = *input
		case "output":
			raw.Output.Dir = *output
		case "concurrency":
			raw.Request.Concurrency = *concurrency
		case "timeout":
			raw.Request.Timeout = *timeout
		case "retries":
			raw.Request.MaxRetryTimes = *retries
		case "report":
			raw.Output.Report = *report
		case "log-level":
			raw.Logger.Level = *logLevel
		}
	})

	return raw, &opts, nil
}

func printError(format string, args ...interface{}) {
	color.New(color.FgRed, color.Bold).Fprint(os.Stderr, "[ERROR] ")
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

func fatalf(format string, args ...interface{}) {
	printError(format, args...)
	os.Exit(1)
}
