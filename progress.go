package batchfetch

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
)

// Observer receives progress of a run. Calls are serialized by the engine.
type Observer interface {
	// Started is called once before any task runs.
	Started(total int)

	// Completed is called for every outcome, in completion order.
	Completed(done, total int, outcome *Outcome)

	// Finished is called once every task has an outcome.
	Finished(results *ResultSet)
}

// NopObserver ignores every event
type NopObserver struct{}

// Started implements Observer
func (NopObserver) Started(int) {}

// Completed implements Observer
func (NopObserver) Completed(int, int, *Outcome) {}

// Finished implements Observer
func (NopObserver) Finished(*ResultSet) {}

// Observers fans events out to several observers
type Observers []Observer

// Started implements Observer
func (o Observers) Started(total int) {
	for _, observer := range o {
		observer.Started(total)
	}
}

// Completed implements Observer
func (o Observers) Completed(done, total int, outcome *Outcome) {
	for _, observer := range o {
		observer.Completed(done, total, outcome)
	}
}

// Finished implements Observer
func (o Observers) Finished(results *ResultSet) {
	for _, observer := range o {
		observer.Finished(results)
	}
}

// LogObserver reports progress through the logger
type LogObserver struct {
	Logger *log.Logger
}

// Started implements Observer
func (l LogObserver) Started(total int) {
	l.Logger.WithField("total", total).Info("Run started")
}

// Completed implements Observer
func (l LogObserver) Completed(done, total int, outcome *Outcome) {
	l.Logger.WithFields(log.Fields{
		"url":     outcome.URL(),
		"success": outcome.Success,
	}).Debugf("Progress %d/%d", done, total)
}

// Finished implements Observer
func (l LogObserver) Finished(results *ResultSet) {
	l.Logger.WithFields(log.Fields{
		"succeeded": len(results.Successes),
		"failed":    len(results.Failures),
	}).Info("Run finished")
}

var (
	okLabel    = color.New(color.FgGreen, color.Bold)
	failLabel  = color.New(color.FgRed, color.Bold)
	infoLabel  = color.New(color.FgCyan)
	titleLabel = color.New(color.Bold)
)

// ConsoleObserver prints a human readable report
type ConsoleObserver struct {
	out    io.Writer
	config *Config
}

// NewConsoleObserver returns an observer printing to out
func NewConsoleObserver(out io.Writer, config *Config) *ConsoleObserver {
	return &ConsoleObserver{out: out, config: config}
}

func (c *ConsoleObserver) rule() {
	fmt.Fprintln(c.out, strings.Repeat("=", 60))
}

// Started prints the banner
func (c *ConsoleObserver) Started(total int) {
	c.rule()
	titleLabel.Fprintln(c.out, "  BATCHFETCH - concurrent downloader")
	c.rule()
	infoLabel.Fprintf(c.out, "[INFO]  Total URL     : %d\n", total)
	infoLabel.Fprintf(c.out, "[INFO]  Workers       : %d\n", c.config.Request.Concurrency)
	infoLabel.Fprintf(c.out, "[INFO]  Output folder : %s\n", c.config.Output.Dir)
	infoLabel.Fprintf(c.out, "[INFO]  Max retry     : %dx\n", c.config.Request.MaxRetryTimes)
	fmt.Fprintln(c.out, strings.Repeat("-", 60))
}

// Completed prints one entry per outcome
func (c *ConsoleObserver) Completed(done, total int, outcome *Outcome) {
	if outcome.Success {
		okLabel.Fprint(c.out, "  [OK]")
		fmt.Fprintf(c.out, " (%d/%d) %s\n", done, total, outcome.URL())
		fmt.Fprintf(c.out, "       -> %s (%s)\n", outcome.Path, outcome.SizeKB())
		return
	}
	failLabel.Fprint(c.out, "  [XX]")
	fmt.Fprintf(c.out, " (%d/%d) %s\n", done, total, outcome.URL())
	fmt.Fprintf(c.out, "       -> Error: %s\n", outcome.Detail)
}

// Finished prints the summary
func (c *ConsoleObserver) Finished(results *ResultSet) {
	fmt.Fprintln(c.out)
	c.rule()
	titleLabel.Fprintln(c.out, "  DONE!")
	okLabel.Fprintf(c.out, "  Succeeded : %d file(s)\n", len(results.Successes))
	failLabel.Fprintf(c.out, "  Failed    : %d URL(s)\n", len(results.Failures))
	fmt.Fprintf(c.out, "  Output    : folder '%s'\n", c.config.Output.Dir)
	fmt.Fprintf(c.out, "  Log OK    : %s\n", c.config.Output.SuccessLog)
	fmt.Fprintf(c.out, "  Log FAIL  : %s\n", c.config.Output.FailureLog)
	if c.config.Output.Report != "" {
		fmt.Fprintf(c.out, "  Report    : %s\n", c.config.Output.Report)
	}
	c.rule()
}
