package batchfetch

import (
	"bufio"
	"fmt"
	"os"

	json "github.com/json-iterator/go"
)

// ResultSet partitions outcomes into successes and failures, each kept
// in the order the outcomes arrived
type ResultSet struct {
	RunID     string     `json:"run_id,omitempty"`
	Successes []*Outcome `json:"successes"`
	Failures  []*Outcome `json:"failures"`
}

// Aggregate drains outcomes into a new result set
func Aggregate(outcomes <-chan *Outcome) *ResultSet {
	results := &ResultSet{}
	for outcome := range outcomes {
		results.Add(outcome)
	}
	return results
}

// Add appends an outcome to the matching partition
func (r *ResultSet) Add(outcome *Outcome) {
	if outcome.Success {
		r.Successes = append(r.Successes, outcome)
	} else {
		r.Failures = append(r.Failures, outcome)
	}
}

// Total returns the number of outcomes in the set
func (r *ResultSet) Total() int {
	return len(r.Successes) + len(r.Failures)
}

// SuccessLines returns one source URL per success
func (r *ResultSet) SuccessLines() []string {
	return logLines(r.Successes)
}

// FailureLines returns "<url> | <detail>" per failure
func (r *ResultSet) FailureLines() []string {
	return logLines(r.Failures)
}

func logLines(outcomes []*Outcome) []string {
	lines := make([]string, 0, len(outcomes))
	for _, outcome := range outcomes {
		lines = append(lines, outcome.LogLine())
	}
	return lines
}

// WriteLogs rewrites both log files. Previous content is discarded.
func (r *ResultSet) WriteLogs(successPath, failurePath string) error {
	if err := writeLines(successPath, r.SuccessLines()); err != nil {
		return err
	}
	return writeLines(failurePath, r.FailureLines())
}

func writeLines(path string, lines []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create log %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, line := range lines {
		if _, err := w.WriteString(line + "\n"); err != nil {
			return fmt.Errorf("write log %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write log %s: %w", path, err)
	}
	return f.Close()
}

// WriteReport writes the whole result set as JSON
func (r *ResultSet) WriteReport(path string) error {
	content, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("fail to marshal report, reason: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}
