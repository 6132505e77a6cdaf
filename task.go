package batchfetch

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNoTasks indicates the input held no usable URL after filtering
var ErrNoTasks = errors.New("no URLs to download")

// Task defines one URL to fetch. Index starts at 1 and follows input order.
type Task struct {
	URL   string `json:"url"`
	Index int    `json:"index"`
}

// HashCode returns a unique identity to the task
func (t *Task) HashCode() string {
	return fmt.Sprintf("%d|%s", t.Index, t.URL)
}

// String returns name of the task
func (t *Task) String() string {
	return fmt.Sprintf("#%d %s", t.Index, t.URL)
}

// ParseTasks reads a newline-delimited URL list. Blank lines and lines
// starting with '#' are skipped; every other line is taken as one URL.
func ParseTasks(r io.Reader) ([]*Task, error) {
	var tasks []*Task

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tasks = append(tasks, &Task{URL: line, Index: len(tasks) + 1})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read URL list: %w", err)
	}

	if len(tasks) == 0 {
		return nil, ErrNoTasks
	}
	return tasks, nil
}

// LoadTasks opens the file at path and parses it with ParseTasks
func LoadTasks(path string) ([]*Task, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open URL list: %w", err)
	}
	defer f.Close()

	return ParseTasks(f)
}
