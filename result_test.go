package batchfetch

import (
	"os"
	"path/filepath"
	"testing"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResults() *ResultSet {
	outcomes := make(chan *Outcome, 3)
	outcomes <- successOutcome(&Task{URL: "https://a.example/x.txt", Index: 2}, "downloads/x.txt", 2048)
	outcomes <- failureOutcome(&Task{URL: "https://a.example/y.txt", Index: 1}, statusError(404))
	outcomes <- successOutcome(&Task{URL: "https://b.example/", Index: 3}, "downloads/file_3", 10)
	close(outcomes)
	return Aggregate(outcomes)
}

func TestResultSet_PartitionsInArrivalOrder(t *testing.T) {
	results := sampleResults()

	assert.Equal(t, 3, results.Total())
	assert.Equal(t, []string{"https://a.example/x.txt", "https://b.example/"}, results.SuccessLines())
	assert.Equal(t, []string{"https://a.example/y.txt | HTTP 404"}, results.FailureLines())
	assert.Equal(t, "2.0 KB", results.Successes[0].SizeKB())
}

func TestResultSet_WriteLogsOverwrites(t *testing.T) {
	dir := t.TempDir()
	successPath := filepath.Join(dir, "success.log")
	failurePath := filepath.Join(dir, "failed.log")
	require.NoError(t, os.WriteFile(successPath, []byte("stale\nstale\nstale\n"), 0o644))
	require.NoError(t, os.WriteFile(failurePath, []byte("stale | HTTP 500\n"), 0o644))

	results := &ResultSet{}
	results.Add(successOutcome(&Task{URL: "https://a.example/x.txt", Index: 1}, "x.txt", 1))
	require.NoError(t, results.WriteLogs(successPath, failurePath))

	content, err := os.ReadFile(successPath)
	require.NoError(t, err)
	assert.Equal(t, "https://a.example/x.txt\n", string(content))

	content, err = os.ReadFile(failurePath)
	require.NoError(t, err)
	assert.Empty(t, content)
}

func TestResultSet_WriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	results := sampleResults()
	results.RunID = "run-42"
	require.NoError(t, results.WriteReport(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded ResultSet
	require.NoError(t, json.Unmarshal(content, &decoded))
	assert.Equal(t, "run-42", decoded.RunID)
	require.Len(t, decoded.Failures, 1)
	assert.Equal(t, CategoryHTTPStatus, decoded.Failures[0].Category)
	assert.Equal(t, "HTTP 404", decoded.Failures[0].Detail)
	assert.Len(t, decoded.Successes, 2)
}
