package batchfetch

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestConsoleObserver_Report(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	config := testConfig(t)
	config.Output.Dir = "downloads"

	var out bytes.Buffer
	observer := NewConsoleObserver(&out, config)

	results := &ResultSet{}
	ok := successOutcome(&Task{URL: "https://a.example/x.txt", Index: 1}, "downloads/x.txt", 1536)
	failed := failureOutcome(&Task{URL: "https://a.example/y.txt", Index: 2}, statusError(404))
	results.Add(ok)
	results.Add(failed)

	observer.Started(2)
	observer.Completed(1, 2, ok)
	observer.Completed(2, 2, failed)
	observer.Finished(results)

	report := out.String()
	assert.Contains(t, report, "[INFO]  Total URL     : 2")
	assert.Contains(t, report, "[INFO]  Workers       : 10")
	assert.Contains(t, report, "  [OK] (1/2) https://a.example/x.txt")
	assert.Contains(t, report, "-> downloads/x.txt (1.5 KB)")
	assert.Contains(t, report, "  [XX] (2/2) https://a.example/y.txt")
	assert.Contains(t, report, "-> Error: HTTP 404")
	assert.Contains(t, report, "Succeeded : 1 file(s)")
	assert.Contains(t, report, "Failed    : 1 URL(s)")
	assert.Contains(t, report, "Log FAIL  : failed.log")
}

func TestObservers_FanOut(t *testing.T) {
	first, second := &recordingObserver{}, &recordingObserver{}
	observers := Observers{first, second, NopObserver{}}

	outcome := successOutcome(&Task{URL: "https://a.example/", Index: 1}, "file_1", 0)
	observers.Started(1)
	observers.Completed(1, 1, outcome)

	for _, r := range []*recordingObserver{first, second} {
		assert.Equal(t, 1, r.total)
		assert.Equal(t, []*Outcome{outcome}, r.outcomes)
	}
}
