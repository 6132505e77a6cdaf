package batchfetch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTasks_SkipsBlankAndCommentLines(t *testing.T) {
	input := "https://a.example/1.txt\n\n# mirror list\n   \n  https://b.example/2.txt  \n#https://c.example/3.txt\n"

	tasks, err := ParseTasks(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	assert.Equal(t, &Task{URL: "https://a.example/1.txt", Index: 1}, tasks[0])
	assert.Equal(t, &Task{URL: "https://b.example/2.txt", Index: 2}, tasks[1])
}

func TestParseTasks_OnlyCommentsIsAnError(t *testing.T) {
	_, err := ParseTasks(strings.NewReader("# nothing\n\n"))
	assert.ErrorIs(t, err, ErrNoTasks)
}

func TestLoadTasks_MissingFile(t *testing.T) {
	_, err := LoadTasks(filepath.Join(t.TempDir(), "urls.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestTask_String(t *testing.T) {
	task := &Task{URL: "https://a.example/", Index: 4}
	assert.Equal(t, "#4 https://a.example/", task.String())
}
