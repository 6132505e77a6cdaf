package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thagki9/batchfetch"
)

func TestRun_LogWriteFailureStillShutsDownEngine(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/a.txt", func(c *gin.Context) {
		c.String(http.StatusOK, "a")
	})
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	mr := miniredis.RunT(t)

	dir := t.TempDir()
	config := batchfetch.GetDefaultConfig()
	config.Logger = log.New()
	config.Logger.SetOutput(io.Discard)
	config.Output.Dir = dir
	config.Output.SuccessLog = filepath.Join(dir, "missing", "success.log")
	config.Output.FailureLog = filepath.Join(dir, "failed.log")
	config.Queue.RedisAddr = mr.Addr()

	code := run(config, []*batchfetch.Task{{URL: server.URL + "/a.txt", Index: 1}})

	assert.Equal(t, 1, code)
	assert.FileExists(t, filepath.Join(dir, "a.txt"))
	require.Eventually(t, func() bool { return mr.CurrentConnectionCount() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Empty(t, mr.Keys())
}

func TestRun_WritesLogs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/a.txt", func(c *gin.Context) {
		c.String(http.StatusOK, "a")
	})
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	dir := t.TempDir()
	config := batchfetch.GetDefaultConfig()
	config.Logger = log.New()
	config.Logger.SetOutput(io.Discard)
	config.Output.Dir = dir
	config.Output.SuccessLog = filepath.Join(dir, "success.log")
	config.Output.FailureLog = filepath.Join(dir, "failed.log")

	code := run(config, []*batchfetch.Task{{URL: server.URL + "/a.txt", Index: 1}})

	assert.Equal(t, 0, code)
	assert.FileExists(t, config.Output.SuccessLog)
	assert.FileExists(t, config.Output.FailureLog)
}
