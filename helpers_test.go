package batchfetch

import (
	"io"
	"net"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func quietLogger() *log.Logger {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testConfig(t *testing.T) *Config {
	t.Helper()

	config := GetDefaultConfig()
	config.Logger = quietLogger()
	config.Output.Dir = t.TempDir()
	config.Request.Timeout = 5 * time.Second
	config.Request.BackoffFactor = time.Millisecond
	return config
}

func newFixtureServer(t *testing.T, routes func(r *gin.Engine)) *httptest.Server {
	t.Helper()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	routes(r)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server
}

// closedAddr returns an address nothing listens on
func closedAddr(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := l.Addr().String()
	l.Close()
	return addr
}
