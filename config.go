package batchfetch

import (
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/thagki9/batchfetch/constant"
)

// DefaultUserAgent mimics a desktop browser; some hosts refuse unknown agents.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) " +
	"Chrome/120.0.0.0 Safari/537.36 batchfetch/" + constant.Version

// Config is the immutable configuration of one run. Build it with
// RawConfig.ToConfig or GetDefaultConfig and do not change it once the
// engine has been created.
type Config struct {
	Input   string
	Log     LoggerConfig
	Request RequestConfig
	Output  OutputConfig
	Queue   QueueConfig

	Logger *log.Logger
}

// LoggerConfig defines the structure of LoggerConfig
type LoggerConfig struct {
	Level    log.Level
	Console  bool
	FilePath string
}

// RequestConfig defines the structure of RequestConfig
type RequestConfig struct {
	UserAgent      string
	Timeout        time.Duration
	MaxRetryTimes  int
	BackoffFactor  time.Duration
	FollowRedirect bool
	Concurrency    int
}

// OutputConfig tells where downloaded files and result logs go
type OutputConfig struct {
	Dir        string
	SuccessLog string
	FailureLog string
	Report     string
}

// QueueConfig selects the task queue backend. An empty RedisAddr means
// the in-memory queue.
type QueueConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// GetDefaultConfig returns the default configuration
func GetDefaultConfig() *Config {
	config := &Config{
		Input: "urls.txt",
		Log: LoggerConfig{
			Level:   log.InfoLevel,
			Console: true,
		},
		Request: RequestConfig{
			Concurrency:    10,
			FollowRedirect: true,
			MaxRetryTimes:  3,
			BackoffFactor:  time.Second,
			Timeout:        15 * time.Second,
			UserAgent:      DefaultUserAgent,
		},
		Output: OutputConfig{
			Dir:        "downloads",
			SuccessLog: "success.log",
			FailureLog: "failed.log",
		},
	}
	config.Logger = NewLogger(config.Log)
	return config
}

// defaultConfig defines the default value of Config.
var defaultConfig = GetDefaultConfig()

// checkConfig check and fix the config if necessary
func (config *Config) checkConfig() {
	logger := config.Logger

	if config.Request.Timeout <= 0 {
		logger.Warnf("%v is invalid for request timeout configuration, set to default value %v", config.Request.Timeout, defaultConfig.Request.Timeout)
		config.Request.Timeout = defaultConfig.Request.Timeout
	}

	if config.Request.Concurrency <= 0 {
		logger.Warnf("%v is invalid for request concurrency configuration, set to default value %v", config.Request.Concurrency, defaultConfig.Request.Concurrency)
		config.Request.Concurrency = defaultConfig.Request.Concurrency
	}

	if config.Request.MaxRetryTimes < 0 {
		logger.Warnf("%v is invalid for maximum retry times configuration, set to default value %v", config.Request.MaxRetryTimes, defaultConfig.Request.MaxRetryTimes)
		config.Request.MaxRetryTimes = defaultConfig.Request.MaxRetryTimes
	}

	if config.Request.BackoffFactor < 0 {
		logger.Warnf("%v is invalid for backoff factor configuration, set to default value %v", config.Request.BackoffFactor, defaultConfig.Request.BackoffFactor)
		config.Request.BackoffFactor = defaultConfig.Request.BackoffFactor
	}

	if config.Request.UserAgent == "" {
		config.Request.UserAgent = defaultConfig.Request.UserAgent
	}

	if config.Output.Dir == "" {
		logger.Warnf("Output directory is empty, set to default value %v", defaultConfig.Output.Dir)
		config.Output.Dir = defaultConfig.Output.Dir
	}
}
