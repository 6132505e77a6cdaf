package batchfetch

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// RawConfig defines the structure of a YAML config file. Every field can
// also be overridden by a BATCHFETCH_* environment variable.
type RawConfig struct {
	Input   string           `yaml:"input" env:"BATCHFETCH_INPUT"`
	Logger  RawLoggerConfig  `yaml:"logger"`
	Request RawRequestConfig `yaml:"request"`
	Output  RawOutputConfig  `yaml:"output"`
	Queue   RawQueueConfig   `yaml:"queue"`
}

// RawLoggerConfig defines the structure of LoggerConfig
type RawLoggerConfig struct {
	Level    string `yaml:"level" env:"BATCHFETCH_LOG_LEVEL"`
	Console  bool   `yaml:"console" env:"BATCHFETCH_LOG_CONSOLE"`
	FilePath string `yaml:"filepath" env:"BATCHFETCH_LOG_FILE"`
}

// RawRequestConfig defines the structure of RequestConfig.
// Timeout is in seconds, BackoffFactor in milliseconds.
type RawRequestConfig struct {
	UserAgent      string `yaml:"userAgent" env:"BATCHFETCH_USER_AGENT"`
	Timeout        int    `yaml:"timeout" env:"BATCHFETCH_TIMEOUT"`
	MaxRetryTimes  int    `yaml:"maxRetryTimes" env:"BATCHFETCH_MAX_RETRIES"`
	BackoffFactor  int    `yaml:"backoffFactor" env:"BATCHFETCH_BACKOFF_FACTOR"`
	FollowRedirect bool   `yaml:"followRedirect" env:"BATCHFETCH_FOLLOW_REDIRECT"`
	Concurrency    int    `yaml:"concurrency" env:"BATCHFETCH_CONCURRENCY"`
}

// RawOutputConfig defines the structure of OutputConfig
type RawOutputConfig struct {
	Dir        string `yaml:"dir" env:"BATCHFETCH_OUTPUT_DIR"`
	SuccessLog string `yaml:"successLog" env:"BATCHFETCH_SUCCESS_LOG"`
	FailureLog string `yaml:"failureLog" env:"BATCHFETCH_FAILURE_LOG"`
	Report     string `yaml:"report" env:"BATCHFETCH_REPORT"`
}

// RawQueueConfig defines the structure of QueueConfig
type RawQueueConfig struct {
	RedisAddr     string `yaml:"redisAddr" env:"BATCHFETCH_REDIS_ADDR"`
	RedisPassword string `yaml:"redisPassword" env:"BATCHFETCH_REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redisDB" env:"BATCHFETCH_REDIS_DB"`
}

// DefaultRawConfig defines the default value of RawConfig.
var DefaultRawConfig = RawConfig{
	Input: "urls.txt",
	Logger: RawLoggerConfig{
		Level:    "info",
		Console:  true,
		FilePath: "",
	},
	Request: RawRequestConfig{
		Concurrency:    10,
		FollowRedirect: true,
		MaxRetryTimes:  3,
		BackoffFactor:  1000,
		Timeout:        15,
		UserAgent:      DefaultUserAgent,
	},
	Output: RawOutputConfig{
		Dir:        "downloads",
		SuccessLog: "success.log",
		FailureLog: "failed.log",
	},
}

// LoadRawConfig returns the defaults overlaid with the YAML file at path.
// An empty path yields the defaults alone.
func LoadRawConfig(path string) (*RawConfig, error) {
	raw := DefaultRawConfig
	if path == "" {
		return &raw, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	return &raw, nil
}

// ApplyEnv overrides fields from the environment. If dotenvPath names an
// existing file it is loaded first; variables already set in the
// process environment win over the file.
func (c *RawConfig) ApplyEnv(dotenvPath string) error {
	if dotenvPath != "" {
		if _, err := os.Stat(dotenvPath); err == nil {
			if err := godotenv.Load(dotenvPath); err != nil {
				return fmt.Errorf("cannot load env file: %w", err)
			}
		}
	}

	if err := cleanenv.ReadEnv(c); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}

	return nil
}

// ToConfig converts the raw values into a checked Config with its logger
func (c *RawConfig) ToConfig() (*Config, error) {
	level, err := log.ParseLevel(c.Logger.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid logger level: %w", err)
	}

	config := &Config{
		Input: c.Input,
		Log: LoggerConfig{
			Level:    level,
			Console:  c.Logger.Console,
			FilePath: c.Logger.FilePath,
		},
		Request: RequestConfig{
			UserAgent:      c.Request.UserAgent,
			Timeout:        time.Duration(c.Request.Timeout) * time.Second,
			MaxRetryTimes:  c.Request.MaxRetryTimes,
			BackoffFactor:  time.Duration(c.Request.BackoffFactor) * time.Millisecond,
			FollowRedirect: c.Request.FollowRedirect,
			Concurrency:    c.Request.Concurrency,
		},
		Output: OutputConfig{
			Dir:        c.Output.Dir,
			SuccessLog: c.Output.SuccessLog,
			FailureLog: c.Output.FailureLog,
			Report:     c.Output.Report,
		},
		Queue: QueueConfig{
			RedisAddr:     c.Queue.RedisAddr,
			RedisPassword: c.Queue.RedisPassword,
			RedisDB:       c.Queue.RedisDB,
		},
	}
	config.Logger = NewLogger(config.Log)
	config.checkConfig()

	return config, nil
}

// DumpYAML will dump raw config into YAML
func (c *RawConfig) DumpYAML(writer io.Writer) error {
	content, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	_, err = writer.Write(content)
	return err
}
