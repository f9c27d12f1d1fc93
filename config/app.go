package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/feichai0017/interview-practice/internal/models"
)

var (
	appOnce   sync.Once
	appConfig *AppConfig
)

// AppConfig is read from config/app.yaml (or APP_CONFIG) and then
// overridden by environment variables.
type AppConfig struct {
	Server     ServerConfig     `yaml:"server"`
	Redis      RedisConfig      `yaml:"redis"`
	Storage    StorageConfig    `yaml:"storage"`
	Session    SessionConfig    `yaml:"session"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Worker     WorkerConfig     `yaml:"worker"`
	Log        LogConfig        `yaml:"log"`
}

type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	Mode           string        `yaml:"mode"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type StorageConfig struct {
	// Type is "s3" or "minio".
	Type      string        `yaml:"type"`
	Retention time.Duration `yaml:"retention"`
}

type SessionConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type ExtractionConfig struct {
	MaxFileSize    int64         `yaml:"max_file_size"`
	MaxWorkers     int           `yaml:"max_workers"`
	ProcessTimeout time.Duration `yaml:"process_timeout"`
	// Cache is "redis" or "memory".
	Cache string `yaml:"cache"`
}

type WorkerConfig struct {
	Concurrency int `yaml:"concurrency"`
}

type LogConfig struct {
	Level       string   `yaml:"level"`
	Encoding    string   `yaml:"encoding"`
	OutputPaths []string `yaml:"output_paths"`
	Development bool     `yaml:"development"`
}

// DefaultAppConfig returns the settings used when nothing is configured.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Addr:           ":8080",
			Mode:           "release",
			AllowedOrigins: []string{"*"},
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   60 * time.Second,
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
		Storage: StorageConfig{
			Type:      "minio",
			Retention: 24 * time.Hour,
		},
		Session: SessionConfig{
			BaseURL: "http://localhost:8000",
			Timeout: 10 * time.Second,
		},
		Extraction: ExtractionConfig{
			MaxFileSize:    models.MaxResumeSize,
			MaxWorkers:     4,
			ProcessTimeout: 2 * time.Minute,
			Cache:          "redis",
		},
		Worker: WorkerConfig{Concurrency: 5},
		Log: LogConfig{
			Level:       "info",
			Encoding:    "json",
			OutputPaths: []string{"stdout"},
		},
	}
}

// GetAppConfig loads the configuration once per process.
func GetAppConfig() *AppConfig {
	appOnce.Do(func() {
		loadEnv()

		path := os.Getenv("APP_CONFIG")
		if path == "" {
			path = "config/app.yaml"
		}
		cfg, err := LoadAppConfig(path)
		if err != nil {
			log.Printf("Warning: %v, using defaults", err)
			cfg = DefaultAppConfig()
			cfg.applyEnv()
		}
		appConfig = cfg
	})
	return appConfig
}

// LoadAppConfig reads path over the defaults and applies environment
// overrides. A missing file is not an error.
func LoadAppConfig(path string) (*AppConfig, error) {
	cfg := DefaultAppConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) applyEnv() {
	envString("SERVER_ADDR", &c.Server.Addr)
	envString("GIN_MODE", &c.Server.Mode)
	envString("REDIS_ADDR", &c.Redis.Addr)
	envString("REDIS_PASSWORD", &c.Redis.Password)
	envInt("REDIS_DB", &c.Redis.DB)
	envString("STORAGE_TYPE", &c.Storage.Type)
	envDuration("STORAGE_RETENTION", &c.Storage.Retention)
	envString("SESSION_API_URL", &c.Session.BaseURL)
	envDuration("SESSION_API_TIMEOUT", &c.Session.Timeout)
	envInt64("EXTRACTION_MAX_FILE_SIZE", &c.Extraction.MaxFileSize)
	envInt("EXTRACTION_MAX_WORKERS", &c.Extraction.MaxWorkers)
	envDuration("EXTRACTION_TIMEOUT", &c.Extraction.ProcessTimeout)
	envString("EXTRACTION_CACHE", &c.Extraction.Cache)
	envInt("WORKER_CONCURRENCY", &c.Worker.Concurrency)
	envString("LOG_LEVEL", &c.Log.Level)
	envString("LOG_ENCODING", &c.Log.Encoding)
	envBool("LOG_DEVELOPMENT", &c.Log.Development)
}

func (c *AppConfig) Validate() error {
	switch c.Storage.Type {
	case "s3", "minio":
	default:
		return fmt.Errorf("invalid storage type %q", c.Storage.Type)
	}
	switch c.Extraction.Cache {
	case "redis", "memory":
	default:
		return fmt.Errorf("invalid extraction cache %q", c.Extraction.Cache)
	}
	if c.Extraction.MaxFileSize <= 0 {
		return fmt.Errorf("extraction max_file_size must be positive")
	}
	if c.Extraction.MaxFileSize > models.MaxResumeSize {
		return fmt.Errorf("extraction max_file_size %d exceeds the %d byte upload limit", c.Extraction.MaxFileSize, models.MaxResumeSize)
	}
	if c.Extraction.MaxWorkers <= 0 {
		return fmt.Errorf("extraction max_workers must be positive")
	}
	return nil
}
