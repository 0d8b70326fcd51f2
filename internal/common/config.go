package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	Extraction ExtractionConfig
	Storage    StorageConfig
	Tools      ToolsConfig
	Workers    int
	LogLevel   string
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds daemon-related configuration
type ServerConfig struct {
	GRPCAddr     string
	CatalogInbox string
	GuideInbox   string
	Debounce     time.Duration
	QueueSize    int
	JobTimeout   time.Duration
}

// ExtractionConfig tunes the per-document pipeline
type ExtractionConfig struct {
	MaxPages          int               `yaml:"max_pages"`
	PageTextLimit     int               `yaml:"page_text_limit"`
	ContextLimit      int               `yaml:"context_limit"`
	SkipImages        bool              `yaml:"skip_images"`
	MinImagePixels    int               `yaml:"min_image_pixels"`
	FullPageRatio     float64           `yaml:"full_page_ratio"`
	AssociationWindow float64           `yaml:"association_window"`
	FallbackPolicy    string            `yaml:"fallback_policy"`
	MaxImageDimension int               `yaml:"max_image_dimension"`
	ExtraPatterns     []PatternOverride `yaml:"extra_patterns"`
}

// PatternOverride is an additional PatternBank rule read from the YAML overlay.
type PatternOverride struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
	Type    string `yaml:"type"`
}

// StorageConfig holds artifact locations
type StorageConfig struct {
	ImageDir string
}

// ToolsConfig holds external binaries used as fallbacks
type ToolsConfig struct {
	Pdftotext string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", "file:parts.db"),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			GRPCAddr:     getEnv("GRPC_ADDR", ":8080"),
			CatalogInbox: getEnv("CATALOG_INBOX", "./data/pdfs"),
			GuideInbox:   getEnv("GUIDE_INBOX", "./data/guides"),
			Debounce:     getEnvAsDuration("WATCH_DEBOUNCE", 2*time.Second),
			QueueSize:    getEnvAsInt("QUEUE_SIZE", 64),
			JobTimeout:   getEnvAsDuration("JOB_TIMEOUT", 30*time.Minute),
		},
		Extraction: ExtractionConfig{
			MaxPages:          getEnvAsInt("MAX_PDF_PAGES", 1000),
			PageTextLimit:     getEnvAsInt("PAGE_TEXT_LIMIT", 10000),
			ContextLimit:      getEnvAsInt("CONTEXT_LIMIT", 250),
			SkipImages:        getEnvAsBool("SKIP_IMAGES", false),
			MinImagePixels:    getEnvAsInt("MIN_IMAGE_PIXELS", 50),
			FullPageRatio:     getEnvAsFloat64("FULL_PAGE_RATIO", 0.8),
			AssociationWindow: getEnvAsFloat64("ASSOCIATION_WINDOW", 200),
			FallbackPolicy:    getEnv("IMAGE_FALLBACK_POLICY", "first-unassociated"),
			MaxImageDimension: getEnvAsInt("MAX_IMAGE_DIMENSION", 0),
		},
		Storage: StorageConfig{
			ImageDir: getEnv("PART_IMAGES_DIR", "./data/part_images"),
		},
		Tools: ToolsConfig{
			Pdftotext: getEnv("PDFTOTEXT", ""),
		},
		Workers:  getEnvAsInt("WORKERS", 1),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// fileConfig is the YAML overlay shape. Only extraction tuning lives in files;
// credentials and DSNs stay in the environment.
type fileConfig struct {
	Extraction *ExtractionConfig `yaml:"extraction"`
	ImageDir   string            `yaml:"image_dir"`
	Workers    int               `yaml:"workers"`
}

// ApplyFile overlays non-zero values from a YAML file onto c.
func (c *Config) ApplyFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return NewAppError("CONFIG_ERROR", "read config file", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("parse %s", path), err)
	}
	if fc.ImageDir != "" {
		c.Storage.ImageDir = fc.ImageDir
	}
	if fc.Workers > 0 {
		c.Workers = fc.Workers
	}
	if e := fc.Extraction; e != nil {
		if e.MaxPages > 0 {
			c.Extraction.MaxPages = e.MaxPages
		}
		if e.PageTextLimit > 0 {
			c.Extraction.PageTextLimit = e.PageTextLimit
		}
		if e.ContextLimit > 0 {
			c.Extraction.ContextLimit = e.ContextLimit
		}
		if e.SkipImages {
			c.Extraction.SkipImages = true
		}
		if e.MinImagePixels > 0 {
			c.Extraction.MinImagePixels = e.MinImagePixels
		}
		if e.FullPageRatio > 0 {
			c.Extraction.FullPageRatio = e.FullPageRatio
		}
		if e.AssociationWindow > 0 {
			c.Extraction.AssociationWindow = e.AssociationWindow
		}
		if e.FallbackPolicy != "" {
			c.Extraction.FallbackPolicy = e.FallbackPolicy
		}
		if e.MaxImageDimension > 0 {
			c.Extraction.MaxImageDimension = e.MaxImageDimension
		}
		c.Extraction.ExtraPatterns = append(c.Extraction.ExtraPatterns, e.ExtraPatterns...)
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator()
	v.Field("DB_URL", c.Database.DSN, Required)
	v.Field("PART_IMAGES_DIR", c.Storage.ImageDir, Required)
	v.Field("IMAGE_FALLBACK_POLICY", c.Extraction.FallbackPolicy, OneOf("first-unassociated", "drop"))
	v.Field("WORKERS", c.Workers, Positive)
	v.Field("MIN_IMAGE_PIXELS", c.Extraction.MinImagePixels, Positive)
	v.Field("CONTEXT_LIMIT", c.Extraction.ContextLimit, Positive)
	if c.Extraction.FullPageRatio <= 0 || c.Extraction.FullPageRatio > 1 {
		v.Add(ValidationError{Field: "FULL_PAGE_RATIO", Value: c.Extraction.FullPageRatio, Message: "must be in (0, 1]"})
	}
	if v.HasErrors() {
		return NewAppError("CONFIG_ERROR", v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}
