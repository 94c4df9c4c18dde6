package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Backend names accepted by API_BACKEND.
const (
	BackendRemote = "remote"
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

type Config struct {
	// HTTP Server
	Port string `env:"PORT" validate:"required"`

	// Budget API
	APIBackend     string        `env:"API_BACKEND" validate:"oneof=remote memory sqlite"`
	APIBaseURL     string        `env:"API_BASE_URL"`
	APITimeout     time.Duration `env:"API_TIMEOUT" validate:"gte=100ms,lte=2m"`
	MemorySeedFile string        `env:"MEMORY_SEED_FILE"`
	SQLiteDBPath   string        `env:"SQLITE_DB_PATH"`

	// Client behaviour
	MonthConvention string `env:"MONTH_CONVENTION" validate:"oneof=mm-yyyy yyyy-mm"`
	ReportMonthEcho string `env:"REPORT_MONTH_ECHO" validate:"oneof=input server"`

	// Rate limiting for POST endpoints
	RateLimitPerSecond int `env:"RATE_LIMIT_PER_SECOND" validate:"gte=1,lte=1000"`
	RateLimitBurst     int `env:"RATE_LIMIT_BURST" validate:"gte=1,lte=1000"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFormat string `env:"LOG_FORMAT" validate:"oneof=text json"`
}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8082"),

		APIBackend:     getEnv("API_BACKEND", BackendRemote),
		APIBaseURL:     getEnv("API_BASE_URL", "http://localhost:8000"),
		APITimeout:     getEnvDuration("API_TIMEOUT", 10*time.Second),
		MemorySeedFile: getEnv("MEMORY_SEED_FILE", ""),
		SQLiteDBPath:   getEnv("SQLITE_DB_PATH", "./data/budget.db"),

		MonthConvention: getEnv("MONTH_CONVENTION", "mm-yyyy"),
		ReportMonthEcho: getEnv("REPORT_MONTH_ECHO", "input"),

		RateLimitPerSecond: getEnvInt("RATE_LIMIT_PER_SECOND", 5),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 10),

		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	return cfg
}

var validate = newValidator()

// newValidator reports fields by their env variable name.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("env"); name != "" {
			return name
		}
		return fld.Name
	})
	return v
}

// Validate validates the configuration and returns an error listing every problem found.
func (c *Config) Validate() error {
	var problems []string

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("configuration validation failed: %w", err)
		}
		for _, fe := range fieldErrs {
			problems = append(problems, describe(fe))
		}
	}

	if c.Port != "" {
		if port, err := strconv.Atoi(c.Port); err != nil {
			problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
		} else if port < 1 || port > 65535 {
			problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
		}
	}

	if c.APIBackend == BackendRemote {
		if c.APIBaseURL == "" {
			problems = append(problems, "API_BASE_URL is required when using the remote backend")
		} else if u, err := url.Parse(c.APIBaseURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid API base URL '%s': %v", c.APIBaseURL, err))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			problems = append(problems, fmt.Sprintf("invalid API base URL scheme '%s': must be 'http' or 'https'", u.Scheme))
		} else if u.Host == "" {
			problems = append(problems, fmt.Sprintf("invalid API base URL '%s': missing host", c.APIBaseURL))
		}
	}

	if c.APIBackend == BackendMemory && c.MemorySeedFile != "" {
		if _, err := os.Stat(c.MemorySeedFile); err != nil {
			problems = append(problems, fmt.Sprintf("memory seed file is not readable: %s", c.MemorySeedFile))
		}
	}

	if c.APIBackend == BackendSQLite && strings.TrimSpace(c.SQLiteDBPath) == "" {
		problems = append(problems, "SQLITE_DB_PATH is required when using the sqlite backend")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}

	return nil
}

// describe turns a validator field error into a message naming the env variable.
func describe(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", name)
	case "oneof":
		return fmt.Sprintf("invalid %s '%v': must be one of [%s]", name, fe.Value(), fe.Param())
	case "gte":
		return fmt.Sprintf("invalid %s %v: must be at least %s", name, fe.Value(), fe.Param())
	case "lte":
		return fmt.Sprintf("invalid %s %v: must be at most %s", name, fe.Value(), fe.Param())
	default:
		return fmt.Sprintf("invalid %s '%v': failed %s", name, fe.Value(), fe.Tag())
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
