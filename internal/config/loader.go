package config

import (
	"fmt"
	"net/url"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
// Returns an error if required values are missing or validation fails.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// loadStruct recursively populates struct fields from environment variables.
func loadStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		// Skip unexported fields
		if !fieldVal.CanSet() {
			continue
		}

		// Recurse into nested structs
		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := loadStruct(fieldVal); err != nil {
				return err
			}
			continue
		}

		// Get tags
		envName := field.Tag.Get("env")
		envAlt := field.Tag.Get("envAlt")
		defaultVal := field.Tag.Get("default")
		required := field.Tag.Get("required") == "true"

		if envName == "" {
			continue
		}

		// Try primary env var, then alternate
		value := os.Getenv(envName)
		if value == "" && envAlt != "" {
			value = os.Getenv(envAlt)
		}

		// Apply default if not set
		if value == "" {
			if required {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = defaultVal
		}

		if value == "" {
			continue
		}

		// Set the field value
		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		// Handle time.Duration specially
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number: %w", err)
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			// Split comma-separated values, trim whitespace
			parts := strings.Split(value, ",")
			result := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					result = append(result, p)
				}
			}
			field.Set(reflect.ValueOf(result))
		} else {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string
	errs = c.Database.validate(errs)
	errs = c.Server.validate(errs)
	errs = c.Import.validate(errs)
	errs = c.Security.validate(errs)
	errs = c.Logging.validate(errs)

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func (d DatabaseConfig) validate(errs []string) []string {
	switch strings.ToLower(d.Driver) {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Sprintf("DB_DRIVER (%q) must be one of: postgres, sqlite", d.Driver))
	}
	if d.URL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if d.MaxConns <= 0 {
		errs = append(errs, "DB_MAX_CONNS must be positive")
	}
	if d.MinConns < 0 {
		errs = append(errs, "DB_MIN_CONNS must be non-negative")
	}
	if d.MaxConns < d.MinConns {
		errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)", d.MaxConns, d.MinConns))
	}
	return errs
}

func (s ServerConfig) validate(errs []string) []string {
	if s.Port <= 0 || s.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", s.Port))
	}
	if s.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if s.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	return errs
}

func (i ImportConfig) validate(errs []string) []string {
	if i.SheetURL != "" {
		if u, err := url.Parse(i.SheetURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, "GOOGLE_SHEETS_URL must be an http or https URL")
		}
	}

	if i.StartupDelay < 0 {
		errs = append(errs, "IMPORT_STARTUP_DELAY must be non-negative")
	}
	if i.SyncInterval < 0 {
		errs = append(errs, "IMPORT_SYNC_INTERVAL must be non-negative")
	}
	if i.FetchTimeout <= 0 {
		errs = append(errs, "IMPORT_FETCH_TIMEOUT must be positive")
	}
	if i.LockWait <= 0 {
		errs = append(errs, "IMPORT_LOCK_WAIT must be positive")
	}
	if i.FetchRetries < 0 {
		errs = append(errs, "IMPORT_FETCH_RETRIES must be non-negative")
	}
	if i.MaxRedirects <= 0 {
		errs = append(errs, "IMPORT_MAX_REDIRECTS must be positive")
	}
	if i.MaxBodySize <= 0 {
		errs = append(errs, "IMPORT_MAX_BODY_SIZE must be positive")
	}
	if i.FetchRate <= 0 {
		errs = append(errs, "IMPORT_FETCH_RATE must be positive")
	}
	return errs
}

func (s SecurityConfig) validate(errs []string) []string {
	if s.RequireAPIKey && len(s.APIKeys) == 0 {
		errs = append(errs, "REQUIRE_API_KEY is true but API_KEYS is empty")
	}
	if s.RequestsPerMinute < 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be non-negative")
	}
	return errs
}

func (l LoggingConfig) validate(errs []string) []string {
	switch strings.ToLower(l.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", l.Level))
	}
	switch strings.ToLower(l.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", l.Format))
	}
	return errs
}

// String returns a safe string representation of the config for logging.
// Sensitive values like database URLs are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port))
	b.WriteString(fmt.Sprintf("Database: {Driver: %q, URL: [MASKED], MaxConns: %d, MinConns: %d}, ",
		c.Database.Driver, c.Database.MaxConns, c.Database.MinConns))
	b.WriteString(fmt.Sprintf("Import: {SheetURL: %v, Replace: %v, SyncInterval: %s}, ",
		c.Import.SheetURL != "", c.Import.ReplaceExisting, c.Import.SyncInterval))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}
