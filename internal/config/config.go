package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Local persistence
	StorageBackend string
	SQLiteDBPath   string

	// Remote spreadsheet mirror
	SheetsEnabled bool
	SheetsLayout  string
	SheetNaming   string
	SheetName     string
	SheetLocale   string

	// Google credentials
	GoogleSpreadsheetID      string
	GoogleOAuthClientFile    string
	GoogleOAuthTokenFile     string
	GoogleOAuthClientJSON    string
	GoogleOAuthTokenJSON     string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string

	// Classifier
	GeminiAPIKey              string
	GeminiModel               string
	ClassifierTimeout         time.Duration
	ClassifierEnforceTaxonomy bool
	TaxonomyFile              string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	LogLevel string
}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8081"),

		StorageBackend: getEnv("STORAGE_BACKEND", "sqlite"),
		SQLiteDBPath:   getEnv("SQLITE_DB_PATH", "./data/spesevoce.db"),

		SheetsEnabled: getEnvBool("SHEETS_ENABLED", false),
		SheetsLayout:  getEnv("SHEETS_LAYOUT", "rows"),
		SheetNaming:   getEnv("SHEET_NAMING", "month"),
		SheetName:     getEnv("SHEET_NAME", "Expenses"),
		SheetLocale:   getEnv("SHEET_LOCALE", "ru"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleOAuthClientFile:    getEnv("GOOGLE_OAUTH_CLIENT_FILE", ""),
		GoogleOAuthTokenFile:     getEnv("GOOGLE_OAUTH_TOKEN_FILE", ""),
		GoogleOAuthClientJSON:    getEnv("GOOGLE_OAUTH_CLIENT_JSON", ""),
		GoogleOAuthTokenJSON:     getEnv("GOOGLE_OAUTH_TOKEN_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),

		GeminiAPIKey:              getEnv("GEMINI_API_KEY", ""),
		GeminiModel:               getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		ClassifierTimeout:         getEnvDuration("CLASSIFIER_TIMEOUT", 8*time.Second),
		ClassifierEnforceTaxonomy: getEnvBool("CLASSIFIER_ENFORCE_TAXONOMY", true),
		TaxonomyFile:              getEnv("TAXONOMY_FILE", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "spesevoce"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "transcripts"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{"memory", "sqlite"}
	if !slices.Contains(validBackends, c.StorageBackend) {
		errors = append(errors, fmt.Sprintf("invalid storage backend '%s': must be one of %v", c.StorageBackend, validBackends))
	}
	if c.StorageBackend == "sqlite" && c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
	}

	if c.SheetsEnabled {
		if !slices.Contains([]string{"rows", "grid"}, c.SheetsLayout) {
			errors = append(errors, fmt.Sprintf("invalid sheets layout '%s': must be rows or grid", c.SheetsLayout))
		}
		if !slices.Contains([]string{"month", "fixed"}, c.SheetNaming) {
			errors = append(errors, fmt.Sprintf("invalid sheet naming '%s': must be month or fixed", c.SheetNaming))
		}
		if c.SheetNaming == "fixed" && strings.TrimSpace(c.SheetName) == "" {
			errors = append(errors, "sheet name cannot be empty with fixed sheet naming")
		}
		if !slices.Contains([]string{"ru", "en"}, c.SheetLocale) {
			errors = append(errors, fmt.Sprintf("invalid sheet locale '%s': must be ru or en", c.SheetLocale))
		}

		// Either a service account or a user token; the OAuth client is
		// only needed to refresh the latter.
		hasServiceAccount := c.GoogleServiceAccountFile != "" || c.GoogleServiceAccountJSON != ""
		hasToken := c.GoogleOAuthTokenFile != "" || c.GoogleOAuthTokenJSON != ""
		if !hasServiceAccount && !hasToken {
			errors = append(errors, "one of GOOGLE_SERVICE_ACCOUNT_FILE/JSON or GOOGLE_OAUTH_TOKEN_FILE/JSON must be provided when sheets are enabled")
		}

		for name, path := range map[string]string{
			"Google OAuth client file":    c.GoogleOAuthClientFile,
			"Google OAuth token file":     c.GoogleOAuthTokenFile,
			"Google service account file": c.GoogleServiceAccountFile,
		} {
			if path == "" {
				continue
			}
			if _, err := os.Stat(path); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("%s does not exist: %s", name, path))
			}
		}
	}

	if c.ClassifierTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid classifier timeout %v: must be positive", c.ClassifierTimeout))
	} else if c.ClassifierTimeout > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid classifier timeout %v: must be at most 1 minute", c.ClassifierTimeout))
	}

	if c.TaxonomyFile != "" {
		if _, err := os.Stat(c.TaxonomyFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("taxonomy file does not exist: %s", c.TaxonomyFile))
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if !slices.Contains([]string{"debug", "info", "warn", "warning", "error"}, strings.ToLower(c.LogLevel)) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s'", c.LogLevel))
	}

	if len(errors) > 0 {
		slices.Sort(errors)
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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
