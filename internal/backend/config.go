package backend

import (
	"fmt"

	"spesevoce/internal/auth"
	"spesevoce/internal/config"
	"spesevoce/internal/sheets"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	storage := StorageType(appConfig.StorageBackend)
	if !storage.IsValid() {
		return Config{}, fmt.Errorf("invalid storage backend in config: %s", appConfig.StorageBackend)
	}

	return Config{
		Storage:      storage,
		SQLiteDBPath: appConfig.SQLiteDBPath,

		SheetsEnabled: appConfig.SheetsEnabled,
		SheetsLayout:  appConfig.SheetsLayout,
		SheetNaming:   appConfig.SheetNaming,
		SheetName:     appConfig.SheetName,
		SheetLocale:   appConfig.SheetLocale,
		SpreadsheetID: appConfig.GoogleSpreadsheetID,
		Auth: auth.Config{
			OAuthClientJSON:    appConfig.GoogleOAuthClientJSON,
			OAuthClientFile:    appConfig.GoogleOAuthClientFile,
			OAuthTokenJSON:     appConfig.GoogleOAuthTokenJSON,
			OAuthTokenFile:     appConfig.GoogleOAuthTokenFile,
			ServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
			ServiceAccountFile: appConfig.GoogleServiceAccountFile,
		},

		GeminiAPIKey:      appConfig.GeminiAPIKey,
		GeminiModel:       appConfig.GeminiModel,
		ClassifierTimeout: appConfig.ClassifierTimeout,
		EnforceTaxonomy:   appConfig.ClassifierEnforceTaxonomy,
		TaxonomyFile:      appConfig.TaxonomyFile,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Storage.IsValid() {
		return fmt.Errorf("invalid storage backend: %s", c.Storage)
	}
	if c.Storage == SQLiteStorage && c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required for sqlite storage")
	}
	if c.SheetsEnabled {
		switch c.SheetsLayout {
		case sheets.LayoutRows, sheets.LayoutGrid, "":
		default:
			return fmt.Errorf("unknown sheets layout %q", c.SheetsLayout)
		}
	}
	return nil
}
