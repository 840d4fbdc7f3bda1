// Package config provides configuration management for the parish census tool.
// Configurations are loaded from TOML files with XDG-compliant paths.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config holds the complete application configuration.
type Config struct {
	Parish   ParishConfig   `toml:"parish"`
	API      APIConfig      `toml:"api"`
	Survey   SurveyConfig   `toml:"survey"`
	Display  DisplayConfig  `toml:"display"`
	Logging  LoggingConfig  `toml:"logging"`
	Database DatabaseConfig `toml:"database"`
}

// ParishConfig identifies the parish running the census.
type ParishConfig struct {
	Name    string `toml:"name"`
	Diocese string `toml:"diocese"`
}

// APIConfig controls the REST backend used for catalogs and submissions.
type APIConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	RetryMax       int    `toml:"retry_max"`
	// TokenEnv names the environment variable holding the bearer token.
	TokenEnv string `toml:"token_env"`
}

// Timeout returns the request timeout as a duration.
func (a *APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// Offline reports whether no backend is configured.
func (a *APIConfig) Offline() bool {
	return strings.TrimSpace(a.BaseURL) == ""
}

// SurveyConfig holds the business rules of the survey wizard.
type SurveyConfig struct {
	// LeadershipRoles lists the relationship names that satisfy the
	// head-of-household requirement on the family stage.
	LeadershipRoles []string `toml:"leadership_roles"`
	Autosave        bool     `toml:"autosave"`
	ConsentField    string   `toml:"consent_field"`
}

// DisplayConfig controls TUI appearance.
type DisplayConfig struct {
	ColorScheme ColorScheme `toml:"color_scheme"`
	DateFormat  string      `toml:"date_format"`
}

// ColorScheme defines the terminal color palette.
type ColorScheme string

const (
	ColorSchemeParish ColorScheme = "parish"
	ColorSchemeAmber  ColorScheme = "amber"
	ColorSchemeWhite  ColorScheme = "white"
)

// LoggingConfig controls application logging.
type LoggingConfig struct {
	Level LogLevel `toml:"level"`
	File  string   `toml:"file"`
}

// LogLevel defines logging verbosity.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// DatabaseConfig controls the local SQLite store for drafts and catalogs.
type DatabaseConfig struct {
	Path                string `toml:"path"`
	BackupIntervalHours int    `toml:"backup_interval_hours"`
	BackupRetentionDays int    `toml:"backup_retention_days"`
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Parish.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("parish: %w", err))
	}

	if err := c.API.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("api: %w", err))
	}

	if err := c.Survey.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("survey: %w", err))
	}

	if err := c.Display.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("display: %w", err))
	}

	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("database: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that the parish configuration is valid.
func (p *ParishConfig) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("name is required")
	}
	return nil
}

// Validate checks that the API configuration is valid.
func (a *APIConfig) Validate() error {
	var errs []error

	if !a.Offline() {
		u, err := url.Parse(a.BaseURL)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid base_url: %w", err))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errs = append(errs, fmt.Errorf("base_url must be http or https, got %q", u.Scheme))
		}
	}

	if a.TimeoutSeconds < 0 {
		errs = append(errs, errors.New("timeout_seconds must be non-negative"))
	}

	if a.RetryMax < 0 {
		errs = append(errs, errors.New("retry_max must be non-negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that the survey configuration is valid.
func (s *SurveyConfig) Validate() error {
	var errs []error

	if len(s.LeadershipRoles) == 0 {
		errs = append(errs, errors.New("leadership_roles must list at least one role"))
	}

	for i, role := range s.LeadershipRoles {
		if strings.TrimSpace(role) == "" {
			errs = append(errs, fmt.Errorf("leadership_roles[%d] is empty", i))
		}
	}

	if s.ConsentField == "" {
		errs = append(errs, errors.New("consent_field is required"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that the display configuration is valid.
func (d *DisplayConfig) Validate() error {
	validSchemes := map[ColorScheme]bool{
		ColorSchemeParish: true,
		ColorSchemeAmber:  true,
		ColorSchemeWhite:  true,
	}

	if !validSchemes[d.ColorScheme] && d.ColorScheme != "" {
		return fmt.Errorf("invalid color_scheme: %s", d.ColorScheme)
	}

	return nil
}

// Validate checks that the logging configuration is valid.
func (l *LoggingConfig) Validate() error {
	validLevels := map[LogLevel]bool{
		LogLevelDebug: true,
		LogLevelInfo:  true,
		LogLevelWarn:  true,
		LogLevelError: true,
	}

	if !validLevels[l.Level] && l.Level != "" {
		return fmt.Errorf("invalid log level: %s", l.Level)
	}

	return nil
}

// Validate checks that the database configuration is valid.
func (d *DatabaseConfig) Validate() error {
	var errs []error

	if d.Path == "" {
		errs = append(errs, errors.New("path is required"))
	}

	if d.BackupIntervalHours < 0 {
		errs = append(errs, errors.New("backup_interval_hours must be non-negative"))
	}

	if d.BackupRetentionDays < 0 {
		errs = append(errs, errors.New("backup_retention_days must be non-negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Default returns a configuration with sensible default values.
func Default() *Config {
	return &Config{
		Parish: ParishConfig{
			Name:    "Parroquia San José",
			Diocese: "Arquidiócesis de Medellín",
		},
		API: APIConfig{
			BaseURL:        "",
			TimeoutSeconds: 15,
			RetryMax:       3,
			TokenEnv:       "CENSO_API_TOKEN",
		},
		Survey: SurveyConfig{
			LeadershipRoles: []string{
				"Jefe de Hogar",
				"Jefa de Hogar",
				"Cabeza de Familia",
				"Líder del Hogar",
			},
			Autosave:     true,
			ConsentField: "autorizacion_datos",
		},
		Display: DisplayConfig{
			ColorScheme: ColorSchemeParish,
			DateFormat:  "2006-01-02",
		},
		Logging: LoggingConfig{
			Level: LogLevelInfo,
			File:  "logs/censo.log",
		},
		Database: DatabaseConfig{
			Path:                "censo.db",
			BackupIntervalHours: 24,
			BackupRetentionDays: 30,
		},
	}
}
