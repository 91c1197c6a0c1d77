package internal

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/rs/zerolog"
)

// Application modes. Development disables render cache freshness checks.
const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
)

// Source kinds.
const (
	SourceKindFilesystem = "fs"
	SourceKindGithub     = "github"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Source    SourceConfig      `yaml:"source"`
	SQLite    SQLiteConfig      `yaml:"sqlite"`
	Highlight HighlightConfig   `yaml:"highlight"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Source.Validate(); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	if err := c.SQLite.Validate(); err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	Mode     string     `yaml:"mode"`
	LogLevel string     `yaml:"log_level"`
	SiteURL  string     `yaml:"site_url"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(ModeDevelopment, ModeProduction)),
		validation.Field(&c.LogLevel, validation.By(isLogLevel)),
		validation.Field(&c.SiteURL, is.URL),
	); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// Development reports whether the application runs in development mode.
func (c *ApplicationConfig) Development() bool {
	return c.Mode == ModeDevelopment
}

// Level returns the configured zerolog level, defaulting to info.
func (c *ApplicationConfig) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || c.LogLevel == "" {
		return zerolog.InfoLevel
	}
	return level
}

// HTTPConfig holds HTTP server configuration. A zero RateLimit disables
// request limiting.
type HTTPConfig struct {
	Port      int     `yaml:"port"`
	RateLimit float64 `yaml:"rate_limit"`
	Burst     int     `yaml:"burst"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.RateLimit, validation.Min(0.0)),
		validation.Field(&c.Burst, validation.When(c.RateLimit > 0, validation.Required, validation.Min(1))),
	)
}

// SourceConfig selects where post sources are read from.
type SourceConfig struct {
	Kind   string       `yaml:"kind"`
	Path   string       `yaml:"path"`
	Github GithubConfig `yaml:"github"`
}

// Validate validates the source configuration.
func (c *SourceConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Kind, validation.Required, validation.In(SourceKindFilesystem, SourceKindGithub)),
		validation.Field(&c.Path, validation.When(c.Kind == SourceKindFilesystem, validation.Required)),
	); err != nil {
		return err
	}
	if c.Kind == SourceKindGithub {
		if err := c.Github.Validate(); err != nil {
			return fmt.Errorf("github: %w", err)
		}
	}
	return nil
}

// GithubConfig holds the repository posts are read from. An empty Ref reads
// the default branch; an empty Token uses unauthenticated requests.
type GithubConfig struct {
	Owner string `yaml:"owner"`
	Repo  string `yaml:"repo"`
	Ref   string `yaml:"ref"`
	Token string `yaml:"token"`
}

// Validate validates the GitHub configuration.
func (c *GithubConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Owner, validation.Required),
		validation.Field(&c.Repo, validation.Required),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// HighlightConfig selects the chroma style used for code blocks.
type HighlightConfig struct {
	Style string `yaml:"style"`
}

func isLogLevel(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := zerolog.ParseLevel(s); err != nil {
		return fmt.Errorf("unknown log level %q", s)
	}
	return nil
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			Mode:     ModeProduction,
			LogLevel: zerolog.InfoLevel.String(),
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Source: SourceConfig{
			Kind: SourceKindFilesystem,
			Path: ".",
		},
		SQLite: SQLiteConfig{
			Path: "./goblog.db",
		},
		Highlight: HighlightConfig{
			Style: "github",
		},
	}
}
