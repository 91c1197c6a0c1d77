package internal

import (
	"github.com/dfryer1193/goblog/blog/domain"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	source domain.SourceRepository
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithSourceRepository overrides the source built from the config.
func WithSourceRepository(source domain.SourceRepository) Option {
	return func(a *application) {
		a.source = source
	}
}
