package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v10"
)

// Load parses environment variables into the provided struct.
// The struct should use `env` tags to define mappings.
//
// Example:
//
//	type Config struct {
//	    Port       int    `env:"STOREFRONT_HTTP_PORT" envDefault:"8010"`
//	    BackendURL string `env:"BACKEND_URL" envDefault:"http://127.0.0.1:8000"`
//	}
func Load(cfg any) error {
	return LoadFrom(cfg, Environ())
}

// Environ returns the process environment as a map.
func Environ() map[string]string {
	vars := os.Environ()
	environ := make(map[string]string, len(vars))
	for _, kv := range vars {
		if k, v, ok := strings.Cut(kv, "="); ok {
			environ[k] = v
		}
	}
	return environ
}

// LoadFrom parses the given variables into cfg instead of the process
// environment. Variables missing from environ take their envDefault.
func LoadFrom(cfg any, environ map[string]string) error {
	if environ == nil {
		environ = map[string]string{}
	}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
