package main

import (
	"fmt"

	"github.com/personacraft/personad/internal/config"
	"github.com/personacraft/personad/internal/metrics"
	"github.com/personacraft/personad/internal/templates"
)

// buildRegistry registers the builtin templates and any on-disk templates
// from the configured directory.
func buildRegistry(cfg *config.Config) (*templates.Registry, error) {
	registry := templates.NewRegistry()

	for _, tpl := range templates.Builtin() {
		if err := registry.Register(tpl); err != nil {
			return nil, fmt.Errorf("register builtin template: %w", err)
		}
	}

	if cfg.Templates.Dir != "" {
		loaded, err := templates.LoadDir(cfg.Templates.Dir)
		if err != nil {
			return nil, fmt.Errorf("load templates from %s: %w", cfg.Templates.Dir, err)
		}
		for _, tpl := range loaded {
			if err := registry.Register(tpl); err != nil {
				return nil, fmt.Errorf("register template %q: %w", tpl.ID, err)
			}
		}
	}

	return registry, nil
}

// openStore opens the metrics database at the configured path and applies
// migrations.
func openStore(cfg *config.Config) (*metrics.Store, error) {
	path := cfg.Database.Path
	if path == "" {
		path = metrics.DefaultDBPath()
	}

	store, err := metrics.NewStore(path)
	if err != nil {
		return nil, fmt.Errorf("open metrics store: %w", err)
	}
	if err := store.Migrate(); err != nil {
		store.Close()
		return nil, fmt.Errorf("migrate metrics store: %w", err)
	}
	return store, nil
}
