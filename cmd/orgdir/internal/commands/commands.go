package commands

import (
	"fmt"

	"github.com/aussiebroadwan/orgdir/internal/orgdir/app"
)

type Globals struct {
	EnvFile string
	Version string
}

// loadConfig seeds the environment from the env file, then reads it.
func loadConfig(g *Globals) (app.Config, error) {
	if err := app.LoadEnvFile(g.EnvFile); err != nil {
		return app.Config{}, fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg := app.LoadConfig()
	cfg.Version = g.Version
	return cfg, nil
}
