package commands

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/orgdir/internal/orgdir/app"
)

type ServeCmd struct {
	Port int `help:"HTTP port, overrides PORT."`
}

func (s *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	cfg, err := loadConfig(globals)
	if err != nil {
		return err
	}
	if s.Port != 0 {
		cfg.Port = s.Port
	}

	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return application.Run(ctx)
}
