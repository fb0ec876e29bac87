package commands

import (
	"context"

	"github.com/aussiebroadwan/orgdir/internal/orgdir/app"
	"github.com/aussiebroadwan/orgdir/pkg/slogx"
)

type MigrateCmd struct{}

func (m *MigrateCmd) Run(ctx context.Context, globals *Globals) error {
	cfg, err := loadConfig(globals)
	if err != nil {
		return err
	}

	logger := slogx.New(slogx.Config{
		Service: "orgdir-migrate",
		Version: cfg.Version,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
	return app.Migrate(ctx, cfg, logger)
}
