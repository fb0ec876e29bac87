package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/aussiebroadwan/orgdir/cmd/orgdir/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		EnvFile string           `help:"Load environment variables from this file if it exists." default:".env" type:"path"`
		Version kong.VersionFlag `help:"Print the version and exit."`

		Serve   commands.ServeCmd   `cmd:"" default:"1" help:"Run the organization directory HTTP service."`
		Migrate commands.MigrateCmd `cmd:"" help:"Apply database migrations and exit."`
		Repair  commands.RepairCmd  `cmd:"" help:"Run one repair pass over the lifecycle journal and exit."`
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := kong.Parse(&cli,
		kong.Name("orgdir"),
		kong.Description("Multi-tenant organization directory."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{EnvFile: cli.EnvFile, Version: version})
	cmd.FatalIfErrorf(err)
}
