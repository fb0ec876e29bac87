package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aussiebroadwan/orgdir/internal/orgdir/app"
)

type RepairCmd struct{}

func (r *RepairCmd) Run(ctx context.Context, globals *Globals) error {
	cfg, err := loadConfig(globals)
	if err != nil {
		return err
	}

	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	report, err := application.RepairOnce(ctx)
	if err != nil {
		return fmt.Errorf("repair pass failed: %w", err)
	}

	fmt.Fprintf(os.Stdout, "examined=%d repaired=%d skipped=%d failed=%d pruned=%d\n",
		report.Examined, report.Repaired, report.Skipped, report.Failed, report.Pruned)
	if len(report.SweptStaging) > 0 {
		fmt.Fprintf(os.Stdout, "swept staging partitions: %s\n", strings.Join(report.SweptStaging, ", "))
	}
	if report.Failed > 0 {
		return fmt.Errorf("%d journal entries could not be repaired", report.Failed)
	}
	return nil
}
