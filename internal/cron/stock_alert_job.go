package cron

import (
	"context"

	"github.com/angelmondragon/stockroom/internal/automation"
	pkgerrors "github.com/angelmondragon/stockroom/pkg/errors"
	"github.com/angelmondragon/stockroom/pkg/logger"
)

type StockAlertJobParams struct {
	Logger  *logger.Logger
	Scanner automation.Scanner
}

// NewStockAlertJob re-evaluates stock thresholds and automation rules each cycle.
func NewStockAlertJob(params StockAlertJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	if params.Scanner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "scanner required")
	}
	return &stockAlertJob{logg: params.Logger, scanner: params.Scanner}, nil
}

type stockAlertJob struct {
	logg    *logger.Logger
	scanner automation.Scanner
}

func (j *stockAlertJob) Name() string { return "stock-alerts" }

// Run returns the scan's aggregated error so the cycle is counted as failed, even
// though products that succeeded keep their notifications.
func (j *stockAlertJob) Run(ctx context.Context) error {
	report, err := j.scanner.Scan(ctx)
	if report != nil {
		j.logg.Debug(j.logg.WithFields(ctx, map[string]any{
			"alerts":      report.Alerts,
			"reorders":    report.Reorders,
			"rules_fired": report.RulesFired,
		}), "stock alert job summary")
	}
	return err
}
