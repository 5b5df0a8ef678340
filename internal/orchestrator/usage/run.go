package usage

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Maintainer is the part of the usage repository the maintenance jobs touch.
type Maintainer interface {
	ResetMonthlyUsage(ctx context.Context) (int64, error)
	SyncAnalysisLimits(ctx context.Context) (int64, error)
}

// ResetMonthly zeroes every account's monthly analysis counter. It is meant
// to run once at the start of each billing month.
func ResetMonthly(ctx context.Context, logger zerolog.Logger, repo Maintainer) error {
	n, err := repo.ResetMonthlyUsage(ctx)
	if err != nil {
		return fmt.Errorf("usage reset: %w", err)
	}
	logger.Info().Int64("accounts", n).Msg("Monthly usage reset")
	return nil
}

// SyncLimits brings each account's analysis limit back in line with its plan.
func SyncLimits(ctx context.Context, logger zerolog.Logger, repo Maintainer) error {
	n, err := repo.SyncAnalysisLimits(ctx)
	if err != nil {
		return fmt.Errorf("limits sync: %w", err)
	}
	if n > 0 {
		logger.Warn().Int64("accounts", n).Msg("Analysis limits drifted from plan and were corrected")
	} else {
		logger.Info().Msg("Analysis limits already match plans")
	}
	return nil
}
