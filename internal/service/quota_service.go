package service

import (
	"context"
	"errors"
	"fmt"

	"brandguard/internal/repository"

	"github.com/rs/zerolog"
)

// QuotaEnforcer guards the monthly analysis allowance of an account.
type QuotaEnforcer interface {
	// CheckAndReserve atomically takes one unit of quota or fails with a quota_exceeded error.
	CheckAndReserve(ctx context.Context, accountID string) error
	// Commit counts a reserved unit once the analysis has been stored. If
	// counting fails the reservation is released, so the unit is not lost.
	Commit(ctx context.Context, accountID, designID string) error
	// Release returns a reserved unit after a failed analysis.
	Release(ctx context.Context, accountID string)
}

type quotaEnforcer struct {
	usage  repository.UsageRepository
	logger zerolog.Logger
}

func NewQuotaEnforcer(usage repository.UsageRepository, logger zerolog.Logger) QuotaEnforcer {
	return &quotaEnforcer{
		usage:  usage,
		logger: logger.With().Str("service", "QuotaEnforcer").Logger(),
	}
}

func (q *quotaEnforcer) CheckAndReserve(ctx context.Context, accountID string) error {
	err := q.usage.ReserveAnalysis(ctx, accountID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrAnalysisLimitReached):
		return newError(KindQuotaExceeded, "monthly analysis limit reached, upgrade your plan to run more analyses")
	case errors.Is(err, repository.ErrNotFound):
		return newError(KindUnauthenticated, "account is not registered")
	default:
		return fmt.Errorf("reserving analysis quota: %w", err)
	}
}

func (q *quotaEnforcer) Commit(ctx context.Context, accountID, designID string) error {
	if err := q.usage.CommitAnalysis(context.WithoutCancel(ctx), accountID, designID); err != nil {
		q.Release(ctx, accountID)
		return fmt.Errorf("committing analysis quota: %w", err)
	}
	return nil
}

func (q *quotaEnforcer) Release(ctx context.Context, accountID string) {
	// The request may already be cancelled; the reservation must still be returned.
	if err := q.usage.ReleaseAnalysis(context.WithoutCancel(ctx), accountID); err != nil {
		q.logger.Error().Err(err).Str("account_id", accountID).Msg("Failed to release analysis reservation")
	}
}
