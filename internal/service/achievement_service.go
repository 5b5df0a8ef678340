package service

import (
	"context"
	"fmt"
	"slices"

	"brandguard/internal/model"
	"brandguard/internal/repository"

	"github.com/rs/zerolog"
)

// evaluateAchievements applies the badge rules after a design with
// latestScore was recorded. designCount includes that design. Badges are
// never removed.
func evaluateAchievements(state model.AchievementState, designCount, latestScore int) model.AchievementState {
	next := model.AchievementState{
		Achievements:    slices.Clone(state.Achievements),
		HighScoreStreak: state.HighScoreStreak,
	}
	grant := func(id string) {
		if !slices.Contains(next.Achievements, id) {
			next.Achievements = append(next.Achievements, id)
		}
	}

	if designCount >= model.FirstDesignsThreshold {
		grant(model.AchievementFirstFiveDesigns)
	}
	if latestScore >= model.HighScoreThreshold {
		next.HighScoreStreak++
		if next.HighScoreStreak >= model.HighScoreStreakTarget {
			grant(model.AchievementHighScorerStreak)
		}
	} else {
		next.HighScoreStreak = 0
	}
	if next.Achievements == nil {
		next.Achievements = []string{}
	}
	return next
}

// AchievementEvaluator updates badges and the high score streak whenever a
// design is recorded for an account.
type AchievementEvaluator struct {
	accounts repository.AccountRepository
	designs  repository.DesignRepository
	logger   zerolog.Logger
}

func NewAchievementEvaluator(accounts repository.AccountRepository, designs repository.DesignRepository, logger zerolog.Logger) *AchievementEvaluator {
	return &AchievementEvaluator{
		accounts: accounts,
		designs:  designs,
		logger:   logger.With().Str("service", "AchievementEvaluator").Logger(),
	}
}

// Evaluate recomputes the achievement state of accountID after a design
// scoring latestScore was stored.
func (e *AchievementEvaluator) Evaluate(ctx context.Context, accountID string, latestScore int) (*model.AchievementState, error) {
	count, err := e.designs.CountDesignsByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("counting designs: %w", err)
	}
	var unlocked []string
	state, err := e.accounts.UpdateAchievements(ctx, accountID, func(s *model.AchievementState) error {
		next := evaluateAchievements(*s, count, latestScore)
		for _, id := range next.Achievements {
			if !slices.Contains(s.Achievements, id) {
				unlocked = append(unlocked, id)
			}
		}
		*s = next
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("updating achievements: %w", err)
	}
	if len(unlocked) > 0 {
		e.logger.Info().Str("account_id", accountID).Strs("achievements", unlocked).Msg("Achievements unlocked")
	}
	return state, nil
}

// DesignRecorded implements DesignObserver.
func (e *AchievementEvaluator) DesignRecorded(ctx context.Context, d *model.Design) error {
	_, err := e.Evaluate(ctx, d.AccountID, d.ComplianceScore)
	return err
}
