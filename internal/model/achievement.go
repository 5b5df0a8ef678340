package model

const (
	AchievementFirstFiveDesigns = "first-5-designs"
	AchievementHighScorerStreak = "high-scorer-streak"
	AchievementQuickFixer       = "one-click-fixer"
)

const (
	FirstDesignsThreshold = 5
	HighScoreThreshold    = 90
	HighScoreStreakTarget = 3
)

// AchievementState is the gamification slice of an Account.
type AchievementState struct {
	Achievements    []string `json:"achievements"`
	HighScoreStreak int      `json:"high_score_streak"`
}
