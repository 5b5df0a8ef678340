package model

import (
	"strings"
	"time"
)

// BrandFingerprint is the ruleset designs are checked against.
type BrandFingerprint struct {
	PrimaryColors            []string `json:"primary_colors" validate:"dive,hexcolor"`
	SecondaryColors          []string `json:"secondary_colors" validate:"dive,hexcolor"`
	TypographyStyle          string   `json:"typography_style" validate:"max=2000"`
	LogoPlacementPreferences string   `json:"logo_placement_preferences" validate:"max=2000"`
	OverallDesignAesthetic   string   `json:"overall_design_aesthetic" validate:"max=2000"`
}

// IsZero reports whether the fingerprint carries no rules at all.
func (f *BrandFingerprint) IsZero() bool {
	if f == nil {
		return true
	}
	return len(f.PrimaryColors) == 0 &&
		len(f.SecondaryColors) == 0 &&
		strings.TrimSpace(f.TypographyStyle) == "" &&
		strings.TrimSpace(f.LogoPlacementPreferences) == "" &&
		strings.TrimSpace(f.OverallDesignAesthetic) == ""
}

// Project owns a brand fingerprint and the designs checked against it.
type Project struct {
	ID               string           `db:"id" json:"id"`
	OwnerID          string           `db:"owner_id" json:"owner_id"`
	Name             string           `db:"name" json:"name"`
	BrandDescription string           `db:"brand_description" json:"brand_description"`
	LogoKey          string           `db:"logo_key" json:"-"`
	Fingerprint      BrandFingerprint `db:"brand_fingerprint" json:"brand_fingerprint"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}

type ConflictSeverity string

const (
	ConflictWarning  ConflictSeverity = "warning"
	ConflictCritical ConflictSeverity = "critical"
)

// Conflict is an issue found inside a fingerprint before it is saved.
type Conflict struct {
	Severity    ConflictSeverity `json:"type"`
	Description string           `json:"description"`
}
