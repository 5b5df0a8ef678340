package service

import (
	"context"
	"errors"

	"brandguard/internal/model"
)

// ErrEmptyModelResponse is returned by a gateway when the model produced no usable output.
var ErrEmptyModelResponse = errors.New("empty model response")

// DesignRequest is what the model needs to judge a design.
type DesignRequest struct {
	Image         model.Image
	Fingerprint   model.BrandFingerprint
	DesignContext string
	Strictness    model.Strictness
}

type ScoreResult struct {
	Score    int
	Feedback string
}

type AssetTags struct {
	Type    model.AssetType
	Tags    []string
	Summary string
}

// ColorExtraction is the palette pulled from an image plus a note on how it
// relates to the brand.
type ColorExtraction struct {
	Colors   []string
	Feedback string
}

// LayoutRequest needs at least one non-empty field.
type LayoutRequest struct {
	Headline    string
	BodyText    string
	ImagePrompt string
}

// AssistantQuery is a free-form brand question, optionally about a design.
type AssistantQuery struct {
	Fingerprint model.BrandFingerprint
	Question    string
	Design      *model.Image
}

// ModelGateway is the boundary to the external image understanding and
// generation service. Implementations return an error for any malformed or
// empty output; callers never receive defaulted results.
type ModelGateway interface {
	Score(ctx context.Context, req DesignRequest) (*ScoreResult, error)
	SuggestFixes(ctx context.Context, req DesignRequest) ([]model.Fix, error)
	ApplyFixes(ctx context.Context, img model.Image, fp model.BrandFingerprint, fixes []model.Fix) (model.Image, error)
	HighlightDifferences(ctx context.Context, original, corrected model.Image) (model.Image, error)
	AnalyzeBrand(ctx context.Context, logo model.Image, description string) (*model.BrandFingerprint, error)
	DetectConflicts(ctx context.Context, fp model.BrandFingerprint) ([]model.Conflict, error)
	TagAsset(ctx context.Context, img model.Image, name string) (*AssetTags, error)

	ExtractColors(ctx context.Context, img model.Image, fp model.BrandFingerprint) (*ColorExtraction, error)
	GenerateTemplate(ctx context.Context, fp model.BrandFingerprint, kind model.TemplateKind) (model.Image, error)
	GenerateLayout(ctx context.Context, fp model.BrandFingerprint, req LayoutRequest) (model.Image, error)
	PromptToDesign(ctx context.Context, fp model.BrandFingerprint, prompt string) (model.Image, error)
	AskAssistant(ctx context.Context, q AssistantQuery) (string, error)
}
