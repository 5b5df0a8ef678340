package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"regexp"
	"strings"
	"time"

	"brandguard/internal/model"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// GeminiConfig configures the Gemini backed ModelGateway.
type GeminiConfig struct {
	BaseURL        string
	APIKey         string
	AnalysisModel  string
	ImageModel     string
	MaxConcurrency int64
	HTTPClient     *http.Client
}

type geminiGateway struct {
	client        *http.Client
	baseURL       string
	apiKey        string
	analysisModel string
	imageModel    string
	sem           *semaphore.Weighted
	logger        zerolog.Logger
}

// NewGeminiGateway creates a ModelGateway that talks to the Gemini
// generateContent API. At most MaxConcurrency requests are in flight.
func NewGeminiGateway(cfg GeminiConfig, logger zerolog.Logger) ModelGateway {
	client := cfg.HTTPClient
	if client == nil {
		// Per-call deadlines come from the caller's context.
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 1
	}
	return &geminiGateway{
		client:        client,
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:        cfg.APIKey,
		analysisModel: cfg.AnalysisModel,
		imageModel:    cfg.ImageModel,
		sem:           semaphore.NewWeighted(cfg.MaxConcurrency),
		logger:        logger.With().Str("service", "GeminiGateway").Logger(),
	}
}

type geminiInlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	ResponseMIMEType   string         `json:"responseMimeType,omitempty"`
	ResponseSchema     map[string]any `json:"responseSchema,omitempty"`
	ResponseModalities []string       `json:"responseModalities,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
}

func textPart(format string, args ...any) geminiPart {
	return geminiPart{Text: fmt.Sprintf(format, args...)}
}

func imagePart(img model.Image) geminiPart {
	return geminiPart{InlineData: &geminiInlineData{MIMEType: img.MIMEType, Data: img.Base64()}}
}

func fingerprintJSON(fp model.BrandFingerprint) string {
	b, _ := json.MarshalIndent(fp, "", "  ")
	return string(b)
}

func (g *geminiGateway) generate(ctx context.Context, modelName string, parts []geminiPart, genCfg geminiGenerationConfig) (*geminiResponse, error) {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting for model capacity: %w", err)
	}
	defer g.sem.Release(1)

	body, err := json.Marshal(geminiRequest{
		Contents:         []geminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: genCfg,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, modelName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create model request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("model request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read model response: %w", err)
	}
	g.logger.Debug().Str("model", modelName).Int("status", resp.StatusCode).Dur("duration", time.Since(start)).Msg("generateContent")

	if resp.StatusCode != http.StatusOK {
		var errorResp struct {
			Error struct {
				Message string `json:"message"`
				Status  string `json:"status"`
			} `json:"error"`
		}
		if err := json.Unmarshal(respBody, &errorResp); err == nil && errorResp.Error.Message != "" {
			return nil, fmt.Errorf("model returned HTTP %d: %s", resp.StatusCode, errorResp.Error.Message)
		}
		return nil, fmt.Errorf("model returned HTTP %d", resp.StatusCode)
	}

	var out geminiResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("invalid response format from model: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return nil, ErrEmptyModelResponse
	}
	return &out, nil
}

// generateJSON asks the analysis model for JSON matching schema and decodes it into out.
func (g *geminiGateway) generateJSON(ctx context.Context, parts []geminiPart, schema map[string]any, out any) error {
	resp, err := g.generate(ctx, g.analysisModel, parts, geminiGenerationConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	})
	if err != nil {
		return err
	}
	var text strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	if strings.TrimSpace(text.String()) == "" {
		return ErrEmptyModelResponse
	}
	if err := json.Unmarshal([]byte(text.String()), out); err != nil {
		return fmt.Errorf("model output does not match schema: %w", err)
	}
	return nil
}

// generateImage asks the image model for an image and returns the first one produced.
func (g *geminiGateway) generateImage(ctx context.Context, parts []geminiPart) (model.Image, error) {
	resp, err := g.generate(ctx, g.imageModel, parts, geminiGenerationConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	})
	if err != nil {
		return model.Image{}, err
	}
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.InlineData == nil || p.InlineData.Data == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
		if err != nil {
			return model.Image{}, fmt.Errorf("decoding model image: %w", err)
		}
		img, err := model.NewImage(data)
		if err != nil {
			return model.Image{}, fmt.Errorf("model image: %w", err)
		}
		return img, nil
	}
	return model.Image{}, ErrEmptyModelResponse
}

var scoreSchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"complianceScore": map[string]any{"type": "NUMBER"},
		"feedback":        map[string]any{"type": "STRING"},
	},
	"required": []string{"complianceScore", "feedback"},
}

func (g *geminiGateway) Score(ctx context.Context, req DesignRequest) (*ScoreResult, error) {
	var out struct {
		ComplianceScore *float64 `json:"complianceScore"`
		Feedback        string   `json:"feedback"`
	}
	parts := []geminiPart{
		textPart(scorePrompt, req.DesignContext, req.Strictness, fingerprintJSON(req.Fingerprint)),
		imagePart(req.Image),
	}
	if err := g.generateJSON(ctx, parts, scoreSchema, &out); err != nil {
		return nil, err
	}
	if out.ComplianceScore == nil || math.IsNaN(*out.ComplianceScore) || *out.ComplianceScore < 0 || *out.ComplianceScore > 100 {
		return nil, fmt.Errorf("model returned an invalid compliance score")
	}
	if strings.TrimSpace(out.Feedback) == "" {
		return nil, fmt.Errorf("model returned no feedback")
	}
	return &ScoreResult{Score: int(math.Round(*out.ComplianceScore)), Feedback: out.Feedback}, nil
}

var fixesSchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"fixes": map[string]any{
			"type": "ARRAY",
			"items": map[string]any{
				"type": "OBJECT",
				"properties": map[string]any{
					"description": map[string]any{"type": "STRING"},
					"type":        map[string]any{"type": "STRING", "enum": []string{"color", "typography", "layout"}},
					"details": map[string]any{
						"type": "OBJECT",
						"properties": map[string]any{
							"action":        map[string]any{"type": "STRING"},
							"targetElement": map[string]any{"type": "STRING"},
							"property":      map[string]any{"type": "STRING"},
							"newValue":      map[string]any{"type": "STRING"},
						},
						"required": []string{"action", "targetElement", "property", "newValue"},
					},
				},
				"required": []string{"description", "type", "details"},
			},
		},
	},
	"required": []string{"fixes"},
}

type geminiFix struct {
	Description string `json:"description"`
	Type        string `json:"type"`
	Details     struct {
		Action        string `json:"action"`
		TargetElement string `json:"targetElement"`
		Property      string `json:"property"`
		NewValue      string `json:"newValue"`
	} `json:"details"`
}

func (g *geminiGateway) SuggestFixes(ctx context.Context, req DesignRequest) ([]model.Fix, error) {
	var out struct {
		Fixes *[]geminiFix `json:"fixes"`
	}
	parts := []geminiPart{
		textPart(fixesPrompt, req.DesignContext, req.Strictness, fingerprintJSON(req.Fingerprint)),
		imagePart(req.Image),
	}
	if err := g.generateJSON(ctx, parts, fixesSchema, &out); err != nil {
		return nil, err
	}
	if out.Fixes == nil {
		return nil, fmt.Errorf("model returned no fix list")
	}
	fixes := make([]model.Fix, 0, len(*out.Fixes))
	for i, f := range *out.Fixes {
		fix := model.Fix{
			Description: strings.TrimSpace(f.Description),
			Category:    model.FixCategory(f.Type),
			Details: model.FixAction{
				Action:        f.Details.Action,
				TargetElement: f.Details.TargetElement,
				Property:      f.Details.Property,
				NewValue:      f.Details.NewValue,
			},
		}
		if fix.Description == "" || !fix.Category.Valid() || fix.Details.Action == "" || fix.Details.Property == "" {
			return nil, fmt.Errorf("model returned malformed fix at index %d", i)
		}
		fixes = append(fixes, fix)
	}
	return fixes, nil
}

func (g *geminiGateway) ApplyFixes(ctx context.Context, img model.Image, fp model.BrandFingerprint, fixes []model.Fix) (model.Image, error) {
	list, err := json.MarshalIndent(fixes, "", "  ")
	if err != nil {
		return model.Image{}, fmt.Errorf("encoding fixes: %w", err)
	}
	return g.generateImage(ctx, []geminiPart{
		textPart(applyFixesPrompt, fingerprintJSON(fp), string(list)),
		imagePart(img),
	})
}

func (g *geminiGateway) HighlightDifferences(ctx context.Context, original, corrected model.Image) (model.Image, error) {
	return g.generateImage(ctx, []geminiPart{
		{Text: highlightPrompt},
		imagePart(original),
		imagePart(corrected),
	})
}

var fingerprintSchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"primaryColors":            map[string]any{"type": "ARRAY", "items": map[string]any{"type": "STRING"}},
		"secondaryColors":          map[string]any{"type": "ARRAY", "items": map[string]any{"type": "STRING"}},
		"typographyStyle":          map[string]any{"type": "STRING"},
		"logoPlacementPreferences": map[string]any{"type": "STRING"},
		"overallDesignAesthetic":   map[string]any{"type": "STRING"},
	},
	"required": []string{"primaryColors", "secondaryColors", "typographyStyle", "logoPlacementPreferences", "overallDesignAesthetic"},
}

func (g *geminiGateway) AnalyzeBrand(ctx context.Context, logo model.Image, description string) (*model.BrandFingerprint, error) {
	var out struct {
		PrimaryColors            []string `json:"primaryColors"`
		SecondaryColors          []string `json:"secondaryColors"`
		TypographyStyle          string   `json:"typographyStyle"`
		LogoPlacementPreferences string   `json:"logoPlacementPreferences"`
		OverallDesignAesthetic   string   `json:"overallDesignAesthetic"`
	}
	parts := []geminiPart{textPart(analyzeBrandPrompt, description), imagePart(logo)}
	if err := g.generateJSON(ctx, parts, fingerprintSchema, &out); err != nil {
		return nil, err
	}
	fp := &model.BrandFingerprint{
		PrimaryColors:            out.PrimaryColors,
		SecondaryColors:          out.SecondaryColors,
		TypographyStyle:          out.TypographyStyle,
		LogoPlacementPreferences: out.LogoPlacementPreferences,
		OverallDesignAesthetic:   out.OverallDesignAesthetic,
	}
	if len(fp.PrimaryColors) == 0 || fp.IsZero() {
		return nil, fmt.Errorf("model returned an empty fingerprint")
	}
	return fp, nil
}

var conflictsSchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"conflicts": map[string]any{
			"type": "ARRAY",
			"items": map[string]any{
				"type": "OBJECT",
				"properties": map[string]any{
					"type":        map[string]any{"type": "STRING", "enum": []string{"warning", "critical"}},
					"description": map[string]any{"type": "STRING"},
				},
				"required": []string{"type", "description"},
			},
		},
	},
	"required": []string{"conflicts"},
}

func (g *geminiGateway) DetectConflicts(ctx context.Context, fp model.BrandFingerprint) ([]model.Conflict, error) {
	var out struct {
		Conflicts *[]model.Conflict `json:"conflicts"`
	}
	if err := g.generateJSON(ctx, []geminiPart{textPart(conflictsPrompt, fingerprintJSON(fp))}, conflictsSchema, &out); err != nil {
		return nil, err
	}
	if out.Conflicts == nil {
		return nil, fmt.Errorf("model returned no conflict list")
	}
	for i, c := range *out.Conflicts {
		if (c.Severity != model.ConflictWarning && c.Severity != model.ConflictCritical) || c.Description == "" {
			return nil, fmt.Errorf("model returned malformed conflict at index %d", i)
		}
	}
	return *out.Conflicts, nil
}

var assetTagsSchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"type":      map[string]any{"type": "STRING", "enum": []string{"icon", "image", "logo"}},
		"tags":      map[string]any{"type": "ARRAY", "items": map[string]any{"type": "STRING"}},
		"aiSummary": map[string]any{"type": "STRING"},
	},
	"required": []string{"type", "tags", "aiSummary"},
}

func (g *geminiGateway) TagAsset(ctx context.Context, img model.Image, name string) (*AssetTags, error) {
	var out struct {
		Type      string   `json:"type"`
		Tags      []string `json:"tags"`
		AISummary string   `json:"aiSummary"`
	}
	if err := g.generateJSON(ctx, []geminiPart{textPart(tagAssetPrompt, name), imagePart(img)}, assetTagsSchema, &out); err != nil {
		return nil, err
	}
	assetType := model.AssetType(out.Type)
	if !assetType.Valid() || out.AISummary == "" {
		return nil, fmt.Errorf("model returned malformed asset tags")
	}
	return &AssetTags{Type: assetType, Tags: out.Tags, Summary: out.AISummary}, nil
}

var hexColor = regexp.MustCompile(`^#(?:[0-9A-F]{3}|[0-9A-F]{6})$`)

var colorsSchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"extractedColors":    map[string]any{"type": "ARRAY", "items": map[string]any{"type": "STRING"}},
		"complianceFeedback": map[string]any{"type": "STRING"},
	},
	"required": []string{"extractedColors", "complianceFeedback"},
}

func (g *geminiGateway) ExtractColors(ctx context.Context, img model.Image, fp model.BrandFingerprint) (*ColorExtraction, error) {
	var out struct {
		ExtractedColors    []string `json:"extractedColors"`
		ComplianceFeedback string   `json:"complianceFeedback"`
	}
	parts := []geminiPart{textPart(extractColorsPrompt, fingerprintJSON(fp)), imagePart(img)}
	if err := g.generateJSON(ctx, parts, colorsSchema, &out); err != nil {
		return nil, err
	}
	if len(out.ExtractedColors) == 0 {
		return nil, fmt.Errorf("model returned no colors")
	}
	colors := make([]string, 0, len(out.ExtractedColors))
	for i, c := range out.ExtractedColors {
		c = strings.ToUpper(strings.TrimSpace(c))
		if !hexColor.MatchString(c) {
			return nil, fmt.Errorf("model returned malformed color at index %d", i)
		}
		colors = append(colors, c)
	}
	if strings.TrimSpace(out.ComplianceFeedback) == "" {
		return nil, fmt.Errorf("model returned no feedback")
	}
	return &ColorExtraction{Colors: colors, Feedback: out.ComplianceFeedback}, nil
}

func (g *geminiGateway) GenerateTemplate(ctx context.Context, fp model.BrandFingerprint, kind model.TemplateKind) (model.Image, error) {
	return g.generateImage(ctx, []geminiPart{textPart(templatePrompt, kind, fingerprintJSON(fp))})
}

func (g *geminiGateway) GenerateLayout(ctx context.Context, fp model.BrandFingerprint, req LayoutRequest) (model.Image, error) {
	return g.generateImage(ctx, []geminiPart{
		textPart(layoutPrompt, fingerprintJSON(fp), req.Headline, req.BodyText, req.ImagePrompt),
	})
}

func (g *geminiGateway) PromptToDesign(ctx context.Context, fp model.BrandFingerprint, prompt string) (model.Image, error) {
	return g.generateImage(ctx, []geminiPart{textPart(promptDesignPrompt, prompt, fingerprintJSON(fp))})
}

func (g *geminiGateway) AskAssistant(ctx context.Context, q AssistantQuery) (string, error) {
	parts := []geminiPart{textPart(assistantPrompt, fingerprintJSON(q.Fingerprint), q.Question)}
	if q.Design != nil && !q.Design.IsEmpty() {
		parts = append(parts, imagePart(*q.Design))
	}
	resp, err := g.generate(ctx, g.analysisModel, parts, geminiGenerationConfig{})
	if err != nil {
		return "", err
	}
	var text strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	answer := strings.TrimSpace(text.String())
	if answer == "" {
		return "", ErrEmptyModelResponse
	}
	return answer, nil
}
