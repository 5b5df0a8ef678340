package dto

type ExtractColorsDTO struct {
	Image string `json:"image" validate:"required,startswith=data:"`
}

type ExtractColorsResponseDTO struct {
	ExtractedColors    []string `json:"extracted_colors"`
	ComplianceFeedback string   `json:"compliance_feedback"`
}

type TemplateDTO struct {
	TemplateName string `json:"template_name"`
	Image        string `json:"image"`
}

type TemplatesResponseDTO struct {
	Templates []TemplateDTO `json:"templates"`
}

// GenerateLayoutDTO needs at least one of its fields.
type GenerateLayoutDTO struct {
	Headline    string `json:"headline" validate:"max=200"`
	BodyText    string `json:"body_text" validate:"max=2000"`
	ImagePrompt string `json:"image_prompt" validate:"max=2000"`
}

type PromptToDesignDTO struct {
	Prompt string `json:"prompt" validate:"required,max=2000"`
}

// AssistantDTO asks the brand assistant a question, optionally about a design.
type AssistantDTO struct {
	Query string `json:"query" validate:"required,max=2000"`
	Image string `json:"image" validate:"omitempty,startswith=data:"`
}

type PanelAssistantDTO struct {
	ProjectID string `json:"project_id" validate:"required"`
	Query     string `json:"query" validate:"required,max=2000"`
	Image     string `json:"image" validate:"omitempty,startswith=data:"`
}

type AssistantResponseDTO struct {
	Response string `json:"response"`
}
