package model

// TemplateKind is a starter layout generated from a brand fingerprint.
type TemplateKind string

const (
	TemplateSocialMediaPost   TemplateKind = "Social Media Post"
	TemplatePresentationSlide TemplateKind = "Presentation Slide"
	TemplateWebsiteBanner     TemplateKind = "Website Banner"
)

// TemplateKinds lists the kinds produced by one template generation, in response order.
var TemplateKinds = []TemplateKind{TemplateSocialMediaPost, TemplatePresentationSlide, TemplateWebsiteBanner}

// Template is a generated starter design.
type Template struct {
	Kind  TemplateKind
	Image Image
}
