package model

// Strictness tunes how harshly the model scores a design for its context.
type Strictness string

const (
	StrictnessStrict   Strictness = "strict"
	StrictnessStandard Strictness = "standard"
	StrictnessLenient  Strictness = "lenient"
)

var contextStrictness = map[string]Strictness{
	"Business Presentation": StrictnessStrict,
	"Marketing Flyer":       StrictnessStrict,
	"Print Advertisement":   StrictnessStrict,
	"Website Banner":        StrictnessStandard,
	"Email Newsletter":      StrictnessStandard,
	"Social Media Post":     StrictnessLenient,
	"Internal Memo":         StrictnessLenient,
}

// StrictnessFor maps a design context to its scoring strictness. Unknown
// contexts are scored with standard strictness.
func StrictnessFor(designContext string) Strictness {
	if s, ok := contextStrictness[designContext]; ok {
		return s
	}
	return StrictnessStandard
}
