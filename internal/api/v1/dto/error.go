package dto

// ErrorResponseDTO is the body of every error response.
type ErrorResponseDTO struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
