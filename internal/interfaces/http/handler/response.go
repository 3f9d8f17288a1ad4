package handler

import "github.com/logimaster/backend/internal/interfaces/http/dto"

// The types below exist only so the OpenAPI generator can name the
// response envelopes; handlers write dto.Response directly.

// APIResponse is the success envelope with a typed payload
// @Description Standard API response wrapper with typed data field
type APIResponse[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
	Meta    *dto.Meta      `json:"meta,omitempty"`
}

// ErrorResponse is the failure envelope
// @Description Standard error response
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}
