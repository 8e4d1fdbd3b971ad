// Package response defines the JSON envelope every endpoint returns.
package response

import (
	"net/http"

	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal"
)

type APIResponse struct {
	Data  interface{}        `json:"data,omitempty"`
	Meta  map[string]any     `json:"meta,omitempty"`
	Error *internal.AppError `json:"error,omitempty"`
}

func Success(data interface{}, meta map[string]any) APIResponse {
	return APIResponse{Data: data, Meta: meta, Error: nil}
}

func BadRequest(msg string) APIResponse {
	return NewAppError(http.StatusBadRequest, msg)
}

func Unauthorized(msg string) APIResponse {
	return NewAppError(http.StatusUnauthorized, msg)
}

func NotFound(msg string) APIResponse {
	return NewAppError(http.StatusNotFound, msg)
}

// Unprocessable is for well-formed input the model rejected, such as a photo
// that does not show what the endpoint analyzes.
func Unprocessable(msg string) APIResponse {
	return NewAppError(http.StatusUnprocessableEntity, msg)
}

func InternalError(msg string) APIResponse {
	return NewAppError(http.StatusInternalServerError, msg)
}

// BadGateway and ServiceUnavailable report failures of the model and
// retrieval upstreams respectively.
func BadGateway(msg string) APIResponse {
	return NewAppError(http.StatusBadGateway, msg)
}

func ServiceUnavailable(msg string) APIResponse {
	return NewAppError(http.StatusServiceUnavailable, msg)
}

func NewAppError(status int, msg string) APIResponse {
	return APIResponse{Error: internal.NewAppError(status, msg)}
}
