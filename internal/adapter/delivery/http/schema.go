package http

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/vadimbarashkov/shortcode/internal/entity"
)

const (
	statusOK    = "ok"
	statusError = "error"
)

// maxURLLength is the longest original URL accepted.
const maxURLLength = 2083

// shortenRequest represents the structure for a request to shorten a URL.
type shortenRequest struct {
	OriginalURL string `json:"original_url" validate:"required,max=2083,http_url"`
}

// shortenResponse is returned for both new and repeated submissions.
// ShortURL carries the short code.
type shortenResponse struct {
	ShortURL    string    `json:"short_url"`
	OriginalURL string    `json:"original_url"`
	CreatedAt   time.Time `json:"created_at"`
}

func toShortenResponse(url *entity.URL) shortenResponse {
	return shortenResponse{
		ShortURL:    url.ShortCode,
		OriginalURL: url.OriginalURL,
		CreatedAt:   url.CreatedAt,
	}
}

type resolveResponse struct {
	URL string `json:"url"`
}

// urlStatsResponse represents the structure for a response containing URL statistics.
type urlStatsResponse struct {
	ShortCode   string    `json:"short_code"`
	OriginalURL string    `json:"original_url"`
	CreatedAt   time.Time `json:"created_at"`
	Clicks      int64     `json:"clicks"`
}

func toURLStatsResponse(url *entity.URL) urlStatsResponse {
	return urlStatsResponse{
		ShortCode:   url.ShortCode,
		OriginalURL: url.OriginalURL,
		CreatedAt:   url.CreatedAt,
		Clicks:      url.Clicks,
	}
}

type rootResponse struct {
	Message   string            `json:"message"`
	Endpoints map[string]string `json:"endpoints"`
}

var serviceDescription = rootResponse{
	Message: "Welcome to URL Shortener API",
	Endpoints: map[string]string{
		"POST /shorten":           "Create a short URL",
		"GET /{short_code}":       "Resolve a short URL and count the visit",
		"GET /stats/{short_code}": "Get URL statistics",
	},
}

type healthResponse struct {
	Status string `json:"status"`
}

// validationError represents an individual validation error.
type validationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// errorResponse represents a structured error response.
type errorResponse struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Errors  []validationError `json:"errors,omitempty"`
}

var (
	emptyRequestBodyResponse = errorResponse{
		Status:  statusError,
		Message: "empty request body",
	}

	invalidRequestBodyResponse = errorResponse{
		Status:  statusError,
		Message: "invalid request body",
	}

	urlNotFoundResponse = errorResponse{
		Status:  statusError,
		Message: "url not found",
	}

	allocationExhaustedResponse = errorResponse{
		Status:  statusError,
		Message: "no short code available, try again later",
	}

	storeUnavailableResponse = errorResponse{
		Status:  statusError,
		Message: "store unavailable",
	}

	serverErrorResponse = errorResponse{
		Status:  statusError,
		Message: "server error occurred",
	}
)

func messageForTag(tag string) string {
	switch tag {
	case "required":
		return "this field is required"
	case "url", "http_url":
		return "invalid url"
	case "max":
		return fmt.Sprintf("url must be at most %d characters", maxURLLength)
	default:
		return "invalid value"
	}
}

func getValidationErrors(err error) []validationError {
	var validationErrs []validationError

	errs, ok := err.(validator.ValidationErrors)
	if ok {
		for _, e := range errs {
			validationErrs = append(validationErrs, validationError{
				Field:   e.Field(),
				Message: messageForTag(e.Tag()),
			})
		}
	}

	return validationErrs
}

func validationErrorResponse(err error) errorResponse {
	return errorResponse{
		Status:  statusError,
		Message: "validation error",
		Errors:  getValidationErrors(err),
	}
}
