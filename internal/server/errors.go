package server

import (
	"context"
	"errors"
	"net/http"

	web2pdf "github.com/alnah/go-web2pdf"
	"github.com/alnah/go-web2pdf/internal/jobs"
)

// API error codes returned in the structured error envelope.
const (
	CodeValidation  = "VALIDATION_ERROR"
	CodeTimeout     = "TIMEOUT_ERROR"
	CodeWebsiteLoad = "WEBSITE_LOAD_ERROR"
	CodeDNS         = "DNS_ERROR"
	CodeRateLimit   = "RATE_LIMIT_EXCEEDED"
	CodeInternal    = "INTERNAL_ERROR"
	CodeNotFound    = "NOT_FOUND"
)

// errorResponse is the structured error envelope.
type errorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

// mapError translates pipeline errors into an HTTP status and API code.
func mapError(err error) (status int, code string) {
	switch {
	case errors.Is(err, web2pdf.ErrInvalidURL),
		errors.Is(err, web2pdf.ErrDisallowedAddress),
		errors.Is(err, web2pdf.ErrInvalidOptions),
		errors.Is(err, web2pdf.ErrConfiguration):
		return http.StatusBadRequest, CodeValidation

	case errors.Is(err, web2pdf.ErrDNSResolution):
		return http.StatusBadRequest, CodeDNS

	case errors.Is(err, web2pdf.ErrNavigationTimeout),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, CodeTimeout

	case errors.Is(err, web2pdf.ErrNavigation),
		errors.Is(err, web2pdf.ErrCaptureFailed),
		errors.Is(err, web2pdf.ErrNoContent):
		return http.StatusBadGateway, CodeWebsiteLoad

	case errors.Is(err, jobs.ErrNotFound):
		return http.StatusNotFound, CodeNotFound

	default:
		return http.StatusInternalServerError, CodeInternal
	}
}
