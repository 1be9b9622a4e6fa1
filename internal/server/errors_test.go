package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	web2pdf "github.com/alnah/go-web2pdf"
	"github.com/alnah/go-web2pdf/internal/jobs"
)

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid url", web2pdf.ErrInvalidURL, http.StatusBadRequest, CodeValidation},
		{"disallowed address", web2pdf.ErrDisallowedAddress, http.StatusBadRequest, CodeValidation},
		{"invalid options", web2pdf.ErrInvalidOptions, http.StatusBadRequest, CodeValidation},
		{"configuration", web2pdf.ErrConfiguration, http.StatusBadRequest, CodeValidation},
		{"dns", web2pdf.ErrDNSResolution, http.StatusBadRequest, CodeDNS},
		{"navigation timeout", web2pdf.ErrNavigationTimeout, http.StatusGatewayTimeout, CodeTimeout},
		{"context deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, CodeTimeout},
		{"navigation", web2pdf.ErrNavigation, http.StatusBadGateway, CodeWebsiteLoad},
		{"capture failed", web2pdf.ErrCaptureFailed, http.StatusBadGateway, CodeWebsiteLoad},
		{"no content", web2pdf.ErrNoContent, http.StatusBadGateway, CodeWebsiteLoad},
		{"job not found", jobs.ErrNotFound, http.StatusNotFound, CodeNotFound},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, CodeInternal},
		{
			name:       "wrapped error keeps its category",
			err:        fmt.Errorf("capturing https://x: %w", web2pdf.ErrNavigationTimeout),
			wantStatus: http.StatusGatewayTimeout,
			wantCode:   CodeTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			status, code := mapError(tt.err)
			if status != tt.wantStatus || code != tt.wantCode {
				t.Errorf("mapError(%v) = %d/%s, want %d/%s",
					tt.err, status, code, tt.wantStatus, tt.wantCode)
			}
		})
	}
}
