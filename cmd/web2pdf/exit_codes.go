package main

import (
	"errors"
	"os"

	web2pdf "github.com/alnah/go-web2pdf"
)

// Exit codes for the web2pdf CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // All captures succeeded
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags or options
	ExitIO      = 3 // File write or permission errors
	ExitBrowser = 4 // Browser/Chrome errors
	ExitNetwork = 5 // Navigation, DNS, or timeout errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser errors (exit 4)
	if errors.Is(err, web2pdf.ErrBrowserConnect) ||
		errors.Is(err, web2pdf.ErrPageCreate) ||
		errors.Is(err, ErrServiceInit) {
		return ExitBrowser
	}

	// Network errors (exit 5)
	if errors.Is(err, web2pdf.ErrNavigation) ||
		errors.Is(err, web2pdf.ErrNavigationTimeout) ||
		errors.Is(err, web2pdf.ErrDNSResolution) {
		return ExitNetwork
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrWritePDF) {
		return ExitIO
	}

	// Usage/validation errors (exit 2)
	if errors.Is(err, web2pdf.ErrInvalidURL) ||
		errors.Is(err, web2pdf.ErrDisallowedAddress) ||
		errors.Is(err, web2pdf.ErrInvalidOptions) ||
		errors.Is(err, web2pdf.ErrConfiguration) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrInvalidWorkers) ||
		errors.Is(err, ErrInvalidDuration) {
		return ExitUsage
	}

	return ExitGeneral
}
