package web2pdf

import "errors"

// Sentinel errors for capture operations.
var (
	// Validation errors. Returned before any network or browser activity.
	ErrInvalidURL        = errors.New("url must be an absolute http or https URL")
	ErrDisallowedAddress = errors.New("url resolves to a disallowed address")
	ErrInvalidOptions    = errors.New("invalid capture options")

	// Navigation errors, categorized by underlying cause.
	ErrNavigation        = errors.New("page navigation failed")
	ErrNavigationTimeout = errors.New("page navigation timed out")
	ErrDNSResolution     = errors.New("DNS resolution failed")

	// ErrConfiguration marks internally inconsistent options, such as a
	// scroll overlap that equals or exceeds the viewport height.
	ErrConfiguration = errors.New("inconsistent capture configuration")

	// ErrCaptureFailed means every planned segment failed for a URL.
	ErrCaptureFailed = errors.New("all segment captures failed")

	// ErrNoContent means zero valid images reached PDF composition.
	ErrNoContent = errors.New("no valid images to compose")

	// Browser lifecycle errors.
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
)
