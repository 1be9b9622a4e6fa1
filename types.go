package web2pdf

import (
	"fmt"
	"strings"
	"time"
)

// Viewport quality constants. Each maps to a fixed viewport size.
const (
	ViewportLow    = "low"
	ViewportMedium = "medium"
	ViewportHigh   = "high"
)

// Page format constants. FormatAuto sizes each PDF page to its image.
const (
	FormatAuto   = "auto"
	FormatA4     = "a4"
	FormatLetter = "letter"
	FormatLegal  = "legal"
	FormatA3     = "a3"
)

// Orientation constants.
const (
	OrientationPortrait  = "portrait"
	OrientationLandscape = "landscape"
)

// Image quality constants. Each maps to a JPEG re-encoding level.
const (
	QualityLow    = "low"
	QualityMedium = "medium"
	QualityHigh   = "high"
)

// Defaults applied by CaptureOptions.withDefaults.
const (
	DefaultOverlapPx   = 50
	DefaultScrollWait  = 600 * time.Millisecond
	DefaultContentWait = 10 * time.Second
)

// CaptureRequest names the page to capture and how to capture it. Progress,
// when set, receives this capture's milestones instead of the service-level
// sink.
type CaptureRequest struct {
	URL      string
	Options  CaptureOptions
	Progress ProgressSink
}

// CaptureOptions configures a single capture. The zero value is usable:
// every field falls back to a documented default, so absent fields never
// cause failure.
type CaptureOptions struct {
	// Viewport selects the emulated viewport size: "low" (1024x768),
	// "medium" (1366x768, default), or "high" (1920x1080).
	Viewport string

	// OverlapPx is the number of pixel rows shared by consecutive scroll
	// segments. Must be >= 0 and strictly less than the viewport height.
	// Zero means "use default"; use ExactOverlap to request no overlap.
	OverlapPx int

	// ExactOverlap disables the OverlapPx default so a zero overlap is
	// honored as-is.
	ExactOverlap bool

	// MaxLinks bounds how many additional same-origin pages are captured
	// after the origin URL. Zero (default) captures the origin only.
	MaxLinks int

	// ScrollWait is the settle delay after each scroll before the segment
	// screenshot is taken.
	ScrollWait time.Duration

	// ContentWait bounds how long to wait for referenced images and
	// lazy-loaded content after navigation.
	ContentWait time.Duration

	// Format selects the PDF page geometry: "auto" (default, one page per
	// image at pixel size), or "a4", "letter", "legal", "a3".
	Format string

	// Orientation applies to fixed formats: "portrait" (default) or
	// "landscape".
	Orientation string

	// Quality selects the JPEG re-encoding level for captured images:
	// "low", "medium" (default), or "high".
	Quality string

	// CombinePages stacks each URL's merged images into one tall composite,
	// producing a single PDF page per captured URL.
	CombinePages bool

	// AIOptimize enables the optional content-enrichment pass (metadata,
	// clutter removal). Its absence or failure never blocks composition.
	AIOptimize bool
}

// PageDimensions describes a rendered page, measured once after content has
// settled. The measurement is not refreshed mid-capture: a page that grows
// afterwards may yield an incomplete final segment.
type PageDimensions struct {
	TotalWidth     int
	TotalHeight    int
	ViewportHeight int
}

// CaptureSegment is one raw region screenshot at a planned scroll offset.
type CaptureSegment struct {
	OffsetY    int
	Raw        []byte
	CapturedAt time.Time
}

// DocumentMetadata is attached to the composed PDF. Keyword and description
// fields may come from the content-enrichment collaborator and default to
// empty values when absent.
type DocumentMetadata struct {
	Title       string
	Author      string
	Description string
	Keywords    []string
}

// viewportSize maps a viewport quality name to fixed pixel dimensions.
func viewportSize(quality string) (width, height int) {
	switch strings.ToLower(quality) {
	case ViewportLow:
		return 1024, 768
	case ViewportHigh:
		return 1920, 1080
	default:
		return 1366, 768
	}
}

// jpegQuality maps an image quality name to a JPEG encoding level.
func jpegQuality(quality string) int {
	switch strings.ToLower(quality) {
	case QualityLow:
		return 60
	case QualityHigh:
		return 95
	default:
		return 80
	}
}

// withDefaults returns a copy with every unset field filled in.
func (o CaptureOptions) withDefaults() CaptureOptions {
	if o.Viewport == "" {
		o.Viewport = ViewportMedium
	}
	if o.OverlapPx == 0 && !o.ExactOverlap {
		o.OverlapPx = DefaultOverlapPx
	}
	if o.ScrollWait == 0 {
		o.ScrollWait = DefaultScrollWait
	}
	if o.ContentWait == 0 {
		o.ContentWait = DefaultContentWait
	}
	if o.Format == "" {
		o.Format = FormatAuto
	}
	if o.Orientation == "" {
		o.Orientation = OrientationPortrait
	}
	if o.Quality == "" {
		o.Quality = QualityMedium
	}
	return o
}

// Validate checks that option values are recognized and internally
// consistent. Called on the defaulted copy at the capture boundary.
func (o CaptureOptions) Validate() error {
	switch strings.ToLower(o.Viewport) {
	case ViewportLow, ViewportMedium, ViewportHigh:
	default:
		return fmt.Errorf("%w: viewport %q", ErrInvalidOptions, o.Viewport)
	}

	switch strings.ToLower(o.Format) {
	case FormatAuto, FormatA4, FormatLetter, FormatLegal, FormatA3:
	default:
		return fmt.Errorf("%w: format %q", ErrInvalidOptions, o.Format)
	}

	switch strings.ToLower(o.Orientation) {
	case OrientationPortrait, OrientationLandscape:
	default:
		return fmt.Errorf("%w: orientation %q", ErrInvalidOptions, o.Orientation)
	}

	switch strings.ToLower(o.Quality) {
	case QualityLow, QualityMedium, QualityHigh:
	default:
		return fmt.Errorf("%w: quality %q", ErrInvalidOptions, o.Quality)
	}

	if o.OverlapPx < 0 {
		return fmt.Errorf("%w: overlap %d must be >= 0", ErrInvalidOptions, o.OverlapPx)
	}
	if o.MaxLinks < 0 {
		return fmt.Errorf("%w: maxLinks %d must be >= 0", ErrInvalidOptions, o.MaxLinks)
	}

	_, vh := viewportSize(o.Viewport)
	if o.OverlapPx >= vh {
		return fmt.Errorf("%w: overlap %d must be smaller than viewport height %d",
			ErrConfiguration, o.OverlapPx, vh)
	}

	return nil
}

// Option configures a Service.
type Option func(*Service)

// serviceConfig holds internal configuration for Service.
type serviceConfig struct {
	timeout    time.Duration
	navTimeout time.Duration
}

// Default timeouts. The capture timeout bounds the whole request; the
// navigation timeout bounds the first (strict) navigation attempt.
const (
	defaultTimeout    = 3 * time.Minute
	defaultNavTimeout = 45 * time.Second
)

// WithTimeout sets the total capture time budget.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("web2pdf: WithTimeout duration must be positive")
	}
	return func(s *Service) {
		s.cfg.timeout = d
	}
}

// WithNavigationTimeout sets the strict first-attempt navigation timeout.
// The fallback attempt uses half this value.
func WithNavigationTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("web2pdf: WithNavigationTimeout duration must be positive")
	}
	return func(s *Service) {
		s.cfg.navTimeout = d
	}
}
