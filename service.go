package web2pdf

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/alnah/go-web2pdf/internal/fileutil"
	"github.com/alnah/go-web2pdf/internal/urlutil"
)

// activeSessions counts in-flight captures process-wide so status endpoints
// can report load.
var activeSessions atomic.Int64

// ActiveSessions reports how many captures are currently in flight.
func ActiveSessions() int64 {
	return activeSessions.Load()
}

// enrichTimeout bounds the optional enrichment call so a slow collaborator
// cannot stall composition.
const enrichTimeout = 20 * time.Second

// Service orchestrates the capture pipeline: validation, rendering, scroll
// planning, segment capture, seam merging, link discovery, and PDF
// composition. Each Service owns at most one browser engine; a capture owns
// its page exclusively for its duration.
type Service struct {
	cfg      serviceConfig
	renderer pageRenderer
	enricher Enricher
	progress ProgressSink
	logger   *log.Logger
	lookup   urlutil.LookupFunc
}

// New creates a Service with default configuration.
// Use options to customize behavior (e.g., WithTimeout, WithProgress).
func New(opts ...Option) *Service {
	s := &Service{
		cfg: serviceConfig{
			timeout:    defaultTimeout,
			navTimeout: defaultNavTimeout,
		},
		progress: noopProgress{},
		logger:   log.New(io.Discard),
		lookup:   urlutil.DefaultLookup,
	}

	for _, opt := range opts {
		opt(s)
	}

	// Create the browser renderer if not injected (e.g., by tests)
	if s.renderer == nil {
		s.renderer = newRodRenderer(s.logger)
	}

	return s
}

// WithLogger sets the structured logger used for capture diagnostics.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// EngineHealthy reports whether a connected browser engine is held. A false
// value is not an error: the engine launches lazily on the next capture.
func (s *Service) EngineHealthy() bool {
	return s.renderer.Healthy()
}

// Close releases the browser engine.
func (s *Service) Close() error {
	return s.renderer.Close()
}

// Capture runs the full pipeline for one request and returns the PDF bytes.
// The context bounds the whole capture in addition to the service timeout.
//
// Validation happens before any browser or network resource is acquired.
// Per-segment and per-link failures are recovered locally; the request fails
// end-to-end only on origin navigation failure, zero captured segments for
// the origin, zero composable images, or timeout.
func (s *Service) Capture(ctx context.Context, req CaptureRequest) ([]byte, error) {
	opts := req.Options.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	origin, err := validateRequestURL(req.URL, s.lookup)
	if err != nil {
		return nil, err
	}

	// A per-request sink overrides the service-level one.
	progress := s.progress
	if req.Progress != nil {
		progress = req.Progress
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.timeout)
	defer cancel()

	activeSessions.Add(1)
	defer activeSessions.Add(-1)

	workDir, err := fileutil.NewWorkDir("web2pdf")
	if err != nil {
		return nil, err
	}
	defer workDir.Release()

	viewportWidth, viewportHeight := viewportSize(opts.Viewport)
	renderOpts := renderOptions{
		viewportWidth:  viewportWidth,
		viewportHeight: viewportHeight,
		navTimeout:     s.cfg.navTimeout,
		contentWait:    opts.ContentWait,
		cleanupPage:    opts.AIOptimize,
	}

	progress.Progress(2, "navigating to "+origin.String())
	page, err := s.renderer.Render(ctx, origin.String(), renderOpts)
	if err != nil {
		return nil, err
	}
	progress.Progress(10, "content settled")

	meta := s.buildMetadata(ctx, page, origin.String(), opts)
	targets := discoverLinks(page, origin, opts.MaxLinks, s.logger)

	merged := make([]MergedPageImage, 0, len(targets))

	originImages, err := s.capturePage(ctx, page, opts, viewportHeight)
	if closeErr := page.Close(); closeErr != nil {
		s.logger.Debug("closing origin page", "err", closeErr)
	}
	if err != nil {
		return nil, err
	}
	merged = append(merged, MergedPageImage{SourceURL: origin.String(), Images: originImages})
	progress.Progress(captureProgress(1, len(targets)), "captured "+origin.String())

	// Additional same-origin pages are best-effort: a broken link never
	// fails the request.
	for i, target := range targets[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		images, err := s.captureTarget(ctx, target, opts, renderOpts, viewportHeight)
		if err != nil {
			s.logger.Warn("linked page capture failed, skipping", "url", target, "err", err)
			continue
		}
		merged = append(merged, MergedPageImage{SourceURL: target, Images: images})
		progress.Progress(captureProgress(i+2, len(targets)), "captured "+target)
	}

	progress.Progress(90, "composing PDF")

	pdfPath := workDir.Join("capture.pdf")
	out, err := os.Create(pdfPath) // #nosec G304 -- path is inside our own temp dir
	if err != nil {
		return nil, fmt.Errorf("creating PDF artifact: %w", err)
	}

	pageCount, composeErr := composePDF(merged, opts, meta, out, s.logger)
	if err := out.Close(); err != nil && composeErr == nil {
		composeErr = fmt.Errorf("closing PDF artifact: %w", err)
	}
	if composeErr != nil {
		return nil, composeErr
	}

	pdfBytes, err := os.ReadFile(pdfPath) // #nosec G304 -- path is inside our own temp dir
	if err != nil {
		return nil, fmt.Errorf("reading PDF artifact: %w", err)
	}

	progress.Progress(100, fmt.Sprintf("done: %d pages", pageCount))
	return pdfBytes, nil
}

// capturePage measures a settled page, plans the scroll offsets, captures
// the segments in order, and merges the seams.
func (s *Service) capturePage(ctx context.Context, page renderedPage, opts CaptureOptions, viewportHeight int) ([]image.Image, error) {
	dims, err := page.Dimensions()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}
	if dims.ViewportHeight > 0 {
		viewportHeight = dims.ViewportHeight
	}

	plans, err := planOffsets(dims.TotalHeight, viewportHeight, opts.OverlapPx)
	if err != nil {
		return nil, err
	}

	segments, err := captureSegments(ctx, page, plans, opts.ScrollWait, s.logger)
	if err != nil {
		return nil, err
	}

	return mergeSegments(segments, opts.OverlapPx)
}

// captureTarget renders one discovered link and captures it with the same
// pipeline as the origin.
func (s *Service) captureTarget(ctx context.Context, target string, opts CaptureOptions, renderOpts renderOptions, viewportHeight int) ([]image.Image, error) {
	page, err := s.renderer.Render(ctx, target, renderOpts)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := page.Close(); err != nil {
			s.logger.Debug("closing linked page", "err", err)
		}
	}()

	return s.capturePage(ctx, page, opts, viewportHeight)
}

// captureProgress maps "done of total URLs" onto the 10-90 band between the
// settle and compose milestones.
func captureProgress(done, total int) int {
	if total < 1 {
		total = 1
	}
	return 10 + 80*done/total
}

// buildMetadata derives document metadata. With AIOptimize and a configured
// enricher the external collaborator is asked first, bounded by its own
// timeout; any failure falls back to pure-DOM heuristics. Otherwise the
// heuristics run alone. Metadata never fails a capture.
func (s *Service) buildMetadata(ctx context.Context, page renderedPage, pageURL string, opts CaptureOptions) DocumentMetadata {
	pageHTML, err := page.HTML()
	if err != nil {
		s.logger.Debug("reading page HTML for metadata", "err", err)
		return DocumentMetadata{Title: page.Title()}
	}

	var enrichment Enrichment
	if opts.AIOptimize && s.enricher != nil {
		enrichCtx, cancel := context.WithTimeout(ctx, enrichTimeout)
		enrichment, err = s.enricher.Enrich(enrichCtx, pageHTML, pageURL)
		cancel()
		if err != nil {
			s.logger.Warn("content enrichment failed, using DOM heuristics", "err", err)
			enrichment = fallbackEnrichment(pageHTML)
		}
	} else {
		enrichment = fallbackEnrichment(pageHTML)
	}

	title := enrichment.Title
	if title == "" {
		title = page.Title()
	}
	return DocumentMetadata{
		Title:       title,
		Description: enrichment.Excerpt,
		Keywords:    enrichment.Keywords,
	}
}
