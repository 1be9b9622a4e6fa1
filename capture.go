package web2pdf

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// captureSegments executes a capture plan against a live page: scroll to
// each offset in order, wait for the scroll to settle, and screenshot the
// planned region. Segments are strictly sequential; each capture depends on
// the page having scrolled to its offset first.
//
// A failed segment is logged and skipped so one bad offset does not abort
// the page, but zero successful segments fails the URL with ErrCaptureFailed.
func captureSegments(ctx context.Context, page renderedPage, plans []segmentPlan, scrollWait time.Duration, logger *log.Logger) ([]CaptureSegment, error) {
	segments := make([]CaptureSegment, 0, len(plans))

	for i, plan := range plans {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := page.ScrollTo(plan.OffsetY); err != nil {
			logger.Warn("segment scroll failed, skipping",
				"segment", i, "offset", plan.OffsetY, "err", err)
			continue
		}

		// Let smooth-scroll animation and CSS transitions finish.
		select {
		case <-time.After(scrollWait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		raw, err := page.CaptureRegion(plan.OffsetY, plan.Height)
		if err != nil {
			logger.Warn("segment capture failed, skipping",
				"segment", i, "offset", plan.OffsetY, "err", err)
			continue
		}

		segments = append(segments, CaptureSegment{
			OffsetY:    plan.OffsetY,
			Raw:        raw,
			CapturedAt: time.Now(),
		})
	}

	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: %d segments planned", ErrCaptureFailed, len(plans))
	}
	return segments, nil
}
