package web2pdf

import "fmt"

// segmentPlan is one planned region capture: scroll to OffsetY and
// screenshot Height rows starting there.
type segmentPlan struct {
	OffsetY int
	Height  int
}

// planOffsets computes the ordered scroll offsets that cover a page of
// pageHeight pixels with a viewport of viewportHeight pixels, consecutive
// segments sharing overlapPx rows.
//
// The step is viewportHeight - overlapPx; offsets advance while they remain
// below pageHeight. The final segment is clipped to the page's true bottom:
// its height is min(viewportHeight, pageHeight-offset). A page no taller
// than the viewport plans a single segment at offset 0.
func planOffsets(pageHeight, viewportHeight, overlapPx int) ([]segmentPlan, error) {
	if viewportHeight <= 0 {
		return nil, fmt.Errorf("%w: viewport height %d must be positive",
			ErrConfiguration, viewportHeight)
	}
	if overlapPx < 0 {
		return nil, fmt.Errorf("%w: overlap %d must be >= 0",
			ErrConfiguration, overlapPx)
	}
	// A non-positive step would loop forever.
	if overlapPx >= viewportHeight {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than viewport height %d",
			ErrConfiguration, overlapPx, viewportHeight)
	}

	// A page that failed to report a height still yields one viewport-sized
	// segment rather than nothing.
	if pageHeight <= 0 {
		return []segmentPlan{{OffsetY: 0, Height: viewportHeight}}, nil
	}

	if pageHeight <= viewportHeight {
		return []segmentPlan{{OffsetY: 0, Height: pageHeight}}, nil
	}

	step := viewportHeight - overlapPx
	if step < 1 {
		step = 1
	}

	var plans []segmentPlan
	for offset := 0; offset < pageHeight; offset += step {
		height := viewportHeight
		if remaining := pageHeight - offset; remaining < height {
			height = remaining
		}
		plans = append(plans, segmentPlan{OffsetY: offset, Height: height})
	}
	return plans, nil
}
