package web2pdf

import (
	"fmt"
	"image"

	"github.com/alnah/go-web2pdf/internal/imaging"
)

// MergedPageImage is the seamless ordered image sequence for one captured
// URL, tagged with its source for header annotation.
type MergedPageImage struct {
	SourceURL string
	Images    []image.Image
}

// mergeSegments removes the duplicated overlap band from the top of every
// segment after the first, producing a new sequence whose top-to-bottom
// concatenation reproduces the full page. The first segment is kept whole.
//
// This assumes the page content did not shift between consecutive captures;
// if it did (a late banner, say), a visible seam is the accepted outcome.
// With a single segment or a zero overlap this is an identity transform.
func mergeSegments(segments []CaptureSegment, overlapPx int) ([]image.Image, error) {
	images := make([]image.Image, 0, len(segments))

	for i, seg := range segments {
		img, err := imaging.Decode(seg.Raw)
		if err != nil {
			return nil, fmt.Errorf("decoding segment at offset %d: %w", seg.OffsetY, err)
		}
		if i > 0 && overlapPx > 0 {
			img = imaging.CropTop(img, overlapPx)
		}
		images = append(images, img)
	}

	return images, nil
}
