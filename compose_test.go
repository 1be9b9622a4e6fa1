package web2pdf

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"io"
	"testing"

	"github.com/charmbracelet/log"
)

// solidImage returns a width x height image filled with one color.
func solidImage(width, height int, c color.NRGBA) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func testPages(imgs ...image.Image) []MergedPageImage {
	return []MergedPageImage{{SourceURL: "https://example.com/", Images: imgs}}
}

func TestComposePDFAutoFormat(t *testing.T) {
	t.Parallel()

	pages := testPages(
		solidImage(100, 200, color.NRGBA{R: 200, A: 255}),
		solidImage(100, 150, color.NRGBA{B: 200, A: 255}),
	)

	var buf bytes.Buffer
	opts := CaptureOptions{}.withDefaults()
	count, err := composePDF(pages, opts, DocumentMetadata{Title: "Example"}, &buf, log.New(io.Discard))
	if err != nil {
		t.Fatalf("composePDF() error = %v", err)
	}
	if count != 2 {
		t.Errorf("page count = %d, want 2", count)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Error("output does not start with %PDF header")
	}
}

func TestComposePDFFixedFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts CaptureOptions
	}{
		{"a4 portrait", CaptureOptions{Format: FormatA4}},
		{"letter landscape", CaptureOptions{Format: FormatLetter, Orientation: OrientationLandscape}},
		{"legal", CaptureOptions{Format: FormatLegal}},
		{"a3", CaptureOptions{Format: FormatA3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// Taller than any printable area, exercising the fit-scale path.
			pages := testPages(solidImage(800, 4000, color.NRGBA{G: 128, A: 255}))

			var buf bytes.Buffer
			opts := tt.opts.withDefaults()
			count, err := composePDF(pages, opts, DocumentMetadata{}, &buf, log.New(io.Discard))
			if err != nil {
				t.Fatalf("composePDF() error = %v", err)
			}
			if count != 1 {
				t.Errorf("page count = %d, want 1", count)
			}
			if buf.Len() == 0 {
				t.Error("empty PDF output")
			}
		})
	}
}

func TestComposePDFCombinePages(t *testing.T) {
	t.Parallel()

	pages := []MergedPageImage{
		{
			SourceURL: "https://example.com/",
			Images: []image.Image{
				solidImage(100, 200, color.NRGBA{R: 255, A: 255}),
				solidImage(100, 300, color.NRGBA{G: 255, A: 255}),
			},
		},
		{
			SourceURL: "https://example.com/about",
			Images:    []image.Image{solidImage(100, 100, color.NRGBA{B: 255, A: 255})},
		},
	}

	var buf bytes.Buffer
	opts := CaptureOptions{CombinePages: true}.withDefaults()
	count, err := composePDF(pages, opts, DocumentMetadata{}, &buf, log.New(io.Discard))
	if err != nil {
		t.Fatalf("composePDF() error = %v", err)
	}
	// One stacked page per URL.
	if count != 2 {
		t.Errorf("page count = %d, want 2", count)
	}
}

func TestComposePDFSkipsEmptyImages(t *testing.T) {
	t.Parallel()

	// A page height that leaves the last planned segment entirely inside
	// the previous viewport: merging crops it down to zero rows, and a
	// zero-height page would carry an invalid MediaBox.
	plans, err := planOffsets(2350, 1200, 50)
	if err != nil {
		t.Fatalf("planOffsets() error = %v", err)
	}

	merged, err := mergeSegments(buildSegments(t, plans, 8), 50)
	if err != nil {
		t.Fatalf("mergeSegments() error = %v", err)
	}

	var buf bytes.Buffer
	opts := CaptureOptions{}.withDefaults()
	pages := []MergedPageImage{{SourceURL: "https://example.com/", Images: merged}}
	count, err := composePDF(pages, opts, DocumentMetadata{}, &buf, log.New(io.Discard))
	if err != nil {
		t.Fatalf("composePDF() error = %v", err)
	}
	if count != len(plans)-1 {
		t.Errorf("page count = %d, want %d: zero-height images must be skipped", count, len(plans)-1)
	}

	// Nothing but empty images still counts as no content.
	empty := testPages(solidImage(8, 0, color.NRGBA{A: 255}))
	if _, err := composePDF(empty, opts, DocumentMetadata{}, &buf, log.New(io.Discard)); !errors.Is(err, ErrNoContent) {
		t.Errorf("composePDF() with only empty images error = %v, want ErrNoContent", err)
	}
}

func TestComposePDFNoContent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	opts := CaptureOptions{}.withDefaults()
	_, err := composePDF(nil, opts, DocumentMetadata{}, &buf, log.New(io.Discard))
	if !errors.Is(err, ErrNoContent) {
		t.Errorf("composePDF() error = %v, want ErrNoContent", err)
	}

	_, err = composePDF(testPages(), opts, DocumentMetadata{}, &buf, log.New(io.Discard))
	if !errors.Is(err, ErrNoContent) {
		t.Errorf("composePDF() with zero images error = %v, want ErrNoContent", err)
	}
}

func TestBuildPagePayloadsCapsOversizedComposite(t *testing.T) {
	t.Parallel()

	logger := log.New(io.Discard)
	tall := solidImage(1000, 20000, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	payloads := buildPagePayloads(testPages(tall), CaptureOptions{Quality: QualityLow}, logger)
	if len(payloads) != 1 {
		t.Fatalf("got %d payloads, want 1", len(payloads))
	}

	p := payloads[0]
	if p.widthPx > maxPageDimensionPt || p.heightPx > maxPageDimensionPt {
		t.Errorf("payload %dx%d exceeds max dimension %d", p.widthPx, p.heightPx, maxPageDimensionPt)
	}

	// Aspect ratio must survive the downscale within 1%.
	origRatio := 1000.0 / 20000.0
	gotRatio := float64(p.widthPx) / float64(p.heightPx)
	if diff := gotRatio/origRatio - 1; diff > 0.01 || diff < -0.01 {
		t.Errorf("aspect ratio drifted: got %f, want %f", gotRatio, origRatio)
	}
}

func TestTruncateTextKeepsShortStrings(t *testing.T) {
	t.Parallel()

	pages := testPages(solidImage(10, 10, color.NRGBA{A: 255}))
	var buf bytes.Buffer
	opts := CaptureOptions{Format: FormatA4}.withDefaults()

	// Long URLs must not break fixed-format annotation.
	pages[0].SourceURL = "https://example.com/" + string(bytes.Repeat([]byte("abc/"), 200))
	if _, err := composePDF(pages, opts, DocumentMetadata{}, &buf, log.New(io.Discard)); err != nil {
		t.Fatalf("composePDF() with long URL error = %v", err)
	}
}
