package web2pdf

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-pdf/fpdf"

	"github.com/alnah/go-web2pdf/internal/imaging"
)

// maxPageDimensionPt is the largest page axis most PDF renderers accept.
// Composite images beyond it are uniformly downscaled first.
const maxPageDimensionPt = 14400

// Fixed page formats in PDF points (1/72 inch), portrait.
var pageFormats = map[string]fpdf.SizeType{
	FormatA4:     {Wd: 595.28, Ht: 841.89},
	FormatLetter: {Wd: 612, Ht: 792},
	FormatLegal:  {Wd: 612, Ht: 1008},
	FormatA3:     {Wd: 841.89, Ht: 1190.55},
}

// Layout constants for fixed-format pages, in points.
const (
	pageMarginPt     = 36
	annotationBandPt = 18
	annotationFontPt = 8
)

// pdfPage is one ready-to-place page payload: a re-encoded JPEG plus its
// pixel geometry and source tag.
type pdfPage struct {
	jpeg      []byte
	widthPx   int
	heightPx  int
	sourceURL string
}

// composePDF writes a PDF built from the per-URL merged image sequences.
//
// In auto format each image becomes one page sized to its pixels (1px =
// 1pt), capped to the maximum renderable dimension. In a fixed format the
// image is scaled to fit the printable area, aspect preserved and centered,
// with a header (source URL) and footer ("N of M", timestamp) drawn inside
// the margins; oversized content is scaled down, never paginated.
//
// CombinePages stacks each URL's images into a single tall page first.
//
// An image that fails re-encoding is logged and skipped; the PDF is still
// produced from the remaining pages. Zero valid pages is ErrNoContent.
func composePDF(pages []MergedPageImage, opts CaptureOptions, meta DocumentMetadata, w io.Writer, logger *log.Logger) (int, error) {
	payloads := buildPagePayloads(pages, opts, logger)
	if len(payloads) == 0 {
		return 0, ErrNoContent
	}

	fixed, hasFormat := pageFormats[strings.ToLower(opts.Format)]
	if hasFormat && strings.EqualFold(opts.Orientation, OrientationLandscape) {
		fixed = fpdf.SizeType{Wd: fixed.Ht, Ht: fixed.Wd}
	}

	firstSize := fixed
	if !hasFormat {
		firstSize = fpdf.SizeType{
			Wd: float64(payloads[0].widthPx),
			Ht: float64(payloads[0].heightPx),
		}
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           firstSize,
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Helvetica", "", annotationFontPt)
	applyMetadata(pdf, meta)

	generated := time.Now().Format("2006-01-02 15:04")
	total := len(payloads)

	for i, p := range payloads {
		name := fmt.Sprintf("capture-%04d", i)
		pdf.RegisterImageOptionsReader(name,
			fpdf.ImageOptions{ImageType: "JPG"}, bytes.NewReader(p.jpeg))

		if hasFormat {
			pdf.AddPageFormat("P", fixed)
			placeFitted(pdf, name, p, fixed)
			annotate(pdf, p.sourceURL, i+1, total, generated, fixed)
		} else {
			size := fpdf.SizeType{Wd: float64(p.widthPx), Ht: float64(p.heightPx)}
			pdf.AddPageFormat("P", size)
			pdf.ImageOptions(name, 0, 0, size.Wd, size.Ht, false,
				fpdf.ImageOptions{ImageType: "JPG"}, 0, "")
		}
	}

	if err := pdf.Output(w); err != nil {
		return 0, fmt.Errorf("writing PDF: %w", err)
	}
	return total, nil
}

// buildPagePayloads flattens the merged image sequences into re-encoded page
// payloads, applying combine stacking, the maximum-dimension cap, and the
// requested JPEG quality. A failed image is skipped, not fatal.
func buildPagePayloads(pages []MergedPageImage, opts CaptureOptions, logger *log.Logger) []pdfPage {
	quality := jpegQuality(opts.Quality)
	var payloads []pdfPage

	for _, page := range pages {
		if opts.CombinePages && len(page.Images) > 0 {
			combined, err := imaging.StackVertical(page.Images)
			if err != nil {
				logger.Warn("combining page images failed, skipping URL",
					"url", page.SourceURL, "err", err)
				continue
			}
			if p, ok := encodePayload(combined, quality, page.SourceURL, logger); ok {
				payloads = append(payloads, p)
			}
			continue
		}

		for _, img := range page.Images {
			if p, ok := encodePayload(img, quality, page.SourceURL, logger); ok {
				payloads = append(payloads, p)
			}
		}
	}
	return payloads
}

// encodePayload caps an image to the maximum renderable page dimension and
// re-encodes it as JPEG.
func encodePayload(img image.Image, quality int, sourceURL string, logger *log.Logger) (pdfPage, bool) {
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		logger.Warn("skipping empty page image", "url", sourceURL)
		return pdfPage{}, false
	}

	img = imaging.ScaleToFit(img, maxPageDimensionPt, maxPageDimensionPt)

	raw, err := imaging.EncodeJPEG(img, quality)
	if err != nil {
		logger.Warn("re-encoding page image failed, skipping",
			"url", sourceURL, "err", err)
		return pdfPage{}, false
	}

	b := img.Bounds()
	return pdfPage{
		jpeg:      raw,
		widthPx:   b.Dx(),
		heightPx:  b.Dy(),
		sourceURL: sourceURL,
	}, true
}

// placeFitted scales the image into the fixed format's printable area
// (inside margins and annotation bands), preserving aspect ratio and
// centering both axes. Overflow is never paginated.
func placeFitted(pdf *fpdf.Fpdf, name string, p pdfPage, size fpdf.SizeType) {
	areaX := float64(pageMarginPt)
	areaY := float64(pageMarginPt + annotationBandPt)
	areaW := size.Wd - 2*pageMarginPt
	areaH := size.Ht - 2*(pageMarginPt+annotationBandPt)

	scale := areaW / float64(p.widthPx)
	if s := areaH / float64(p.heightPx); s < scale {
		scale = s
	}
	if scale > 1 {
		scale = 1
	}

	w := float64(p.widthPx) * scale
	h := float64(p.heightPx) * scale
	x := areaX + (areaW-w)/2
	y := areaY + (areaH-h)/2

	pdf.ImageOptions(name, x, y, w, h, false,
		fpdf.ImageOptions{ImageType: "JPG"}, 0, "")
}

// annotate draws the source URL header and the page-number footer inside the
// page margins, never over the image area.
func annotate(pdf *fpdf.Fpdf, sourceURL string, pageNum, total int, generated string, size fpdf.SizeType) {
	pdf.SetTextColor(120, 120, 120)

	header := truncateText(pdf, sourceURL, size.Wd-2*pageMarginPt)
	pdf.Text(pageMarginPt, pageMarginPt+annotationFontPt, header)

	footer := fmt.Sprintf("%d of %d - %s", pageNum, total, generated)
	footerW := pdf.GetStringWidth(footer)
	pdf.Text(size.Wd-pageMarginPt-footerW, size.Ht-pageMarginPt, footer)

	pdf.SetTextColor(0, 0, 0)
}

// truncateText shortens s until it fits the given width in the current font.
func truncateText(pdf *fpdf.Fpdf, s string, maxWidth float64) string {
	const ellipsis = "..."
	for len(s) > 0 && pdf.GetStringWidth(s) > maxWidth {
		r := []rune(s)
		s = string(r[:len(r)-1])
		if pdf.GetStringWidth(s+ellipsis) <= maxWidth {
			return s + ellipsis
		}
	}
	return s
}

// applyMetadata attaches document metadata; absent fields fall back to
// generic values.
func applyMetadata(pdf *fpdf.Fpdf, meta DocumentMetadata) {
	title := meta.Title
	if title == "" {
		title = "Website Capture"
	}
	author := meta.Author
	if author == "" {
		author = "go-web2pdf"
	}

	pdf.SetTitle(title, true)
	pdf.SetAuthor(author, true)
	pdf.SetCreator("go-web2pdf", true)
	if meta.Description != "" {
		pdf.SetSubject(meta.Description, true)
	}
	if len(meta.Keywords) > 0 {
		pdf.SetKeywords(strings.Join(meta.Keywords, ", "), true)
	}
}
