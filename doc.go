// Package web2pdf captures live websites as paginated PDF documents using
// headless Chrome.
//
// # Quick Start
//
// Create a service, capture a URL, and close when done:
//
//	svc := web2pdf.New()
//	defer svc.Close()
//
//	pdf, err := svc.Capture(ctx, web2pdf.CaptureRequest{
//	    URL: "https://example.com",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("example.pdf", pdf, 0644)
//
// # Capture Pipeline
//
// A capture runs through these stages:
//
//  1. URL validation (absolute HTTP/HTTPS, loopback and private hosts refused)
//  2. Page rendering via headless Chrome (go-rod): navigation with fallback,
//     resource blocking, lazy-load settling
//  3. Scroll planning: overlapping viewport offsets covering the full page
//  4. Sequential segment screenshots at each planned offset
//  5. Seam merging: the duplicated overlap band is cropped from every
//     segment after the first
//  6. Optional same-origin link discovery, repeating stages 2-5 per link
//  7. PDF composition: one page per merged image, or one tall combined page
//
// # Configuration
//
// Use functional options to customize the service:
//
//	svc := web2pdf.New(
//	    web2pdf.WithTimeout(3 * time.Minute),
//	    web2pdf.WithProgress(sink),
//	)
//
// Per-capture options are passed via CaptureRequest.Options. All fields have
// defaults; the zero value requests a single-page capture at medium quality.
//
// # Parallel Processing
//
// For batch capture, use ServicePool to manage multiple browser instances:
//
//	pool := web2pdf.NewServicePool(4)
//	defer pool.Close()
//
//	svc := pool.Acquire()
//	defer pool.Release(svc)
//	pdf, err := svc.Capture(ctx, req)
//
// # Browser Requirements
//
// Capturing requires Chrome/Chromium. The go-rod library automatically
// downloads a managed Chromium instance on first run (~/.cache/rod/browser/).
//
// For containers and CI environments, set ROD_NO_SANDBOX=1 to disable the
// Chrome sandbox. Use ROD_BROWSER_BIN to specify a custom Chrome binary.
package web2pdf
