package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	web2pdf "github.com/alnah/go-web2pdf"
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// Sentinel errors for CLI operations.
var (
	ErrNoInput         = errors.New("no URL specified")
	ErrWritePDF        = errors.New("failed to write PDF file")
	ErrInvalidWorkers  = errors.New("invalid worker count")
	ErrInvalidDuration = errors.New("invalid duration value")
	ErrServiceInit     = errors.New("failed to initialize capture service")
)

// Capturer is the interface for the capture service.
type Capturer interface {
	Capture(ctx context.Context, req web2pdf.CaptureRequest) ([]byte, error)
}

// Compile-time interface implementation check.
var _ Capturer = (*web2pdf.Service)(nil)

// Pool abstracts service pool operations for testability.
type Pool interface {
	Acquire() Capturer
	Release(Capturer)
	Size() int
}

// capturerPool adapts web2pdf.ServicePool to the Pool interface.
type capturerPool struct {
	inner *web2pdf.ServicePool
}

// newCapturerPool builds a pool whose services carry the flag-derived
// options. Services are created lazily on first Acquire.
func newCapturerPool(n int, timeout time.Duration) *capturerPool {
	var opts []web2pdf.Option
	if timeout > 0 {
		opts = append(opts, web2pdf.WithTimeout(timeout))
	}
	return &capturerPool{inner: web2pdf.NewServicePool(n, opts...)}
}

func (p *capturerPool) Acquire() Capturer { return p.inner.Acquire() }

func (p *capturerPool) Release(c Capturer) {
	if svc, ok := c.(*web2pdf.Service); ok {
		p.inner.Release(svc)
	}
}

func (p *capturerPool) Size() int { return p.inner.Size() }

func (p *capturerPool) Close() error { return p.inner.Close() }

// URLToCapture represents a single URL to process.
type URLToCapture struct {
	URL        string
	OutputPath string
}

// CaptureResult holds the outcome of a single capture.
type CaptureResult struct {
	URL        string
	OutputPath string
	Err        error
	Duration   time.Duration
}

// runCapture orchestrates the batch capture process.
func runCapture(ctx context.Context, urls []string, flags *captureFlags, pool Pool, env *Environment) error {
	if err := validateWorkers(flags.workers); err != nil {
		return err
	}
	if len(urls) == 0 {
		return ErrNoInput
	}

	opts, err := buildOptions(flags)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(flags.output, dirPermissions); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	targets := make([]URLToCapture, 0, len(urls))
	for _, raw := range urls {
		targets = append(targets, URLToCapture{
			URL:        raw,
			OutputPath: filepath.Join(flags.output, outputFileName(raw)),
		})
	}

	results := captureBatch(ctx, pool, targets, opts)

	failedCount := printResults(results, flags.quiet, flags.verbose, env)
	if failedCount > 0 {
		return fmt.Errorf("%d capture(s) failed", failedCount)
	}
	return nil
}

// validateWorkers rejects negative worker counts.
func validateWorkers(workers int) error {
	if workers < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, workers)
	}
	return nil
}

// buildOptions converts CLI flags into capture options.
func buildOptions(flags *captureFlags) (web2pdf.CaptureOptions, error) {
	opts := web2pdf.CaptureOptions{
		Viewport:     flags.viewport,
		MaxLinks:     flags.maxLinks,
		Format:       flags.format,
		Orientation:  flags.orientation,
		Quality:      flags.quality,
		CombinePages: flags.combine,
		AIOptimize:   flags.ai,
	}

	if flags.overlap != overlapUnset {
		opts.OverlapPx = flags.overlap
		opts.ExactOverlap = true
	}

	var err error
	if opts.ScrollWait, err = parseOptionalDuration(flags.scrollWait); err != nil {
		return opts, fmt.Errorf("%w: --scroll-wait %q", ErrInvalidDuration, flags.scrollWait)
	}
	if opts.ContentWait, err = parseOptionalDuration(flags.contentWait); err != nil {
		return opts, fmt.Errorf("%w: --content-wait %q", ErrInvalidDuration, flags.contentWait)
	}

	return opts, nil
}

// parseOptionalDuration parses s, treating empty as "use default".
func parseOptionalDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// outputFileName derives a filesystem-safe PDF name from a URL.
func outputFileName(raw string) string {
	name := "capture"
	if u, err := url.Parse(raw); err == nil && u.Hostname() != "" {
		name = u.Hostname()
		if p := strings.Trim(u.Path, "/"); p != "" {
			name += "-" + strings.ReplaceAll(p, "/", "-")
		}
	}
	// Strip characters that are unsafe in file names.
	name = strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', ':', '"', '\\', '|', '?', '*':
			return '-'
		}
		return r
	}, name)
	return name + ".pdf"
}

// captureBatch processes URLs concurrently using the service pool.
func captureBatch(ctx context.Context, pool Pool, targets []URLToCapture, opts web2pdf.CaptureOptions) []CaptureResult {
	if len(targets) == 0 {
		return nil
	}

	concurrency := pool.Size()
	if concurrency > len(targets) {
		concurrency = len(targets)
	}

	results := make([]CaptureResult, len(targets))
	var wg sync.WaitGroup
	jobs := make(chan int, len(targets))

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			svc := pool.Acquire()
			if svc == nil {
				// Service creation failed, mark remaining jobs as failed
				for idx := range jobs {
					results[idx] = CaptureResult{
						URL: targets[idx].URL,
						Err: ErrServiceInit,
					}
				}
				return
			}
			defer pool.Release(svc)

			for idx := range jobs {
				if ctx.Err() != nil {
					results[idx] = CaptureResult{
						URL: targets[idx].URL,
						Err: ctx.Err(),
					}
					continue
				}
				results[idx] = captureOne(ctx, svc, targets[idx], opts)
			}
		}()
	}

	for i := range targets {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// captureOne processes a single URL and returns the result.
func captureOne(ctx context.Context, svc Capturer, target URLToCapture, opts web2pdf.CaptureOptions) CaptureResult {
	start := time.Now()
	result := CaptureResult{
		URL:        target.URL,
		OutputPath: target.OutputPath,
	}

	pdf, err := svc.Capture(ctx, web2pdf.CaptureRequest{URL: target.URL, Options: opts})
	if err != nil {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	// #nosec G306 -- PDFs are meant to be readable
	if err := os.WriteFile(target.OutputPath, pdf, filePermissions); err != nil {
		result.Err = fmt.Errorf("%w: %v", ErrWritePDF, err)
		result.Duration = time.Since(start)
		return result
	}

	result.Duration = time.Since(start)
	return result
}

// ResultSummary holds the count of succeeded and failed captures.
type ResultSummary struct {
	Succeeded int
	Failed    int
}

// countResults tallies succeeded and failed captures.
func countResults(results []CaptureResult) ResultSummary {
	var summary ResultSummary
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}
	return summary
}

// printResults outputs capture results using the environment's writers.
func printResults(results []CaptureResult, quiet, verbose bool, env *Environment) int {
	summary := countResults(results)

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.URL, r.Err)
			continue
		}

		if quiet {
			continue
		}

		if verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%v)\n", r.URL, r.OutputPath, r.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(env.Stdout, "Created %s\n", r.OutputPath)
		}
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", summary.Succeeded, summary.Failed)
	}

	return summary.Failed
}
