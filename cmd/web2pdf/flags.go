package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
)

// overlapUnset detects whether --overlap was explicitly given. Zero is a
// valid overlap (seams butt against each other), so the default must sit
// outside the valid range.
const overlapUnset = -1

// captureFlags holds all flags for the capture command.
type captureFlags struct {
	output      string
	workers     int
	timeout     string
	viewport    string
	overlap     int
	maxLinks    int
	scrollWait  string
	contentWait string
	format      string
	orientation string
	quality     string
	combine     bool
	ai          bool
	quiet       bool
	verbose     bool
	version     bool
}

// parseFlags parses command-line flags and returns the positional URLs.
func parseFlags(args []string) (*captureFlags, []string, error) {
	fs := flag.NewFlagSet("web2pdf", flag.ContinueOnError)
	f := &captureFlags{}

	// I/O flags
	fs.StringVarP(&f.output, "output", "o", ".", "output directory for PDF files")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-URL capture timeout (e.g., 90s, 3m)")

	// Capture flags
	fs.StringVar(&f.viewport, "viewport", "", "viewport quality: low, medium, high")
	fs.IntVar(&f.overlap, "overlap", overlapUnset, "segment overlap in pixels")
	fs.IntVarP(&f.maxLinks, "max-links", "l", 0, "also capture up to N same-origin links")
	fs.StringVar(&f.scrollWait, "scroll-wait", "", "settle delay after each scroll (e.g., 600ms)")
	fs.StringVar(&f.contentWait, "content-wait", "", "max wait for images and lazy content (e.g., 10s)")

	// Composition flags
	fs.StringVarP(&f.format, "format", "p", "", "page format: auto, a4, letter, legal, a3")
	fs.StringVar(&f.orientation, "orientation", "", "page orientation: portrait, landscape")
	fs.StringVar(&f.quality, "quality", "", "image quality: low, medium, high")
	fs.BoolVar(&f.combine, "combine", false, "stack each URL into a single PDF page")
	fs.BoolVar(&f.ai, "ai", false, "enrich PDF metadata via AI (needs ANTHROPIC_API_KEY)")

	// Common flags
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show detailed timing")
	fs.BoolVar(&f.version, "version", false, "print version and exit")

	fs.Usage = func() { printUsage(os.Stderr, fs) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	return f, fs.Args(), nil
}

// printUsage writes usage information to w.
func printUsage(w *os.File, fs *flag.FlagSet) {
	fmt.Fprintf(w, "Usage: web2pdf [flags] URL [URL...]\n\n")
	fmt.Fprintf(w, "Capture live websites as PDF documents.\n\nFlags:\n")
	fmt.Fprint(w, fs.FlagUsages())
}
