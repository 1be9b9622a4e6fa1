package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/automaxprocs/maxprocs"

	web2pdf "github.com/alnah/go-web2pdf"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	// Parse flags first to get workers count and verbose
	flags, urls, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitUsage)
	}

	if flags.version {
		fmt.Printf("web2pdf %s\n", Version)
		os.Exit(ExitSuccess)
	}

	// Configure GOMAXPROCS with conditional logging
	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	if flags.verbose {
		_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}))
	} else {
		_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))
	}

	timeout, err := parseOptionalDuration(flags.timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v: --timeout %q\n", ErrInvalidDuration, flags.timeout)
		os.Exit(ExitUsage)
	}

	poolSize := web2pdf.ResolvePoolSize(flags.workers)
	if flags.verbose {
		fmt.Fprintf(os.Stderr, "Pool size: %d\n", poolSize)
	}
	pool := newCapturerPool(poolSize, timeout)
	defer pool.Close()

	ctx, stop := notifyContext(context.Background())
	defer stop()

	if err := runCapture(ctx, urls, flags, pool, defaultEnvironment()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}
