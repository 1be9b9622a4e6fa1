package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"

	web2pdf "github.com/alnah/go-web2pdf"
	"github.com/alnah/go-web2pdf/internal/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("web2pdfd", flag.ContinueOnError)
	configPath := fs.StringP("config", "c", "", "YAML config file path")
	addr := fs.StringP("addr", "a", "", "listen address (overrides config)")
	verbose := fs.BoolP("verbose", "v", false, "debug logging")
	version := fs.Bool("version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *version {
		fmt.Printf("web2pdfd %s\n", Version)
		return nil
	}

	// Missing .env is fine; real deployments use process env.
	_ = godotenv.Load()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "web2pdfd",
	})
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	_, _ = maxprocs.Set(maxprocs.Logger(logger.Debugf))

	cfg, err := server.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	svcOpts := []web2pdf.Option{
		web2pdf.WithLogger(logger.WithPrefix("capture")),
		web2pdf.WithTimeout(cfg.RequestTimeout()),
	}
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		logger.Info("AI enrichment enabled")
		svcOpts = append(svcOpts, web2pdf.WithEnricher(web2pdf.NewAnthropicEnricher(apiKey)))
	}

	poolSize := web2pdf.ResolvePoolSize(cfg.Workers)
	pool := web2pdf.NewServicePool(poolSize, svcOpts...)
	defer func() {
		if err := pool.Close(); err != nil {
			logger.Warn("closing service pool", "err", err)
		}
	}()

	ctx, stop := notifyContext()
	defer stop()

	logger.Info("starting", "addr", cfg.Addr, "workers", poolSize, "version", Version)
	return server.New(cfg, pool, logger).Run(ctx)
}
