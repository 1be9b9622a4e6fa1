package server

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	web2pdf "github.com/alnah/go-web2pdf"
	"github.com/alnah/go-web2pdf/internal/fileutil"
	"github.com/alnah/go-web2pdf/internal/jobs"
)

// Server wires the capture pool to the HTTP API.
type Server struct {
	cfg      Config
	pool     *web2pdf.ServicePool
	tracker  *jobs.Tracker
	logger   *log.Logger
	engine   *gin.Engine
	limiters *clientLimiters

	// jobDirs maps a job ID to its result artifact's scoped directory so
	// the sweeper can release storage along with the bookkeeping.
	jobDirs sync.Map
}

// New builds a Server around an existing service pool.
func New(cfg Config, pool *web2pdf.ServicePool, logger *log.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:      cfg,
		pool:     pool,
		tracker:  jobs.NewTracker(),
		logger:   logger,
		limiters: newClientLimiters(cfg.RateLimitRPS, cfg.RateLimitBurst),
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLogger())

	engine.GET("/healthz", s.handleHealth)

	api := engine.Group("/api/v1", s.limiters.middleware())
	api.POST("/pdf", s.handleCapture)
	api.POST("/jobs", s.handleCreateJob)
	api.GET("/jobs/:id", s.handleJobStatus)
	api.GET("/jobs/:id/result", s.handleJobResult)

	s.engine = engine
	return s
}

// Handler returns the HTTP handler, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is canceled, then shuts down gracefully, waiting for
// in-flight captures and their cleanup before returning.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sweepDone := make(chan struct{})
	go s.sweepJobs(ctx, sweepDone)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)

	<-sweepDone
	s.releaseAllJobDirs()
	return err
}

// requestLogger logs one structured line per request.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client", c.ClientIP(),
		)
	}
}

// captureBody is the inbound request payload. Option fields mirror the
// library's CaptureOptions; all are optional.
type captureBody struct {
	URL     string      `json:"url" binding:"required"`
	Options optionsBody `json:"options"`
}

type optionsBody struct {
	ViewportQuality string `json:"viewportQuality"`
	OverlapPx       *int   `json:"overlapPx"`
	MaxLinks        int    `json:"maxLinks"`
	ScrollWaitMs    int    `json:"scrollWaitMs"`
	ContentWaitMs   int    `json:"contentWaitMs"`
	PageFormat      string `json:"pageFormat"`
	Orientation     string `json:"orientation"`
	Quality         string `json:"quality"`
	CombinePages    bool   `json:"combinePages"`
	AIOptimize      bool   `json:"aiOptimize"`
}

// toOptions converts the wire payload, capping link fan-out to the
// configured limit.
func (b optionsBody) toOptions(maxLinksCap int) web2pdf.CaptureOptions {
	opts := web2pdf.CaptureOptions{
		Viewport:     b.ViewportQuality,
		MaxLinks:     min(b.MaxLinks, maxLinksCap),
		ScrollWait:   time.Duration(b.ScrollWaitMs) * time.Millisecond,
		ContentWait:  time.Duration(b.ContentWaitMs) * time.Millisecond,
		Format:       b.PageFormat,
		Orientation:  b.Orientation,
		Quality:      b.Quality,
		CombinePages: b.CombinePages,
		AIOptimize:   b.AIOptimize,
	}
	if b.OverlapPx != nil {
		opts.OverlapPx = *b.OverlapPx
		opts.ExactOverlap = true
	}
	return opts
}

// handleHealth reports process load and engine status.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"activeCaptures": web2pdf.ActiveSessions(),
		"poolSize":       s.pool.Size(),
		"engineHealthy":  s.pool.EngineHealthy(),
	})
}

// handleCapture is the synchronous path: capture and stream the PDF.
func (s *Server) handleCapture(c *gin.Context) {
	var body captureBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{
			Error: "invalid request payload",
			Code:  CodeValidation,
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.RequestTimeout())
	defer cancel()

	svc := s.pool.Acquire()
	defer s.pool.Release(svc)

	pdf, err := svc.Capture(ctx, web2pdf.CaptureRequest{
		URL:     body.URL,
		Options: body.Options.toOptions(s.cfg.MaxLinksCap),
	})
	if err != nil {
		status, code := mapError(err)
		s.logger.Warn("capture failed", "url", body.URL, "code", code, "err", err)
		c.JSON(status, errorResponse{Error: err.Error(), Code: code})
		return
	}

	c.Header("Content-Disposition", attachmentFor(body.URL))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// handleCreateJob is the asynchronous path: register a job and return its
// identifier immediately.
func (s *Server) handleCreateJob(c *gin.Context) {
	var body captureBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{
			Error: "invalid request payload",
			Code:  CodeValidation,
		})
		return
	}

	job := s.tracker.Create(body.URL)
	go s.runJob(job.ID, body)

	c.JSON(http.StatusAccepted, job)
}

// runJob executes one async capture, reporting progress into the tracker
// and storing the artifact under a scoped directory.
func (s *Server) runJob(id string, body captureBody) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RequestTimeout())
	defer cancel()

	svc := s.pool.Acquire()
	defer s.pool.Release(svc)

	pdf, err := svc.Capture(ctx, web2pdf.CaptureRequest{
		URL:     body.URL,
		Options: body.Options.toOptions(s.cfg.MaxLinksCap),
		Progress: web2pdf.ProgressFunc(func(percent int, message string) {
			s.tracker.Progress(id, percent, message)
		}),
	})
	if err != nil {
		s.logger.Warn("job failed", "job", id, "url", body.URL, "err", err)
		s.tracker.Fail(id, err.Error())
		return
	}

	dir, err := fileutil.NewWorkDir("web2pdf-job")
	if err != nil {
		s.tracker.Fail(id, err.Error())
		return
	}
	path := dir.Join("result.pdf")
	if err := os.WriteFile(path, pdf, 0o600); err != nil {
		dir.Release()
		s.tracker.Fail(id, err.Error())
		return
	}

	s.jobDirs.Store(id, dir)
	s.tracker.Complete(id, path)
}

// handleJobStatus returns the tracked state of one job.
func (s *Server) handleJobStatus(c *gin.Context) {
	job, err := s.tracker.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: "unknown job", Code: CodeNotFound})
		return
	}
	c.JSON(http.StatusOK, job)
}

// handleJobResult streams a finished job's PDF.
func (s *Server) handleJobResult(c *gin.Context) {
	job, err := s.tracker.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: "unknown job", Code: CodeNotFound})
		return
	}
	if job.State != jobs.StateDone || job.ResultPath == "" {
		c.JSON(http.StatusConflict, errorResponse{
			Error:   "job result not available",
			Code:    CodeNotFound,
			Details: "state: " + job.State,
		})
		return
	}

	c.Header("Content-Disposition", attachmentFor(job.URL))
	c.Header("Content-Type", "application/pdf")
	c.File(job.ResultPath)
}

// sweepJobs periodically drops expired jobs and releases their artifacts
// after the configured grace delay.
func (s *Server) sweepJobs(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := s.tracker.Sweep(s.cfg.JobRetention())
			if removed > 0 {
				s.logger.Debug("swept expired jobs", "count", removed)
			}
			s.jobDirs.Range(func(key, value any) bool {
				id := key.(string)
				if _, err := s.tracker.Get(id); err != nil {
					value.(*fileutil.WorkDir).ReleaseAfter(s.cfg.ResultGrace())
					s.jobDirs.Delete(id)
				}
				return true
			})
		}
	}
}

// releaseAllJobDirs frees every remaining artifact directory at shutdown.
func (s *Server) releaseAllJobDirs() {
	s.jobDirs.Range(func(key, value any) bool {
		value.(*fileutil.WorkDir).Release()
		s.jobDirs.Delete(key)
		return true
	})
}

// attachmentFor builds the download header from the captured URL's host.
func attachmentFor(raw string) string {
	name := "capture"
	if u, err := url.Parse(raw); err == nil && u.Hostname() != "" {
		name = u.Hostname()
	}
	return fmt.Sprintf(`attachment; filename="%s.pdf"`, name)
}
