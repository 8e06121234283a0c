// Package server exposes pagination over HTTP for presentation front ends.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"slidefit/config"
	"slidefit/generate"
	"slidefit/paginate"
	"slidefit/slides"
)

// Generator produces slide shaped records from source text.
type Generator interface {
	Generate(ctx context.Context, req generate.Request) (*generate.Response, error)
}

// Server serves pagination requests. Every request paginates in its own
// measurement workspace.
type Server struct {
	cfg    *config.ServerConfig
	engine *paginate.Engine
	gen    Generator
	log    *zap.Logger
	router *gin.Engine
}

// New builds server and its routes. gen may be nil, in which case only
// pagination of ready records is available.
func New(cfg *config.ServerConfig, engine *paginate.Engine, gen Generator, log *zap.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		engine: engine,
		gen:    gen,
		log:    log.Named("server"),
	}

	r := gin.New()
	r.Use(recovery(s.log), requestLogger(s.log), corsMiddleware(cfg.CORSOrigins), bodyLimit(cfg.MaxBodySize))

	r.GET("/healthcheck", s.healthcheck)
	api := r.Group("/api")
	api.POST("/slides", s.generateSlides)
	api.POST("/paginate", s.paginateRecords)

	s.router = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          zap.NewStdLog(s.log),
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Listening", zap.String("address", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("unable to shut down server: %w", err)
		}
		return <-errCh
	}
}

func (s *Server) healthcheck(c *gin.Context) {
	respondOK(c, gin.H{"status": "ok"})
}

type slidesRequest struct {
	Text     string `json:"text" binding:"required"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
}

// generateSlides sends text to generation service and paginates the result.
func (s *Server) generateSlides(c *gin.Context) {
	if s.gen == nil {
		respondError(c, http.StatusNotImplemented, CodeGenerationFailed, errors.New("generation service is not configured"))
		return
	}

	var req slidesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	resp, err := s.gen.Generate(c.Request.Context(), generate.Request{Text: req.Text, Title: req.Title, Subtitle: req.Subtitle})
	if err != nil {
		_ = c.Error(err)
		status := http.StatusBadGateway
		if se, ok := generate.IsStatusError(err); ok {
			if se.Code >= 400 && se.Code < 500 {
				status = se.Code
			}
			respondError(c, status, CodeGenerationFailed, errors.New(se.Message))
			return
		}
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		respondError(c, status, CodeGenerationFailed, errors.New(generate.DefaultErrorMessage))
		return
	}
	if resp.Cached {
		c.Header("X-Generation-Cache", "hit")
	}
	s.paginate(c, resp.Records, paginate.Options{Title: req.Title, Subtitle: req.Subtitle})
}

// paginateRecords paginates records produced elsewhere. Cover title and
// subtitle may be supplied as query parameters.
func (s *Server) paginateRecords(c *gin.Context) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		s.badRequest(c, err)
		return
	}
	records, err := generate.DecodeRecords(data)
	if err != nil {
		s.badRequest(c, fmt.Errorf("unable to decode records: %w", err))
		return
	}
	s.paginate(c, records, paginate.Options{Title: c.Query("title"), Subtitle: c.Query("subtitle")})
}

func (s *Server) paginate(c *gin.Context, records []generate.Record, opts paginate.Options) {
	res, err := s.engine.Paginate(records, opts)
	if err != nil {
		_ = c.Error(err)
		respondError(c, http.StatusInternalServerError, CodeInternal, errors.New("unable to paginate slides"))
		return
	}
	if res.Stats.Forced > 0 {
		s.log.Warn("Some content does not fit on a page", zap.Int("pages", res.Stats.Forced))
	}
	if res.Slides == nil {
		res.Slides = []slides.Record{}
	}
	respondOK(c, res.Slides)
}

func (s *Server) badRequest(c *gin.Context, err error) {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		respondError(c, http.StatusRequestEntityTooLarge, CodeInvalidRequest, fmt.Errorf("request body exceeds %d bytes", mbe.Limit))
		return
	}
	respondError(c, http.StatusBadRequest, CodeInvalidRequest, err)
}
