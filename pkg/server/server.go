package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"igaudit/pkg/cache"
	"igaudit/pkg/config"
	"igaudit/pkg/detector"
	"igaudit/pkg/logger"
	"igaudit/pkg/ratelimit"
)

// Checker classifies one account. *detector.Detector satisfies it.
type Checker interface {
	Check(ctx context.Context, raw string) (*detector.Report, error)
}

// Server serves the classification API
type Server struct {
	engine   *gin.Engine
	http     *http.Server
	checker  Checker
	limiter  *ratelimit.KeyedLimiter
	checks   map[string]cache.Pinger
	shutdown time.Duration
	logger   logger.Logger
}

// New builds the gin engine and registers the routes. A zero
// client_requests_per_minute disables per-client limiting.
func New(cfg *config.Config, checker Checker, log logger.Logger) *Server {
	if log == nil {
		log = logger.GetLogger()
	}

	switch cfg.Server.Mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		gin.SetMode(cfg.Server.Mode)
	}

	s := &Server{
		checker:  checker,
		checks:   make(map[string]cache.Pinger),
		shutdown: cfg.Server.ShutdownTimeout,
		logger:   log.WithField("component", "server"),
	}
	if rpm := cfg.RateLimit.ClientRequestsPerMinute; rpm > 0 {
		s.limiter = ratelimit.NewKeyedLimiter(rpm, time.Minute)
	}

	engine := gin.New()
	// ClientIP must come from the socket, not from forwarded headers
	_ = engine.SetTrustedProxies(nil)
	engine.Use(requestID(), requestLogger(s.logger), recovery(s.logger))

	engine.GET("/healthz", s.handleHealth)

	v1 := engine.Group("/api/v1")
	v1.Use(clientRateLimit(s.limiter))
	{
		v1.GET("/classify", s.handleClassifyQuery)
		v1.POST("/classify", s.handleClassifyBody)
	}

	s.engine = engine
	s.http = &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return s
}

// AddHealthCheck makes /healthz ping p under name
func (s *Server) AddHealthCheck(name string, p cache.Pinger) {
	s.checks[name] = p
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then drains in-flight requests for at
// most the configured shutdown timeout
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.LogComponentStart("server", map[string]interface{}{
			"address": s.http.Addr,
		})
		if err := s.http.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
		defer cancel()

		err := s.http.Shutdown(shutdownCtx)
		logger.LogComponentStop("server", context.Cause(gctx).Error())
		return err
	})

	return g.Wait()
}
