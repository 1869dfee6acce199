package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/legalbox/swa/internal/domain/app"
	"github.com/legalbox/swa/internal/infrastructure/logging"
	"github.com/legalbox/swa/internal/infrastructure/monitoring"
	"github.com/legalbox/swa/internal/infrastructure/tracing"
	"github.com/legalbox/swa/internal/providers/document"
)

// Loop runs work on the thread that owns the application core
type Loop interface {
	Do(ctx context.Context, task func()) error
}

// Config holds host settings
type Config struct {
	Host         string
	Port         string
	Development  bool
	ReadTimeout  time.Duration
	CORS         CORSConfig
	RateLimit    RateLimitConfig
	StreamBuffer int
	// Smallest response body sent gzipped
	CompressMinSize int
}

// DefaultConfig returns the settings used when none are given
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            "8000",
		ReadTimeout:     15 * time.Second,
		CORS:            DefaultCORSConfig(),
		RateLimit:       DefaultRateLimitConfig(),
		StreamBuffer:    64,
		CompressMinSize: gzhttp.DefaultMinSize,
	}
}

// Deps are the collaborators the host serves
type Deps struct {
	App      *app.Application
	Document *document.Document
	Loop     Loop
	Gatherer prometheus.Gatherer
	Tracer   *tracing.Tracer
	Trace    *tracing.Scope
	Logger   *logging.Logger
	Metrics  *monitoring.Metrics
}

// Server exposes the page, the bus and the module registry over HTTP
type Server struct {
	router   *gin.Engine
	handler  http.Handler
	http     *http.Server
	config   Config
	app      *app.Application
	doc      *document.Document
	loop     Loop
	gatherer prometheus.Gatherer
	tracer   *tracing.Tracer
	trace    *tracing.Scope
	logger   *logging.Logger
	metrics  *monitoring.Metrics
}

// New builds the router; call Run to listen.
func New(cfg Config, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}
	if cfg.StreamBuffer <= 0 {
		cfg.StreamBuffer = DefaultConfig().StreamBuffer
	}

	if !cfg.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		router:   gin.New(),
		config:   cfg,
		app:      deps.App,
		doc:      deps.Document,
		loop:     deps.Loop,
		gatherer: deps.Gatherer,
		tracer:   deps.Tracer,
		trace:    deps.Trace,
		logger:   deps.Logger.Named("server"),
		metrics:  deps.Metrics,
	}
	s.routes()
	s.handler = s.compress()
	s.http = &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:           s.handler,
		ReadHeaderTimeout: cfg.ReadTimeout,
	}
	return s
}

func (s *Server) routes() {
	s.router.Use(gin.Recovery())
	if s.tracer != nil {
		s.router.Use(tracing.HTTPMiddleware(s.tracer))
	}
	s.router.Use(monitoring.Middleware(s.metrics))
	s.router.Use(CORS(s.config.CORS))
	if s.config.RateLimit.Enabled {
		s.logger.Info("Rate limiting enabled",
			zap.Int("rps", s.config.RateLimit.RequestsPerSecond),
			zap.Int("burst", s.config.RateLimit.Burst),
		)
		s.router.Use(RateLimit(s.config.RateLimit))
	}

	s.router.GET("/", s.page)
	s.router.GET("/health", s.health)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	s.router.GET("/modules", s.modules)
	s.router.POST("/events", s.publish)
	s.router.POST("/dom/:id/:type", s.dispatch)
	s.router.GET("/ws", s.stream)
}

// compress gzips responses for clients that accept it. The websocket
// route is served as is since the upgrade needs the raw connection.
func (s *Server) compress() http.Handler {
	wrap, err := gzhttp.NewWrapper(gzhttp.MinSize(s.config.CompressMinSize))
	if err != nil {
		s.logger.Warn("Invalid compression settings, using defaults", zap.Error(err))
		wrap = gzhttp.GzipHandler
	}
	compressed := wrap(s.router)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ws" {
			s.router.ServeHTTP(w, r)
			return
		}
		compressed.ServeHTTP(w, r)
	})
}

// run executes task on the loop under the trace carried by ctx
func (s *Server) run(ctx context.Context, task func()) error {
	return s.loop.Do(ctx, s.trace.Wrap(ctx, task))
}

// Handler returns the router behind response compression
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run listens on the configured address until Shutdown is called. It
// returns nil at once when Shutdown came first.
func (s *Server) Run() error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return err
	}

	s.logger.Info("Starting HTTP server", zap.String("addr", ln.Addr().String()))
	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for handlers to return.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.http.Shutdown(ctx)
}
