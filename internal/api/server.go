//nolint:revive // Package name 'api' is intentionally generic for the HTTP API layer
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/jhomen368/overseerr-mcp/internal/api/handlers"
	apimw "github.com/jhomen368/overseerr-mcp/internal/api/middleware"
	"github.com/jhomen368/overseerr-mcp/internal/api/ratelimit"
	"github.com/jhomen368/overseerr-mcp/internal/cache"
	"github.com/jhomen368/overseerr-mcp/internal/config"
	"github.com/jhomen368/overseerr-mcp/internal/dedupe"
	"github.com/jhomen368/overseerr-mcp/internal/details"
	"github.com/jhomen368/overseerr-mcp/internal/health"
	"github.com/jhomen368/overseerr-mcp/internal/requests"
	"github.com/jhomen368/overseerr-mcp/internal/scheduler"
	"github.com/jhomen368/overseerr-mcp/internal/websocket"
)

// Deps are the services the server exposes. Scheduler, Hub and Logs are
// optional; their routes are left out when nil.
type Deps struct {
	Config      *config.Config
	Dedupe      *dedupe.Service
	Requests    *requests.Service
	Details     *details.Service
	Cache       *cache.Cache
	Health      *health.Service
	Scheduler   *scheduler.Scheduler
	Hub         *websocket.Hub
	Logs        LogsProvider
	LogFilePath string
	Logger      zerolog.Logger
}

// Server is the HTTP API server.
type Server struct {
	echo      *echo.Echo
	cfg       *config.Config
	logger    zerolog.Logger
	validator *requestValidator
	limiter   *ratelimit.KeyLimiter
	startTime time.Time

	dedupe    *dedupe.Service
	requests  *requests.Service
	details   *details.Service
	cache     *cache.Cache
	health    *health.Service
	scheduler *scheduler.Scheduler
	hub       *websocket.Hub
	logs      LogsProvider
	logFile   string
}

// NewServer creates a new API server instance.
func NewServer(d Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:      e,
		cfg:       d.Config,
		logger:    d.Logger.With().Str("component", "api").Logger(),
		validator: newRequestValidator(),
		limiter:   ratelimit.NewKeyLimiter(),
		startTime: time.Now(),
		dedupe:    d.Dedupe,
		requests:  d.Requests,
		details:   d.Details,
		cache:     d.Cache,
		health:    d.Health,
		scheduler: d.Scheduler,
		hub:       d.Hub,
		logs:      d.Logs,
		logFile:   d.LogFilePath,
	}
	if s.cfg == nil {
		s.cfg = config.Default()
	}

	e.Validator = s.validator
	e.HTTPErrorHandler = s.errorHandler

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures Echo middleware.
func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.echo.Use(middleware.Recover())

	// Request ID
	s.echo.Use(middleware.RequestID())

	// Security headers
	s.echo.Use(apimw.SecurityHeaders())

	// Request body size limit (2MB)
	s.echo.Use(middleware.BodyLimit("2M"))

	// CORS
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, apimw.HeaderAPIKey},
	}))

	// Request logging
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogMethod:   true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Warn().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Err(v.Error).
					Msg("request error")
			} else {
				s.logger.Debug().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Msg("request")
			}
			return nil
		},
	}))

	// Gzip compression
	s.echo.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			// Skip compression for WebSocket
			return c.Request().Header.Get("Upgrade") == "websocket"
		},
	}))
}

// setupRoutes configures API routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)

	api := s.echo.Group("/api/v1")
	api.Use(apimw.APIKey(s.cfg.API.Key, s.limiter))

	api.GET("/status", s.getStatus)

	cacheGroup := api.Group("/cache")
	cacheGroup.GET("/stats", s.getCacheStats)
	cacheGroup.DELETE("", s.clearCache)

	api.POST("/dedupe", s.dedupeTitles)
	api.POST("/requests/media", s.requestMedia)
	api.POST("/requests/manage", s.manageRequests)
	api.POST("/media/search", s.searchMedia)
	api.POST("/media/details", s.mediaDetails)

	if s.logs != nil {
		NewLogsHandlers(s.logs, s.logFile).RegisterRoutes(api.Group("/logs"))
	}

	if s.scheduler != nil {
		handlers.NewSchedulerHandler(s.scheduler).RegisterRoutes(api.Group("/tasks"))
	}

	if s.hub != nil {
		s.echo.GET("/ws", s.hub.HandleWebSocket, apimw.APIKey(s.cfg.API.Key, s.limiter))
	}
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start(address string) error {
	s.logger.Info().Str("address", address).Msg("starting HTTP server")
	s.limiter.StartCleanup(context.Background(), 10*time.Minute)
	return s.echo.Start(address)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}

// Echo returns the underlying echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
