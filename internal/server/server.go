package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/persona/internal/logging"
	"github.com/GriffinCanCode/persona/internal/monitoring"
	"github.com/GriffinCanCode/persona/internal/persona"
	"github.com/GriffinCanCode/persona/internal/session"
)

const shutdownTimeout = 5 * time.Second

// Sessions is the read-only view of the session registry the API serves.
type Sessions interface {
	Snapshot() []session.Info
	ActiveIDs() []string
	Get(personaID string) (*session.Session, bool)
}

// Config contains server configuration
type Config struct {
	Address     string
	Development bool
	// AllowOrigins enables CORS for the listed origins.
	AllowOrigins []string
	// RateLimit is requests per second per client; zero disables it.
	RateLimit float64
	Burst     int
}

// Server is the local control API.
type Server struct {
	cfg      Config
	router   *gin.Engine
	sessions Sessions
	personas []persona.Persona
	metrics  *monitoring.Metrics
	logger   *logging.Logger
	started  time.Time
}

// New builds the router. metrics may be nil, in which case /metrics is not
// registered.
func New(cfg Config, sessions Sessions, personas []persona.Persona, metrics *monitoring.Metrics, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	if !cfg.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:      cfg,
		router:   gin.New(),
		sessions: sessions,
		personas: personas,
		metrics:  metrics,
		logger:   logger.Named("server"),
		started:  time.Now(),
	}

	s.router.Use(gin.Recovery())
	s.router.Use(requestID())
	if len(cfg.AllowOrigins) > 0 {
		s.router.Use(allowOrigins(cfg.AllowOrigins))
	}
	if cfg.RateLimit > 0 {
		s.router.Use(rateLimit(cfg.RateLimit, cfg.Burst))
	}
	s.router.Use(monitoring.Middleware(metrics))

	s.router.GET("/health", s.health)
	if metrics != nil {
		s.router.GET("/metrics", gin.WrapH(metrics.Handler()))
		s.router.GET("/api/stats", s.stats)
	}

	api := s.router.Group("/api")
	api.GET("/sessions", s.listSessions)
	api.GET("/sessions/:id/output", s.sessionOutput)
	api.GET("/personas", s.listPersonas)

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Address,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting control API", zap.String("addr", s.cfg.Address))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("Shutting down control API")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"uptime":   time.Since(s.started).Round(time.Second).String(),
		"sessions": len(s.sessions.ActiveIDs()),
	})
}

func (s *Server) stats(c *gin.Context) {
	c.JSON(http.StatusOK, s.metrics.GetSnapshot())
}

func (s *Server) listSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"active":   s.sessions.ActiveIDs(),
		"sessions": s.sessions.Snapshot(),
	})
}

func (s *Server) sessionOutput(c *gin.Context) {
	sess, ok := s.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	if sess.Failed() {
		c.JSON(http.StatusConflict, gin.H{"error": sess.Err()})
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", sess.Tail())
}

func (s *Server) listPersonas(c *gin.Context) {
	type item struct {
		persona.Persona
		Active bool `json:"active"`
	}
	active := make(map[string]bool)
	for _, id := range s.sessions.ActiveIDs() {
		active[id] = true
	}
	out := make([]item, 0, len(s.personas))
	for _, p := range s.personas {
		out = append(out, item{Persona: p, Active: active[p.ID]})
	}
	c.JSON(http.StatusOK, out)
}
