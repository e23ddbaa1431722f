package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/elskow/airdrop-journal/internal/airdrop"
	"github.com/elskow/airdrop-journal/internal/auth"
	"github.com/elskow/airdrop-journal/internal/config"
	"github.com/elskow/airdrop-journal/internal/database"
	"github.com/elskow/airdrop-journal/internal/httpx"
	"github.com/elskow/airdrop-journal/internal/ratelimit"
	"github.com/elskow/airdrop-journal/internal/stats"
	"github.com/elskow/airdrop-journal/internal/tag"
	"github.com/elskow/airdrop-journal/internal/task"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	config     *config.AppConfig
	log        *zap.Logger
	engine     *gin.Engine
	httpServer *http.Server
}

type Params struct {
	fx.In

	Config         *config.AppConfig
	Logger         *zap.Logger
	Database       *database.Manager
	AuthHandler    *auth.Handler
	AuthMiddleware *auth.Middleware
	RateLimit      *ratelimit.Middleware
	Airdrops       *airdrop.Handler
	Tasks          *task.Handler
	Tags           *tag.Handler
	Stats          *stats.Handler
}

func NewServer(p Params) (*Server, error) {
	return newServer(p, p.Database)
}

func newServer(p Params, db Pinger) (*Server, error) {
	engine, err := newEngine(p.Config, p.Logger)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config: p.Config,
		log:    p.Logger,
		engine: engine,
		httpServer: &http.Server{
			Addr:         net.JoinHostPort(p.Config.Server.Host, p.Config.Server.Port),
			Handler:      engine,
			ReadTimeout:  p.Config.Server.ReadTimeout,
			WriteTimeout: p.Config.Server.WriteTimeout,
		},
	}
	s.registerRoutes(p, db)

	return s, nil
}

func newEngine(cfg *config.AppConfig, log *zap.Logger) (*gin.Engine, error) {
	switch cfg.Env {
	case EnvDevelopment:
		gin.SetMode(gin.DebugMode)
	case EnvTesting:
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}
	engine.Use(requestLogger(log), recovery(log))
	engine.NoRoute(func(c *gin.Context) {
		httpx.Fail(c, http.StatusNotFound, "route not found")
	})
	return engine, nil
}

// Handler exposes the router, for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start binds the listener and serves in the background. A bind failure is
// returned so start-up aborts.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	s.log.Info("starting HTTP server",
		zap.String("address", lis.Addr().String()),
		zap.Object("config", serverConfigToField(s.config)),
	)

	go func() {
		if err := s.httpServer.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http server stopped", zap.Error(err))
		}
	}()
	return nil
}

func serverConfigToField(config *config.AppConfig) zapcore.ObjectMarshaler {
	return zapcore.ObjectMarshalerFunc(func(enc zapcore.ObjectEncoder) error {
		enc.AddString("environment", config.Env)
		enc.AddDuration("read_timeout", config.Server.ReadTimeout)
		enc.AddDuration("write_timeout", config.Server.WriteTimeout)
		enc.AddInt("trusted_proxies", len(config.Server.TrustedProxies))
		enc.AddBool("rate_limit_enabled", config.RateLimit.Enabled)
		enc.AddString("rate_limit_store", config.RateLimit.Store)
		enc.AddString("mail_driver", config.Mail.Driver)
		return nil
	})
}

// Stop drains in-flight requests for at most server.shutdown_timeout.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	if timeout := s.config.Server.ShutdownTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return s.httpServer.Shutdown(ctx)
}
