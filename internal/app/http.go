package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/adanyl0v/go-task-tree/internal/config"
	"github.com/adanyl0v/go-task-tree/internal/delivery/http/middleware"
	"github.com/adanyl0v/go-task-tree/internal/delivery/http/v1"
)

// MustListenAndServeHTTP serves until SIGINT or SIGTERM, then drains
// in-flight requests within the shutdown timeout.
func MustListenAndServeHTTP() {
	cfg := config.Global()
	if cfg.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	limiter := middleware.NewRateLimiter(
		globalLogger.With().Str("middleware", "rate_limiter").Logger(),
		rate.Limit(cfg.RateLimit.RPS),
		cfg.RateLimit.Burst,
		cfg.RateLimit.IdleTTL,
	)
	go limiter.Run(ctx)

	router := gin.New()
	router.Use(
		middleware.Recovery(globalLogger),
		middleware.RequestLogger(globalLogger),
		middleware.CORS(cfg.CORS.AllowedOrigins),
		limiter.Handler(),
	)
	registerRoutes(router)

	httpCfg := cfg.HTTP
	server := &http.Server{
		Addr:              net.JoinHostPort(httpCfg.Host, httpCfg.Port),
		Handler:           router,
		ReadHeaderTimeout: httpCfg.ReadHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		globalLogger.Info().
			Str("addr", server.Addr).
			Msg("serving http")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			globalLogger.Error().
				Err(err).
				Msg("failed to listen and serve http")
			panic(err)
		}
		return
	case <-ctx.Done():
	}

	globalLogger.Info().Msg("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to shutdown http server")
		panic(err)
	}
	globalLogger.Info().Msg("shut down http server")
}

func registerRoutes(router gin.IRouter) {
	v1Handler := v1.New(
		globalLogger.With().Str("api", "v1").Logger(),
		globalAuthService,
		globalTaskService,
	)
	v1.RegisterRoutes(router.Group("/api/v1"), v1Handler)
}
