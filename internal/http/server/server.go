// Package server assembles the application from configuration and runs the
// HTTP listener alongside the cleanup sweeper.
package server

import (
	"context"
	"net/http"
	"time"

	rdb "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/maticastro/authgate/internal/cache"
	"github.com/maticastro/authgate/internal/cleanup"
	"github.com/maticastro/authgate/internal/config"
	"github.com/maticastro/authgate/internal/email"
	authctl "github.com/maticastro/authgate/internal/http/controllers/auth"
	"github.com/maticastro/authgate/internal/http/router"
	authsvc "github.com/maticastro/authgate/internal/http/services/auth"
	"github.com/maticastro/authgate/internal/http/services/session"
	jwtx "github.com/maticastro/authgate/internal/jwt"
	"github.com/maticastro/authgate/internal/metrics"
	"github.com/maticastro/authgate/internal/observability/logger"
	"github.com/maticastro/authgate/internal/rate"
	"github.com/maticastro/authgate/internal/store"
)

// Server owns the listener and the resources it must release on shutdown.
type Server struct {
	cfg     *config.Config
	store   store.Store
	cache   cache.Client
	sweeper *cleanup.Sweeper
	httpSrv *http.Server
}

// New opens the store and wires every layer. The caller runs it with Run.
func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	st, err := store.Open(ctx, store.Config{
		Driver:   cfg.Storage.Driver,
		DSN:      cfg.Storage.DSN,
		MaxConns: cfg.Storage.MaxConns,
	})
	if err != nil {
		return nil, err
	}

	cacheClient := cache.New(cache.Config{
		Driver:   cfg.Cache.Driver,
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   cfg.Cache.Prefix,
	})

	issuer := &jwtx.Issuer{
		Secret:            []byte(cfg.JWT.Secret),
		AccessTTL:         cfg.JWT.AccessTTL,
		AccessTTLRemember: cfg.JWT.AccessTTLRemember,
	}

	var sender email.Sender
	if cfg.SMTP.Host != "" {
		smtp := email.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From, cfg.SMTP.Username, cfg.SMTP.Password)
		if cfg.SMTP.TLSMode != "" {
			smtp.TLSMode = cfg.SMTP.TLSMode
		}
		sender = smtp
	} else {
		logger.L().Warn("no SMTP host configured, using log sender")
		sender = email.LogSender{}
	}

	services := authsvc.NewServices(authsvc.Deps{
		Store:              st,
		Cache:              cacheClient,
		Issuer:             issuer,
		Sender:             sender,
		RefreshTTL:         cfg.Refresh.TTL,
		RefreshTTLRemember: cfg.Refresh.TTLRemember,
		OtpTTL:             cfg.OTP.TTL,
	})

	validator := session.NewValidator(session.Deps{Store: st, Issuer: issuer})

	sweeper := cleanup.New(cleanup.Deps{
		Tokens:   st.Tokens(),
		Otps:     st.Otps(),
		Interval: cfg.Cleanup.Interval,
	})

	metricsHandler, err := metrics.Register(nil)
	if err != nil {
		st.Close()
		return nil, err
	}

	controllers := authctl.NewControllers(services, authctl.CookieConfig{
		Domain: cfg.Cookies.Domain,
		Secure: cfg.CookieSecure(),
	})

	handler := router.New(router.Deps{
		Controllers:  controllers,
		Validator:    validator,
		Sweeper:      sweeper,
		Store:        st,
		LoginLimiter: buildLimiter(cfg, cfg.Rate.Login.Limit, cfg.Rate.Login.Window, "rl:login:"),
		OtpLimiter:   buildLimiter(cfg, cfg.Rate.Otp.Limit, cfg.Rate.Otp.Window, "rl:otp:"),
		Metrics:      metricsHandler,
	})

	return &Server{
		cfg:   cfg,
		store: st,
		cache: cacheClient,
		httpSrv: &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		sweeper: sweeper,
	}, nil
}

// buildLimiter picks redis when the cache runs on redis, in-process otherwise.
func buildLimiter(cfg *config.Config, limit int, window time.Duration, prefix string) rate.Limiter {
	if !cfg.Rate.Enabled {
		return nil
	}
	if cfg.Cache.Driver == "redis" {
		client := rdb.NewClient(&rdb.Options{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		return rate.NewRedisLimiter(client, prefix, limit, window)
	}
	return rate.NewMemoryLimiter(limit, window)
}

// Run serves HTTP and runs the sweeper until ctx is canceled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	log := logger.L().With(logger.Component("server"))

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("listening", logger.String("addr", s.cfg.Server.Addr))
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		err := s.sweeper.Run(ctx)
		if err == context.Canceled {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	})

	err := g.Wait()

	s.store.Close()
	if cerr := s.cache.Close(); cerr != nil {
		log.Warn("cache close failed", logger.Err(cerr))
	}

	return err
}
