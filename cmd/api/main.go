package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	server "github.com/Sudo-psc/saraivavision-site-v2-sub001/internal/adapters/http_server"
	"github.com/Sudo-psc/saraivavision-site-v2-sub001/internal/adapters/observability"
	"github.com/Sudo-psc/saraivavision-site-v2-sub001/internal/adapters/places"
	"github.com/Sudo-psc/saraivavision-site-v2-sub001/internal/app"
	"github.com/Sudo-psc/saraivavision-site-v2-sub001/internal/shared"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// deps: without credentials the handlers answer 500 with a detail
	// breakdown, so the server still comes up
	var (
		svc *app.Service
		hub *app.Broadcaster
	)
	if cfg.HasCredentials() {
		client, err := places.New(cfg.PlacesBase, cfg.PlacesKey, cfg.PlaceID, cfg.PlacesRPS)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize Places client")
		}
		svc = app.NewService(client)
		hub = app.NewBroadcaster(svc, cfg.FetchInterval)
	}

	// http
	srv := server.New()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Cfg: cfg, Svc: svc, Hub: hub})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	g, gctx := errgroup.WithContext(ctx)
	if hub != nil {
		g.Go(func() error { return hub.Run(gctx) })
	}
	g.Go(func() error {
		log.Info().
			Str("addr", cfg.HTTPAddr).
			Dur("fetch_interval", cfg.FetchInterval).
			Dur("heartbeat_interval", cfg.HeartbeatInterval).
			Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		// open SSE connections only end on client disconnect; Close after the
		// drain window severs the stragglers
		if err := httpSrv.Shutdown(shutCtx); err != nil {
			return httpSrv.Close()
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
	log.Info().Msg("shutdown complete")
}
