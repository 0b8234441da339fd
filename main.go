package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := MustLoadConfig()
	SetLogLevel(cfg.LogLevel)

	initial := map[string]int{}
	if cfg.StateFile != "" {
		loaded, err := LoadState(cfg.StateFile)
		if err != nil {
			panic(err)
		}
		initial = loaded
		LogLoadedState(cfg.StateFile, len(initial))
	}

	rooms := NewRoomStore(initial)
	dispatcher := NewDispatcher(rooms, NewSessionTracker(cfg.SessionTTL))
	registry := NewRegistry(rooms, dispatcher, NewStaticKeyAuthorizer(cfg.OperatorKey))
	sessions := NewSessionJWT(cfg.JwtSecret, cfg.CookieMaxAge)

	server := &http.Server{
		Addr:    cfg.Addr(),
		Handler: NewHTTPServer(cfg, dispatcher, registry, sessions),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		LogStartedServer(cfg.Port)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		LogStoppingServer()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownAfter)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return RunSessionSweeper(ctx, dispatcher, cfg.SweepInterval)
	})
	if cfg.StateFile != "" {
		persister := NewStatePersister(cfg.StateFile, rooms)
		g.Go(func() error {
			return persister.Run(ctx)
		})
	}

	if err := g.Wait(); err != nil {
		panic(err)
	}
}
