package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/samhotchkiss/jirabot/internal/api"
	"github.com/samhotchkiss/jirabot/internal/app"
	"github.com/samhotchkiss/jirabot/internal/config"
	"github.com/samhotchkiss/jirabot/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config failed: %v", err)
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Startup failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, a); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
	log.Printf("Jira bot stopped")
}

func run(ctx context.Context, a *app.App) error {
	g, ctx := errgroup.WithContext(ctx)

	hub := ws.NewHub()
	g.Go(func() error {
		hub.Run(ctx)
		return nil
	})

	srv := newHTTPServer(a.Config, newHandler(a, hub))
	g.Go(func() error {
		log.Printf("🤖 Jira bot for project %s listening on port %s", a.Config.Jira.ProjectKey, a.Config.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	bot, err := a.NewDiscordBot(ws.ObservedReplier{Next: a.Router, Hub: hub, Source: "discord"})
	if err != nil {
		return err
	}
	if bot != nil {
		g.Go(func() error {
			return bot.Run(ctx)
		})
	} else {
		log.Printf("Discord bot disabled; serving HTTP and websocket only")
	}

	return g.Wait()
}

func newHandler(a *app.App, hub *ws.Hub) http.Handler {
	return api.NewRouter(api.Dependencies{
		Processor:      a.Assistant,
		Checker:        a.Jira,
		ProjectKey:     a.Config.Jira.ProjectKey,
		Hub:            hub,
		AllowedOrigins: a.Config.AllowedOrigins,
		APIToken:       a.Config.APIToken,
	})
}

func newHTTPServer(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
