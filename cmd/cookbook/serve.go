package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Kerhoff/cookbook/internal/api"
	"github.com/Kerhoff/cookbook/internal/auth"
	"github.com/Kerhoff/cookbook/internal/config"
	"github.com/Kerhoff/cookbook/internal/events"
	"github.com/Kerhoff/cookbook/internal/handlers"
	"github.com/Kerhoff/cookbook/internal/service"
	"github.com/Kerhoff/cookbook/internal/telegram"
	"github.com/Kerhoff/cookbook/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the metrics endpoint and the Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			return serve(cmd.Context(), cfg, logger.New(cfg.LogLevel))
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, l *logrus.Logger) error {
	l.Info("Starting cookbook...")

	repos, db, err := openStore(cfg, l)
	if err != nil {
		return err
	}
	var pinger api.Pinger
	if db != nil {
		defer db.Close()
		pinger = db
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	bus := events.NewBus(l, events.NewMetrics(reg), cfg.EventQueueSize, events.NewLogListener(l))
	defer bus.Close()

	svc := service.New(l, repos)
	if _, err := svc.EnsureGroup(ctx, cfg.DefaultGroup); err != nil {
		return err
	}
	if cfg.HasAdmin() {
		if _, err := svc.EnsureAdmin(ctx, cfg.DefaultGroup, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}
	}

	var directory auth.Verifier
	if cfg.LDAP.Enabled {
		directory = auth.NewDirectoryAdapter(cfg.LDAP, nil, l)
		l.WithField("server", cfg.LDAP.ServerURL).Info("LDAP authentication enabled")
	}

	server := api.NewServer(api.Options{
		Service:       svc,
		Authenticator: auth.NewAuthenticator(repos.Users, repos.Groups, directory, cfg.DefaultGroup, l),
		Tokens:        auth.NewTokenIssuer(cfg.TokenSecret, cfg.TokenTime),
		Events:        bus,
		Metrics:       api.NewMetrics(reg),
		DB:            pinger,
		Logger:        l,
	})

	var bot *telegram.Bot
	if cfg.TelegramToken != "" {
		if bot, err = startBot(ctx, cfg, svc, bus, l); err != nil {
			return err
		}
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	metricsServer := &http.Server{
		Addr:              ":" + cfg.PrometheusPort,
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		l.Infof("HTTP server listening on :%s", cfg.Port)
		return listen(httpServer)
	})
	g.Go(func() error {
		l.Infof("Metrics listening on :%s", cfg.PrometheusPort)
		return listen(metricsServer)
	})

	if bot != nil {
		g.Go(func() error { return bot.Start(ctx) })
	}

	g.Go(func() error {
		<-ctx.Done()
		l.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return errors.Join(httpServer.Shutdown(shutdownCtx), metricsServer.Shutdown(shutdownCtx))
	})

	l.Info("cookbook started successfully")
	err = g.Wait()
	l.Info("cookbook stopped")
	return err
}

func listen(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve on %s: %w", srv.Addr, err)
	}
	return nil
}

// startBot connects the Telegram bot, registers its commands and, when a
// chat is configured, subscribes the chat notifier to the bus.
func startBot(ctx context.Context, cfg *config.Config, svc *service.Service, bus *events.Bus, l *logrus.Logger) (*telegram.Bot, error) {
	bot, err := telegram.NewBot(cfg.TelegramToken, l)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	chat := handlers.NewChat(svc, cfg.TelegramGroup)
	bot.RegisterCommand("start", handlers.NewStartHandler(l))
	bot.RegisterCommand("help", handlers.NewHelpHandler(l))
	bot.RegisterCommand("lists", handlers.NewListsHandler(chat, l))
	bot.RegisterCommand("list", handlers.NewListHandler(chat, l))
	bot.RegisterCommand("buy", handlers.NewBuyAddHandler(chat, bus, l))
	bot.RegisterCommand("bought", handlers.NewBuyDoneHandler(chat, bus, l))

	if cfg.TelegramChatID != 0 {
		group, err := svc.EnsureGroup(ctx, cfg.TelegramGroup)
		if err != nil {
			return nil, err
		}
		bus.Subscribe(telegram.NewNotifier(bot.Sender(), cfg.TelegramChatID, group.ID, svc.Lists, l))
		l.WithFields(logrus.Fields{
			"chat_id": cfg.TelegramChatID,
			"group":   group.Name,
		}).Info("Telegram notifications enabled")
	}
	return bot, nil
}
