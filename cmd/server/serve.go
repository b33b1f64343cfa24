package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jengzang/dwell-backend-go/internal/api"
	"github.com/jengzang/dwell-backend-go/internal/conversation"
	"github.com/jengzang/dwell-backend-go/internal/middleware"
	"github.com/jengzang/dwell-backend-go/internal/publisher"
	"github.com/jengzang/dwell-backend-go/internal/publisher/rabbitmq"
	"github.com/jengzang/dwell-backend-go/internal/subscriber"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and optional MQTT ingest",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, v)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default :8080).")
	cmd.Flags().String("zones-file", "", "YAML file of zones to seed on startup.")
	_ = v.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	_ = v.BindPFlag("zones.file", cmd.Flags().Lookup("zones-file"))

	return cmd
}

func runServe(ctx context.Context, v *viper.Viper) error {
	a, err := newApp(v)
	if err != nil {
		return err
	}
	defer a.Close()
	cfg := a.cfg

	var pub publisher.TransitionPublisher = publisher.Noop{}
	if cfg.RabbitMQ.Enabled {
		p, conn, err := rabbitmq.Dial(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.Queue)
		if err != nil {
			return err
		}
		defer conn.Close()
		pub = p
		a.logger.Info("rabbitmq publisher ready", "exchange", cfg.RabbitMQ.Exchange)
	}

	svc := a.locationService(ctx, pub)
	if err := a.seedZones(ctx, svc); err != nil {
		return err
	}

	if cfg.MQTT.Enabled {
		client, err := subscriber.Connect(subscriber.ClientConfig{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
		})
		if err != nil {
			return err
		}
		defer client.Disconnect(250)

		sub := subscriber.NewLocationSubscriber(client, svc, cfg.MQTT.Topic, byte(cfg.MQTT.QoS), a.logger)
		if err := sub.Start(ctx); err != nil {
			return err
		}
		defer sub.Stop()
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Requests > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
		go limiter.Run(ctx.Done())
	}

	router := api.SetupRouter(cfg, api.Dependencies{
		Location:    svc,
		Zones:       svc,
		Drafts:      conversation.NewDrafts(svc, cfg.Conversation.DraftTTL),
		RateLimiter: limiter,
		Logger:      a.logger,
	})
	if cfg.Auth.JWTSecret == "" {
		a.logger.Warn("auth.jwt_secret is empty, API is unauthenticated")
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server starting", "addr", cfg.Server.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
