package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tableside/console/internal/api"
	"github.com/tableside/console/internal/auth"
	"github.com/tableside/console/internal/config"
	"github.com/tableside/console/internal/notify"
	"github.com/tableside/console/internal/push"
	"github.com/tableside/console/internal/router"
	"github.com/tableside/console/internal/service"
	"github.com/tableside/console/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg := config.Load()
	log.SetLevel(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("console stopped")
	}
}

func run(cfg *config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session, err := auth.NewSession(auth.NewFileTokenStore(cfg.SessionFile), log)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}

	client, err := api.New(cfg.APIBaseURL, cfg.APITimeout, session, log)
	if err != nil {
		return fmt.Errorf("api client: %w", err)
	}

	hub := ws.NewHub(log)
	go hub.Run()

	logNotes := notify.LogNotifier{Log: log}
	staffNotes := notify.Multi{logNotes, notify.NewHubNotifier(hub, ws.TopicStaff, cfg.AlertSound, log)}

	pusher := push.New(push.Config{
		Key:            cfg.PusherKey,
		Cluster:        cfg.PusherCluster,
		Endpoint:       cfg.PusherEndpoint,
		ReconnectDelay: cfg.PushReconnectDelay,
	}, log)

	staff := service.NewStaffBoard(client, session, pusher, staffNotes, service.StaffBoardConfig{
		Channel: cfg.PushChannel,
		Event:   cfg.PushEvent,
	}, log)
	catalog := service.NewCatalog(client, session, logNotes, log)
	customer := service.NewCustomerMenu(client, log)

	// Any end of the session tears the signed-in views down.
	session.OnClear(staff.Unmount)
	session.OnClear(catalog.Unmount)

	checkOrigin := func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(cfg.AllowedOrigins, origin)
	}

	r := router.New(router.Deps{
		Session:  session,
		Login:    client,
		Staff:    staff,
		Catalog:  catalog,
		Customer: customer,
		WS:       ws.NewServer(hub, session, checkOrigin),
		Origins:  cfg.AllowedOrigins,
		Log:      log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"port":    cfg.Port,
			"api":     cfg.APIBaseURL,
			"session": session.Authenticated(),
		}).Info("console listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err = srv.Shutdown(shutdownCtx)
	staff.Unmount()
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("console stopped cleanly")
	return nil
}
