package main

import (
	"context"
	"errors"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/atlaserp/portal-gateway/authflow"
	"github.com/atlaserp/portal-gateway/internal/config"
	"github.com/atlaserp/portal-gateway/messaging"
	"github.com/atlaserp/portal-gateway/server"
	"github.com/atlaserp/portal-gateway/server/ssostate"
	"github.com/atlaserp/portal-gateway/sessions"
	"github.com/atlaserp/portal-gateway/upstream"
)

const (
	maintenanceInterval      = 5 * time.Minute
	notificationPollInterval = 5 * time.Second
)

func main() {
	for {
		if err := run(); err != nil {
			stdlog.Fatalf("Error running server: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	stdlog.Printf("Server stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			stdlog.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	_ = godotenv.Load()
	c := config.New()
	configureLogging(c)
	displayAppname(c.GetAppName())

	repo, closeRepo, err := sessionRepo(c)
	if err != nil {
		return fmt.Errorf("session store: %w", err)
	}
	defer closeRepo()

	authClient := upstream.NewAuthClient(c.GetAuthServiceURL(), c.GetUpstreamTimeout(), c.GetLoginTimeout())

	var options []authflow.ServiceOption
	if c.GetDemoMode() {
		log.Warn().Msg("demo mode enabled: unreachable auth service falls back to fabricated logins")
		options = append(options, authflow.WithDemoFallback(authflow.NewDemoStrategy(c.GetDemoEmail(), c.GetDemoPasswordHash())))
	}
	authService, err := authflow.NewService(authflow.NewLiveStrategy(authClient), repo, c.GetRefreshTokenTTL(), options...)
	if err != nil {
		return fmt.Errorf("auth service: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := messaging.NewHub()
	go hub.Run(ctx)

	notifications := upstream.NewNotificationsClient(c.GetNotificationsServiceURL(), c.GetUpstreamTimeout())
	go messaging.NewBridge(notifications, hub, notificationPollInterval).Run(ctx)

	tickets := messaging.NewTicketStore()
	go runMaintenance(ctx, authService, tickets)

	gateway, err := server.New(c, authService, authflow.NewGuard(authService), authClient, hub, tickets, ssostate.NewInMemoryRepo())
	if err != nil {
		return fmt.Errorf("server: %w", err)
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: gateway}
	go listenAndServe(httpServer)
	waitForStopSignal()
	cancel()
	returnError = shutdown(httpServer)
	return returnError
}

func configureLogging(c config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func sessionRepo(c config.Config) (sessions.Repo, func(), error) {
	path := c.GetSessionStorePath()
	if path == "" {
		log.Info().Msg("using in-memory session store")
		return sessions.NewInMemoryRepo(), func() {}, nil
	}

	repo, err := sessions.OpenSQLiteRepo(path)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("path", path).Msg("using sqlite session store")
	return repo, func() { _ = repo.Close() }, nil
}

// runMaintenance sweeps expired sessions and stale WebSocket tickets.
func runMaintenance(ctx context.Context, authService *authflow.Service, tickets *messaging.TicketStore) {
	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed, err := authService.CleanupExpiredSessions(ctx); err != nil {
				log.Error().Err(err).Msg("session cleanup failed")
			} else if removed > 0 {
				log.Debug().Int64("removed", removed).Msg("expired sessions removed")
			}
			tickets.Sweep()
		}
	}
}

func listenAndServe(server *http.Server) error {
	stdlog.Printf("Server listening on %s\n", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
