package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/care-portal/internal/config"
	"github.com/jrsteele09/care-portal/internal/logging"
	"github.com/jrsteele09/care-portal/internal/redisclient"
	fakerecordrepo "github.com/jrsteele09/care-portal/records/repofake"
	"github.com/jrsteele09/care-portal/server"
	"github.com/jrsteele09/care-portal/token"
	"github.com/jrsteele09/care-portal/token/refresh"
	refreshrepofake "github.com/jrsteele09/care-portal/token/refresh/repofake"
	"github.com/jrsteele09/care-portal/token/refresh/reporedis"
	fakeuserrepo "github.com/jrsteele09/care-portal/users/repofake"
	"github.com/rs/zerolog/log"
)

const (
	revocationCleanupInterval = 5 * time.Minute
	shutdownTimeout           = 5 * time.Second
)

func main() {
	for {
		if err := run(); err != nil {
			log.Error().Err(err).Msg("Error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	logger := logging.Setup(c.GetLogLevel(), c.GetLogPretty(), os.Stderr)
	displayAppname(c.GetAppName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := redisclient.New(ctx, c.GetRedisURL())
	if err != nil {
		return fmt.Errorf("redisclient.New: %w", err)
	}

	signer, generated, err := token.NewSigner(c.GetSigningKeyID(), c.GetSigningKeyPEM())
	if err != nil {
		return fmt.Errorf("token.NewSigner: %w", err)
	}
	if generated {
		logger.Warn().Msg("SIGNING_KEY_PEM not set, using a generated key; tokens will not survive a restart")
	}

	tokenOpts := []token.ManagerOption{
		token.WithIssuer(c.GetIssuer()),
		token.WithAudience(c.GetAudience()),
		token.WithAccessTokenExpiry(c.GetAccessTokenExpiry()),
	}
	var refreshRepo refresh.Repo = refreshrepofake.NewFakeRefreshTokenRepo()
	var serverOpts []server.Option
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
		refreshRepo = reporedis.NewRedisRefreshTokenRepo(rdb)
		tokenOpts = append(tokenOpts, token.WithRevokedTokenCache(token.NewRedisRevokedTokenCache(rdb)))
		serverOpts = append(serverOpts, server.WithHealthCheck("redis", rdb.Health))
		logger.Info().Msg("refresh tokens and revocations stored in Redis")
	} else {
		logger.Info().Msg("REDIS_URL not set, sessions are held in memory")
	}

	srv, err := server.New(c, server.Repos{
		Users:         fakeuserrepo.NewFakeUserRepo(),
		Records:       fakerecordrepo.NewFakeRecordRepo(),
		RefreshTokens: refreshRepo,
	}, token.New(signer, tokenOpts...), append(serverOpts, server.WithLogger(logger))...)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	go cleanupRevokedTokens(ctx, srv)

	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() { serveErr <- listenAndServe(httpServer) }()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}
	returnError = shutdown(httpServer)
	return returnError
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

// cleanupRevokedTokens trims the in-memory revocation list. Redis entries
// expire on their own.
func cleanupRevokedTokens(ctx context.Context, srv *server.Server) {
	ticker := time.NewTicker(revocationCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			srv.Auth().CleanupRevokedTokens()
		}
	}
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
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
