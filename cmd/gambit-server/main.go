// Command gambit-server runs the Gambit Chess server: REST endpoints for
// sessions and game creation, the WebSocket game transport, and the
// background abandonment sweeper, all over a BadgerDB data directory.
package main

import (
	"context"
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/op/go-logging"
	"golang.org/x/sync/errgroup"

	"github.com/cango91/gambit-chess-sub005/internal/game"
	"github.com/cango91/gambit-chess-sub005/internal/ruleset"
	"github.com/cango91/gambit-chess-sub005/internal/server"
	"github.com/cango91/gambit-chess-sub005/internal/session"
	"github.com/cango91/gambit-chess-sub005/internal/store"
)

var log = logging.MustGetLogger("main")

func main() {
	var (
		addr        = flag.String("addr", ":8080", "listen address")
		dataDir     = flag.String("data", "data", "BadgerDB data directory")
		logLevel    = flag.String("log-level", "info", "log level (debug, info, warning, error)")
		rulesetFile = flag.String("ruleset", "", "optional TOML overlay served as the custom ruleset profile")
	)
	flag.Parse()

	setupLogging(*logLevel)

	var overlay *ruleset.Config
	if *rulesetFile != "" {
		cfg, err := ruleset.LoadOverlay(*rulesetFile)
		if err != nil {
			log.Fatalf("ruleset overlay %s: %v", *rulesetFile, err)
		}
		overlay = &cfg
		log.Infof("ruleset overlay %s loaded (base %s)", *rulesetFile, cfg.RulesetType)
	}

	secret, err := sessionSecret()
	if err != nil {
		log.Fatalf("session secret: %v", err)
	}

	st, err := store.Open(*dataDir)
	if err != nil {
		log.Fatalf("opening store at %s: %v", *dataDir, err)
	}
	defer st.Close()

	games := game.NewManager(st)
	sessions := session.NewManager(st, secret)
	srv := server.New(games, st, sessions, overlay)

	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Infof("listening on %s", *addr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		err := store.NewSweeper(st, games).Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("server: %v", err)
	}
}

// sessionSecret reads the HMAC secret from the environment, generating
// an ephemeral one (with a warning) when unset. Ephemeral secrets
// invalidate every outstanding token on restart.
func sessionSecret() ([]byte, error) {
	if s := os.Getenv("GAMBIT_SESSION_SECRET"); s != "" {
		if len(s) < 32 {
			return nil, fmt.Errorf("GAMBIT_SESSION_SECRET must be at least 32 bytes")
		}
		return []byte(s), nil
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}
	log.Warning("GAMBIT_SESSION_SECRET unset, using an ephemeral secret")
	return secret, nil
}

func setupLogging(level string) {
	format := logging.MustStringFormatter(
		`%{time:15:04:05.000} %{level:-7s} %{module:-8s} %{message}`,
	)
	backend := logging.NewBackendFormatter(logging.NewLogBackend(os.Stderr, "", 0), format)
	leveled := logging.AddModuleLevel(backend)

	lvl, err := logging.LogLevel(level)
	if err != nil {
		lvl = logging.INFO
	}
	leveled.SetLevel(lvl, "")
	logging.SetBackend(leveled)
}
