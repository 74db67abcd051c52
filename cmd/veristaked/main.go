// Command veristaked serves the skill-claim verification and settlement
// engine over HTTP.
package main

import (
	"context"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/veristake/veristake/pkg/api"
	"github.com/veristake/veristake/pkg/auth"
	"github.com/veristake/veristake/pkg/config"
	"github.com/veristake/veristake/pkg/crypto"
	"github.com/veristake/veristake/pkg/engine"
	"github.com/veristake/veristake/pkg/exchange"
	"github.com/veristake/veristake/pkg/store"
)

func main() {
	cfg := config.Load()

	level := slog.LevelInfo
	switch strings.ToUpper(cfg.LogLevel) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	policy := config.DefaultPolicy()
	if cfg.PolicyPath != "" {
		var err error
		policy, err = config.LoadPolicy(cfg.PolicyPath)
		if err != nil {
			logger.Error("failed to load policy", "path", cfg.PolicyPath, "error", err)
			os.Exit(1)
		}
	}

	events, err := store.Open(cfg.DatabasePath)
	if err != nil {
		logger.Error("failed to open event store", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = events.Close() }()

	eng := engine.New(engine.Options{
		NetworkID: cfg.NetworkID,
		Policy:    policy,
		Trail:     store.NewStoreLogger(events),
		Quoter:    exchange.NewFixedRate(),
	})

	// First admin comes from the environment; everyone else is granted
	// through the roster by an admin.
	if admin := os.Getenv("BOOTSTRAP_ADMIN"); admin != "" {
		eng.Roster.Grant("system", admin, auth.RoleAdmin)
		logger.Info("bootstrap admin granted", "principal", admin)
	}

	// Dev deployments can pre-register agents with keys derived from a
	// shared seed instead of distributing key material out of band.
	if seedHex := os.Getenv("AGENT_KEYRING_SEED"); seedHex != "" {
		seed, err := hex.DecodeString(seedHex)
		if err != nil {
			logger.Error("invalid AGENT_KEYRING_SEED", "error", err)
			os.Exit(1)
		}
		ring, err := crypto.NewKeyring(seed)
		if err != nil {
			logger.Error("invalid AGENT_KEYRING_SEED", "error", err)
			os.Exit(1)
		}
		for _, agent := range strings.Split(os.Getenv("BOOTSTRAP_AGENTS"), ",") {
			if agent == "" {
				continue
			}
			signer, err := ring.DeriveSigner(agent)
			if err != nil {
				logger.Error("agent key derivation failed", "agent", agent, "error", err)
				os.Exit(1)
			}
			if err := eng.Oracle.RegisterAgent(context.Background(), agent, signer.PublicKey()); err != nil {
				logger.Error("agent registration failed", "agent", agent, "error", err)
				os.Exit(1)
			}
			logger.Info("bootstrap agent registered",
				"agent", agent,
				"public_key", signer.PublicKeyHex())
		}
	}

	tokens := auth.NewTokenManager([]byte(cfg.TokenSecret), "veristake")
	svc := api.NewService(eng, tokens)
	limiter := api.NewGlobalRateLimiter(50, 100)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           svc.Routes(limiter),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("veristaked listening",
			"port", cfg.Port,
			"network", cfg.NetworkID,
			"payout_policy", policy.Vault.PayoutPolicy)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}
