package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/npezzotti/gosocial/internal/api"
	"github.com/npezzotti/gosocial/internal/auth"
	"github.com/npezzotti/gosocial/internal/config"
	"github.com/npezzotti/gosocial/internal/database"
	"github.com/npezzotti/gosocial/internal/server"
	"github.com/npezzotti/gosocial/internal/stats"
)

const defaultSigningKey = "wT0phFUusHZIrDhL9bUKPUhwaxKhpi/SaI6PtgB+MgU="

// stringSliceFlag holds a default list that the first use of the flag
// replaces. Repeated uses append.
type stringSliceFlag struct {
	values []string
	set    bool
}

func (s *stringSliceFlag) String() string {
	return strings.Join(s.values, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	if !s.set {
		s.values = nil
		s.set = true
	}
	s.values = append(s.values, strings.Split(value, ",")...)
	return nil
}

var (
	addr           string
	dsn            string
	signingKey     string
	allowedOrigins stringSliceFlag
	sessionTTL     time.Duration
	txRetries      int
	lockTimeout    time.Duration
	migrate        bool
)

func main() {
	logger := log.New(os.Stderr, "[gosocial] ", log.LstdFlags)

	if err := config.Load(); err != nil {
		logger.Fatal("config:", err)
	}

	allowedOrigins.values = config.EnvList("GOSOCIAL_ALLOWED_ORIGINS")
	flag.StringVar(&addr, "addr", config.Env("GOSOCIAL_ADDR", "localhost:8000"), "server address")
	flag.StringVar(&dsn, "dsn", config.Env("GOSOCIAL_DSN", "host=localhost user=postgres password=postgres dbname=postgres sslmode=disable"), "database connection string")
	flag.StringVar(&signingKey, "signing-key", config.Env("GOSOCIAL_SIGNING_KEY", defaultSigningKey), "base64 encoded signing key")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for CORS")
	flag.DurationVar(&sessionTTL, "session-ttl", config.EnvDuration("GOSOCIAL_SESSION_TTL", config.DefaultSessionTTL), "lifetime of a login session")
	flag.IntVar(&txRetries, "tx-retries", config.EnvInt("GOSOCIAL_TX_RETRIES", config.DefaultTxRetries), "retries for transactions that hit a serialization failure or deadlock")
	flag.DurationVar(&lockTimeout, "lock-timeout", config.EnvDuration("GOSOCIAL_LOCK_TIMEOUT", config.DefaultLockTimeout), "how long a transaction waits for a row lock, 0 waits forever")
	flag.BoolVar(&migrate, "migrate", true, "apply database migrations on startup")
	flag.Parse()

	cfg, err := config.NewConfig(addr, dsn, signingKey, allowedOrigins.values, sessionTTL, txRetries, lockTimeout)
	if err != nil {
		logger.Fatal("config:", err)
	}

	if migrate {
		if err := database.Migrate(cfg.DatabaseDSN); err != nil {
			logger.Fatal("migrate:", err)
		}
	}

	dbConn, err := database.NewPgRepository(cfg.DatabaseDSN, logger,
		database.WithTxRetries(cfg.TxRetries),
		database.WithLockTimeout(cfg.LockTimeout),
	)
	if err != nil {
		logger.Fatal("db open:", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Println("db close:", err)
		}
	}()

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)

	chatServer, err := server.NewChatServer(logger, statsUpdater)
	if err != nil {
		logger.Fatal("new chat server:", err)
	}

	binder := auth.NewBinder(logger, dbConn, auth.NewTokenIssuer(cfg.SigningKey), cfg.SessionTTL)
	srv := api.NewApp(mux, logger, chatServer, dbConn, binder, cfg)

	statsUpdater.Run()
	defer statsUpdater.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Println("HTTP server shutdown:", err)
	}

	logger.Println("shutting down chat server...")
	if err := chatServer.Shutdown(shutDownCtx); err != nil {
		logger.Println("chat server shutdown:", err)
	}

	logger.Println("shutdown complete")
}
