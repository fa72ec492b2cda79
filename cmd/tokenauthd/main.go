// Command tokenauthd serves the authentication HTTP API backed by Redis
// revocation state and a Postgres user store.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	tokenauth "github.com/nvasko/tokenauth"
	"github.com/nvasko/tokenauth/httpapi"
	"github.com/nvasko/tokenauth/metrics/prometheus"
	"github.com/nvasko/tokenauth/userstore"
)

type serverConfig struct {
	HTTPAddr    string `env:"TOKENAUTH_HTTP_ADDR" env-default:":8080"`
	RedisAddr   string `env:"TOKENAUTH_REDIS_ADDR" env-default:"localhost:6379"`
	DatabaseURL string `env:"TOKENAUTH_DATABASE_URL" env-required:"true"`
	Env         string `env:"TOKENAUTH_ENV" env-default:"dev"`
}

func main() {
	var srvCfg serverConfig
	if err := cleanenv.ReadEnv(&srvCfg); err != nil {
		fatalBeforeLogger("load server config", err)
	}

	log, err := newLogger(srvCfg.Env)
	if err != nil {
		fatalBeforeLogger("init logger", err)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := tokenauth.LoadConfig()
	if err != nil {
		log.Fatal("load token config", zap.Error(err))
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{srvCfg.RedisAddr},
	})
	defer func() { _ = rdb.Close() }()

	pingCtx, cancel := context.WithTimeout(rootCtx, 5*time.Second)
	err = rdb.Ping(pingCtx).Err()
	cancel()
	if err != nil {
		log.Fatal("redis ping", zap.String("addr", srvCfg.RedisAddr), zap.Error(err))
	}
	log.Info("redis connected", zap.String("addr", srvCfg.RedisAddr))

	dbCtx, cancel := context.WithTimeout(rootCtx, 10*time.Second)
	users, err := userstore.New(dbCtx, srvCfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer users.Close()
	log.Info("postgres connected")

	tokens, err := tokenauth.NewTokenService(cfg, rdb)
	if err != nil {
		log.Fatal("init token service", zap.Error(err))
	}
	auth := tokenauth.NewAuthService(tokens, users)

	exporter := prometheus.NewExporter(tokens.Metrics())
	server := httpapi.NewServer(auth, log, exporter.Handler())

	httpSrv := &http.Server{
		Addr:              srvCfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("http listening", zap.String("addr", srvCfg.HTTPAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http serve", zap.Error(err))
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "prod" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func fatalBeforeLogger(msg string, err error) {
	os.Stderr.WriteString("tokenauthd: " + msg + ": " + err.Error() + "\n")
	os.Exit(1)
}
