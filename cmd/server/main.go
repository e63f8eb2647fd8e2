package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"userAuthService/internal/auth"
	"userAuthService/internal/config"
	"userAuthService/internal/db"
	grpcserver "userAuthService/internal/grpc"
	"userAuthService/internal/httpapi"
	"userAuthService/internal/logging"
	"userAuthService/internal/service"
	"userAuthService/repository"
)

const shutdownTimeout = 5 * time.Second

func main() {
	rollback := flag.Bool("rollback", false, "roll back the most recent migration and exit")
	flag.Parse()

	boot := zerolog.New(os.Stderr).With().Timestamp().Logger()

	// Load configuration
	cfg, err := config.LoadWithDefaults()
	if err != nil {
		boot.Fatal().Err(err).Msg("load config")
	}
	logger, err := logging.New(cfg.Log, os.Stdout)
	if err != nil {
		boot.Fatal().Err(err).Msg("init logger")
	}
	logger.Info().Stringer("config", cfg).Msg("configuration loaded")
	if cfg.UsesDevSecret() {
		logger.Warn().Msg("JWT_SECRET not set, using development secret")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open DB
	d, err := db.Open(ctx, cfg.Database.Path, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db")
	}
	defer func() {
		if err := d.Close(); err != nil {
			logger.Error().Err(err).Msg("close db")
		}
	}()

	if *rollback {
		if err := db.RollbackLast(ctx, d, logger); err != nil {
			logger.Error().Err(err).Msg("rollback")
		}
		return
	}

	hasher, err := auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	if err != nil {
		logger.Fatal().Err(err).Msg("init password hasher")
	}
	if hasher.Cost() != cfg.Auth.BcryptCost {
		logger.Warn().Int("requested", cfg.Auth.BcryptCost).Int("cost", hasher.Cost()).Msg("bcrypt cost out of range, using default")
	}
	issuer, err := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	if err != nil {
		logger.Fatal().Err(err).Msg("init token issuer")
	}

	flow := service.NewAuthService(repository.NewUserRepository(d), repository.NewRoleRepository(d), hasher, issuer, logger)
	if err := flow.CheckRoleCatalog(ctx); err != nil {
		logger.Fatal().Err(err).Msg("role catalog incomplete")
	}

	// Start HTTP
	httpAddr, stopHTTP, err := httpapi.StartHTTP(httpapi.NewRouter(flow, issuer, logger), cfg.HTTP.Address, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("start http")
	}
	logger.Info().Str("addr", httpAddr.String()).Msg("HTTP server listening")

	// Start gRPC
	grpcAddr, stopGRPC, err := grpcserver.StartGRPC(cfg, flow, issuer, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("start grpc")
	}
	logger.Info().Str("addr", grpcAddr.String()).Msg("gRPC server listening")

	// Wait for signal
	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := stopHTTP(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	if err := stopGRPC(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("grpc shutdown")
	}
}
