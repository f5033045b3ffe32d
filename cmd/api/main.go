package main

import (
	"context"
	"net/http"
	"os"

	"github.com/rs/zerolog/log"

	"asset-lifecycle-api/internal"
	"asset-lifecycle-api/internal/config"
	"asset-lifecycle-api/pkg/logger"
)

func main() {
	logger.Init("asset-lifecycle-api", os.Getenv("ENV") != "production")

	cfg, err := config.LoadAndValidate()
	if err != nil {
		log.Fatal().Err(err).Msg("configuration error")
	}
	logger.SetLevel(cfg.LogLevel)

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal().Msg("DB_DSN environment variable is required")
	}

	srv := internal.NewServer(dsn, cfg)
	defer srv.Close(context.Background())

	log.Info().
		Str("addr", cfg.HTTPAddr).
		Str("jwt_issuer", cfg.JWTIssuer).
		Str("jwt_audience", cfg.JWTAudience).
		Dur("jwt_expiry", cfg.JWTExpiry).
		Msg("starting asset lifecycle API")

	if err := http.ListenAndServe(cfg.HTTPAddr, srv.Router); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
