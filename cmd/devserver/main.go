package main

import (
	"net/http"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/luminalabs/visage/internal/config"
	"github.com/luminalabs/visage/internal/devserver"
	"github.com/luminalabs/visage/internal/infrastructure/redis"
	"github.com/luminalabs/visage/internal/logger"
	"github.com/luminalabs/visage/internal/metrics"
	"github.com/luminalabs/visage/internal/services/session"
)

func main() {
	godotenv.Load()
	logger.Setup()

	sessions := session.NewService(redis.NewService())
	server := devserver.New(sessions, metrics.New(nil))

	addr := config.GetDevServerAddr()
	log.Info().Str("addr", addr).Msg("Dev backend starting")
	if err := http.ListenAndServe(addr, server.Router()); err != nil {
		log.Fatal().Err(err).Msg("ListenAndServe error")
	}
}
