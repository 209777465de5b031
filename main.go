package main

import (
	"net/http"

	"blkd/internal/config"
	"blkd/internal/server"
)

func main() {
	cfg := config.FromEnv()
	logger := server.Logger(cfg)
	r := server.NewRouter(cfg)

	logger.Info().Str("bind", cfg.Bind).Msg("blkd listening")
	if err := http.ListenAndServe(cfg.Bind, r); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}
