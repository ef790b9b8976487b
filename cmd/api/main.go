package main

import (
	"context"
	"os"

	"github.com/yigit/kebele/internal/pkg/logger"
	"github.com/yigit/kebele/internal/server"
)

// @title Kebele Services API
// @version 1.0
// @description Identity document and birth certificate applications for kebele residents.

// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	srv, err := server.NewServer(context.Background())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
