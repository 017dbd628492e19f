package main

import (
	"context"
	"os"

	"github.com/yigit/teacherportfolio/internal/pkg/logger"
	"github.com/yigit/teacherportfolio/internal/server"
)

// @title Teacher Portfolio API
// @version 1.0
// @description Registration webhook, IIN sign-in and teacher portfolio management for schools.

// @contact.name API Support
// @contact.email support@teacherportfolio.kz

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT access token as "Bearer <token>"; browsers use the tp_access cookie

func main() {
	srv, err := server.NewServer(context.Background())
	if err != nil {
		// Setup functions log their own details
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	// Blocks until a shutdown signal
	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
