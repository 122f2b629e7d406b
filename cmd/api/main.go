package main

import (
	"os"

	"github.com/yigit/collegeerp/internal/pkg/logger" // Still needed for initial error logging
	"github.com/yigit/collegeerp/internal/server"
)

// @title College ERP API
// @version 1.0
// @description API for the college ERP: sessions and role-based navigation, user administration, departments, courses, attendance, marks, fees, OD requests and course chat.

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization

func main() {
	srv, err := server.NewServer()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	// Run blocks until a shutdown signal
	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
