package observability

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/pepys/internal/logging"
)

// InitLogger configures the runtime logger once and tags it with app.
func InitLogger(app string) zerolog.Logger {
	logging.ConfigureRuntime()
	logger := log.Logger.With().Str("app", app).Logger()
	log.Logger = logger
	return logger
}

// ConnLogger returns a child logger for one served connection.
func ConnLogger(base zerolog.Logger, id uint64, remote string) zerolog.Logger {
	return base.With().Uint64("conn", id).Str("remote", remote).Logger()
}
