package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"userAuthService/internal/config"
)

// New builds the root logger. Components derive their own with
// logger.With().Str("component", ...).
func New(cfg config.LogConfig, w io.Writer) (zerolog.Logger, error) {
	if w == nil {
		w = os.Stdout
	}
	lvl := zerolog.InfoLevel
	if s := strings.TrimSpace(cfg.Level); s != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(s))
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.Level, err)
		}
		lvl = parsed
	}
	if cfg.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Str("service", "user-auth").Logger(), nil
}
