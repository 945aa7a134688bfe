package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/courseloop/campus-auth/internal/auth/domain"
)

// LogChannel writes codes to the application log instead of sending
// them anywhere. Development use only.
type LogChannel struct {
	Logger *slog.Logger
}

func (c *LogChannel) Send(_ context.Context, recipient string, purpose domain.PasscodePurpose, code string, expiresAt time.Time) error {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("one-time code issued",
		slog.String("recipient", recipient),
		slog.String("purpose", string(purpose)),
		slog.String("code", code),
		slog.Time("expires_at", expiresAt),
	)
	return nil
}
