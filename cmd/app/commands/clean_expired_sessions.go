package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	authUsecase "github.com/caremesh/authcore/internal/auth/usecase"
)

// RunCleanExpiredSessions terminates sessions past their expiry and purges
// terminated sessions older than the retention period in days. Supports both
// text/JSON output formats.
//
// Requirements: Database must be migrated and accessible.
func RunCleanExpiredSessions(
	ctx context.Context,
	sessionUseCase authUsecase.SessionUseCase,
	logger *slog.Logger,
	writer io.Writer,
	days int,
	format string,
) error {
	// Validate days parameter
	if days < 0 {
		return fmt.Errorf("days must be a positive number, got: %d", days)
	}

	logger.Info("cleaning expired sessions",
		slog.Int("days", days),
	)

	retention := time.Duration(days) * 24 * time.Hour

	terminated, purged, err := sessionUseCase.CleanupExpired(ctx, retention)
	if err != nil {
		return fmt.Errorf("failed to cleanup expired sessions: %w", err)
	}

	// Output result based on format
	if format == "json" {
		outputCleanSessionsJSON(terminated, purged, days, writer)
	} else {
		outputCleanSessionsText(terminated, purged, days, writer)
	}

	logger.Info("cleanup completed",
		slog.Int64("terminated", terminated),
		slog.Int64("purged", purged),
		slog.Int("days", days),
	)

	return nil
}

// outputCleanSessionsText outputs the result in human-readable text format.
func outputCleanSessionsText(terminated, purged int64, days int, writer io.Writer) {
	_, _ = fmt.Fprintf(writer, "Terminated %d expired session(s)\n", terminated)
	_, _ = fmt.Fprintf(writer, "Purged %d terminated session(s) older than %d day(s)\n", purged, days)
}

// outputCleanSessionsJSON outputs the result in JSON format for machine consumption.
func outputCleanSessionsJSON(terminated, purged int64, days int, writer io.Writer) {
	result := map[string]interface{}{
		"terminated": terminated,
		"purged":     purged,
		"days":       days,
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to marshal JSON: %v\n", err)
		return
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
}
