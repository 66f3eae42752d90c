package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"

	authDomain "github.com/caremesh/authcore/internal/auth/domain"
	authUsecase "github.com/caremesh/authcore/internal/auth/usecase"
)

// RunRevokeSessions terminates every active session of an identity. Meant for
// incident response: a stolen device or a compromised account can be cut off
// without waiting for token expiry. Supports both text/JSON output formats.
//
// Requirements: Database must be migrated and accessible.
func RunRevokeSessions(
	ctx context.Context,
	sessionUseCase authUsecase.SessionUseCase,
	logger *slog.Logger,
	writer io.Writer,
	identityID string,
	format string,
) error {
	parsed, err := uuid.Parse(identityID)
	if err != nil {
		return fmt.Errorf("invalid identity ID: %w", err)
	}

	logger.Info("revoking sessions",
		slog.String("identity_id", parsed.String()),
	)

	count, err := sessionUseCase.RevokeAllForIdentity(ctx, parsed, nil, authDomain.TerminationAdminRevoked)
	if err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}

	// Output result based on format
	if format == "json" {
		outputRevokeSessionsJSON(count, parsed, writer)
	} else {
		outputRevokeSessionsText(count, parsed, writer)
	}

	logger.Info("sessions revoked",
		slog.String("identity_id", parsed.String()),
		slog.Int64("count", count),
	)

	return nil
}

// outputRevokeSessionsText outputs the result in human-readable text format.
func outputRevokeSessionsText(count int64, identityID uuid.UUID, writer io.Writer) {
	_, _ = fmt.Fprintf(writer, "Revoked %d active session(s) for identity %s\n", count, identityID.String())
}

// outputRevokeSessionsJSON outputs the result in JSON format for machine consumption.
func outputRevokeSessionsJSON(count int64, identityID uuid.UUID, writer io.Writer) {
	result := map[string]interface{}{
		"identity_id": identityID.String(),
		"count":       count,
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to marshal JSON: %v\n", err)
		return
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
}
