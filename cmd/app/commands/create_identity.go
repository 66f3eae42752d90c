package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	identityDomain "github.com/caremesh/authcore/internal/identity/domain"
	identityUsecase "github.com/caremesh/authcore/internal/identity/usecase"
	customValidation "github.com/caremesh/authcore/internal/validation"
)

// initialPasswordRule is the strength policy for operator-provisioned passwords.
var initialPasswordRule = customValidation.PasswordStrength{MinLength: 8}

// RunCreateIdentity provisions a new identity with a password credential.
// The initial password can be passed via flag or entered interactively when
// omitted. Outputs the new identity ID in either text or JSON format.
//
// Requirements: Database must be migrated and accessible.
func RunCreateIdentity(
	ctx context.Context,
	identityUseCase identityUsecase.IdentityUseCase,
	logger *slog.Logger,
	email string,
	fullName string,
	role string,
	organizationID string,
	password string,
	format string,
	io IOTuple,
) error {
	logger.Info("creating new identity",
		slog.String("email", email),
		slog.String("role", role),
	)

	if err := validation.Validate(email, validation.Required, customValidation.Email); err != nil {
		return fmt.Errorf("invalid email: %w", err)
	}

	var orgID *uuid.UUID
	if organizationID != "" {
		parsed, err := uuid.Parse(organizationID)
		if err != nil {
			return fmt.Errorf("invalid organization ID: %w", err)
		}
		orgID = &parsed
	}

	// Prompt for the initial password when not supplied via flag
	if password == "" {
		var err error
		password, err = promptForPassword(io)
		if err != nil {
			return fmt.Errorf("failed to get password: %w", err)
		}
	}

	if err := initialPasswordRule.Validate(password); err != nil {
		return fmt.Errorf("invalid password: %w", err)
	}

	input := &identityDomain.CreateIdentityInput{
		Email:          email,
		FullName:       fullName,
		RoleCode:       identityDomain.RoleCode(role),
		OrganizationID: orgID,
		Password:       password,
	}

	output, err := identityUseCase.Create(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to create identity: %w", err)
	}

	// Output result based on format
	if format == "json" {
		outputIdentityJSON(output, io.Writer)
	} else {
		outputIdentityText(output, io.Writer)
	}

	logger.Info("identity created successfully",
		slog.String("identity_id", output.ID.String()),
		slog.String("email", email),
		slog.String("role", role),
	)

	return nil
}

// promptForPassword interactively prompts for the initial password.
func promptForPassword(io IOTuple) (string, error) {
	reader := bufio.NewReader(io.Reader)

	_, _ = fmt.Fprint(io.Writer, "Enter initial password: ")
	password, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	password = strings.TrimSpace(password)
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}

	return password, nil
}

// outputIdentityText outputs the result in human-readable text format.
func outputIdentityText(output *identityDomain.CreateIdentityOutput, writer io.Writer) {
	_, _ = fmt.Fprintln(writer, "\nIdentity created successfully!")
	_, _ = fmt.Fprintf(writer, "Identity ID: %s\n", output.ID.String())
}

// outputIdentityJSON outputs the result in JSON format for machine consumption.
func outputIdentityJSON(output *identityDomain.CreateIdentityOutput, writer io.Writer) {
	result := map[string]string{
		"identity_id": output.ID.String(),
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to marshal JSON: %v\n", err)
		return
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
}
