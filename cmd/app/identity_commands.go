package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/caremesh/authcore/cmd/app/commands"
	"github.com/caremesh/authcore/internal/app"
	"github.com/caremesh/authcore/internal/config"
)

func getIdentityCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-identity",
			Usage: "Create a new identity with a password credential",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "email",
					Aliases:  []string{"e"},
					Required: true,
					Usage:    "Email address used as the login identifier",
				},
				&cli.StringFlag{
					Name:     "full-name",
					Aliases:  []string{"n"},
					Required: true,
					Usage:    "Human-readable full name",
				},
				&cli.StringFlag{
					Name:     "role",
					Aliases:  []string{"r"},
					Required: true,
					Usage:    "Role code (e.g., DOCTOR, NURSE, HOSPITAL_ADMIN)",
				},
				&cli.StringFlag{
					Name:    "organization-id",
					Aliases: []string{"o"},
					Usage:   "Owning organization ID (UUID, omit for unscoped identities)",
				},
				&cli.StringFlag{
					Name:    "password",
					Aliases: []string{"p"},
					Usage:   "Initial password (omit for interactive prompt)",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				identityUseCase, err := container.IdentityUseCase()
				if err != nil {
					return err
				}

				return commands.RunCreateIdentity(
					ctx,
					identityUseCase,
					container.Logger(),
					cmd.String("email"),
					cmd.String("full-name"),
					cmd.String("role"),
					cmd.String("organization-id"),
					cmd.String("password"),
					cmd.String("format"),
					commands.DefaultIO(),
				)
			},
		},
	}
}
