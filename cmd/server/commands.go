package main

import (
	"crypto/rand"
	"fmt"

	"github.com/google/uuid"
	"github.com/jrsteele09/mcp-token-proxy/clients"
	"github.com/jrsteele09/mcp-token-proxy/instrumentation"
	"github.com/jrsteele09/mcp-token-proxy/store"
	"github.com/urfave/cli/v2"
)

var migrateCommand = &cli.Command{
	Name:  "migrate",
	Usage: "create or update the database tables and exit",
	Action: func(cmd *cli.Context) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		if err := store.Migrate(a.db); err != nil {
			return fmt.Errorf("store.Migrate: %w", err)
		}
		a.logger.Info().Str("driver", a.config.GetDBDriver()).Msg("migration complete")
		return nil
	},
}

var registerClientCommand = &cli.Command{
	Name:  "register-client",
	Usage: "add an MCP client registration",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "client-id",
			Usage: "public client identifier (generated when empty)",
		},
		&cli.BoolFlag{
			Name:  "public",
			Usage: "register a public client without a secret",
		},
		&cli.BoolFlag{
			Name:  "hash-secret",
			Usage: "store the generated secret as a bcrypt hash",
		},
	},
	Action: func(cmd *cli.Context) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		if err := store.Migrate(a.db); err != nil {
			return fmt.Errorf("store.Migrate: %w", err)
		}

		registration := &clients.Registration{
			ID:       uuid.NewString(),
			ClientID: cmd.String("client-id"),
		}
		if registration.ClientID == "" {
			registration.ClientID = uuid.NewString()
		}

		var secret string
		if !cmd.Bool("public") {
			secret = rand.Text()
			registration.ClientSecret = secret
			if cmd.Bool("hash-secret") {
				if registration.ClientSecret, err = clients.HashSecret(secret); err != nil {
					return err
				}
			}
		}

		if err := store.NewClientRepo(a.db).Save(cmd.Context, registration); err != nil {
			return fmt.Errorf("failed to save client registration: %w", err)
		}

		fmt.Fprintf(cmd.App.Writer, "registration_id: %s\nclient_id:       %s\n", registration.ID, registration.ClientID)
		if secret != "" {
			fmt.Fprintf(cmd.App.Writer, "client_secret:   %s\n", secret)
		}
		return nil
	},
}

var cleanupCommand = &cli.Command{
	Name:  "cleanup",
	Usage: "delete expired authorization codes and proxy tokens",
	Action: func(cmd *cli.Context) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		tokenService, err := a.tokenService(instrumentation.NewDisabled())
		if err != nil {
			return err
		}
		result, err := tokenService.Cleanup(cmd.Context, a.config.GetCleanupRetention())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.App.Writer, "removed %d authorization codes and %d proxy tokens\n", result.Codes, result.Tokens)
		return nil
	},
}
