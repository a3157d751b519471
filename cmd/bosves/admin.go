package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/bosves/bosves-api/internal/auth"
	"github.com/bosves/bosves-api/internal/infrastructure/database"
)

func newMigrateCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDatabase(opts, func(db *database.DB) error {
					n, err := db.Migrate(cmd.Context())
					if err != nil {
						return fmt.Errorf("running migrations: %w", err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", n)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDatabase(opts, func(db *database.DB) error {
					rolledBack, err := db.MigrateDown(cmd.Context())
					if err != nil {
						return fmt.Errorf("rolling back migration: %w", err)
					}
					if rolledBack == "" {
						fmt.Fprintln(cmd.OutOrStdout(), "no migrations to roll back")
						return nil
					}
					fmt.Fprintf(cmd.OutOrStdout(), "rolled back %s\n", rolledBack)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "List applied and pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDatabase(opts, func(db *database.DB) error {
					applied, pending, err := db.MigrationStatus(cmd.Context())
					if err != nil {
						return fmt.Errorf("reading migration status: %w", err)
					}

					tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
					fmt.Fprintln(tw, "VERSION\tSTATUS\tAPPLIED AT")
					for _, m := range applied {
						fmt.Fprintf(tw, "%s\tapplied\t%s\n", m.Version, m.AppliedAt.Format(time.RFC3339))
					}
					for _, m := range pending {
						fmt.Fprintf(tw, "%s\tpending\t-\n", m.Version)
					}
					return tw.Flush()
				})
			},
		},
	)
	return cmd
}

// withDatabase opens the configured database for the duration of fn.
func withDatabase(opts *options, fn func(db *database.DB) error) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close() //nolint:errcheck // read-mostly admin command

	return fn(db)
}

func newTokenCmd(opts *options) *cobra.Command {
	var (
		subject string
		role    string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token signed with the configured secret",
		Long: `Issue an access token signed with the configured JWT secret.

Useful for smoke tests and service accounts that cannot use the
client-credentials exchange at POST /api/v1/auth/token.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			signer := auth.NewSigner(
				cfg.Security.JWT.Secret,
				cfg.Security.JWT.Issuer,
				cfg.GetAccessTokenTTL(),
			)
			token, err := signer.GenerateAccessToken(subject, auth.Role(role))
			if err != nil {
				return fmt.Errorf("issuing token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "token subject, recorded in the audit trail")
	cmd.Flags().StringVar(&role, "role", string(auth.RoleReader), "operator or reader")
	_ = cmd.MarkFlagRequired("subject") //nolint:errcheck // flag is defined above
	return cmd
}

func newHashSecretCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-secret [secret]",
		Short: "Hash an API client secret for security.clients",
		Long: `Hash an API client secret with Argon2id.

The secret is read from the argument, or from the first line of stdin
when no argument is given. Paste the output into secret_hash.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var secret string
			if len(args) == 1 {
				secret = args[0]
			} else {
				line, err := readLine(cmd.InOrStdin())
				if err != nil {
					return err
				}
				secret = line
			}
			if secret == "" {
				return errors.New("secret is empty")
			}

			hash, err := auth.HashSecret(secret)
			if err != nil {
				return fmt.Errorf("hashing secret: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading secret: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
