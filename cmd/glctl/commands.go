package main

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mimhaad/finance-ledger/internal/domain"
	"github.com/mimhaad/finance-ledger/internal/infrastructure/auth"
	"github.com/mimhaad/finance-ledger/internal/infrastructure/postgres"
)

type userBody struct {
	UserID string `json:"user_id"`
}

func accountsCmd(c *apiClient) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Chart of accounts operations",
	}

	ensureCmd := &cobra.Command{
		Use:   "ensure CODE...",
		Short: "Create any missing GL accounts, parents included",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := struct {
				Codes []string `json:"codes"`
			}{Codes: args}
			return c.do(cmd.Context(), cmd.OutOrStdout(), http.MethodPost, "/api/v1/accounts/ensure", body)
		},
	}

	var id, code string
	balanceCmd := &cobra.Command{
		Use:   "balance",
		Short: "Show the balance of an account by --id or --code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case id != "" && code != "":
				return errors.New("use either --id or --code, not both")
			case id != "":
				return c.do(cmd.Context(), cmd.OutOrStdout(), http.MethodGet, "/api/v1/accounts/"+url.PathEscape(id)+"/balance", nil)
			case code != "":
				return c.do(cmd.Context(), cmd.OutOrStdout(), http.MethodGet, "/api/v1/accounts/by-code/"+url.PathEscape(code)+"/balance", nil)
			default:
				return errors.New("one of --id or --code is required")
			}
		},
	}
	balanceCmd.Flags().StringVar(&id, "id", "", "Account ID")
	balanceCmd.Flags().StringVar(&code, "code", "", "Account code")

	cmd.AddCommand(ensureCmd, balanceCmd)
	return cmd
}

func entriesCmd(c *apiClient) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entries",
		Short: "Journal entry operations",
	}

	var postUser string
	postCmd := &cobra.Command{
		Use:   "post ID",
		Short: "Post a draft journal entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/journal-entries/" + url.PathEscape(args[0]) + "/post"
			return c.do(cmd.Context(), cmd.OutOrStdout(), http.MethodPost, path, userBody{UserID: postUser})
		},
	}
	postCmd.Flags().StringVar(&postUser, "user", "", "User posting the entry")
	_ = postCmd.MarkFlagRequired("user")

	var reverseUser, reason string
	reverseCmd := &cobra.Command{
		Use:   "reverse ID",
		Short: "Reverse a posted journal entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := struct {
				UserID string `json:"user_id"`
				Reason string `json:"reason"`
			}{UserID: reverseUser, Reason: reason}
			path := "/api/v1/journal-entries/" + url.PathEscape(args[0]) + "/reverse"
			return c.do(cmd.Context(), cmd.OutOrStdout(), http.MethodPost, path, body)
		},
	}
	reverseCmd.Flags().StringVar(&reverseUser, "user", "", "User reversing the entry")
	reverseCmd.Flags().StringVar(&reason, "reason", "", "Reason for the reversal")
	_ = reverseCmd.MarkFlagRequired("user")
	_ = reverseCmd.MarkFlagRequired("reason")

	cmd.AddCommand(postCmd, reverseCmd)
	return cmd
}

func transactionsCmd(c *apiClient) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "Business transaction operations",
	}

	var user string
	postCmd := &cobra.Command{
		Use:   "post TXID",
		Short: "Post every draft entry of a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/transactions/" + url.PathEscape(args[0]) + "/post"
			return c.do(cmd.Context(), cmd.OutOrStdout(), http.MethodPost, path, userBody{UserID: user})
		},
	}
	postCmd.Flags().StringVar(&user, "user", "", "User posting the transaction")
	_ = postCmd.MarkFlagRequired("user")

	cmd.AddCommand(postCmd)
	return cmd
}

func trialBalanceCmd(c *apiClient) *cobra.Command {
	var asOf string
	cmd := &cobra.Command{
		Use:   "trial-balance",
		Short: "Show the trial balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/reports/trial-balance"
			if asOf != "" {
				path += "?" + url.Values{"as_of": {asOf}}.Encode()
			}
			return c.do(cmd.Context(), cmd.OutOrStdout(), http.MethodGet, path, nil)
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "Report date (YYYY-MM-DD or RFC3339)")
	return cmd
}

func floatCmd(c *apiClient) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "float",
		Short: "Float account operations",
	}

	var user string
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Mirror float balances into their GL control accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.do(cmd.Context(), cmd.OutOrStdout(), http.MethodPost, "/api/v1/float-accounts/sync", userBody{UserID: user})
		},
	}
	syncCmd.Flags().StringVar(&user, "user", "", "User running the sync")
	_ = syncCmd.MarkFlagRequired("user")

	cmd.AddCommand(syncCmd)
	return cmd
}

func ledgerCmd(c *apiClient) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	consistencyCmd := &cobra.Command{
		Use:   "consistency",
		Short: "Check that posted debits equal posted credits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.do(cmd.Context(), cmd.OutOrStdout(), http.MethodGet, "/api/v1/ledger/consistency", nil)
		},
	}

	cmd.AddCommand(consistencyCmd)
	return cmd
}

func migrateCmd() *cobra.Command {
	var databaseURL, path string

	cmd := &cobra.Command{
		Use:       "migrate up|down",
		Short:     "Apply or roll back database migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).With().Timestamp().Logger()

			mg, err := postgres.NewMigrator(databaseURL, path, logger)
			if err != nil {
				return err
			}
			defer mg.Close()

			if args[0] == "down" {
				return mg.Down()
			}
			return mg.Up()
		},
	}
	cmd.Flags().StringVar(&databaseURL, "database-url", envOr("DATABASE_URL", ""), "PostgreSQL connection URL")
	cmd.Flags().StringVar(&path, "path", envOr("MIGRATIONS_PATH", "migrations"), "Directory holding the migration files")

	return cmd
}

func tokenCmd() *cobra.Command {
	var secret, user, email, role string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return errors.New("--secret (or JWT_SECRET) is required")
			}
			r := domain.Role(role)
			if !r.IsValid() {
				return fmt.Errorf("unknown role %q", role)
			}

			token, err := auth.NewJWTManager(secret).Generate(&domain.User{ID: user, Email: email, Role: r}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", envOr("JWT_SECRET", ""), "Signing secret shared with the server")
	cmd.Flags().StringVar(&user, "user", "", "User ID placed in the token")
	cmd.Flags().StringVar(&email, "email", "", "Optional email claim")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleViewer), "admin, accountant or viewer")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
