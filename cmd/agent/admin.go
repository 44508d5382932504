package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/adapter/postgres"
)

func newHashKeyCmd() *cobra.Command {
	var cost int
	cmd := &cobra.Command{
		Use:   "hash-key",
		Short: "Print a bcrypt hash of an API key for server.api_key_hash or toolserver.api_key_hash",
		Long: `Print a bcrypt hash of an API key. The key is prompted for without echo
on a terminal, or read from the first line of stdin otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := readKey(os.Stdin, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(key), cost)
			if err != nil {
				return fmt.Errorf("hash key: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(hash))
			return err
		},
	}
	cmd.Flags().IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost")
	return cmd
}

// readKey prompts twice on a terminal and reads one line from a pipe.
func readKey(in *os.File, prompt io.Writer) (string, error) {
	if !term.IsTerminal(int(in.Fd())) {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read key: %w", err)
		}
		return requireKey(strings.TrimRight(line, "\r\n"))
	}

	fd := int(in.Fd())
	key, err := promptSecret(prompt, fd, "API key: ")
	if err != nil {
		return "", err
	}
	confirm, err := promptSecret(prompt, fd, "Confirm API key: ")
	if err != nil {
		return "", err
	}
	if key != confirm {
		return "", errors.New("keys do not match")
	}
	return requireKey(key)
}

func requireKey(key string) (string, error) {
	if key == "" {
		return "", errors.New("empty key")
	}
	return key, nil
}

func promptSecret(w io.Writer, fd int, label string) (string, error) {
	fmt.Fprint(w, label)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read key: %w", err)
	}
	return string(b), nil
}

func newMigrateCmd(root *rootFlags) *cobra.Command {
	var down int
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply (or with --down roll back) the confirmation store migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, flush, err := root.loadConfig(os.Stderr)
			if err != nil {
				return err
			}
			defer flush()

			dsn := cfg.Postgres.DSN
			if dsn == "" {
				return errors.New("postgres.dsn (DATABASE_URL) is required")
			}
			ctx := cmd.Context()

			if down > 0 {
				err = postgres.RollbackMigrations(ctx, dsn, down)
			} else {
				err = postgres.RunMigrations(ctx, dsn)
			}
			if err != nil {
				return err
			}

			version, err := postgres.MigrationVersion(ctx, dsn)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
			return err
		},
	}
	cmd.Flags().IntVar(&down, "down", 0, "number of migrations to roll back")
	return cmd
}
