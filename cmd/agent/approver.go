package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	cfnats "github.com/GokulRavii/SingleAgent-MultiTool-System/internal/adapter/nats"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/adapter/terminal"
	cf "github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain/confirmation"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/port/messagequeue"
)

func newApproverCmd(root *rootFlags) *cobra.Command {
	var subject string
	cmd := &cobra.Command{
		Use:   "approver",
		Short: "Answer confirmation requests from agents over NATS on this terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, flush, err := root.loadConfig(os.Stderr)
			if err != nil {
				return err
			}
			defer flush()

			if cfg.NATS.URL == "" {
				return errors.New("nats.url is required for the approver")
			}
			if subject == "" {
				subject = cfg.Confirmation.NATSSubject
			}
			if subject == "" {
				subject = messagequeue.SubjectConfirmationRequest
			}
			if !terminal.Interactive(os.Stdin) {
				return errors.New("approver needs an interactive terminal on stdin")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			q, err := cfnats.Connect(ctx, cfg.NATS.URL, cfg.NATS.Stream)
			if err != nil {
				return fmt.Errorf("nats: %w", err)
			}
			defer func() { _ = q.Close() }()

			prompter := terminal.New(os.Stdin, cmd.OutOrStdout())
			slog.Info("waiting for confirmation requests", "subject", subject)
			return cfnats.ServeApprovals(ctx, q.Conn(), subject, func(ctx context.Context, req cf.Request) (cf.Response, error) {
				return prompter.RequestConfirmation(ctx, req)
			})
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "request subject (default confirmation.nats_subject or approvals.request)")
	return cmd
}
