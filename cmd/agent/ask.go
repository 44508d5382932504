package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain/dispatch"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/service"
)

// errRequestFailed makes the process exit non-zero after a failed outcome
// whose message was already printed.
var errRequestFailed = errors.New("request failed")

type oneShotFlags struct {
	embedded bool
	asJSON   bool
}

func (o *oneShotFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.embedded, "embedded", false, "run the tools in-process instead of calling the tool server")
	cmd.Flags().BoolVar(&o.asJSON, "json", false, "print the full outcome as JSON")
}

func newAskCmd(root *rootFlags) *cobra.Command {
	flags := &oneShotFlags{}
	cmd := &cobra.Command{
		Use:   "ask <task>",
		Short: "Let the model pick a tool for a natural-language task and run it",
		Example: `  agent ask "Are there any weather alerts in CA?"
  agent ask --embedded "What is 10 divided by 2?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task := strings.Join(args, " ")
			return runOneShot(cmd, root, flags, func(ctx context.Context, svc *service.DispatchService) dispatch.Outcome {
				return svc.Ask(ctx, task)
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newDispatchCmd(root *rootFlags) *cobra.Command {
	flags := &oneShotFlags{}
	cmd := &cobra.Command{
		Use:     "dispatch <instruction-json>",
		Short:   "Run a prepared tool instruction without model inference",
		Example: `  agent dispatch '{"tool":"calc","args":{"a":10,"b":2,"operation":"divide"}}'`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOneShot(cmd, root, flags, func(ctx context.Context, svc *service.DispatchService) dispatch.Outcome {
				return svc.Dispatch(ctx, args[0])
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func runOneShot(cmd *cobra.Command, root *rootFlags, flags *oneShotFlags, run func(context.Context, *service.DispatchService) dispatch.Outcome) error {
	cfg, flush, err := root.loadConfig(os.Stderr)
	if err != nil {
		return err
	}
	defer flush()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := wire(ctx, cfg, wireOptions{embedded: flags.embedded, terminal: true})
	if err != nil {
		return err
	}
	defer a.Close()

	o := run(ctx, a.dispatch)
	if err := printOutcome(cmd.OutOrStdout(), o, flags.asJSON); err != nil {
		return err
	}
	if o.Kind == dispatch.KindFailed {
		return errRequestFailed
	}
	return nil
}

func printOutcome(w io.Writer, o dispatch.Outcome, asJSON bool) error {
	if !asJSON {
		_, err := fmt.Fprintln(w, o.Message())
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		dispatch.Outcome
		Message string `json:"message"`
	}{o, o.Message()})
}
