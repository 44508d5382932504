package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	cfmcp "github.com/GokulRavii/SingleAgent-MultiTool-System/internal/adapter/mcp"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/config"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain/tool"
)

func newToolsCmd(root *rootFlags) *cobra.Command {
	var remote bool
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tool catalog",
		Long: `List the tool catalog with argument schemas and sensitivity.
With --remote the tool server is asked which tools it actually hosts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !remote {
				return printCatalog(cmd.OutOrStdout(), tool.Catalog())
			}
			cfg, flush, err := root.loadConfig(os.Stderr)
			if err != nil {
				return err
			}
			defer flush()
			return printRemoteTools(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "query the configured tool server")
	return cmd
}

func printCatalog(w io.Writer, specs []tool.Spec) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSENSITIVITY\tARGS\tDESCRIPTION")
	for _, s := range specs {
		args := make([]string, 0, len(s.Args))
		for _, a := range s.Args {
			arg := a.Name + ":" + string(a.Type)
			if len(a.Enum) > 0 {
				arg += "(" + strings.Join(a.Enum, "|") + ")"
			}
			args = append(args, arg)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Name, s.Sensitivity, strings.Join(args, " "), s.Description)
	}
	return tw.Flush()
}

func printRemoteTools(ctx context.Context, w io.Writer, cfg *config.Config) error {
	if cfg.ToolServer.Transport == config.TransportInProcess {
		return fmt.Errorf("toolserver.transport is %s; nothing remote to query", config.TransportInProcess)
	}
	client, err := cfmcp.NewClient(cfmcp.ClientConfig{
		Transport: cfg.ToolServer.Transport,
		URL:       cfg.ToolServer.URL,
		Command:   cfg.ToolServer.Command,
		Args:      cfg.ToolServer.Args,
		Env:       os.Environ(),
		APIKey:    cfg.ToolServer.APIKey,
		Timeout:   cfg.ToolServer.CallTimeout,
	})
	if err != nil {
		return err
	}

	names, err := client.Tools(ctx)
	if err != nil {
		return err
	}
	for _, n := range names {
		marker := ""
		if _, ok := tool.Lookup(n); !ok {
			marker = "\t(not in local catalog)"
		}
		fmt.Fprintf(w, "%s%s\n", n, marker)
	}
	return nil
}
