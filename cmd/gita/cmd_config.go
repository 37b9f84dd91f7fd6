package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gitagpt/gitagpt/internal/client/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or save the effective settings",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *a.cfg
			if cfg.Token != "" {
				cfg.Token = "********"
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "api_url   = %s\n", cfg.APIURL)
			fmt.Fprintf(out, "token     = %s\n", cfg.Token)
			fmt.Fprintf(out, "mode      = %s\n", cfg.Mode)
			fmt.Fprintf(out, "timeout   = %s\n", cfg.Timeout)
			fmt.Fprintf(out, "websocket = %t\n", cfg.WebSocket)
			fmt.Fprintf(out, "log_level = %s\n", cfg.LogLevel)
			return nil
		},
	}

	save := &cobra.Command{
		Use:   "save",
		Short: "Write the effective settings to the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.configPath
			if path == "" {
				p, err := config.DefaultPath()
				if err != nil {
					return err
				}
				path = p
			}
			if err := config.Write(a.cfg, path); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", path)
			return nil
		},
	}

	cmd.AddCommand(show, save)
	return cmd
}
