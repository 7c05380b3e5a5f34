package main

import (
	"fmt"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"remotepad/internal/autostart"
)

func newAutostartCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autostart",
		Short: "Manage starting remotepad at login",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "enable",
		Short: "Start remotepad serve at login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			serveArgs, err := autostartArgs(opts.configPath)
			if err != nil {
				return err
			}
			if err := autostart.Enable(serveArgs); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "autostart enabled")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "disable",
		Short: "Stop starting remotepad at login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := autostart.Disable(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "autostart disabled")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Report whether autostart is enabled",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			state := "disabled"
			if autostart.IsEnabled() {
				state = "enabled"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "autostart %s\n", state)
		},
	})

	return cmd
}

// autostartArgs pins an explicit config file to an absolute path, since login
// items do not start in the current directory.
func autostartArgs(configPath string) ([]string, error) {
	args := []string{"serve"}
	if configPath == "" {
		return args, nil
	}
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return nil, eris.Wrap(err, "resolve config path")
	}
	return append(args, "--config", abs), nil
}
