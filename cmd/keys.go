package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"remotepad/internal/config"
	"remotepad/internal/keymap"
)

func newKeysCmd(opts *rootOptions) *cobra.Command {
	var listLayouts bool

	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Print the key labels the control page can send and what they press",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if listLayouts {
				for _, name := range keymap.BuiltinNames() {
					fmt.Fprintln(out, name)
				}
				return nil
			}

			cfgMgr := config.NewManager(opts.configPath, zerolog.Nop())
			if err := cfgMgr.BindFlag("keyboard.layout", cmd.Flags().Lookup("layout")); err != nil {
				return err
			}
			cfg, err := cfgMgr.Read()
			if err != nil {
				return err
			}
			layout, err := cfg.Layout()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "LABEL\tKEYS\n")
			for _, label := range layout.Labels() {
				m, _ := layout.Lookup(label)
				fmt.Fprintf(w, "%q\t%s\n", label, m)
			}
			return w.Flush()
		},
	}
	cmd.Flags().String("layout", "", "layout to print instead of the configured one")
	cmd.Flags().BoolVar(&listLayouts, "list-layouts", false, "list the built-in layouts")
	return cmd
}
