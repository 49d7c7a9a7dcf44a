package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"pdfdispatch/internal/config"
	"pdfdispatch/internal/dispatch"
)

func newToolsCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the conversion tools available on this host",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			registry, err := dispatch.NewRegistryFromConfig(afero.NewOsFs(), cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !all {
				for _, id := range registry.Available() {
					fmt.Fprintln(out, id)
				}
				return nil
			}

			available := make(map[string]bool)
			for _, id := range registry.Available() {
				available[id] = true
			}
			for _, id := range registry.IDs() {
				spec, _ := registry.Spec(id)
				state := "available"
				if !available[id] {
					state = "missing " + spec.Probe
				}
				fmt.Fprintf(out, "%-14s %s\n", id, state)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include optional tools whose installation is missing")
	return cmd
}
