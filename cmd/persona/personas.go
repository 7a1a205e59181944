package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/persona/internal/logging"
	"github.com/GriffinCanCode/persona/internal/persona"
)

func newPersonasCmd(cfgPath *string) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "personas",
		Short: "List the configured personas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				cfg, _, err := loadConfig(*cfgPath, func(err error) {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
				})
				if err != nil {
					return err
				}
				dir = cfg.Personas.Directory
			}

			personas := persona.LoadDir(dir, logging.NewNop())
			out := cmd.OutOrStdout()
			if len(personas) == 0 {
				_, err := fmt.Fprintf(out, "no personas in %s\n", dir)
				return err
			}
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tFILE")
			for _, p := range personas {
				fmt.Fprintf(w, "%s\t%s\t%s\n", p.ID, p.Name, p.FilePath)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "personas directory (overrides config)")
	return cmd
}
