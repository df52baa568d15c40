package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"dltrace/service"
)

func newInitCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the state directory, config file and history database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Initializing dltrace environment...")
			fmt.Fprintln(out)

			svc, err := a.newService(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			result, err := svc.Initialize(service.InitOptions{
				ConfigDir: a.opts.configDir,
				Force:     force,
			})
			if err != nil {
				return err
			}

			for _, dir := range result.DirsCreated {
				fmt.Fprintf(out, "  ✓ %s\n", dir)
			}
			for _, dir := range result.DirsExisting {
				fmt.Fprintf(out, "  ✓ %s (exists)\n", dir)
			}
			if result.ConfigWritten {
				fmt.Fprintf(out, "  ✓ Config: %s\n", result.ConfigFile)
			}
			if result.DatabaseInitiated {
				fmt.Fprintf(out, "  ✓ History database: %s\n", svc.GetDatabasePath())
			}
			for _, w := range result.Warnings {
				fmt.Fprintf(out, "  ! %s\n", w)
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, "✓ Initialization complete")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing config file")
	return cmd
}
