package cmd

import (
	"fmt"

	"github.com/jmehdipour/ratebook/internal/logger"
	"github.com/jmehdipour/ratebook/internal/metrics"
	"github.com/jmehdipour/ratebook/internal/model"
	"github.com/jmehdipour/ratebook/internal/output"
	"github.com/jmehdipour/ratebook/internal/repository"
	"github.com/spf13/cobra"
)

func newConstantsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "constants",
		Short: "Show or extend the valid ports, containers and DTHC terms",
	}

	var format string
	list := &cobra.Command{
		Use:   "list",
		Short: "Print the constants set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := repository.NewConstantsFile(cfg.Storage.ConstantsPath(), logger.Log)
			return render(cmd, format, output.ConstantsView(f.Load()))
		},
	}
	list.Flags().StringVarP(&format, "output", "o", "", "output format: table|json|yaml (default: table on a terminal)")

	add := &cobra.Command{
		Use:   "add LIST VALUE",
		Short: "Add a value to a list (load-ports, dest-ports, containers, dthc)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, ok := model.ParseConstantList(args[0])
			if !ok {
				return fmt.Errorf("unknown list %q: want load-ports, dest-ports, containers or dthc", args[0])
			}
			f := repository.NewConstantsFile(cfg.Storage.ConstantsPath(), logger.Log)
			added, err := f.Add(l, args[1])
			if err != nil {
				return err
			}
			if !added {
				fmt.Fprintf(cmd.OutOrStdout(), "%s already lists %s\n", l, model.NormalizeCode(args[1]))
				return nil
			}
			metrics.ConstantsAddedTotal.WithLabelValues(l.String()).Inc()
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s to %s\n", model.NormalizeCode(args[1]), l)
			return nil
		},
	}

	cmd.AddCommand(list, add)
	return cmd
}
