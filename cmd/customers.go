package cmd

import (
	"context"

	"github.com/jmehdipour/ratebook/internal/output"
	"github.com/spf13/cobra"
)

func newCustomersCmd() *cobra.Command {
	var format string
	listCustomers := func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			cs, err := a.svc.Customers(ctx)
			if err != nil {
				return err
			}
			return render(cmd, format, output.CustomerNames(cs))
		})
	}

	cmd := &cobra.Command{
		Use:   "customers",
		Short: "List customers and how many rates each holds",
		Args:  cobra.NoArgs,
		RunE:  listCustomers,
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List customers and how many rates each holds",
		Args:  cobra.NoArgs,
		RunE:  listCustomers,
	}
	cmd.PersistentFlags().StringVarP(&format, "output", "o", "", "output format: table|json|yaml (default: table on a terminal)")
	cmd.AddCommand(list)
	return cmd
}
