package cmd

import (
	"context"
	"fmt"

	"github.com/jmehdipour/ratebook/internal/model"
	"github.com/jmehdipour/ratebook/internal/output"
	"github.com/spf13/cobra"
)

func newRatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rates",
		Short: "Manage customer rates",
	}
	cmd.AddCommand(
		newRatesListCmd(),
		newRecordAddCmd(model.KindRate),
		newRecordEditCmd(model.KindRate),
		newRecordDeleteCmd(model.KindRate),
		newRatesExportCmd(),
		newRatesExportPortCmd(),
		newImportCmd(model.KindRate),
	)
	return cmd
}

func newRatesListCmd() *cobra.Command {
	var customer, format string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List rates for one customer or for all of them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if customer == "" {
					cs, err := a.svc.Customers(ctx)
					if err != nil {
						return err
					}
					return render(cmd, format, output.Customers(cs))
				}
				c, err := a.svc.Customer(ctx, customer)
				if err != nil {
					return err
				}
				return render(cmd, format, output.Records{Title: "Customer: " + c.Name, Records: c.Records()})
			})
		},
	}
	cmd.Flags().StringVar(&customer, "customer", "", "only this customer")
	cmd.Flags().StringVarP(&format, "output", "o", "", "output format: table|json|yaml (default: table on a terminal)")
	return cmd
}

func newRatesExportCmd() *cobra.Command {
	var customer string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export one customer's rates to Quote_<CUSTOMER>_<date>.xlsx",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				ex, err := a.svc.ExportQuote(ctx, customer)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d rates to %s\n", ex.Records, ex.Path)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&customer, "customer", "", "customer name")
	_ = cmd.MarkFlagRequired("customer")
	return cmd
}

func newRatesExportPortCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "export-port",
		Short: "Export every customer's rates to one destination port",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				ex, err := a.svc.ExportByDestination(ctx, port)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d rates to %s\n", ex.Records, ex.Path)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "destination port")
	_ = cmd.MarkFlagRequired("port")
	return cmd
}
