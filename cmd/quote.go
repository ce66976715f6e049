package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

func newQuoteCmd() *cobra.Command {
	var (
		customer string
		kf       keyFlags
		format   string
	)
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a lane from the customer's rates, falling back to the tariff",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := kf.require()
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				q, err := a.svc.Quote(ctx, customer, key)
				if err != nil {
					return err
				}
				return render(cmd, format, q)
			})
		},
	}
	cmd.Flags().StringVar(&customer, "customer", "", "customer name; empty quotes the tariff")
	kf.bind(cmd, "")
	cmd.Flags().StringVarP(&format, "output", "o", "", "output format: json|yaml")
	return cmd
}
