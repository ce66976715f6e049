package cmd

import (
	"context"
	"fmt"

	"github.com/jmehdipour/ratebook/internal/model"
	"github.com/jmehdipour/ratebook/internal/output"
	"github.com/spf13/cobra"
)

func newTariffsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tariffs",
		Aliases: []string{"tariff"},
		Short:   "Manage the global tariff table",
	}
	cmd.AddCommand(
		newTariffsListCmd(),
		newRecordAddCmd(model.KindTariff),
		newRecordEditCmd(model.KindTariff),
		newRecordDeleteCmd(model.KindTariff),
		newTariffsExportCmd(),
		newImportCmd(model.KindTariff),
	)
	return cmd
}

func newTariffsListCmd() *cobra.Command {
	var port, format string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tariff rates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				recs, err := a.svc.Records(ctx, model.GlobalScope)
				if err != nil {
					return err
				}
				if port != "" {
					want := model.NormalizeCode(port)
					kept := recs[:0]
					for _, r := range recs {
						if r.DestinationPort == want {
							kept = append(kept, r)
						}
					}
					recs = kept
				}
				return render(cmd, format, output.Records{Title: "Tariff Rates", Records: recs})
			})
		},
	}
	cmd.Flags().StringVar(&port, "destination-port", "", "only this destination port")
	cmd.Flags().StringVarP(&format, "output", "o", "", "output format: table|json|yaml (default: table on a terminal)")
	return cmd
}

func newTariffsExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Export the tariff table to Tariff_Rates_<date>.xlsx",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				ex, err := a.svc.ExportTariffs(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d tariff rates to %s\n", ex.Records, ex.Path)
				return nil
			})
		},
	}
}
