package cmd

import (
	"fmt"
	"io"

	"github.com/jmehdipour/ratebook/internal/model"
	"github.com/jmehdipour/ratebook/internal/output"
	"github.com/jmehdipour/ratebook/internal/prompt"
	"github.com/jmehdipour/ratebook/internal/reconcile"
	"github.com/spf13/cobra"
)

// keyFlags name a record by its natural key.
type keyFlags struct {
	loadPort, destPort, container string
}

func (k *keyFlags) bind(cmd *cobra.Command, prefix string) {
	cmd.Flags().StringVar(&k.loadPort, prefix+"load-port", "", "load port")
	cmd.Flags().StringVar(&k.destPort, prefix+"destination-port", "", "destination port")
	cmd.Flags().StringVar(&k.container, prefix+"container", "", "container type")
}

func (k keyFlags) key() model.Key {
	return model.Key{LoadPort: k.loadPort, DestinationPort: k.destPort, ContainerType: k.container}.Normalize()
}

func (k keyFlags) require() (model.Key, error) {
	key := k.key()
	if key.LoadPort == "" || key.DestinationPort == "" || key.ContainerType == "" {
		return model.Key{}, fmt.Errorf("--load-port, --destination-port and --container are required")
	}
	return key, nil
}

// recordFlags carry every field of a record.
type recordFlags struct {
	keyFlags
	freight, othc, doc, cmr, ams, lss float64
	dthc, freeTime                    string
}

func (f *recordFlags) bind(cmd *cobra.Command) {
	f.keyFlags.bind(cmd, "")
	fl := cmd.Flags()
	fl.Float64Var(&f.freight, "freight-usd", 0, "freight (USD)")
	fl.Float64Var(&f.othc, "othc-aud", 0, "origin terminal handling (AUD)")
	fl.Float64Var(&f.doc, "doc-aud", 0, "documentation fee (AUD)")
	fl.Float64Var(&f.cmr, "cmr-aud", 0, "CMR fee (AUD)")
	fl.Float64Var(&f.ams, "ams-usd", 0, "AMS fee (USD)")
	fl.Float64Var(&f.lss, "lss-usd", 0, "low sulphur surcharge (USD)")
	fl.StringVar(&f.dthc, "dthc", "COLLECT", "destination terminal handling term")
	fl.StringVar(&f.freeTime, "free-time", "14 Days", "free time")
}

func (f recordFlags) record() model.Record {
	return model.Record{
		LoadPort: f.loadPort, DestinationPort: f.destPort, ContainerType: f.container,
		FreightUSD: f.freight, OTHCAUD: f.othc, DocAUD: f.doc, CMRAUD: f.cmr, AMSUSD: f.ams, LSSUSD: f.lss,
		DTHC: f.dthc, FreeTime: f.freeTime,
	}.Normalize()
}

// apply overwrites the fields of r whose flags were set on cmd.
func (f recordFlags) apply(cmd *cobra.Command, r model.Record) model.Record {
	changed := cmd.Flags().Changed
	set := func(name string, dst *float64, v float64) {
		if changed(name) {
			*dst = v
		}
	}
	set("freight-usd", &r.FreightUSD, f.freight)
	set("othc-aud", &r.OTHCAUD, f.othc)
	set("doc-aud", &r.DocAUD, f.doc)
	set("cmr-aud", &r.CMRAUD, f.cmr)
	set("ams-usd", &r.AMSUSD, f.ams)
	set("lss-usd", &r.LSSUSD, f.lss)
	if changed("dthc") {
		r.DTHC = f.dthc
	}
	if changed("free-time") {
		r.FreeTime = f.freeTime
	}
	return r.Normalize()
}

// confirmerFor maps --replace to a Confirmer; ask consults the operator.
func confirmerFor(mode string, p *prompt.Prompter) (reconcile.Confirmer, error) {
	switch mode {
	case "", "ask":
		return p, nil
	case "always":
		return reconcile.Always, nil
	case "never":
		return reconcile.Never, nil
	default:
		return nil, fmt.Errorf("--replace %q: want ask, always or never", mode)
	}
}

func newPrompter(cmd *cobra.Command) *prompt.Prompter {
	return prompt.New(cmd.InOrStdin(), cmd.OutOrStdout())
}

func render(cmd *cobra.Command, format string, data any) error {
	f, err := output.ParseFormat(format)
	if err != nil {
		return err
	}
	return output.NewFormatter(output.DetectFormat(string(f))).Format(cmd.OutOrStdout(), data)
}

func describe(o reconcile.Outcome) string {
	switch o {
	case reconcile.Inserted:
		return "saved"
	case reconcile.Replaced:
		return "updated"
	case reconcile.SkippedUnchanged:
		return "unchanged, nothing to do"
	case reconcile.SkippedDeclined:
		return "skipped, existing record kept"
	default:
		return string(o)
	}
}

func printReport(out io.Writer, rep reconcile.Report) {
	for _, res := range rep.InvalidResults() {
		fmt.Fprintf(out, "  line %d skipped: %s\n", res.Line, res.Reason)
	}
	if rep.Total() == 0 {
		fmt.Fprintln(out, "The workbook holds no rows.")
		return
	}
	for _, name := range rep.CreatedScopes {
		fmt.Fprintf(out, "  new customer %s\n", name)
	}
	fmt.Fprintf(out, "\nImport complete: %s.\n", rep)
}
