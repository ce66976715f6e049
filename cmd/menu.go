package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jmehdipour/ratebook/internal/metrics"
	"github.com/jmehdipour/ratebook/internal/model"
	"github.com/jmehdipour/ratebook/internal/output"
	"github.com/jmehdipour/ratebook/internal/prompt"
	"github.com/jmehdipour/ratebook/internal/reconcile"
	"github.com/jmehdipour/ratebook/internal/sheet"
	"github.com/spf13/cobra"
)

const defaultFreeTime = "14 Days"

type action struct {
	label string
	run   func(context.Context) error
}

// menu is the interactive front end started when no subcommand is given.
type menu struct {
	*app
	p   *prompt.Prompter
	out io.Writer
}

func runMenu(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		m := &menu{app: a, p: newPrompter(cmd), out: cmd.OutOrStdout()}
		return m.loop(ctx, "Rate Book", []action{
			{"Add Rate", m.addRate},
			{"View Rates", m.viewRates},
			{"Edit Rates", m.editRate},
			{"Delete Rate", m.deleteRate},
			{"Export Quote to Excel", m.exportQuote},
			{"Export Customers by Destination Port", m.exportByPort},
			{"Import Quote from Excel", m.importRates},
			{"Manage Tariff Rates", m.tariffMenu},
		}, "Exit")
	})
}

// loop shows actions until the last entry is chosen or input ends.
// Errors from an action are reported and the menu shown again.
func (m *menu) loop(ctx context.Context, title string, actions []action, leave string) error {
	labels := make([]string, 0, len(actions)+1)
	for _, a := range actions {
		labels = append(labels, a.label)
	}
	labels = append(labels, leave)

	for {
		m.p.Printf("\n=== %s ===\n", title)
		i, err := m.p.Select("Choose an option:", labels)
		if err != nil {
			return ignoreAbort(err)
		}
		if i == len(actions) {
			return nil
		}
		if err := actions[i].run(ctx); err != nil {
			if errors.Is(err, prompt.ErrAborted) {
				return nil
			}
			m.p.Printf("Error: %v\n", err)
		}
	}
}

func ignoreAbort(err error) error {
	if errors.Is(err, prompt.ErrAborted) {
		return nil
	}
	return err
}

func (m *menu) table(data output.Tabular) error {
	return output.NewFormatter(output.FormatTable).Format(m.out, data)
}

// pickCustomer lists known customers. With allowNew, Other takes a typed name.
func (m *menu) pickCustomer(ctx context.Context, allowNew bool) (string, error) {
	cs, err := m.svc.Customers(ctx)
	if err != nil {
		return "", err
	}
	names := make([]string, 0, len(cs))
	for _, c := range cs {
		names = append(names, c.Name)
	}
	if allowNew {
		name, _, err := m.p.SelectOrOther("Customer:", names)
		return model.NormalizeName(name), err
	}
	if len(names) == 0 {
		return "", errors.New("no customers found")
	}
	i, err := m.p.Select("Customer:", names)
	if err != nil {
		return "", err
	}
	return names[i], nil
}

func (m *menu) pickRecord(ctx context.Context, scope model.Scope) (model.Record, error) {
	recs, err := m.svc.Records(ctx, scope)
	if err != nil {
		return model.Record{}, err
	}
	if len(recs) == 0 {
		return model.Record{}, fmt.Errorf("%s has no records", scope)
	}
	labels := make([]string, 0, len(recs))
	for _, r := range recs {
		labels = append(labels, fmt.Sprintf("%s  USD %.2f", r.Key(), r.FreightUSD))
	}
	i, err := m.p.Select("Select a rate:", labels)
	if err != nil {
		return model.Record{}, err
	}
	return recs[i], nil
}

// pickConstant offers the list's values; current, when set, can be kept as is.
// A typed value outside the list may be added to it.
func (m *menu) pickConstant(consts model.Constants, list model.ConstantList, current string) (string, error) {
	choices := consts.Values(list)
	keep := ""
	if current != "" {
		keep = "Keep " + current
		choices = append([]string{keep}, choices...)
	}
	v, other, err := m.p.SelectOrOther(fmt.Sprintf("Select %s:", list.Label()), choices)
	if err != nil {
		return "", err
	}
	if keep != "" && v == keep {
		return current, nil
	}
	if list != model.ListContainers {
		v = model.NormalizeCode(v)
	}
	if other && !consts.Contains(list, v) && m.p.ConfirmExtend(list, v) {
		added, err := m.constants.Add(list, v)
		if err != nil {
			return "", err
		}
		if added {
			metrics.ConstantsAddedTotal.WithLabelValues(list.String()).Inc()
		}
	}
	return v, nil
}

// askRecord collects every field. Fields of base, when given, are the defaults.
func (m *menu) askRecord(base *model.Record) (model.Record, error) {
	var r model.Record
	if base != nil {
		r = *base
	} else {
		r.FreeTime = defaultFreeTime
	}
	consts := m.constants.Load()

	var err error
	pick := func(dst *string, list model.ConstantList) {
		if err == nil {
			*dst, err = m.pickConstant(consts, list, *dst)
		}
	}
	amount := func(dst *float64, label string) {
		if err == nil {
			*dst, err = m.p.Amount(label, *dst)
		}
	}

	pick(&r.LoadPort, model.ListLoadPorts)
	pick(&r.DestinationPort, model.ListDestPorts)
	pick(&r.ContainerType, model.ListContainers)
	amount(&r.FreightUSD, "Freight (USD)")
	amount(&r.OTHCAUD, "OTHC (AUD)")
	amount(&r.DocAUD, "DOC (AUD)")
	amount(&r.CMRAUD, "CMR (AUD)")
	amount(&r.AMSUSD, "AMS (USD)")
	amount(&r.LSSUSD, "LSS (USD)")
	pick(&r.DTHC, model.ListDTHC)
	if err == nil {
		r.FreeTime, err = m.p.Text("Free time", r.FreeTime)
	}
	if err != nil {
		return model.Record{}, err
	}
	return r.Normalize(), nil
}

func (m *menu) report(scope model.Scope, key model.Key, o reconcile.Outcome) {
	m.p.Printf("%s %s: %s\n", scope, key, describe(o))
}

func (m *menu) addTo(ctx context.Context, scope model.Scope) error {
	rec, err := m.askRecord(nil)
	if err != nil {
		return err
	}
	o, err := m.svc.Add(ctx, scope, rec, m.p)
	if err != nil {
		return err
	}
	m.report(scope, rec.Key(), o)
	return nil
}

func (m *menu) editIn(ctx context.Context, scope model.Scope) error {
	cur, err := m.pickRecord(ctx, scope)
	if err != nil {
		return err
	}
	rec, err := m.askRecord(&cur)
	if err != nil {
		return err
	}
	o, err := m.svc.Edit(ctx, scope, cur.Key(), rec, m.p)
	if err != nil {
		return err
	}
	m.report(scope, rec.Key(), o)
	return nil
}

func (m *menu) deleteIn(ctx context.Context, scope model.Scope) error {
	cur, err := m.pickRecord(ctx, scope)
	if err != nil {
		return err
	}
	ok, err := m.p.Confirm(fmt.Sprintf("Delete %s?", cur.Key()), false)
	if err != nil {
		return err
	}
	if !ok {
		m.p.Printf("Cancelled.\n")
		return nil
	}
	if err := m.svc.Delete(ctx, scope, cur.Key()); err != nil {
		return err
	}
	m.p.Printf("Deleted %s.\n", cur.Key())
	return nil
}

func (m *menu) importInto(ctx context.Context, kind model.Kind) error {
	path, err := m.p.Required("Path to the .xlsx file", "")
	if err != nil {
		return err
	}
	imp, err := sheet.Open(path)
	if err != nil {
		return err
	}

	scope := model.GlobalScope
	switch {
	case kind == model.KindTariff:
	case imp.MultiScope:
		m.p.Printf("Workbook lists a customer per row (%s).\n", imp.Title)
	default:
		m.p.Printf("Importing %q for one customer.\n", imp.Title)
		name, err := m.pickCustomer(ctx, true)
		if err != nil {
			return err
		}
		scope = model.CustomerScope(name)
	}

	rep, err := m.svc.ImportSheet(ctx, imp, kind, scope, m.p, m.p)
	if err != nil {
		return err
	}
	printReport(m.out, rep)
	return nil
}

func (m *menu) addRate(ctx context.Context) error {
	name, err := m.p.Required("Customer name", "")
	if err != nil {
		return err
	}
	return m.addTo(ctx, model.CustomerScope(name))
}

func (m *menu) viewRates(ctx context.Context) error {
	cs, err := m.svc.Customers(ctx)
	if err != nil {
		return err
	}
	if len(cs) == 0 {
		m.p.Printf("No customers found.\n")
		return nil
	}
	for _, c := range cs {
		if err := m.table(output.Records{Title: "Customer: " + c.Name, Records: c.Records(), Numbered: true}); err != nil {
			return err
		}
	}
	return nil
}

func (m *menu) editRate(ctx context.Context) error {
	name, err := m.pickCustomer(ctx, false)
	if err != nil {
		return err
	}
	return m.editIn(ctx, model.CustomerScope(name))
}

func (m *menu) deleteRate(ctx context.Context) error {
	name, err := m.pickCustomer(ctx, false)
	if err != nil {
		return err
	}
	return m.deleteIn(ctx, model.CustomerScope(name))
}

func (m *menu) exportQuote(ctx context.Context) error {
	name, err := m.pickCustomer(ctx, false)
	if err != nil {
		return err
	}
	ex, err := m.svc.ExportQuote(ctx, name)
	if err != nil {
		return err
	}
	m.p.Printf("Exported %d rates to %s\n", ex.Records, ex.Path)
	return nil
}

func (m *menu) exportByPort(ctx context.Context) error {
	ports, err := m.svc.DestinationPorts(ctx)
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		return errors.New("no rates to export")
	}
	i, err := m.p.Select("Destination port:", ports)
	if err != nil {
		return err
	}
	ex, err := m.svc.ExportByDestination(ctx, ports[i])
	if err != nil {
		return err
	}
	m.p.Printf("Exported %d rates to %s\n", ex.Records, ex.Path)
	return nil
}

func (m *menu) importRates(ctx context.Context) error {
	return m.importInto(ctx, model.KindRate)
}

func (m *menu) tariffMenu(ctx context.Context) error {
	return m.loop(ctx, "Tariff Rates", []action{
		{"View Tariff Rates", m.viewTariffs},
		{"Add Tariff Rate", func(ctx context.Context) error { return m.addTo(ctx, model.GlobalScope) }},
		{"Edit Tariff Rate", func(ctx context.Context) error { return m.editIn(ctx, model.GlobalScope) }},
		{"Delete Tariff Rate", func(ctx context.Context) error { return m.deleteIn(ctx, model.GlobalScope) }},
		{"Export Tariff Rates to Excel", m.exportTariffs},
		{"Import Tariff Rates from Excel", func(ctx context.Context) error { return m.importInto(ctx, model.KindTariff) }},
	}, "Back")
}

func (m *menu) viewTariffs(ctx context.Context) error {
	recs, err := m.svc.Records(ctx, model.GlobalScope)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		m.p.Printf("No tariff rates found.\n")
		return nil
	}
	return m.table(output.Records{Title: "Tariff Rates", Records: recs, Numbered: true})
}

func (m *menu) exportTariffs(ctx context.Context) error {
	ex, err := m.svc.ExportTariffs(ctx)
	if err != nil {
		return err
	}
	m.p.Printf("Exported %d tariff rates to %s\n", ex.Records, ex.Path)
	return nil
}
