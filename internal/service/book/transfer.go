package book

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/jmehdipour/ratebook/internal/model"
	"github.com/jmehdipour/ratebook/internal/reconcile"
	"github.com/jmehdipour/ratebook/internal/sheet"
	"go.uber.org/zap"
)

// Exported describes a written workbook.
type Exported struct {
	Path    string
	Records int
}

func (s *Service) save(prefix, name string, sh sheet.Sheet) (Exported, error) {
	path := filepath.Join(s.exportDir, sheet.FileName(prefix, name, s.now()))
	if err := sheet.Save(path, sh); err != nil {
		return Exported{}, err
	}
	s.log.Info("workbook exported", zap.String("path", path), zap.Int("records", len(sh.Rows)))
	return Exported{Path: path, Records: len(sh.Rows)}, nil
}

// ExportQuote writes one customer's rates to Quote_<NAME>_<date>.xlsx. Nothing is
// written for a customer without rates.
func (s *Service) ExportQuote(ctx context.Context, customer string) (Exported, error) {
	c, err := s.Customer(ctx, customer)
	if err != nil {
		return Exported{}, err
	}
	if len(c.Rates) == 0 {
		return Exported{}, fmt.Errorf("customer %s: %w", c.Name, ErrNothingToExport)
	}
	return s.save(sheet.PrefixQuote, c.Name, sheet.Quote(c))
}

// ExportByDestination writes every customer's rates to port. Nothing is written
// when no rate goes there.
func (s *Service) ExportByDestination(ctx context.Context, port string) (Exported, error) {
	customers, err := s.store.Customers(ctx)
	if err != nil {
		return Exported{}, err
	}
	sh := sheet.ByDestination(port, customers)
	if len(sh.Rows) == 0 {
		return Exported{}, fmt.Errorf("destination %s: %w", model.NormalizeCode(port), ErrNothingToExport)
	}
	return s.save(sheet.PrefixPort, model.NormalizeCode(port), sh)
}

// ExportTariffs writes the tariff table to Tariff_Rates_<date>.xlsx.
func (s *Service) ExportTariffs(ctx context.Context) (Exported, error) {
	ts, err := s.store.Tariffs(ctx)
	if err != nil {
		return Exported{}, err
	}
	if len(ts) == 0 {
		return Exported{}, fmt.Errorf("tariffs: %w", ErrNothingToExport)
	}
	return s.save(sheet.PrefixTariff, "Rates", sheet.Tariffs(model.TariffRecords(ts)))
}

// Import reconciles the workbook at path. scope is the target of a single-customer
// rate file and is ignored for multi-customer files and tariffs.
func (s *Service) Import(ctx context.Context, path string, kind model.Kind, scope model.Scope, confirm reconcile.Confirmer, extend reconcile.Extender) (reconcile.Report, error) {
	imp, err := sheet.Open(path)
	if err != nil {
		return reconcile.Report{}, err
	}
	s.log.Info("workbook opened", zap.String("path", path), zap.String("title", imp.Title), zap.Bool("multi_scope", imp.MultiScope))
	return s.ImportSheet(ctx, imp, kind, scope, confirm, extend)
}

// ImportSheet reconciles an already read workbook.
func (s *Service) ImportSheet(ctx context.Context, imp sheet.Import, kind model.Kind, scope model.Scope, confirm reconcile.Confirmer, extend reconcile.Extender) (reconcile.Report, error) {
	if kind == model.KindTariff {
		scope = model.GlobalScope
	}
	eng := reconcile.New(s.store, s.constants, confirm, extend, s.opts, s.log)
	return eng.Run(ctx, reconcile.Batch{
		Kind:       kind,
		MultiScope: imp.MultiScope,
		Scope:      scope,
		Items:      imp.Items,
	})
}
