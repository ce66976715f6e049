package book

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/jmehdipour/ratebook/internal/metrics"
	"github.com/jmehdipour/ratebook/internal/model"
	"github.com/jmehdipour/ratebook/internal/reconcile"
	"github.com/jmehdipour/ratebook/internal/repository"
	"go.uber.org/zap"
)

var ErrNothingToExport = errors.New("no records to export")

// Service holds the rate book use cases shared by the CLI and the HTTP API.
type Service struct {
	store     repository.Store
	constants reconcile.Constants
	opts      reconcile.Options
	exportDir string
	log       *zap.Logger
	now       func() time.Time
}

// New constructs the rate book service.
func New(
	store repository.Store,
	constants reconcile.Constants,
	opts reconcile.Options,
	exportDir string,
	log *zap.Logger,
) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if exportDir == "" {
		exportDir = "."
	}
	return &Service{
		store:     store,
		constants: constants,
		opts:      opts,
		exportDir: exportDir,
		log:       log,
		now:       time.Now,
	}
}

func (s *Service) Customers(ctx context.Context) ([]model.Customer, error) {
	return s.store.Customers(ctx)
}

// Customer returns the named customer or ErrNotFound.
func (s *Service) Customer(ctx context.Context, name string) (model.Customer, error) {
	c, err := s.store.Customer(ctx, name)
	if err != nil {
		return model.Customer{}, err
	}
	if c == nil {
		return model.Customer{}, fmt.Errorf("customer %q: %w", model.NormalizeName(name), repository.ErrNotFound)
	}
	return *c, nil
}

func (s *Service) Tariffs(ctx context.Context) ([]model.Tariff, error) {
	return s.store.Tariffs(ctx)
}

// Records lists a scope. An unknown customer is ErrNotFound.
func (s *Service) Records(ctx context.Context, scope model.Scope) ([]model.Record, error) {
	if scope.IsGlobal() {
		return repository.Records(ctx, s.store, scope)
	}
	c, err := s.Customer(ctx, scope.Customer)
	if err != nil {
		return nil, err
	}
	return c.Records(), nil
}

// DestinationPorts lists the distinct destination ports across customer rates, sorted.
func (s *Service) DestinationPorts(ctx context.Context) ([]string, error) {
	customers, err := s.store.Customers(ctx)
	if err != nil {
		return nil, err
	}
	var ports []string
	for _, c := range customers {
		for _, r := range c.Rates {
			if !slices.Contains(ports, r.DestinationPort) {
				ports = append(ports, r.DestinationPort)
			}
		}
	}
	slices.Sort(ports)
	return ports, nil
}

// Add stores rec in scope. A different record under the same key is only
// overwritten when confirm agrees; a declined overwrite is not an error.
func (s *Service) Add(ctx context.Context, scope model.Scope, rec model.Record, confirm reconcile.Confirmer) (reconcile.Outcome, error) {
	rec = rec.Normalize()
	if err := rec.Validate(); err != nil {
		return "", err
	}
	if confirm == nil {
		confirm = reconcile.Never
	}

	var outcome reconcile.Outcome
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		existing, err := tx.Find(ctx, scope, rec.Key())
		if err != nil {
			return err
		}
		switch {
		case existing == nil:
			outcome = reconcile.Inserted
		case existing.Equal(rec):
			outcome = reconcile.SkippedUnchanged
			return nil
		case confirm.ConfirmReplace(*existing, rec):
			if err := tx.Delete(ctx, scope, existing.Key()); err != nil {
				return err
			}
			outcome = reconcile.Replaced
		default:
			outcome = reconcile.SkippedDeclined
			return nil
		}
		return tx.Upsert(ctx, scope, rec)
	})
	if err != nil {
		return "", fmt.Errorf("add %s to %s: %w", rec.Key(), scope, err)
	}
	s.written(scope, outcome, rec.Key())
	return outcome, nil
}

// Edit replaces the record stored under old with rec. When rec moves to a key held by
// another record, that record is only overwritten when confirm agrees.
func (s *Service) Edit(ctx context.Context, scope model.Scope, old model.Key, rec model.Record, confirm reconcile.Confirmer) (reconcile.Outcome, error) {
	rec = rec.Normalize()
	if err := rec.Validate(); err != nil {
		return "", err
	}
	if confirm == nil {
		confirm = reconcile.Never
	}
	old = old.Normalize()

	var outcome reconcile.Outcome
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		current, err := tx.Find(ctx, scope, old)
		if err != nil {
			return err
		}
		if current == nil {
			return fmt.Errorf("%s in %s: %w", old, scope, repository.ErrNotFound)
		}
		if current.Equal(rec) {
			outcome = reconcile.SkippedUnchanged
			return nil
		}
		if rec.Key() != old {
			clash, err := tx.Find(ctx, scope, rec.Key())
			if err != nil {
				return err
			}
			if clash != nil && !clash.Equal(rec) && !confirm.ConfirmReplace(*clash, rec) {
				outcome = reconcile.SkippedDeclined
				return nil
			}
			if clash != nil {
				if err := tx.Delete(ctx, scope, clash.Key()); err != nil {
					return err
				}
			}
		}
		if err := tx.Delete(ctx, scope, old); err != nil {
			return err
		}
		outcome = reconcile.Replaced
		return tx.Upsert(ctx, scope, rec)
	})
	if err != nil {
		return "", fmt.Errorf("edit %s in %s: %w", old, scope, err)
	}
	s.written(scope, outcome, rec.Key())
	return outcome, nil
}

// Delete removes the record under key; ErrNotFound when there is none.
func (s *Service) Delete(ctx context.Context, scope model.Scope, key model.Key) error {
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		return tx.Delete(ctx, scope, key)
	})
	if err != nil {
		return err
	}
	metrics.RecordWritesTotal.WithLabelValues(scope.Kind().String(), "delete").Inc()
	s.log.Info("record deleted", zap.Stringer("scope", scope), zap.Stringer("key", key.Normalize()))
	return nil
}

func (s *Service) written(scope model.Scope, outcome reconcile.Outcome, key model.Key) {
	op := ""
	switch outcome {
	case reconcile.Inserted:
		op = "add"
	case reconcile.Replaced:
		op = "replace"
	default:
		s.log.Debug("record left untouched", zap.Stringer("scope", scope), zap.Stringer("key", key), zap.String("outcome", string(outcome)))
		return
	}
	metrics.RecordWritesTotal.WithLabelValues(scope.Kind().String(), op).Inc()
	s.log.Info("record saved", zap.Stringer("scope", scope), zap.Stringer("key", key), zap.String("outcome", string(outcome)))
}
