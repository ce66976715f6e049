package repository

import (
	"context"
	"errors"

	"github.com/jmehdipour/ratebook/internal/model"
)

// ErrNotFound is returned when a delete or lookup targets a missing customer or record.
var ErrNotFound = errors.New("not found")

// Store is the persistence contract shared by the relational, flat-file and in-memory back ends.
// Record lookups and writes are keyed by scope and natural key; every write leaves exactly one
// record per natural key in a scope.
type Store interface {
	// Customers loads every customer ordered by name, each with its rates in insertion order.
	Customers(ctx context.Context) ([]model.Customer, error)
	// Tariffs loads the global tariff table in insertion order.
	Tariffs(ctx context.Context) ([]model.Tariff, error)

	// Customer returns the named customer with its rates, or nil when unknown.
	Customer(ctx context.Context, name string) (*model.Customer, error)
	// EnsureCustomer returns the named customer, creating it when missing.
	EnsureCustomer(ctx context.Context, name string) (model.Customer, bool, error)

	// Find returns the record stored under key in scope, or nil.
	Find(ctx context.Context, scope model.Scope, key model.Key) (*model.Record, error)
	// Upsert inserts rec or updates the record sharing its natural key in scope.
	Upsert(ctx context.Context, scope model.Scope, rec model.Record) error
	// Delete removes the record stored under key in scope; ErrNotFound when absent.
	Delete(ctx context.Context, scope model.Scope, key model.Key) error

	// WithinTx runs fn against a transactional view of the store. The transaction is
	// committed when fn returns nil and rolled back otherwise.
	WithinTx(ctx context.Context, fn func(Store) error) error
}

// Records loads the records of a scope, in storage order.
func Records(ctx context.Context, s Store, scope model.Scope) ([]model.Record, error) {
	if scope.IsGlobal() {
		ts, err := s.Tariffs(ctx)
		if err != nil {
			return nil, err
		}
		return model.TariffRecords(ts), nil
	}
	c, err := s.Customer(ctx, scope.Customer)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, nil
	}
	return c.Records(), nil
}

func prepare(rec model.Record) (model.Record, error) {
	rec = rec.Normalize()
	if err := rec.Validate(); err != nil {
		return model.Record{}, err
	}
	return rec, nil
}
