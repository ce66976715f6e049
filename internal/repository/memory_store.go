package repository

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/jmehdipour/ratebook/internal/model"
)

// MemoryStore keeps every record in memory. Transactions work on a copy that
// replaces the live state only when the callback succeeds.
type MemoryStore struct {
	customers []model.Customer
	tariffs   []model.Tariff
	nextID    int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

var _ Store = (*MemoryStore)(nil)

// load replaces the state with a snapshot, assigning fresh identities.
func (m *MemoryStore) load(customers []model.Customer, tariffs []model.Tariff) {
	m.customers, m.tariffs, m.nextID = nil, nil, 0
	for _, c := range customers {
		c.ID = m.id()
		rates := make([]model.Rate, 0, len(c.Rates))
		for _, r := range c.Rates {
			r.ID, r.CustomerID = m.id(), c.ID
			rates = append(rates, r)
		}
		c.Rates = rates
		m.customers = append(m.customers, c)
	}
	for _, t := range tariffs {
		t.ID = m.id()
		m.tariffs = append(m.tariffs, t)
	}
}

func (m *MemoryStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *MemoryStore) clone() *MemoryStore {
	c := &MemoryStore{nextID: m.nextID, tariffs: slices.Clone(m.tariffs)}
	c.customers = make([]model.Customer, len(m.customers))
	for i, cu := range m.customers {
		cu.Rates = slices.Clone(cu.Rates)
		c.customers[i] = cu
	}
	return c
}

func (m *MemoryStore) WithinTx(_ context.Context, fn func(Store) error) error {
	work := m.clone()
	if err := fn(work); err != nil {
		return err
	}
	*m = *work
	return nil
}

func (m *MemoryStore) Customers(context.Context) ([]model.Customer, error) {
	out := m.clone().customers
	slices.SortStableFunc(out, func(a, b model.Customer) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (m *MemoryStore) Tariffs(context.Context) ([]model.Tariff, error) {
	return slices.Clone(m.tariffs), nil
}

func (m *MemoryStore) index(name string) int {
	name = model.NormalizeName(name)
	return slices.IndexFunc(m.customers, func(c model.Customer) bool { return c.Name == name })
}

func (m *MemoryStore) Customer(_ context.Context, name string) (*model.Customer, error) {
	i := m.index(name)
	if i < 0 {
		return nil, nil
	}
	c := m.customers[i]
	c.Rates = slices.Clone(c.Rates)
	return &c, nil
}

func (m *MemoryStore) EnsureCustomer(_ context.Context, name string) (model.Customer, bool, error) {
	name = model.NormalizeName(name)
	if name == "" {
		return model.Customer{}, false, fmt.Errorf("%w: customer name is required", model.ErrInvalidRecord)
	}
	if i := m.index(name); i >= 0 {
		return m.customers[i], false, nil
	}
	c := model.Customer{ID: m.id(), Name: name}
	m.customers = append(m.customers, c)
	return c, true, nil
}

func (m *MemoryStore) Find(_ context.Context, scope model.Scope, key model.Key) (*model.Record, error) {
	key = key.Normalize()
	if scope.IsGlobal() {
		for _, t := range m.tariffs {
			if t.Key() == key {
				rec := t.Record
				return &rec, nil
			}
		}
		return nil, nil
	}
	i := m.index(scope.Customer)
	if i < 0 {
		return nil, nil
	}
	if r, ok := m.customers[i].Find(key); ok {
		rec := r.Record
		return &rec, nil
	}
	return nil, nil
}

func (m *MemoryStore) Upsert(ctx context.Context, scope model.Scope, rec model.Record) error {
	rec, err := prepare(rec)
	if err != nil {
		return err
	}
	key := rec.Key()

	if scope.IsGlobal() {
		if i := slices.IndexFunc(m.tariffs, func(t model.Tariff) bool { return t.Key() == key }); i >= 0 {
			m.tariffs[i].Record = rec
			return nil
		}
		m.tariffs = append(m.tariffs, model.Tariff{ID: m.id(), Record: rec})
		return nil
	}

	c, _, err := m.EnsureCustomer(ctx, scope.Customer)
	if err != nil {
		return err
	}
	cu := &m.customers[m.index(c.Name)]
	if i := slices.IndexFunc(cu.Rates, func(r model.Rate) bool { return r.Key() == key }); i >= 0 {
		cu.Rates[i].Record = rec
		return nil
	}
	cu.Rates = append(cu.Rates, model.Rate{ID: m.id(), CustomerID: cu.ID, Record: rec})
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, scope model.Scope, key model.Key) error {
	key = key.Normalize()
	if scope.IsGlobal() {
		i := slices.IndexFunc(m.tariffs, func(t model.Tariff) bool { return t.Key() == key })
		if i < 0 {
			return fmt.Errorf("%s in %s: %w", key, scope, ErrNotFound)
		}
		m.tariffs = slices.Delete(m.tariffs, i, i+1)
		return nil
	}

	ci := m.index(scope.Customer)
	if ci < 0 {
		return fmt.Errorf("%s: %w", scope, ErrNotFound)
	}
	cu := &m.customers[ci]
	i := slices.IndexFunc(cu.Rates, func(r model.Rate) bool { return r.Key() == key })
	if i < 0 {
		return fmt.Errorf("%s in %s: %w", key, scope, ErrNotFound)
	}
	cu.Rates = slices.Delete(cu.Rates, i, i+1)
	return nil
}
