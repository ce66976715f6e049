package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmehdipour/ratebook/internal/model"
	"github.com/jmoiron/sqlx"
)

const rateColumns = `id, customer_id, load_port, destination_port, container_type,
	freight_usd, othc_aud, doc_aud, cmr_aud, ams_usd, lss_usd, dthc, free_time`

func (s *SQLStore) Customers(ctx context.Context) ([]model.Customer, error) {
	var customers []model.Customer
	if err := sqlx.SelectContext(ctx, s.q, &customers, `
		SELECT id, name
		  FROM customers
		 ORDER BY name
	`); err != nil {
		return nil, fmt.Errorf("select customers: %w", err)
	}

	var rates []model.Rate
	if err := sqlx.SelectContext(ctx, s.q, &rates,
		`SELECT `+rateColumns+` FROM rates ORDER BY customer_id, id`); err != nil {
		return nil, fmt.Errorf("select rates: %w", err)
	}

	idx := make(map[int64]int, len(customers))
	for i, c := range customers {
		idx[c.ID] = i
	}
	for _, r := range rates {
		if i, ok := idx[r.CustomerID]; ok {
			customers[i].Rates = append(customers[i].Rates, r)
		}
	}
	return customers, nil
}

func (s *SQLStore) Customer(ctx context.Context, name string) (*model.Customer, error) {
	c, err := s.customerByName(ctx, name)
	if err != nil || c == nil {
		return nil, err
	}
	if err := sqlx.SelectContext(ctx, s.q, &c.Rates,
		`SELECT `+rateColumns+` FROM rates WHERE customer_id = ? ORDER BY id`, c.ID); err != nil {
		return nil, fmt.Errorf("select rates of %s: %w", c.Name, err)
	}
	return c, nil
}

func (s *SQLStore) customerByName(ctx context.Context, name string) (*model.Customer, error) {
	var c model.Customer
	err := sqlx.GetContext(ctx, s.q, &c, `
		SELECT id, name
		  FROM customers
		 WHERE name = ? LIMIT 1
	`, model.NormalizeName(name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select customer: %w", err)
	}
	return &c, nil
}

func (s *SQLStore) EnsureCustomer(ctx context.Context, name string) (model.Customer, bool, error) {
	name = model.NormalizeName(name)
	if strings.TrimSpace(name) == "" {
		return model.Customer{}, false, fmt.Errorf("%w: customer name is required", model.ErrInvalidRecord)
	}

	var (
		out     model.Customer
		created bool
	)
	err := s.withTx(ctx, func(tx *SQLStore) error {
		c, err := tx.customerByName(ctx, name)
		if err != nil {
			return err
		}
		if c != nil {
			out = *c
			return nil
		}
		res, err := tx.q.ExecContext(ctx, `INSERT INTO customers (name) VALUES (?)`, name)
		if err != nil {
			return fmt.Errorf("insert customer %q: %w", name, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("customer id: %w", err)
		}
		out = model.Customer{ID: id, Name: name}
		created = true
		return nil
	})
	return out, created, err
}
