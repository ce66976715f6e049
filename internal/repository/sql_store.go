package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// SQLStore persists customers, rates and tariffs in a relational database.
// Uniqueness of natural keys and the rate→customer foreign key are enforced by the schema.
type SQLStore struct {
	db *sqlx.DB
	q  sqlx.ExtContext
	tx *sqlx.Tx
}

func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db, q: db}
}

var _ Store = (*SQLStore)(nil)

// WithinTx begins a transaction unless s is already transactional, in which case fn joins it.
func (s *SQLStore) WithinTx(ctx context.Context, fn func(Store) error) error {
	return s.withTx(ctx, func(tx *SQLStore) error { return fn(tx) })
}

func (s *SQLStore) withTx(ctx context.Context, fn func(*SQLStore) error) error {
	if s.tx != nil {
		return fn(s)
	}
	t, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = t.Rollback() }()

	if err := fn(&SQLStore{db: s.db, q: t, tx: t}); err != nil {
		return err
	}
	if err := t.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
