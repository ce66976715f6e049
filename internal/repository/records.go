package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmehdipour/ratebook/internal/model"
	"github.com/jmoiron/sqlx"
)

const recordColumns = `load_port, destination_port, container_type,
	freight_usd, othc_aud, doc_aud, cmr_aud, ams_usd, lss_usd, dthc, free_time`

// target resolves a scope to its table and an optional customer filter.
// ok is false when the scope names a customer that does not exist.
func (s *SQLStore) target(ctx context.Context, scope model.Scope) (table string, customerID int64, ok bool, err error) {
	if scope.IsGlobal() {
		return "tariffs", 0, true, nil
	}
	c, err := s.customerByName(ctx, scope.Customer)
	if err != nil || c == nil {
		return "rates", 0, false, err
	}
	return "rates", c.ID, true, nil
}

func keyFilter(table string, customerID int64, key model.Key) (string, []any) {
	where := `load_port = ? AND destination_port = ? AND container_type = ?`
	args := []any{key.LoadPort, key.DestinationPort, key.ContainerType}
	if table == "rates" {
		where = `customer_id = ? AND ` + where
		args = append([]any{customerID}, args...)
	}
	return where, args
}

func (s *SQLStore) Find(ctx context.Context, scope model.Scope, key model.Key) (*model.Record, error) {
	table, cid, ok, err := s.target(ctx, scope)
	if err != nil || !ok {
		return nil, err
	}
	where, args := keyFilter(table, cid, key.Normalize())

	var rec model.Record
	err = sqlx.GetContext(ctx, s.q, &rec,
		`SELECT `+recordColumns+` FROM `+table+` WHERE `+where+` LIMIT 1`, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	return &rec, nil
}

func (s *SQLStore) Upsert(ctx context.Context, scope model.Scope, rec model.Record) error {
	rec, err := prepare(rec)
	if err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *SQLStore) error {
		var cid int64
		table := "tariffs"
		if !scope.IsGlobal() {
			c, _, err := tx.EnsureCustomer(ctx, scope.Customer)
			if err != nil {
				return err
			}
			table, cid = "rates", c.ID
		}
		where, keyArgs := keyFilter(table, cid, rec.Key())

		var id int64
		err := sqlx.GetContext(ctx, tx.q, &id, `SELECT id FROM `+table+` WHERE `+where+` LIMIT 1`, keyArgs...)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			cols, ph := recordColumns, `?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?`
			args := rec.Row()
			if table == "rates" {
				cols, ph = `customer_id, `+cols, `?, `+ph
				args = append([]any{cid}, args...)
			}
			if _, err := tx.q.ExecContext(ctx,
				`INSERT INTO `+table+` (`+cols+`) VALUES (`+ph+`)`, args...); err != nil {
				return fmt.Errorf("insert %s %s: %w", table, rec.Key(), err)
			}
			return nil
		case err != nil:
			return fmt.Errorf("select %s id: %w", table, err)
		}

		if _, err := tx.q.ExecContext(ctx, `
			UPDATE `+table+`
			   SET freight_usd = ?, othc_aud = ?, doc_aud = ?, cmr_aud = ?, ams_usd = ?, lss_usd = ?,
			       dthc = ?, free_time = ?, updated_at = CURRENT_TIMESTAMP
			 WHERE id = ?
		`, rec.FreightUSD, rec.OTHCAUD, rec.DocAUD, rec.CMRAUD, rec.AMSUSD, rec.LSSUSD,
			rec.DTHC, rec.FreeTime, id); err != nil {
			return fmt.Errorf("update %s %s: %w", table, rec.Key(), err)
		}
		return nil
	})
}

func (s *SQLStore) Delete(ctx context.Context, scope model.Scope, key model.Key) error {
	table, cid, ok, err := s.target(ctx, scope)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: %w", scope, ErrNotFound)
	}
	key = key.Normalize()
	where, args := keyFilter(table, cid, key)

	res, err := s.q.ExecContext(ctx, `DELETE FROM `+table+` WHERE `+where, args...)
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", table, key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", table, key, err)
	}
	if n == 0 {
		return fmt.Errorf("%s in %s: %w", key, scope, ErrNotFound)
	}
	return nil
}
