package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmehdipour/ratebook/internal/db"
	"github.com/jmehdipour/ratebook/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSQLiteStore(t *testing.T) Store {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "shipping.db") + "?_pragma=foreign_keys(1)"
	conn, err := db.Open(db.Opts{Driver: db.DriverSQLite, DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.MigrateUp(conn, zap.NewNop()))
	return NewSQLStore(conn)
}

var stores = map[string]func(t *testing.T) Store{
	"sqlite": newSQLiteStore,
	"memory": func(*testing.T) Store { return NewMemoryStore() },
	"file":   func(t *testing.T) Store { return NewFileStore(t.TempDir()) },
}

func rate(lp, dp, ct string, freight float64) model.Record {
	return model.Record{
		LoadPort: lp, DestinationPort: dp, ContainerType: ct,
		FreightUSD: freight, OTHCAUD: 400, DocAUD: 200, CMRAUD: 300, AMSUSD: 35, LSSUSD: 30,
		DTHC: "COLLECT", FreeTime: "14 Days",
	}
}

func forEachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	for name, mk := range stores {
		t.Run(name, func(t *testing.T) { fn(t, mk(t)) })
	}
}

func TestUpsertThenFind(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		for _, scope := range []model.Scope{model.CustomerScope("acme"), model.GlobalScope} {
			r := rate("MELBOURNE", "SHANGHAI", "20GP", 800)
			require.NoError(t, s.Upsert(ctx, scope, r))

			got, err := s.Find(ctx, scope, r.Key())
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, r, *got)
		}
	})
}

func TestUpsertKeepsNaturalKeyUnique(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		scope := model.CustomerScope("ACME")

		require.NoError(t, s.Upsert(ctx, scope, rate("MELBOURNE", "SHANGHAI", "20GP", 800)))
		require.NoError(t, s.Upsert(ctx, scope, rate("melbourne", " shanghai", "20GP", 900)))

		c, err := s.Customer(ctx, "acme")
		require.NoError(t, err)
		require.NotNil(t, c)
		require.Len(t, c.Rates, 1)
		assert.Equal(t, 900.0, c.Rates[0].FreightUSD)

		require.NoError(t, s.Upsert(ctx, model.GlobalScope, rate("SYDNEY", "TOKYO", "40HC", 1)))
		require.NoError(t, s.Upsert(ctx, model.GlobalScope, rate("SYDNEY", "TOKYO", "40HC", 2)))
		ts, err := s.Tariffs(ctx)
		require.NoError(t, err)
		require.Len(t, ts, 1)
		assert.Equal(t, 2.0, ts[0].FreightUSD)
	})
}

func TestSameKeyDifferentScopes(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		r := rate("MELBOURNE", "SHANGHAI", "20GP", 800)
		require.NoError(t, s.Upsert(ctx, model.CustomerScope("ACME"), r))
		require.NoError(t, s.Upsert(ctx, model.CustomerScope("GLOBEX"), r))
		require.NoError(t, s.Upsert(ctx, model.GlobalScope, r))

		customers, err := s.Customers(ctx)
		require.NoError(t, err)
		require.Len(t, customers, 2)
		assert.Equal(t, "ACME", customers[0].Name)
		assert.Equal(t, "GLOBEX", customers[1].Name)
		for _, c := range customers {
			assert.Len(t, c.Rates, 1)
		}
	})
}

func TestDelete(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		scope := model.CustomerScope("ACME")
		r := rate("MELBOURNE", "SHANGHAI", "20GP", 800)
		require.NoError(t, s.Upsert(ctx, scope, r))

		require.NoError(t, s.Delete(ctx, scope, r.Key()))
		got, err := s.Find(ctx, scope, r.Key())
		require.NoError(t, err)
		assert.Nil(t, got)

		assert.ErrorIs(t, s.Delete(ctx, scope, r.Key()), ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, model.CustomerScope("NOBODY"), r.Key()), ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, model.GlobalScope, r.Key()), ErrNotFound)
	})
}

func TestUpsertRejectsInvalid(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		r := rate("MELBOURNE", "SHANGHAI", "20GP", -5)
		assert.ErrorIs(t, s.Upsert(ctx, model.GlobalScope, r), model.ErrInvalidRecord)

		ts, err := s.Tariffs(ctx)
		require.NoError(t, err)
		assert.Empty(t, ts)
	})
}

func TestEnsureCustomer(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		c, created, err := s.EnsureCustomer(ctx, " acme ")
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, "ACME", c.Name)

		again, created, err := s.EnsureCustomer(ctx, "ACME")
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, c.ID, again.ID)

		_, _, err = s.EnsureCustomer(ctx, "   ")
		assert.ErrorIs(t, err, model.ErrInvalidRecord)

		missing, err := s.Customer(ctx, "globex")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})
}

func TestWithinTxRollsBack(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		boom := errors.New("boom")
		scope := model.CustomerScope("ACME")

		err := s.WithinTx(ctx, func(tx Store) error {
			require.NoError(t, tx.Upsert(ctx, scope, rate("MELBOURNE", "SHANGHAI", "20GP", 800)))
			got, err := tx.Find(ctx, scope, model.Key{LoadPort: "MELBOURNE", DestinationPort: "SHANGHAI", ContainerType: "20GP"})
			require.NoError(t, err)
			require.NotNil(t, got)
			return boom
		})
		assert.ErrorIs(t, err, boom)

		c, err := s.Customer(ctx, "ACME")
		require.NoError(t, err)
		assert.Nil(t, c)
	})
}

func TestWithinTxCommits(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.WithinTx(ctx, func(tx Store) error {
			if err := tx.Upsert(ctx, model.GlobalScope, rate("SYDNEY", "NINGBO", "40GP", 1)); err != nil {
				return err
			}
			return tx.Upsert(ctx, model.GlobalScope, rate("SYDNEY", "SHEKOU", "40GP", 2))
		}))

		recs, err := Records(ctx, s, model.GlobalScope)
		require.NoError(t, err)
		require.Len(t, recs, 2)
		assert.Equal(t, "NINGBO", recs[0].DestinationPort)
		assert.Equal(t, "SHEKOU", recs[1].DestinationPort)
	})
}

func TestFileStoreLayout(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, model.CustomerScope("ACME"), rate("MELBOURNE", "SHANGHAI", "20GP", 800)))

	b, err := os.ReadFile(filepath.Join(dir, RatesFile))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"name": "ACME"`)
	assert.Contains(t, string(b), `"freight_usd": 800`)

	b, err = os.ReadFile(filepath.Join(dir, TariffFile))
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(b))
}

func TestFileStoreReadsLegacyStrings(t *testing.T) {
	dir := t.TempDir()
	legacy := `[{"name": "acme", "rates": [{
		"load_port": "Melbourne", "destination_port": "Shanghai", "container_type": "20GP",
		"freight_usd": "800", "othc_aud": 400, "doc_aud": "n/a", "cmr_aud": 300,
		"ams_usd": 35, "lss_usd": 30, "dthc": "Collect", "free_time": "14 Days"}]}]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, RatesFile), []byte(legacy), 0o644))

	c, err := NewFileStore(dir).Customer(context.Background(), "ACME")
	require.NoError(t, err)
	require.NotNil(t, c)
	require.Len(t, c.Rates, 1)
	assert.Equal(t, "MELBOURNE", c.Rates[0].LoadPort)
	assert.Equal(t, 800.0, c.Rates[0].FreightUSD)
	assert.Equal(t, 0.0, c.Rates[0].DocAUD)
	assert.Equal(t, "COLLECT", c.Rates[0].DTHC)
}

func TestFileStoreMalformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, TariffFile), []byte("{not json"), 0o644))

	_, err := NewFileStore(dir).Tariffs(context.Background())
	assert.Error(t, err)
}
