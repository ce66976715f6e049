package reconcile

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmehdipour/ratebook/internal/db"
	"github.com/jmehdipour/ratebook/internal/model"
	"github.com/jmehdipour/ratebook/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

var acme = model.CustomerScope("ACME")

func melSha(freight float64) model.Record {
	return model.Record{
		LoadPort: "MELBOURNE", DestinationPort: "SHANGHAI", ContainerType: "20GP",
		FreightUSD: freight, OTHCAUD: 400, DocAUD: 200, CMRAUD: 300, AMSUSD: 35, LSSUSD: 30,
		DTHC: "COLLECT", FreeTime: "14 Days",
	}
}

func row(line int, customer string, cells ...any) model.Incoming {
	var raw model.RawRecord
	copy(raw[:], cells)
	return model.Incoming{Line: line, Customer: customer, Raw: raw}
}

func seeded(t *testing.T) *repository.MemoryStore {
	t.Helper()
	s := repository.NewMemoryStore()
	require.NoError(t, s.Upsert(context.Background(), acme, melSha(800)))
	return s
}

func stored(t *testing.T, s repository.Store, scope model.Scope, k model.Key) *model.Record {
	t.Helper()
	r, err := s.Find(context.Background(), scope, k)
	require.NoError(t, err)
	return r
}

func single(items ...model.Incoming) Batch {
	return Batch{Kind: model.KindRate, Scope: acme, Items: items}
}

func recordRow(line int, r model.Record) model.Incoming {
	in := model.IncomingFromRecord("", r)
	in.Line = line
	return in
}

func TestScenarioUnchanged(t *testing.T) {
	s := seeded(t)
	calls := 0
	confirm := ConfirmFunc(func(model.Record, model.Record) bool { calls++; return true })

	rep, err := New(s, nil, confirm, nil, DefaultOptions(), zaptest.NewLogger(t)).
		Run(context.Background(), single(recordRow(4, melSha(800))))
	require.NoError(t, err)

	assert.Equal(t, 1, rep.SkippedUnchanged)
	assert.Equal(t, 0, rep.NewOrUpdated())
	assert.Zero(t, calls, "identical rows must not prompt")
	assert.Equal(t, 800.0, stored(t, s, acme, melSha(0).Key()).FreightUSD)
}

func TestScenarioReplaceAccepted(t *testing.T) {
	s := seeded(t)
	var seenExisting, seenIncoming model.Record
	confirm := ConfirmFunc(func(e, n model.Record) bool {
		seenExisting, seenIncoming = e, n
		return true
	})

	rep, err := New(s, nil, confirm, nil, DefaultOptions(), zap.NewNop()).
		Run(context.Background(), single(recordRow(4, melSha(900))))
	require.NoError(t, err)

	assert.Equal(t, 1, rep.Replaced)
	assert.Equal(t, 1, rep.NewOrUpdated())
	assert.Equal(t, 800.0, seenExisting.FreightUSD)
	assert.Equal(t, 900.0, seenIncoming.FreightUSD)
	assert.Equal(t, 900.0, stored(t, s, acme, melSha(0).Key()).FreightUSD)

	c, err := s.Customer(context.Background(), "ACME")
	require.NoError(t, err)
	assert.Len(t, c.Rates, 1)
}

func TestScenarioReplaceDeclined(t *testing.T) {
	s := seeded(t)

	rep, err := New(s, nil, Never, nil, DefaultOptions(), zap.NewNop()).
		Run(context.Background(), single(recordRow(4, melSha(999))))
	require.NoError(t, err)

	assert.Equal(t, 1, rep.SkippedDeclined)
	assert.Equal(t, 1, rep.Skipped())
	assert.Equal(t, 800.0, stored(t, s, acme, melSha(0).Key()).FreightUSD)
}

func TestScenarioNewKeyInserted(t *testing.T) {
	s := seeded(t)
	busan := melSha(1200)
	busan.DestinationPort, busan.ContainerType = "BUSAN", "40HC"

	rep, err := New(s, nil, Never, nil, DefaultOptions(), zap.NewNop()).
		Run(context.Background(), single(recordRow(4, busan)))
	require.NoError(t, err)

	assert.Equal(t, 1, rep.Inserted)
	c, err := s.Customer(context.Background(), "ACME")
	require.NoError(t, err)
	assert.Len(t, c.Rates, 2)
	assert.Equal(t, busan, *stored(t, s, acme, busan.Key()))
}

func TestScenarioBlankCustomerInvalid(t *testing.T) {
	s := repository.NewMemoryStore()
	b := Batch{
		Kind:       model.KindRate,
		MultiScope: true,
		Items: []model.Incoming{
			row(4, "  ", "MELBOURNE", "SHANGHAI", "20GP", "800", "400", "200", "300", "35", "30", "COLLECT", "14 Days"),
		},
	}

	rep, err := New(s, nil, Always, nil, DefaultOptions(), zap.NewNop()).Run(context.Background(), b)
	require.NoError(t, err)

	assert.Equal(t, 1, rep.Invalid)
	assert.Equal(t, 0, rep.NewOrUpdated())
	require.Len(t, rep.InvalidResults(), 1)
	assert.Equal(t, 4, rep.InvalidResults()[0].Line)

	customers, err := s.Customers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, customers)
	tariffs, err := s.Tariffs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tariffs)
}

func TestMultiScopeCreatesCustomers(t *testing.T) {
	s := seeded(t)
	b := Batch{
		Kind:       model.KindRate,
		MultiScope: true,
		Items: []model.Incoming{
			row(4, "acme", "melbourne", "shanghai", "20GP", "800", "400", "200", "300", "35", "30", "collect", "14 Days"),
			row(5, "Globex", "SYDNEY", "TOKYO", "40GP", "1500", "400", "200", "300", "35", "30", "PREPAID", "7 Days"),
		},
	}

	rep, err := New(s, nil, Never, nil, DefaultOptions(), zap.NewNop()).Run(context.Background(), b)
	require.NoError(t, err)

	assert.Equal(t, 1, rep.SkippedUnchanged)
	assert.Equal(t, 1, rep.Inserted)
	assert.Equal(t, []string{"GLOBEX"}, rep.CreatedScopes)
	assert.NotNil(t, stored(t, s, model.CustomerScope("GLOBEX"), model.Key{LoadPort: "SYDNEY", DestinationPort: "TOKYO", ContainerType: "40GP"}))
}

func TestIdempotence(t *testing.T) {
	s := repository.NewMemoryStore()
	b := single(
		row(4, "", "MELBOURNE", "SHANGHAI", "20GP", "800", "400", "200", "300", "35", "30", "COLLECT", "14 Days"),
		row(5, "", "MELBOURNE", "NINGBO", "40HC", "950.5", "400", "200", "300", "35", "30", "PREPAID", "21 Days"),
		row(6, "", "SYDNEY", "TOKYO", "40GP", 1500.0, 400, 200, 300, 35, 30, "COLLECT", "7 Days"),
	)
	eng := New(s, nil, Always, nil, DefaultOptions(), zap.NewNop())

	first, err := eng.Run(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Inserted)

	second, err := eng.Run(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, 0, second.NewOrUpdated())
	assert.Equal(t, 3, second.Skipped())
	assert.Equal(t, 3, second.SkippedUnchanged)
	assert.NotEqual(t, first.BatchID, second.BatchID)
}

func TestNumericPolicies(t *testing.T) {
	bad := row(4, "", "MELBOURNE", "SHANGHAI", "20GP", "n/a", "400", "", "300", "-5", "30", "COLLECT", "14 Days")

	t.Run("zero", func(t *testing.T) {
		s := repository.NewMemoryStore()
		rep, err := New(s, nil, Never, nil, Options{Numeric: NumericZero}, zap.NewNop()).Run(context.Background(), single(bad))
		require.NoError(t, err)
		assert.Equal(t, 1, rep.Inserted)

		got := stored(t, s, acme, melSha(0).Key())
		require.NotNil(t, got)
		assert.Equal(t, 0.0, got.FreightUSD)
		assert.Equal(t, 400.0, got.OTHCAUD)
		assert.Equal(t, 0.0, got.DocAUD)
		assert.Equal(t, 0.0, got.AMSUSD)
	})

	t.Run("skip", func(t *testing.T) {
		s := repository.NewMemoryStore()
		rep, err := New(s, nil, Never, nil, Options{Numeric: NumericSkip}, zap.NewNop()).Run(context.Background(), single(bad))
		require.NoError(t, err)
		assert.Equal(t, 1, rep.Invalid)
		assert.Contains(t, rep.Results[0].Reason, "freight_usd")
		assert.Nil(t, stored(t, s, acme, melSha(0).Key()))
	})

	t.Run("fail", func(t *testing.T) {
		s := repository.NewMemoryStore()
		good := recordRow(3, melSha(800))
		good.Raw[1] = "NINGBO"
		_, err := New(s, nil, Never, nil, Options{Numeric: NumericFail}, zap.NewNop()).Run(context.Background(), single(good, bad))
		assert.ErrorIs(t, err, ErrCoercion)

		c, err := s.Customer(context.Background(), "ACME")
		require.NoError(t, err)
		assert.Nil(t, c, "batch mode rolls back rows applied before the failure")
	})
}

func TestMissingKeyInvalid(t *testing.T) {
	s := repository.NewMemoryStore()
	rep, err := New(s, nil, Never, nil, DefaultOptions(), zap.NewNop()).
		Run(context.Background(), single(row(4, "", "MELBOURNE", "", "20GP", "800")))
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Invalid)
}

type memConstants struct {
	c     model.Constants
	added []model.UnknownValue
}

func (m *memConstants) Load() model.Constants { return m.c }

func (m *memConstants) Add(list model.ConstantList, value string) (bool, error) {
	m.added = append(m.added, model.UnknownValue{List: list, Value: value})
	return m.c.Add(list, value), nil
}

func TestUnknownValues(t *testing.T) {
	busan := row(4, "", "MELBOURNE", "BUSAN", "40HC", "1200", "400", "200", "300", "35", "30", "COLLECT", "14 Days")
	again := row(5, "", "SYDNEY", "BUSAN", "40HC", "1300", "400", "200", "300", "35", "30", "COLLECT", "14 Days")

	t.Run("accept", func(t *testing.T) {
		consts := &memConstants{c: model.DefaultConstants()}
		rep, err := New(repository.NewMemoryStore(), consts, Never, nil, DefaultOptions(), zap.NewNop()).
			Run(context.Background(), single(busan))
		require.NoError(t, err)
		assert.Equal(t, 1, rep.Inserted)
		assert.Empty(t, consts.added)
	})

	t.Run("reject", func(t *testing.T) {
		consts := &memConstants{c: model.DefaultConstants()}
		rep, err := New(repository.NewMemoryStore(), consts, Never, nil, Options{Unknown: UnknownReject}, zap.NewNop()).
			Run(context.Background(), single(busan))
		require.NoError(t, err)
		assert.Equal(t, 1, rep.Invalid)
		assert.Contains(t, rep.Results[0].Reason, "BUSAN")
	})

	t.Run("extend accepted", func(t *testing.T) {
		consts := &memConstants{c: model.DefaultConstants()}
		asked := 0
		ext := ExtendFunc(func(model.ConstantList, string) bool { asked++; return true })
		rep, err := New(repository.NewMemoryStore(), consts, Never, ext, Options{Unknown: UnknownExtend}, zap.NewNop()).
			Run(context.Background(), single(busan, again))
		require.NoError(t, err)
		assert.Equal(t, 2, rep.Inserted)
		assert.Equal(t, 1, asked)
		assert.Equal(t, []model.UnknownValue{{List: model.ListDestPorts, Value: "BUSAN"}}, consts.added)
	})

	t.Run("extend declined", func(t *testing.T) {
		consts := &memConstants{c: model.DefaultConstants()}
		asked := 0
		ext := ExtendFunc(func(model.ConstantList, string) bool { asked++; return false })
		rep, err := New(repository.NewMemoryStore(), consts, Never, ext, Options{Unknown: UnknownExtend}, zap.NewNop()).
			Run(context.Background(), single(busan, again))
		require.NoError(t, err)
		assert.Equal(t, 2, rep.Invalid)
		assert.Equal(t, 1, asked, "a declined value is not asked twice in one batch")
		assert.Empty(t, consts.added)
	})
}

func TestBatchShapeErrors(t *testing.T) {
	eng := New(repository.NewMemoryStore(), nil, Never, nil, DefaultOptions(), zap.NewNop())

	_, err := eng.Run(context.Background(), Batch{Kind: model.KindRate})
	assert.ErrorIs(t, err, ErrScopeRequired)

	_, err = eng.Run(context.Background(), Batch{Kind: model.KindTariff, MultiScope: true})
	assert.ErrorIs(t, err, ErrMultiScopeTariff)
}

func TestTariffImport(t *testing.T) {
	s := repository.NewMemoryStore()
	b := Batch{Kind: model.KindTariff, Items: []model.Incoming{recordRow(4, melSha(700))}}

	rep, err := New(s, nil, Never, nil, DefaultOptions(), zap.NewNop()).Run(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Inserted)
	assert.Equal(t, model.KindTariff, rep.Kind)
	assert.NotNil(t, stored(t, s, model.GlobalScope, melSha(0).Key()))

	customers, err := s.Customers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, customers)
}

func TestRecordModeKeepsEarlierRows(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "shipping.db") + "?_pragma=foreign_keys(1)"
	conn, err := db.Open(db.Opts{Driver: db.DriverSQLite, DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.MigrateUp(conn, zap.NewNop()))
	s := repository.NewSQLStore(conn)

	good := recordRow(4, melSha(800))
	bad := row(5, "", "MELBOURNE", "NINGBO", "20GP", "oops")

	opts := Options{Numeric: NumericFail, Transaction: TxRecord}
	rep, err := New(s, nil, Never, nil, opts, zap.NewNop()).Run(context.Background(), single(good, bad))
	assert.ErrorIs(t, err, ErrCoercion)
	assert.Equal(t, 1, rep.Inserted)
	assert.NotNil(t, stored(t, s, acme, melSha(0).Key()))

	opts.Transaction = TxBatch
	other := model.CustomerScope("GLOBEX")
	_, err = New(s, nil, Never, nil, opts, zap.NewNop()).
		Run(context.Background(), Batch{Kind: model.KindRate, Scope: other, Items: []model.Incoming{good, bad}})
	assert.ErrorIs(t, err, ErrCoercion)
	c, err := s.Customer(context.Background(), "GLOBEX")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestParseOptions(t *testing.T) {
	o, err := ParseOptions("", "", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultOptions(), o)

	o, err = ParseOptions(" Skip ", "extend", "RECORD")
	require.NoError(t, err)
	assert.Equal(t, Options{Numeric: NumericSkip, Unknown: UnknownExtend, Transaction: TxRecord}, o)

	_, err = ParseOptions("maybe", "", "")
	assert.Error(t, err)
	_, err = ParseOptions("", "ignore", "")
	assert.Error(t, err)
	_, err = ParseOptions("", "", "none")
	assert.Error(t, err)
}
