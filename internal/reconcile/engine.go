package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmehdipour/ratebook/internal/metrics"
	"github.com/jmehdipour/ratebook/internal/model"
	"github.com/jmehdipour/ratebook/internal/repository"
	"github.com/jmehdipour/ratebook/internal/util"
	"go.uber.org/zap"
)

var (
	ErrScopeRequired    = errors.New("single-scope rate import needs a customer")
	ErrMultiScopeTariff = errors.New("tariff imports cannot carry a customer column")
)

// Batch is one import: a set of rows bound for one scope, or for the scopes named in each row.
type Batch struct {
	Kind       model.Kind
	MultiScope bool
	Scope      model.Scope // target of a single-scope batch
	Items      []model.Incoming
}

// Engine merges incoming rows into a Store, asking before it overwrites anything.
type Engine struct {
	store     repository.Store
	constants Constants
	confirm   Confirmer
	extend    Extender
	opts      Options
	log       *zap.Logger
	now       func() time.Time
}

// New constructs the engine. A nil confirm declines every replacement; constants and
// extend are only consulted when opts.Unknown is not accept.
func New(
	store repository.Store,
	constants Constants,
	confirm Confirmer,
	extend Extender,
	opts Options,
	log *zap.Logger,
) *Engine {
	if confirm == nil {
		confirm = Never
	}
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Numeric == "" {
		opts.Numeric = NumericZero
	}
	if opts.Unknown == "" {
		opts.Unknown = UnknownAccept
	}
	if opts.Transaction == "" {
		opts.Transaction = TxBatch
	}
	return &Engine{
		store:     store,
		constants: constants,
		confirm:   confirm,
		extend:    extend,
		opts:      opts,
		log:       log,
		now:       time.Now,
	}
}

// batchState is the bookkeeping shared by the rows of one Run.
type batchState struct {
	batch    Batch
	report   *Report
	consts   model.Constants
	declined map[model.UnknownValue]bool
	ensured  map[string]bool
}

// Run reconciles every item of b and reports once the batch is done.
// In batch mode an error rolls back everything; in record mode rows applied
// before the error stay applied.
func (e *Engine) Run(ctx context.Context, b Batch) (Report, error) {
	if b.Kind == "" {
		b.Kind = model.KindRate
		if !b.MultiScope {
			b.Kind = b.Scope.Kind()
		}
	}
	rep := Report{BatchID: util.New(), Kind: b.Kind, StartedAt: e.now()}

	switch {
	case b.Kind == model.KindTariff && b.MultiScope:
		return rep, ErrMultiScopeTariff
	case b.Kind == model.KindTariff:
		b.Scope = model.GlobalScope
	case !b.MultiScope && b.Scope.IsGlobal():
		return rep, ErrScopeRequired
	}

	st := &batchState{
		batch:    b,
		report:   &rep,
		declined: map[model.UnknownValue]bool{},
		ensured:  map[string]bool{},
	}
	if e.opts.Unknown != UnknownAccept && e.constants != nil {
		st.consts = e.constants.Load()
	}

	log := e.log.With(zap.String("batch_id", rep.BatchID), zap.String("kind", b.Kind.String()))
	log.Info("import started", zap.Int("rows", len(b.Items)), zap.Bool("multi_scope", b.MultiScope))

	var err error
	if e.opts.Transaction == TxBatch {
		var staged Report
		err = e.store.WithinTx(ctx, func(s repository.Store) error {
			staged = rep
			st.report = &staged
			st.ensured = map[string]bool{}
			for _, item := range b.Items {
				if err := e.apply(ctx, s, st, item, log); err != nil {
					return err
				}
			}
			return nil
		})
		if err == nil {
			rep = staged
		}
	} else {
		for _, item := range b.Items {
			err = e.store.WithinTx(ctx, func(s repository.Store) error {
				return e.apply(ctx, s, st, item, log)
			})
			if err != nil {
				break
			}
		}
	}

	rep.Duration = e.now().Sub(rep.StartedAt)
	e.observe(rep)
	if err != nil {
		log.Error("import aborted", zap.Error(err), zap.Stringer("report", rep))
		return rep, err
	}
	log.Info("import finished",
		zap.Int("rows", rep.Total()),
		zap.Int("inserted", rep.Inserted),
		zap.Int("replaced", rep.Replaced),
		zap.Int("skipped_unchanged", rep.SkippedUnchanged),
		zap.Int("skipped_declined", rep.SkippedDeclined),
		zap.Int("invalid", rep.Invalid),
		zap.Strings("created_customers", rep.CreatedScopes),
		zap.Duration("took", rep.Duration),
	)
	return rep, nil
}

func (e *Engine) observe(rep Report) {
	kind := rep.Kind.String()
	for _, res := range rep.Results {
		metrics.ImportRowsTotal.WithLabelValues(kind, string(res.Outcome)).Inc()
	}
	metrics.ImportDuration.WithLabelValues(kind).Observe(rep.Duration.Seconds())
}

// apply reconciles one row against s and records its outcome.
func (e *Engine) apply(ctx context.Context, s repository.Store, st *batchState, item model.Incoming, log *zap.Logger) error {
	scope := st.batch.Scope
	if st.batch.MultiScope {
		name := model.NormalizeName(item.Customer)
		if name == "" {
			e.record(st, log, Result{Line: item.Line, Outcome: Invalid, Reason: "customer name is blank"})
			return nil
		}
		scope = model.CustomerScope(name)
	}

	rec, issues := coerce(item.Raw)
	res := Result{Line: item.Line, Scope: scope, Key: rec.Key()}

	if rec.LoadPort == "" || rec.DestinationPort == "" || rec.ContainerType == "" {
		res.Outcome, res.Reason = Invalid, "load port, destination port and container type are required"
		e.record(st, log, res)
		return nil
	}

	if len(issues) > 0 {
		reasons := make([]string, len(issues))
		for i, is := range issues {
			reasons[i] = is.String()
		}
		reason := strings.Join(reasons, "; ")
		switch e.opts.Numeric {
		case NumericFail:
			return fmt.Errorf("line %d: %s: %w", item.Line, reason, ErrCoercion)
		case NumericSkip:
			res.Outcome, res.Reason = Invalid, reason
			e.record(st, log, res)
			return nil
		default:
			log.Debug("monetary values defaulted to zero", zap.Int("line", item.Line), zap.String("reason", reason))
		}
	}

	if reason, ok, err := e.checkUnknown(st, rec); err != nil {
		return err
	} else if !ok {
		res.Outcome, res.Reason = Invalid, reason
		e.record(st, log, res)
		return nil
	}

	if !scope.IsGlobal() && !st.ensured[scope.Customer] {
		_, created, err := s.EnsureCustomer(ctx, scope.Customer)
		if err != nil {
			return fmt.Errorf("line %d: %w", item.Line, err)
		}
		st.ensured[scope.Customer] = true
		if created {
			st.report.CreatedScopes = append(st.report.CreatedScopes, scope.Customer)
			log.Info("customer created", zap.String("customer", scope.Customer))
		}
	}

	existing, err := s.Find(ctx, scope, rec.Key())
	if err != nil {
		return fmt.Errorf("line %d: lookup %s: %w", item.Line, rec.Key(), err)
	}

	switch {
	case existing == nil:
		if err := s.Upsert(ctx, scope, rec); err != nil {
			return fmt.Errorf("line %d: insert %s: %w", item.Line, rec.Key(), err)
		}
		res.Outcome = Inserted
	case existing.Equal(rec):
		res.Outcome = SkippedUnchanged
	case e.confirm.ConfirmReplace(*existing, rec):
		if err := s.Delete(ctx, scope, existing.Key()); err != nil {
			return fmt.Errorf("line %d: remove %s: %w", item.Line, existing.Key(), err)
		}
		if err := s.Upsert(ctx, scope, rec); err != nil {
			return fmt.Errorf("line %d: replace %s: %w", item.Line, rec.Key(), err)
		}
		res.Outcome = Replaced
	default:
		res.Outcome = SkippedDeclined
	}
	e.record(st, log, res)
	return nil
}

// checkUnknown applies the unknown-values policy. ok is false when the row must be skipped.
func (e *Engine) checkUnknown(st *batchState, rec model.Record) (reason string, ok bool, err error) {
	if e.opts.Unknown == UnknownAccept || e.constants == nil {
		return "", true, nil
	}
	for _, u := range st.consts.Unknown(rec) {
		if u.Value == "" && u.List == model.ListDTHC {
			continue
		}
		if e.opts.Unknown == UnknownReject || e.extend == nil || st.declined[u] {
			return fmt.Sprintf("unknown %s %q", u.List.Label(), u.Value), false, nil
		}
		if !e.extend.ConfirmExtend(u.List, u.Value) {
			st.declined[u] = true
			return fmt.Sprintf("unknown %s %q", u.List.Label(), u.Value), false, nil
		}
		if _, err := e.constants.Add(u.List, u.Value); err != nil {
			return "", false, fmt.Errorf("extend %s: %w", u.List, err)
		}
		st.consts.Add(u.List, u.Value)
		metrics.ConstantsAddedTotal.WithLabelValues(u.List.String()).Inc()
	}
	return "", true, nil
}

func (e *Engine) record(st *batchState, log *zap.Logger, res Result) {
	st.report.add(res)
	fields := []zap.Field{
		zap.Int("line", res.Line),
		zap.String("outcome", string(res.Outcome)),
	}
	if res.Scope.Customer != "" {
		fields = append(fields, zap.String("customer", res.Scope.Customer))
	}
	if res.Key != (model.Key{}) {
		fields = append(fields, zap.Stringer("key", res.Key))
	}
	if res.Reason != "" {
		fields = append(fields, zap.String("reason", res.Reason))
	}
	log.Debug("row reconciled", fields...)
}
