package reconcile

import (
	"fmt"
	"strings"

	"github.com/jmehdipour/ratebook/internal/model"
)

// NumericPolicy decides what happens to a monetary cell that is not a usable number.
type NumericPolicy string

const (
	// NumericZero substitutes 0.0 and keeps the row.
	NumericZero NumericPolicy = "zero"
	// NumericSkip drops the row as invalid.
	NumericSkip NumericPolicy = "skip"
	// NumericFail aborts the batch.
	NumericFail NumericPolicy = "fail"
)

// UnknownPolicy decides what happens to port, container or DTHC values outside the constants set.
type UnknownPolicy string

const (
	UnknownAccept UnknownPolicy = "accept"
	UnknownExtend UnknownPolicy = "extend"
	UnknownReject UnknownPolicy = "reject"
)

// TxMode selects the transaction boundary of an import.
type TxMode string

const (
	// TxBatch commits the whole batch at once, or nothing.
	TxBatch TxMode = "batch"
	// TxRecord commits every row on its own.
	TxRecord TxMode = "record"
)

type Options struct {
	Numeric     NumericPolicy
	Unknown     UnknownPolicy
	Transaction TxMode
}

func DefaultOptions() Options {
	return Options{Numeric: NumericZero, Unknown: UnknownAccept, Transaction: TxBatch}
}

// ParseOptions builds Options from their config spellings. Empty values take the default.
func ParseOptions(numeric, unknown, tx string) (Options, error) {
	o := DefaultOptions()
	if s := norm(numeric); s != "" {
		switch p := NumericPolicy(s); p {
		case NumericZero, NumericSkip, NumericFail:
			o.Numeric = p
		default:
			return Options{}, fmt.Errorf("numeric policy %q: want zero, skip or fail", numeric)
		}
	}
	if s := norm(unknown); s != "" {
		switch p := UnknownPolicy(s); p {
		case UnknownAccept, UnknownExtend, UnknownReject:
			o.Unknown = p
		default:
			return Options{}, fmt.Errorf("unknown-values policy %q: want accept, extend or reject", unknown)
		}
	}
	if s := norm(tx); s != "" {
		switch m := TxMode(s); m {
		case TxBatch, TxRecord:
			o.Transaction = m
		default:
			return Options{}, fmt.Errorf("transaction mode %q: want batch or record", tx)
		}
	}
	return o, nil
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Confirmer decides whether an incoming record may replace a different stored one.
type Confirmer interface {
	ConfirmReplace(existing, incoming model.Record) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(existing, incoming model.Record) bool

func (f ConfirmFunc) ConfirmReplace(existing, incoming model.Record) bool { return f(existing, incoming) }

var (
	// Always replaces without asking.
	Always Confirmer = ConfirmFunc(func(model.Record, model.Record) bool { return true })
	// Never keeps every stored record.
	Never Confirmer = ConfirmFunc(func(model.Record, model.Record) bool { return false })
)

// Extender decides whether an unknown value may be appended to the constants set.
type Extender interface {
	ConfirmExtend(list model.ConstantList, value string) bool
}

type ExtendFunc func(list model.ConstantList, value string) bool

func (f ExtendFunc) ConfirmExtend(list model.ConstantList, value string) bool { return f(list, value) }

// Constants is the persisted enumeration set consulted for unknown values.
type Constants interface {
	Load() model.Constants
	Add(list model.ConstantList, value string) (bool, error)
}
