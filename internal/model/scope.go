package model

type Kind string

const (
	KindRate   Kind = "rate"
	KindTariff Kind = "tariff"
)

func (k Kind) String() string { return string(k) }

// Scope identifies the collection a record lives in: one customer's rates,
// or the global tariff table when Customer is empty.
type Scope struct {
	Customer string
}

// GlobalScope is the tariff table.
var GlobalScope = Scope{}

// CustomerScope returns the rate scope of a customer. Callers must reject
// blank names first, since a blank name folds to GlobalScope.
func CustomerScope(name string) Scope {
	return Scope{Customer: NormalizeName(name)}
}

func (s Scope) IsGlobal() bool { return s.Customer == "" }

func (s Scope) Kind() Kind {
	if s.IsGlobal() {
		return KindTariff
	}
	return KindRate
}

func (s Scope) String() string {
	if s.IsGlobal() {
		return "tariffs"
	}
	return "customer " + s.Customer
}
