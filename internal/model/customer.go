package model

// Customer owns an ordered collection of rates.
type Customer struct {
	ID    int64  `db:"id"   json:"-"`
	Name  string `db:"name" json:"name"` // upper-cased, unique
	Rates []Rate `db:"-"    json:"rates"`
}

// Rate is a customer scoped record.
type Rate struct {
	ID         int64 `db:"id"          json:"-"`
	CustomerID int64 `db:"customer_id" json:"-"`
	Record
}

// Tariff is a record in the global tariff table.
type Tariff struct {
	ID int64 `db:"id" json:"-"`
	Record
}

// Find returns the rate with key k, if any.
func (c Customer) Find(k Key) (Rate, bool) {
	for _, r := range c.Rates {
		if r.Key() == k {
			return r, true
		}
	}
	return Rate{}, false
}

// Records strips storage identity from rates.
func (c Customer) Records() []Record {
	out := make([]Record, len(c.Rates))
	for i, r := range c.Rates {
		out[i] = r.Record
	}
	return out
}

// TariffRecords strips storage identity from tariffs.
func TariffRecords(ts []Tariff) []Record {
	out := make([]Record, len(ts))
	for i, t := range ts {
		out[i] = t.Record
	}
	return out
}
