package output

import (
	"strconv"
	"strings"

	"github.com/jmehdipour/ratebook/internal/model"
)

// CustomerRates is the structured form of one customer's rate sheet.
type CustomerRates struct {
	Name  string         `json:"name"  yaml:"name"`
	Rates []model.Record `json:"rates" yaml:"rates"`
}

// Records renders a rate or tariff list. Numbered rows carry a leading # column
// so the operator can pick one by position.
type Records struct {
	Title    string
	Records  []model.Record
	Numbered bool
}

func (r Records) Value() any {
	if r.Records == nil {
		return []model.Record{}
	}
	return r.Records
}

func (r Records) Table() Data {
	d := Data{Title: r.Title}
	offset := 0
	if r.Numbered {
		d.Headers = append(d.Headers, "#")
		offset = 1
	}
	d.Headers = append(d.Headers, model.Columns...)
	for _, i := range model.MonetaryFields {
		d.RightAlign = append(d.RightAlign, i+offset)
	}
	for n, rec := range r.Records {
		var row []string
		if r.Numbered {
			row = append(row, strconv.Itoa(n+1))
		}
		d.Rows = append(d.Rows, append(row, cells(rec)...))
	}
	return d
}

// Customers renders every customer's rates as one table with a leading customer column.
type Customers []model.Customer

func (cs Customers) Value() any {
	out := make([]CustomerRates, 0, len(cs))
	for _, c := range cs {
		out = append(out, CustomerRates{Name: c.Name, Rates: c.Records()})
	}
	return out
}

func (cs Customers) Table() Data {
	d := Data{Headers: append([]string{"Customer"}, model.Columns...)}
	for _, i := range model.MonetaryFields {
		d.RightAlign = append(d.RightAlign, i+1)
	}
	for _, c := range cs {
		if len(c.Rates) == 0 {
			d.Rows = append(d.Rows, append([]string{c.Name}, make([]string, model.FieldCount)...))
			continue
		}
		for _, r := range c.Records() {
			d.Rows = append(d.Rows, append([]string{c.Name}, cells(r)...))
		}
	}
	return d
}

// CustomerNames renders the customer list with rate counts.
type CustomerNames []model.Customer

type customerSummary struct {
	Name  string `json:"name"  yaml:"name"`
	Rates int    `json:"rates" yaml:"rates"`
}

func (cs CustomerNames) Value() any {
	out := make([]customerSummary, 0, len(cs))
	for _, c := range cs {
		out = append(out, customerSummary{Name: c.Name, Rates: len(c.Rates)})
	}
	return out
}

func (cs CustomerNames) Table() Data {
	d := Data{Headers: []string{"Customer", "Rates"}, RightAlign: []int{1}}
	for _, c := range cs {
		d.Rows = append(d.Rows, []string{c.Name, strconv.Itoa(len(c.Rates))})
	}
	return d
}

// ConstantsView renders the constants set, one row per list.
type ConstantsView model.Constants

func (c ConstantsView) Value() any { return model.Constants(c) }

func (c ConstantsView) Table() Data {
	d := Data{Headers: []string{"List", "Values"}}
	consts := model.Constants(c)
	for _, l := range model.ConstantLists {
		d.Rows = append(d.Rows, []string{l.String(), strings.Join(consts.Values(l), ", ")})
	}
	return d
}

func cells(r model.Record) []string {
	out := make([]string, 0, model.FieldCount)
	for _, v := range r.Row() {
		if f, ok := v.(float64); ok {
			out = append(out, strconv.FormatFloat(f, 'f', 2, 64))
			continue
		}
		out = append(out, v.(string))
	}
	return out
}
