// Package sheet reads and writes the single-sheet xlsx layout used for quotes and tariffs:
// A1 holds a title, row 2 is blank, row 3 holds the headers and rows 4 onwards one record each.
// A header row that starts with "Customer" marks a multi-customer file.
package sheet

import (
	"errors"
	"time"

	"github.com/jmehdipour/ratebook/internal/model"
	"github.com/jmehdipour/ratebook/internal/util"
)

// ErrInvalidLayout is returned for workbooks that do not follow the layout.
var ErrInvalidLayout = errors.New("invalid spreadsheet layout")

const (
	titleRow  = 1
	headerRow = 3
	firstData = 4

	// CustomerHeader prefixes the header row of multi-customer files.
	CustomerHeader = "Customer"

	defaultSheet = "Quote"
	tariffSheet  = "Tariff Rates"
)

// Filename prefixes.
const (
	PrefixQuote  = "Quote"
	PrefixPort   = "Rates"
	PrefixTariff = "Tariff"
)

// Row is one exported record, with its customer on multi-customer sheets.
type Row struct {
	Customer string
	Record   model.Record
}

// Sheet is an exportable workbook.
type Sheet struct {
	Name       string // worksheet tab
	Title      string
	MultiScope bool
	Rows       []Row
}

// Quote lays out one customer's rates.
func Quote(c model.Customer) Sheet {
	s := Sheet{Name: defaultSheet, Title: "Customer: " + c.Name}
	for _, r := range c.Records() {
		s.Rows = append(s.Rows, Row{Record: r})
	}
	return s
}

// ByDestination lays out every customer's rates to port, one row per rate.
func ByDestination(port string, customers []model.Customer) Sheet {
	port = model.NormalizeCode(port)
	s := Sheet{Name: defaultSheet, Title: "Destination Port: " + port, MultiScope: true}
	for _, c := range customers {
		for _, r := range c.Records() {
			if r.DestinationPort == port {
				s.Rows = append(s.Rows, Row{Customer: c.Name, Record: r})
			}
		}
	}
	return s
}

// Tariffs lays out the global tariff table.
func Tariffs(records []model.Record) Sheet {
	s := Sheet{Name: tariffSheet, Title: tariffSheet}
	for _, r := range records {
		s.Rows = append(s.Rows, Row{Record: r})
	}
	return s
}

// FileName builds <prefix>_<safe name>_<DD_MM_YYYY>.xlsx.
func FileName(prefix, name string, t time.Time) string {
	return util.DatedFileName(prefix, name, t, ".xlsx")
}

// Import is the content of a read workbook.
type Import struct {
	Title      string
	MultiScope bool
	Items      []model.Incoming
}
