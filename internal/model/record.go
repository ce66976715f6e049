package model

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cast"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrInvalidRecord is returned when a record breaks a field invariant.
var ErrInvalidRecord = errors.New("invalid record")

// Field names in spreadsheet/table column order.
const (
	FieldLoadPort        = "load_port"
	FieldDestinationPort = "destination_port"
	FieldContainerType   = "container_type"
	FieldFreightUSD      = "freight_usd"
	FieldOTHCAUD         = "othc_aud"
	FieldDocAUD          = "doc_aud"
	FieldCMRAUD          = "cmr_aud"
	FieldAMSUSD          = "ams_usd"
	FieldLSSUSD          = "lss_usd"
	FieldDTHC            = "dthc"
	FieldFreeTime        = "free_time"
)

// FieldNames lists every record field in column order.
var FieldNames = []string{
	FieldLoadPort, FieldDestinationPort, FieldContainerType,
	FieldFreightUSD, FieldOTHCAUD, FieldDocAUD, FieldCMRAUD, FieldAMSUSD, FieldLSSUSD,
	FieldDTHC, FieldFreeTime,
}

// FieldCount is the number of columns a record occupies.
const FieldCount = 11

// Columns are the human readable headers matching FieldNames.
var Columns = []string{
	"Load Port", "Destination Port", "Container",
	"Freight USD", "OTHC AUD", "DOC AUD", "CMR AUD",
	"AMS USD", "LSS USD", "DTHC", "Free Time",
}

// MonetaryFields are the column indexes holding amounts.
var MonetaryFields = []int{3, 4, 5, 6, 7, 8}

// Key is the natural key of a rate or tariff inside its scope.
type Key struct {
	LoadPort        string `json:"load_port"`
	DestinationPort string `json:"destination_port"`
	ContainerType   string `json:"container_type"`
}

func (k Key) String() string {
	return fmt.Sprintf("%s → %s (%s)", k.LoadPort, k.DestinationPort, k.ContainerType)
}

// Normalize applies the same folding as Record.Normalize so keys typed by hand compare equal.
func (k Key) Normalize() Key {
	return Key{
		LoadPort:        NormalizeCode(k.LoadPort),
		DestinationPort: NormalizeCode(k.DestinationPort),
		ContainerType:   strings.TrimSpace(k.ContainerType),
	}
}

// Record is the shape shared by customer rates and global tariffs.
type Record struct {
	LoadPort        string  `db:"load_port"        json:"load_port"        yaml:"load_port"`
	DestinationPort string  `db:"destination_port" json:"destination_port" yaml:"destination_port"`
	ContainerType   string  `db:"container_type"   json:"container_type"   yaml:"container_type"`
	FreightUSD      float64 `db:"freight_usd"      json:"freight_usd"      yaml:"freight_usd"`
	OTHCAUD         float64 `db:"othc_aud"         json:"othc_aud"         yaml:"othc_aud"`
	DocAUD          float64 `db:"doc_aud"          json:"doc_aud"          yaml:"doc_aud"`
	CMRAUD          float64 `db:"cmr_aud"          json:"cmr_aud"          yaml:"cmr_aud"`
	AMSUSD          float64 `db:"ams_usd"          json:"ams_usd"          yaml:"ams_usd"`
	LSSUSD          float64 `db:"lss_usd"          json:"lss_usd"          yaml:"lss_usd"`
	DTHC            string  `db:"dthc"             json:"dthc"             yaml:"dthc"`
	FreeTime        string  `db:"free_time"        json:"free_time"        yaml:"free_time"`
}

func (r Record) Key() Key {
	return Key{LoadPort: r.LoadPort, DestinationPort: r.DestinationPort, ContainerType: r.ContainerType}
}

// Normalize trims every string and upper-cases ports and DTHC.
func (r Record) Normalize() Record {
	r.LoadPort = NormalizeCode(r.LoadPort)
	r.DestinationPort = NormalizeCode(r.DestinationPort)
	r.ContainerType = strings.TrimSpace(r.ContainerType)
	r.DTHC = NormalizeCode(r.DTHC)
	r.FreeTime = strings.TrimSpace(r.FreeTime)
	return r
}

// Validate checks the natural key is present and amounts are finite and non-negative.
func (r Record) Validate() error {
	if r.LoadPort == "" || r.DestinationPort == "" || r.ContainerType == "" {
		return fmt.Errorf("%w: load port, destination port and container type are required", ErrInvalidRecord)
	}
	row := r.Row()
	for _, i := range MonetaryFields {
		f := row[i].(float64)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: %s must be a finite number", ErrInvalidRecord, FieldNames[i])
		}
		if f < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidRecord, FieldNames[i])
		}
	}
	return nil
}

// Equal reports whether every field matches.
func (r Record) Equal(o Record) bool {
	return r == o
}

// Fields exposes the record as a field-name keyed map.
func (r Record) Fields() map[string]any {
	row := r.Row()
	m := make(map[string]any, FieldCount)
	for i, name := range FieldNames {
		m[name] = row[i]
	}
	return m
}

// Row returns the values in column order.
func (r Record) Row() []any {
	return []any{
		r.LoadPort, r.DestinationPort, r.ContainerType,
		r.FreightUSD, r.OTHCAUD, r.DocAUD, r.CMRAUD, r.AMSUSD, r.LSSUSD,
		r.DTHC, r.FreeTime,
	}
}

func (r Record) String() string {
	return fmt.Sprintf(
		"%s | FREIGHT: %.2f USD | OTHC: %.2f AUD | DOC: %.2f AUD | CMR: %.2f AUD | AMS: %.2f USD | LSS: %.2f USD | DTHC: %s | Free Time: %s",
		r.Key(), r.FreightUSD, r.OTHCAUD, r.DocAUD, r.CMRAUD, r.AMSUSD, r.LSSUSD, r.DTHC, r.FreeTime,
	)
}

// RecordFromFields builds a normalized record from a field-name keyed map.
// Missing fields are left zero; values that cannot be converted are an error.
func RecordFromFields(fields map[string]any) (Record, error) {
	var r Record
	strs := map[string]*string{
		FieldLoadPort:        &r.LoadPort,
		FieldDestinationPort: &r.DestinationPort,
		FieldContainerType:   &r.ContainerType,
		FieldDTHC:            &r.DTHC,
		FieldFreeTime:        &r.FreeTime,
	}
	nums := map[string]*float64{
		FieldFreightUSD: &r.FreightUSD,
		FieldOTHCAUD:    &r.OTHCAUD,
		FieldDocAUD:     &r.DocAUD,
		FieldCMRAUD:     &r.CMRAUD,
		FieldAMSUSD:     &r.AMSUSD,
		FieldLSSUSD:     &r.LSSUSD,
	}
	for name, v := range fields {
		if v == nil {
			continue
		}
		if dst, ok := strs[name]; ok {
			s, err := cast.ToStringE(v)
			if err != nil {
				return Record{}, fmt.Errorf("%w: %s: %v", ErrInvalidRecord, name, err)
			}
			*dst = s
			continue
		}
		if dst, ok := nums[name]; ok {
			f, err := cast.ToFloat64E(strings.TrimSpace(cast.ToString(v)))
			if err != nil {
				return Record{}, fmt.Errorf("%w: %s: %v", ErrInvalidRecord, name, err)
			}
			*dst = f
			continue
		}
		return Record{}, fmt.Errorf("%w: unknown field %q", ErrInvalidRecord, name)
	}
	return r.Normalize(), nil
}

// NormalizeCode trims and upper-cases port names and DTHC terms.
func NormalizeCode(s string) string {
	return cases.Upper(language.Und).String(strings.TrimSpace(s))
}

// NormalizeName folds a customer name to its stored form.
func NormalizeName(s string) string {
	return NormalizeCode(s)
}

// RawRecord carries unconverted cell values in column order.
type RawRecord [FieldCount]any

// Incoming is one row offered for reconciliation.
type Incoming struct {
	Line     int    // 1-based source row, 0 when not from a file
	Customer string // scope identifier for multi-customer files
	Raw      RawRecord
}

// IncomingFromRecord wraps an already typed record.
func IncomingFromRecord(customer string, r Record) Incoming {
	var raw RawRecord
	copy(raw[:], r.Row())
	return Incoming{Customer: customer, Raw: raw}
}
