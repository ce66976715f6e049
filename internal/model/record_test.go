package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() Record {
	return Record{
		LoadPort: "MELBOURNE", DestinationPort: "SHANGHAI", ContainerType: "20GP",
		FreightUSD: 800, OTHCAUD: 400, DocAUD: 200, CMRAUD: 300, AMSUSD: 35, LSSUSD: 30,
		DTHC: "COLLECT", FreeTime: "14 Days",
	}
}

func TestRecordNormalize(t *testing.T) {
	r := Record{
		LoadPort: "  melbourne ", DestinationPort: "Shanghai", ContainerType: " 20GP ",
		DTHC: "collect ", FreeTime: " 14 Days ",
	}.Normalize()

	assert.Equal(t, "MELBOURNE", r.LoadPort)
	assert.Equal(t, "SHANGHAI", r.DestinationPort)
	assert.Equal(t, "20GP", r.ContainerType)
	assert.Equal(t, "COLLECT", r.DTHC)
	assert.Equal(t, "14 Days", r.FreeTime)
}

func TestRecordValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Record)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Record) {}},
		{name: "missing container", mutate: func(r *Record) { r.ContainerType = "" }, wantErr: true},
		{name: "negative freight", mutate: func(r *Record) { r.FreightUSD = -1 }, wantErr: true},
		{name: "negative lss", mutate: func(r *Record) { r.LSSUSD = -0.5 }, wantErr: true},
		{name: "nan freight", mutate: func(r *Record) { r.FreightUSD = math.NaN() }, wantErr: true},
		{name: "infinite othc", mutate: func(r *Record) { r.OTHCAUD = math.Inf(1) }, wantErr: true},
		{name: "negative infinite ams", mutate: func(r *Record) { r.AMSUSD = math.Inf(-1) }, wantErr: true},
		{name: "zero amounts", mutate: func(r *Record) { *r = Record{LoadPort: "A", DestinationPort: "B", ContainerType: "C"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := sampleRecord()
			tt.mutate(&r)
			err := r.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRecord)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRecordFieldsAndRow(t *testing.T) {
	r := sampleRecord()
	fields := r.Fields()

	require.Len(t, fields, FieldCount)
	assert.Equal(t, "MELBOURNE", fields[FieldLoadPort])
	assert.Equal(t, 800.0, fields[FieldFreightUSD])
	assert.Equal(t, "14 Days", fields[FieldFreeTime])

	row := r.Row()
	require.Len(t, row, len(Columns))
	for i, name := range FieldNames {
		assert.Equal(t, fields[name], row[i], name)
	}
}

func TestRecordFromFieldsRoundTrip(t *testing.T) {
	r := sampleRecord()
	got, err := RecordFromFields(r.Fields())
	require.NoError(t, err)
	assert.True(t, got.Equal(r))
}

func TestRecordFromFieldsCoercesStrings(t *testing.T) {
	got, err := RecordFromFields(map[string]any{
		FieldLoadPort:        "sydney",
		FieldDestinationPort: "tokyo",
		FieldContainerType:   "40HC",
		FieldFreightUSD:      " 1250.5 ",
		FieldDTHC:            "prepaid",
	})
	require.NoError(t, err)
	assert.Equal(t, "SYDNEY", got.LoadPort)
	assert.Equal(t, 1250.5, got.FreightUSD)
	assert.Equal(t, "PREPAID", got.DTHC)

	_, err = RecordFromFields(map[string]any{FieldFreightUSD: "abc"})
	assert.ErrorIs(t, err, ErrInvalidRecord)

	_, err = RecordFromFields(map[string]any{"colour": "red"})
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestRecordString(t *testing.T) {
	s := sampleRecord().String()
	assert.Contains(t, s, "MELBOURNE → SHANGHAI (20GP)")
	assert.Contains(t, s, "FREIGHT: 800.00 USD")
	assert.Contains(t, s, "Free Time: 14 Days")
}

func TestCustomerScope(t *testing.T) {
	s := CustomerScope("  acme  ")
	assert.Equal(t, "ACME", s.Customer)
	assert.False(t, s.IsGlobal())
	assert.Equal(t, KindRate, s.Kind())
	assert.True(t, GlobalScope.IsGlobal())
	assert.Equal(t, KindTariff, GlobalScope.Kind())
}

func TestConstants(t *testing.T) {
	c := DefaultConstants()
	assert.True(t, c.Contains(ListLoadPorts, "melbourne"))
	assert.False(t, c.Contains(ListDestPorts, "BUSAN"))

	assert.True(t, c.Add(ListDestPorts, "BUSAN"))
	assert.False(t, c.Add(ListDestPorts, "busan"))
	assert.Contains(t, c.Values(ListDestPorts), "BUSAN")

	r := sampleRecord()
	r.ContainerType = "45HC"
	r.DTHC = "SPLIT"
	unknown := c.Unknown(r)
	assert.Equal(t, []UnknownValue{
		{List: ListContainers, Value: "45HC"},
		{List: ListDTHC, Value: "SPLIT"},
	}, unknown)
}

func TestParseConstantList(t *testing.T) {
	for in, want := range map[string]ConstantList{
		"load-ports":       ListLoadPorts,
		"VALID_DEST_PORTS": ListDestPorts,
		"containers":       ListContainers,
		"dthc":             ListDTHC,
	} {
		got, ok := ParseConstantList(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseConstantList("colours")
	assert.False(t, ok)
}
