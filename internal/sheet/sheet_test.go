package sheet

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jmehdipour/ratebook/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleRecords() []model.Record {
	return []model.Record{
		{
			LoadPort: "MELBOURNE", DestinationPort: "SHANGHAI", ContainerType: "20GP",
			FreightUSD: 800, OTHCAUD: 400, DocAUD: 200, CMRAUD: 300, AMSUSD: 35, LSSUSD: 30,
			DTHC: "COLLECT", FreeTime: "14 Days",
		},
		{
			LoadPort: "SYDNEY", DestinationPort: "NINGBO", ContainerType: "40HC",
			FreightUSD: 1234.56, OTHCAUD: 410.1, DocAUD: 0, CMRAUD: 0, AMSUSD: 0, LSSUSD: 12.5,
			DTHC: "PREPAID", FreeTime: "",
		},
	}
}

func recordsOf(t *testing.T, items []model.Incoming) []model.Record {
	t.Helper()
	out := make([]model.Record, 0, len(items))
	for _, in := range items {
		fields := map[string]any{}
		for i, name := range model.FieldNames {
			fields[name] = in.Raw[i]
		}
		r, err := model.RecordFromFields(fields)
		require.NoError(t, err)
		out = append(out, r)
	}
	return out
}

func TestQuoteRoundTrip(t *testing.T) {
	c := model.Customer{Name: "ACME"}
	for _, r := range sampleRecords() {
		c.Rates = append(c.Rates, model.Rate{Record: r})
	}

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, Quote(c)))

	imp, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, "Customer: ACME", imp.Title)
	assert.False(t, imp.MultiScope)
	require.Len(t, imp.Items, 2)
	assert.Equal(t, 4, imp.Items[0].Line)
	assert.Equal(t, 5, imp.Items[1].Line)
	assert.Equal(t, sampleRecords(), recordsOf(t, imp.Items))
}

func TestByDestinationRoundTrip(t *testing.T) {
	recs := sampleRecords()
	customers := []model.Customer{
		{Name: "ACME", Rates: []model.Rate{{Record: recs[0]}, {Record: recs[1]}}},
		{Name: "GLOBEX", Rates: []model.Rate{{Record: recs[0]}}},
	}

	s := ByDestination("shanghai", customers)
	require.Len(t, s.Rows, 2)

	path := filepath.Join(t.TempDir(), "out", FileName(PrefixPort, "SHANGHAI", time.Now()))
	require.NoError(t, Save(path, s))

	imp, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, "Destination Port: SHANGHAI", imp.Title)
	assert.True(t, imp.MultiScope)
	require.Len(t, imp.Items, 2)
	assert.Equal(t, "ACME", imp.Items[0].Customer)
	assert.Equal(t, "GLOBEX", imp.Items[1].Customer)
	assert.Equal(t, []model.Record{recs[0], recs[0]}, recordsOf(t, imp.Items))
}

func TestLayout(t *testing.T) {
	f, err := Build(Tariffs(sampleRecords()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, "Tariff Rates", f.GetSheetName(f.GetActiveSheetIndex()))

	title, err := f.GetCellValue("Tariff Rates", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Tariff Rates", title)

	a2, err := f.GetCellValue("Tariff Rates", "A2")
	require.NoError(t, err)
	assert.Empty(t, a2)

	header, err := f.GetCellValue("Tariff Rates", "K3")
	require.NoError(t, err)
	assert.Equal(t, "Free Time", header)

	styleID, err := f.GetCellStyle("Tariff Rates", "A1")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold)
	assert.Equal(t, 14.0, style.Font.Size)

	width, err := f.GetColWidth("Tariff Rates", "B")
	require.NoError(t, err)
	assert.Equal(t, float64(len("Destination Port")+2), width)
}

func TestReadSkipsBlankRows(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetCellValue(sheet, "A1", "Customer: ACME"))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"Load Port", "Destination Port"}))
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]any{"MELBOURNE", "TOKYO", "20GP", 1}))
	require.NoError(t, f.SetSheetRow(sheet, "A5", &[]any{"  ", ""}))
	require.NoError(t, f.SetSheetRow(sheet, "A7", &[]any{"SYDNEY", "TOKYO", "40GP", "2"}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	imp, err := Read(&buf)
	require.NoError(t, err)
	require.Len(t, imp.Items, 2)
	assert.Equal(t, 4, imp.Items[0].Line)
	assert.Equal(t, 7, imp.Items[1].Line)
	assert.Equal(t, "1", imp.Items[0].Raw[3])
	assert.Nil(t, imp.Items[0].Raw[10])
}

func TestHeaderDetectionIsCaseInsensitive(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{" CUSTOMER ", "Load Port"}))
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]any{"", "MELBOURNE", "TOKYO", "20GP"}))
	require.NoError(t, f.SetSheetRow(sheet, "A5", &[]any{"acme", "MELBOURNE", "TOKYO", "20GP"}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	imp, err := Read(&buf)
	require.NoError(t, err)
	assert.True(t, imp.MultiScope)
	require.Len(t, imp.Items, 2)
	assert.Empty(t, imp.Items[0].Customer)
	assert.Equal(t, "acme", imp.Items[1].Customer)
	assert.Equal(t, "MELBOURNE", imp.Items[1].Raw[0])
}

func TestReadRejectsMalformed(t *testing.T) {
	_, err := Read(strings.NewReader("not a workbook"))
	assert.ErrorIs(t, err, ErrInvalidLayout)

	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue(f.GetSheetName(0), "A1", "title only"))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	_, err = Read(&buf)
	assert.ErrorIs(t, err, ErrInvalidLayout)

	_, err = Open(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)
}

func TestFileName(t *testing.T) {
	at := time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "Quote_ACME_PTY_LTD_31_01_2025.xlsx", FileName(PrefixQuote, "ACME PTY LTD", at))
	assert.Equal(t, "Rates_HO_CHI_MINH_31_01_2025.xlsx", FileName(PrefixPort, "HO CHI MINH", at))
	assert.Equal(t, "Tariff_Rates_31_01_2025.xlsx", FileName(PrefixTariff, "Rates", at))
}
