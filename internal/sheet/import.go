package sheet

import (
	"fmt"
	"io"
	"strings"

	"github.com/jmehdipour/ratebook/internal/model"
	"github.com/xuri/excelize/v2"
)

// Read parses an xlsx stream.
func Read(r io.Reader) (Import, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Import{}, fmt.Errorf("%w: %v", ErrInvalidLayout, err)
	}
	defer func() { _ = f.Close() }()
	return parse(f)
}

// Open parses the workbook at path.
func Open(path string) (Import, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Import{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return parse(f)
}

func parse(f *excelize.File) (Import, error) {
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return Import{}, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) < headerRow || blank(rows[headerRow-1]) {
		return Import{}, fmt.Errorf("%w: no header row %d", ErrInvalidLayout, headerRow)
	}

	imp := Import{
		MultiScope: strings.EqualFold(strings.TrimSpace(rows[headerRow-1][0]), CustomerHeader),
	}
	if len(rows[titleRow-1]) > 0 {
		imp.Title = strings.TrimSpace(rows[titleRow-1][0])
	}

	for i := firstData - 1; i < len(rows); i++ {
		cells := rows[i]
		if blank(cells) {
			continue
		}
		in := model.Incoming{Line: i + 1}
		if imp.MultiScope {
			in.Customer = strings.TrimSpace(cells[0])
			cells = cells[1:]
		}
		for c := 0; c < model.FieldCount && c < len(cells); c++ {
			in.Raw[c] = cells[c]
		}
		imp.Items = append(imp.Items, in)
	}
	return imp, nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
