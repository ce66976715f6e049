package sheet

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/jmehdipour/ratebook/internal/model"
	"github.com/spf13/cast"
	"github.com/xuri/excelize/v2"
)

// Build renders s into a new workbook. The caller closes it.
func Build(s Sheet) (*excelize.File, error) {
	f := excelize.NewFile()
	name := s.Name
	if name == "" {
		name = defaultSheet
	}
	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), name); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := write(f, name, s); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

func write(f *excelize.File, sheet string, s Sheet) error {
	headers := make([]any, 0, model.FieldCount+1)
	if s.MultiScope {
		headers = append(headers, CustomerHeader)
	}
	for _, c := range model.Columns {
		headers = append(headers, c)
	}

	rows := [][]any{{s.Title}, {}, headers}
	for _, r := range s.Rows {
		values := r.Record.Row()
		if s.MultiScope {
			values = append([]any{r.Customer}, values...)
		}
		rows = append(rows, values)
	}

	widths := make([]int, len(headers))
	for i, values := range rows {
		if len(values) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
		for c, v := range values {
			if c < len(widths) {
				widths[c] = max(widths[c], utf8.RuneCountInString(cast.ToString(v)))
			}
		}
	}

	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "A1", titleStyle); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(headers), headerRow)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, fmt.Sprintf("A%d", headerRow), last, headerStyle); err != nil {
		return err
	}

	for c, w := range widths {
		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, float64(w+2)); err != nil {
			return err
		}
	}
	return nil
}

// Export writes s as xlsx to w.
func Export(w io.Writer, s Sheet) error {
	f, err := Build(s)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return f.Write(w)
}

// Save writes s to path, creating the directory when needed.
func Save(path string, s Sheet) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	f, err := Build(s)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
