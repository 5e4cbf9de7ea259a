package sheet

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/invpulse/internal/inventory"
)

// readXLSX reads the first worksheet. Cell values are taken raw so numbers
// keep full precision instead of their display format.
func readXLSX(data []byte) ([][]inventory.Value, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "open xlsx")
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("xlsx file has no sheets")
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.Wrapf(err, "read rows from sheet %s", sheet)
	}

	records := make([][]inventory.Value, len(rows))
	for r, cols := range rows {
		values := make([]inventory.Value, len(cols))
		for c, raw := range cols {
			if raw == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, errors.Wrap(err, "cell name")
			}
			typ, err := f.GetCellType(sheet, cell)
			if err != nil {
				return nil, errors.Wrapf(err, "cell type of %s", cell)
			}
			values[c] = typedCell(raw, typ)
		}
		records[r] = values
	}
	return records, nil
}

func typedCell(raw string, typ excelize.CellType) inventory.Value {
	switch typ {
	case excelize.CellTypeBool:
		return inventory.Bool(raw == "1" || strings.EqualFold(raw, "true"))
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		if f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			return inventory.Number(f)
		}
		return inventory.Text(raw)
	default:
		return inventory.Text(raw)
	}
}
