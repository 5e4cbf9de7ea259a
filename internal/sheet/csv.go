package sheet

import (
	"bytes"
	"encoding/csv"
	"io"
	"regexp"

	"github.com/pkg/errors"

	"github.com/andresuchdata/invpulse/internal/inventory"
)

var numericCell = regexp.MustCompile(`^[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?$`)

func readCSV(data []byte) ([][]inventory.Value, error) {
	data = bytes.TrimPrefix(data, byteOrderMark)

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var records [][]inventory.Value
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read csv record")
		}
		values := make([]inventory.Value, len(rec))
		for i, raw := range rec {
			values[i] = parseCell(raw)
		}
		records = append(records, values)
	}
	return records, nil
}

// WriteCSV writes rows as CSV. The header is the union of all row keys in
// first-seen order; missing cells are written empty.
func WriteCSV(w io.Writer, rows []inventory.RawRow) error {
	var headers []string
	seen := make(map[string]bool)
	for _, row := range rows {
		for _, k := range row.Keys() {
			if !seen[k] {
				seen[k] = true
				headers = append(headers, k)
			}
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return errors.Wrap(err, "write csv header")
	}
	record := make([]string, len(headers))
	for _, row := range rows {
		for i, h := range headers {
			v, _ := row.Get(h)
			record[i] = inventory.ToText(v, "")
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrap(err, "write csv row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush csv")
}
