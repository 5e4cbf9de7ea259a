// Package sheet decodes spreadsheet exports into raw inventory rows.
//
// The first row is the header. Every following non-blank row becomes one
// RawRow keyed by header text, in column order. Empty cells are left out of
// the row entirely so that they resolve as "not provided".
package sheet

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/andresuchdata/invpulse/internal/inventory"
)

var (
	// ErrEmptyFile is returned when a file has no data rows under its header.
	ErrEmptyFile = errors.New("spreadsheet has no data rows")
	// ErrUnsupportedFormat is returned for file types the decoder cannot read.
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")

	byteOrderMark = []byte{0xEF, 0xBB, 0xBF}
	zipMagic      = []byte("PK\x03\x04")
)

const emptyHeader = "__EMPTY"

// Format is a decodable file type.
type Format int

const (
	FormatUnknown Format = iota
	FormatCSV
	FormatXLSX
)

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatXLSX:
		return "xlsx"
	default:
		return "unknown"
	}
}

// DetectFormat picks a format from the file extension, falling back to the
// content when the name has none.
func DetectFormat(name string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return FormatCSV
	case ".xlsx", ".xlsm":
		return FormatXLSX
	case "":
		if bytes.HasPrefix(data, zipMagic) {
			return FormatXLSX
		}
		return FormatCSV
	default:
		return FormatUnknown
	}
}

// Decode reads a CSV or XLSX file into rows.
func Decode(name string, data []byte) ([]inventory.RawRow, error) {
	var (
		records [][]inventory.Value
		err     error
	)
	switch DetectFormat(name, data) {
	case FormatCSV:
		records, err = readCSV(data)
	case FormatXLSX:
		records, err = readXLSX(data)
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "%s", filepath.Ext(name))
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", name)
	}

	rows := buildRows(records)
	if len(rows) == 0 {
		return nil, errors.Wrapf(ErrEmptyFile, "decode %s", name)
	}
	return rows, nil
}

// DecodeFile reads and decodes a local spreadsheet.
func DecodeFile(path string) ([]inventory.RawRow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read spreadsheet")
	}
	return Decode(filepath.Base(path), data)
}

// buildRows keys every record after the first by the header row.
func buildRows(records [][]inventory.Value) []inventory.RawRow {
	if len(records) < 2 {
		return nil
	}

	width := 0
	for _, rec := range records {
		width = max(width, len(rec))
	}
	headers := uniqueHeaders(records[0], width)

	rows := make([]inventory.RawRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		var row inventory.RawRow
		for i, v := range rec {
			if !v.Defined() {
				continue
			}
			row.Set(headers[i], v)
		}
		if row.Len() == 0 {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

// uniqueHeaders names every column. Blank headers become __EMPTY and
// repeated names get _1, _2, ... suffixes.
func uniqueHeaders(header []inventory.Value, width int) []string {
	names := make([]string, width)
	used := make(map[string]bool, width)
	counts := make(map[string]int)
	for i := range names {
		name := ""
		if i < len(header) {
			name = inventory.ToText(header[i], "")
		}
		if strings.TrimSpace(name) == "" {
			name = emptyHeader
		}

		candidate := name
		for used[candidate] {
			counts[name]++
			candidate = name + "_" + strconv.Itoa(counts[name])
		}
		used[candidate] = true
		names[i] = candidate
	}
	return names
}

// parseCell types a text cell the way spreadsheet tools do on import:
// plain decimals become numbers and TRUE/FALSE become booleans.
func parseCell(raw string) inventory.Value {
	if raw == "" {
		return inventory.Value{}
	}
	trimmed := strings.TrimSpace(raw)
	switch strings.ToUpper(trimmed) {
	case "TRUE":
		return inventory.Bool(true)
	case "FALSE":
		return inventory.Bool(false)
	}
	if numericCell.MatchString(trimmed) {
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return inventory.Number(f)
		}
	}
	return inventory.Text(raw)
}
