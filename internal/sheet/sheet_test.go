package sheet

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/invpulse/internal/inventory"
)

func TestDecodeCSV(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte(
		"SKU,WH,Lead Time,Active,Name,Name,,Note\n"+
			"A-1,12,5 days,TRUE,Soap,Soap Bar,x,\n"+
			",,,,,,,\n"+
			"B-2,-0.5\n")...)

	rows, err := Decode("stock.csv", data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2 (blank row skipped)", len(rows))
	}

	wantKeys := []string{"SKU", "WH", "Lead Time", "Active", "Name", "Name_1", "__EMPTY"}
	if got := rows[0].Keys(); !reflect.DeepEqual(got, wantKeys) {
		t.Errorf("keys = %v, want %v", got, wantKeys)
	}

	checks := map[string]inventory.Value{
		"SKU":       inventory.Text("A-1"),
		"WH":        inventory.Number(12),
		"Lead Time": inventory.Text("5 days"),
		"Active":    inventory.Bool(true),
		"Name_1":    inventory.Text("Soap Bar"),
	}
	for k, want := range checks {
		if got, _ := rows[0].Get(k); !got.Equal(want) {
			t.Errorf("%s = %#v, want %#v", k, got, want)
		}
	}
	if _, ok := rows[0].Get("Note"); ok {
		t.Errorf("empty cell should be omitted")
	}
	if got, _ := rows[1].Get("WH"); !got.Equal(inventory.Number(-0.5)) {
		t.Errorf("ragged row WH = %#v", got)
	}
}

func TestDecodeCSVWiderRowsGetGeneratedHeaders(t *testing.T) {
	rows, err := Decode("wide.csv", []byte("SKU\nA,1,2\n"))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"SKU", "__EMPTY", "__EMPTY_1"}
	if got := rows[0].Keys(); !reflect.DeepEqual(got, want) {
		t.Errorf("keys = %v, want %v", got, want)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		data []byte
		want error
	}{
		{"header only", "stock.csv", []byte("SKU,WH\n"), ErrEmptyFile},
		{"empty file", "stock.csv", nil, ErrEmptyFile},
		{"legacy excel", "stock.xls", []byte{0xD0, 0xCF}, ErrUnsupportedFormat},
		{"pdf", "stock.pdf", []byte("%PDF"), ErrUnsupportedFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.file, tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecodeBrokenXLSX(t *testing.T) {
	if _, err := Decode("broken.xlsx", []byte("not a zip")); err == nil {
		t.Errorf("expected error for corrupt xlsx")
	}
}

func buildXLSX(t *testing.T, rows ...[]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if len(row) == 0 {
			continue
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDecodeXLSX(t *testing.T) {
	data := buildXLSX(t,
		[]any{"SKU", "WH", "Active", "PASD"},
		[]any{"A-1", 12, true, "3.5"},
		nil,
		[]any{"B-2", 0},
	)

	rows, err := Decode("export.xlsx", data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	first := rows[0]
	if got, _ := first.Get("WH"); !got.Equal(inventory.Number(12)) {
		t.Errorf("WH = %#v", got)
	}
	if got, _ := first.Get("Active"); !got.Equal(inventory.Bool(true)) {
		t.Errorf("Active = %#v", got)
	}
	if got, _ := first.Get("PASD"); !got.Equal(inventory.Text("3.5")) {
		t.Errorf("text cell should stay text, got %#v", got)
	}
	if got, _ := rows[1].Get("WH"); !got.Equal(inventory.Number(0)) {
		t.Errorf("second row WH = %#v", got)
	}
	if _, ok := rows[1].Get("Active"); ok {
		t.Errorf("missing cell should be omitted")
	}
}

func TestDetectFormat(t *testing.T) {
	zip := []byte("PK\x03\x04rest")
	tests := []struct {
		name string
		data []byte
		want Format
	}{
		{"a.csv", nil, FormatCSV},
		{"a.XLSX", nil, FormatXLSX},
		{"a.xlsm", nil, FormatXLSX},
		{"upload", zip, FormatXLSX},
		{"upload", []byte("a,b"), FormatCSV},
		{"a.xls", nil, FormatUnknown},
	}
	for _, tt := range tests {
		if got := DetectFormat(tt.name, tt.data); got != tt.want {
			t.Errorf("DetectFormat(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestWriteCSVRoundTrip(t *testing.T) {
	rows := []inventory.RawRow{
		inventory.NewRawRow("SKU", "A-1", "WH", 12),
		inventory.NewRawRow("SKU", "B-2", "Remark", "check, later"),
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		t.Fatal(err)
	}
	want := "SKU,WH,Remark\nA-1,12,\nB-2,,\"check, later\"\n"
	if buf.String() != want {
		t.Errorf("csv = %q, want %q", buf.String(), want)
	}

	back, err := Decode("out.csv", buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := back[1].Get("Remark"); !got.Equal(inventory.Text("check, later")) {
		t.Errorf("Remark = %#v", got)
	}
}
