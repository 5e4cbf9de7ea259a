package drive

import (
	"fmt"
	"os"

	"github.com/andresuchdata/invpulse/internal/inventory"
	"github.com/andresuchdata/invpulse/internal/sheet"
)

// writeCSVFile writes decoded rows to csvPath, replacing any existing file.
func writeCSVFile(csvPath string, rows []inventory.RawRow) error {
	out, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create csv file %s: %w", csvPath, err)
	}

	if err := sheet.WriteCSV(out, rows); err != nil {
		out.Close()
		return fmt.Errorf("failed to write csv file %s: %w", csvPath, err)
	}
	return out.Close()
}
