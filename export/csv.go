package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/nao1215/mepsparser"
)

// WriteCSV writes one row per detail record to w, preceded by a
// header row. Monetary columns use two fixed decimal places and the
// date column is ISO-8601.
func WriteCSV(w io.Writer, file *mepsparser.File) error {
	if file == nil {
		return errors.New("file cannot be nil")
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(detailColumns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, d := range file.Details {
		record := []string{
			d.PaymentReference,
			formatTimestamp(d.DateTime),
			d.Amount.StringFixed(2),
			d.Fee.StringFixed(2),
			d.TerminalType.String(),
			d.TerminalID,
			d.Location,
			d.NetAmount().StringFixed(2),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}
