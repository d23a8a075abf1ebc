package export

import (
	"errors"
	"fmt"
	"io"

	"github.com/nao1215/mepsparser"
	"github.com/xuri/excelize/v2"
)

// WriteXLSX writes the detail records to w as an XLSX workbook with a
// single sheet, one row per detail, using the same columns as the CSV
// export.
func WriteXLSX(w io.Writer, file *mepsparser.File) (err error) {
	if file == nil {
		return errors.New("file cannot be nil")
	}

	f := excelize.NewFile()
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close XLSX file: %w", closeErr)
		}
	}()

	sheet := f.GetSheetName(0)

	headerRow := make([]any, len(detailColumns))
	for i, col := range detailColumns {
		headerRow[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("failed to write XLSX header row: %w", err)
	}

	for i, d := range file.Details {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to compute XLSX cell name: %w", err)
		}
		row := []any{
			d.PaymentReference,
			formatTimestamp(d.DateTime),
			d.Amount.StringFixed(2),
			d.Fee.StringFixed(2),
			d.TerminalType.String(),
			d.TerminalID,
			d.Location,
			d.NetAmount().StringFixed(2),
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write XLSX row: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write XLSX: %w", err)
	}
	return nil
}
