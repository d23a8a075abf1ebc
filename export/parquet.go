package export

import (
	"errors"
	"fmt"
	"io"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/apache/arrow/go/v18/parquet"
	"github.com/apache/arrow/go/v18/parquet/compress"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/nao1215/mepsparser"
)

// parquetSchema describes the per-detail Parquet layout. Monetary
// columns are float64 for analytical tooling; exact values stay
// available through the CSV and JSON exports.
var parquetSchema = arrow.NewSchema([]arrow.Field{
	{Name: "reference", Type: arrow.BinaryTypes.String},
	{Name: "date", Type: arrow.BinaryTypes.String},
	{Name: "amount", Type: arrow.PrimitiveTypes.Float64},
	{Name: "fee", Type: arrow.PrimitiveTypes.Float64},
	{Name: "terminal_type", Type: arrow.BinaryTypes.String},
	{Name: "terminal_id", Type: arrow.BinaryTypes.String},
	{Name: "location", Type: arrow.BinaryTypes.String},
	{Name: "net_amount", Type: arrow.PrimitiveTypes.Float64},
}, nil)

// WriteParquet writes the detail records to w as a Parquet file with
// Snappy compression, one row per detail.
func WriteParquet(w io.Writer, file *mepsparser.File) error {
	if file == nil {
		return errors.New("file cannot be nil")
	}

	builder := array.NewRecordBuilder(memory.DefaultAllocator, parquetSchema)
	defer builder.Release()

	for _, d := range file.Details {
		builder.Field(0).(*array.StringBuilder).Append(d.PaymentReference)
		builder.Field(1).(*array.StringBuilder).Append(formatTimestamp(d.DateTime))
		builder.Field(2).(*array.Float64Builder).Append(d.Amount.InexactFloat64())
		builder.Field(3).(*array.Float64Builder).Append(d.Fee.InexactFloat64())
		builder.Field(4).(*array.StringBuilder).Append(d.TerminalType.String())
		builder.Field(5).(*array.StringBuilder).Append(d.TerminalID)
		builder.Field(6).(*array.StringBuilder).Append(d.Location)
		builder.Field(7).(*array.Float64Builder).Append(d.NetAmount().InexactFloat64())
	}

	record := builder.NewRecord()
	defer record.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	writer, err := pqarrow.NewFileWriter(parquetSchema, w, props, pqarrow.DefaultWriterProps())
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}

	if err := writer.Write(record); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write parquet record: %w", err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}
