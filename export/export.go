// Package export renders a parsed MEPS file into downstream formats.
//
// The parsing engine exposes structured records; this package is the
// thin formatting layer on top of them. Four formats are supported:
// CSV and XLSX with one row per detail record, JSON with the full
// aggregate rendered as strings, and Parquet for analytical tooling.
package export

import "time"

// dateTimeISO is the ISO-8601 layout used for transaction timestamps
// in every export format.
const dateTimeISO = "2006-01-02T15:04:05"

// formatTimestamp renders a transaction timestamp in ISO-8601.
func formatTimestamp(t time.Time) string {
	return t.Format(dateTimeISO)
}

// detailColumns are the per-detail columns shared by the CSV and XLSX
// exports.
var detailColumns = []string{
	"reference",
	"date",
	"amount",
	"fee",
	"terminal_type",
	"terminal_id",
	"location",
	"net_amount",
}
