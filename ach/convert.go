// Package ach converts parsed MEPS settlement files into NACHA ACH
// files using the moov-io/ach library.
//
// Some downstream processors only consume NACHA-formatted batches.
// This package bridges a mepsparser.File into a single PPD credit
// batch: one entry per MEPS detail record, amounts carried in minor
// units, the MEPS entity as the company identification.
//
// # Security Note
//
// ACH output exposes terminal identifiers, locations, and transaction
// amounts. Avoid logging generated files verbatim in production
// environments.
//
// # Usage
//
//	result, _ := mepsparser.Parse(f, filename)
//	achFile, err := ach.FromFile(result)
//	if err != nil {
//	    log.Fatal(err)
//	}
package ach

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/moov-io/ach"
	"github.com/nao1215/mepsparser"
)

// mepsTimestampLayout is the 14-digit timestamp embedded in MEPS
// filenames.
const mepsTimestampLayout = "20060102150405"

// FromFile converts a parsed MEPS file into an ACH file containing a
// single PPD credit batch with one entry per detail record.
//
// Field mapping:
//   - origin/destination institution IDs become 9-digit routing
//     numbers (digits zero-padded to 8, check digit appended)
//   - detail payment amounts are carried as minor units
//   - the payment reference becomes the entry identification number
//   - the terminal location becomes the individual name
func FromFile(file *mepsparser.File) (*ach.File, error) {
	if file == nil {
		return nil, errors.New("file cannot be nil")
	}

	batchDate, err := time.Parse(mepsTimestampLayout, file.Info.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to parse batch timestamp %q: %w", file.Info.Timestamp, err)
	}

	originRouting := routingNumber(file.Header.OriginInstitution)
	destRouting := routingNumber(file.Header.DestinationInstitution)

	fh := ach.NewFileHeader()
	fh.ImmediateOrigin = originRouting
	fh.ImmediateDestination = destRouting
	fh.FileCreationDate = batchDate.Format("060102")
	fh.FileCreationTime = batchDate.Format("1504")
	fh.ImmediateOriginName = truncate("ENTITY "+file.Header.Entity, 23)
	fh.ImmediateDestinationName = truncate(file.Header.DestinationInstitution, 23)

	out := ach.NewFile()
	out.SetHeader(fh)

	bh := ach.NewBatchHeader()
	bh.ServiceClassCode = ach.CreditsOnly
	bh.StandardEntryClassCode = ach.PPD
	bh.CompanyName = truncate("ENTITY "+file.Trailer.Entity, 16)
	bh.CompanyIdentification = file.Trailer.Entity
	bh.CompanyEntryDescription = "SETTLEMENT"
	bh.EffectiveEntryDate = batchDate.Format("060102")
	bh.ODFIIdentification = originRouting[:8]

	batch := ach.NewBatchPPD(bh)
	for i, d := range file.Details {
		entry := ach.NewEntryDetail()
		entry.TransactionCode = ach.CheckingCredit
		entry.SetRDFI(destRouting)
		entry.DFIAccountNumber = truncate(d.TerminalID, 17)
		entry.Amount = int(d.Amount.Shift(2).IntPart())
		entry.IdentificationNumber = truncate(d.PaymentReference, 15)
		entry.IndividualName = truncate(d.Location, 22)
		entry.SetTraceNumber(bh.ODFIIdentification, i+1)
		batch.AddEntry(entry)
	}

	if err := batch.Create(); err != nil {
		return nil, fmt.Errorf("failed to create ACH batch: %w", err)
	}
	out.AddBatch(batch)

	if err := out.Create(); err != nil {
		return nil, fmt.Errorf("failed to create ACH file: %w", err)
	}
	return out, nil
}

// WriteTo converts the parsed MEPS file and writes the resulting ACH
// file to w in NACHA wire format.
func WriteTo(w io.Writer, file *mepsparser.File) error {
	achFile, err := FromFile(file)
	if err != nil {
		return err
	}
	if err := ach.NewWriter(w).Write(achFile); err != nil {
		return fmt.Errorf("failed to write ACH file: %w", err)
	}
	return nil
}

// routingNumber builds a 9-digit ABA routing number from a MEPS
// institution identifier: non-digits dropped, zero-padded to 8
// digits, check digit appended.
func routingNumber(institution string) string {
	var digits strings.Builder
	for _, r := range institution {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	base := digits.String()
	if len(base) > 8 {
		base = base[len(base)-8:]
	}
	for len(base) < 8 {
		base = "0" + base
	}
	return fmt.Sprintf("%s%d", base, ach.CalculateCheckDigit(base))
}

// truncate shortens s to at most n bytes.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
