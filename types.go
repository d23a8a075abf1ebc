package mepsparser

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tiendc/go-deepcopy"
)

// RecordKind identifies one of the three record kinds in a MEPS file.
type RecordKind int

const (
	// KindHeader represents the header record (type marker '0').
	KindHeader RecordKind = iota
	// KindDetail represents a detail record (type marker '2').
	KindDetail
	// KindTrailer represents the trailer record (type marker '9').
	KindTrailer
)

// String returns a human-readable string representation of the RecordKind.
func (k RecordKind) String() string {
	switch k {
	case KindHeader:
		return "header"
	case KindDetail:
		return "detail"
	case KindTrailer:
		return "trailer"
	default:
		return "unknown"
	}
}

// TerminalType is the closed set of terminal channels a detail record
// can originate from. Decoding a detail with a terminal code outside
// this set fails with a ValidationError; the raw character is never
// passed through unchecked.
type TerminalType int

const (
	// TerminalATM represents an automated teller machine.
	TerminalATM TerminalType = iota
	// TerminalPOS represents a point-of-sale terminal.
	TerminalPOS
	// TerminalCompany represents a company-hosted terminal.
	TerminalCompany
	// TerminalInternet represents an internet channel.
	TerminalInternet
	// TerminalBankHost represents a bank host channel.
	TerminalBankHost
	// TerminalFourthGen represents the fourth-generation network channel.
	TerminalFourthGen
	// TerminalKiosk represents a self-service kiosk.
	TerminalKiosk
)

// String returns a human-readable string representation of the TerminalType.
func (tt TerminalType) String() string {
	switch tt {
	case TerminalATM:
		return "ATM"
	case TerminalPOS:
		return "POS"
	case TerminalCompany:
		return "Company Terminal"
	case TerminalInternet:
		return "Internet"
	case TerminalBankHost:
		return "Bank Host"
	case TerminalFourthGen:
		return "Fourth Generation"
	case TerminalKiosk:
		return "Kiosk"
	default:
		return "Unknown"
	}
}

// Code returns the single-character wire code for the terminal type.
func (tt TerminalType) Code() string {
	switch tt {
	case TerminalATM:
		return "A"
	case TerminalPOS:
		return "L"
	case TerminalCompany:
		return "E"
	case TerminalInternet:
		return "I"
	case TerminalBankHost:
		return "B"
	case TerminalFourthGen:
		return "M"
	case TerminalKiosk:
		return "N"
	default:
		return ""
	}
}

// terminalTypeFromCode maps a wire code onto the terminal type set.
// The bool result is false for codes outside the set.
func terminalTypeFromCode(code string) (TerminalType, bool) {
	switch code {
	case "A":
		return TerminalATM, true
	case "L":
		return TerminalPOS, true
	case "E":
		return TerminalCompany, true
	case "I":
		return TerminalInternet, true
	case "B":
		return TerminalBankHost, true
	case "M":
		return TerminalFourthGen, true
	case "N":
		return TerminalKiosk, true
	default:
		return 0, false
	}
}

// FileInfo carries the fields derived from the source filename.
// It is computed once per parse and passed alongside the byte stream,
// so decoders never touch the file system themselves.
type FileInfo struct {
	// Name is the base filename (compression extension stripped).
	Name string
	// Entity is the entity number embedded in the filename.
	Entity string
	// Timestamp is the 14-digit timestamp embedded in the filename.
	Timestamp string
}

// Header is the single header record of a MEPS file (type marker '0').
type Header struct {
	// RecordType is the record-type marker, always "0".
	RecordType string
	// FileType is the file-type tag, always "MEPS".
	FileType string
	// OriginInstitution identifies the institution that produced the file.
	OriginInstitution string
	// DestinationInstitution identifies the receiving institution.
	DestinationInstitution string
	// FileID is the file identifier.
	FileID string
	// PreviousFileID is the identifier of the preceding file in the sequence.
	PreviousFileID string
	// Entity is the entity code.
	Entity string
	// Currency is the ISO 4217 numeric currency code.
	Currency string
	// VATRate is the VAT rate as a plain decimal (not scaled from minor units).
	VATRate decimal.Decimal
	// DestinationFileID is the destination-side file identifier.
	DestinationFileID string
	// ID is a derived identifier composed from the numeric tail of FileID
	// and the entity code. Kept as a string: the concatenation can exceed
	// fixed-width integer ranges.
	ID string
	// SourceFile is the filename the record was read from.
	SourceFile string
	// ParsedAt is the time the record was decoded.
	ParsedAt time.Time
}

// Detail is one detail record of a MEPS file (type marker '2').
// Details keep the order they appear in the file; that order is
// meaningful for audit trails.
type Detail struct {
	// RecordType is the record-type marker, always "2".
	RecordType string
	// ProcessingCode is the processing code.
	ProcessingCode string
	// LogID is the log identifier.
	LogID string
	// CentralLogNumber is the central log number.
	CentralLogNumber string
	// DateTime is the transaction timestamp, decoded from the 14-digit
	// YYYYMMDDhhmmss field.
	DateTime time.Time
	// Amount is the payment amount (2 implied decimal places on the wire).
	Amount decimal.Decimal
	// Fee is the fee charged (2 implied decimal places on the wire).
	Fee decimal.Decimal
	// TerminalType is the decoded terminal channel.
	TerminalType TerminalType
	// TerminalID is the terminal identifier.
	TerminalID string
	// LocalTransactionID is the local transaction identifier.
	LocalTransactionID string
	// Location is the terminal location.
	Location string
	// PaymentReference is the payment reference.
	PaymentReference string
	// CommunicationMode is the communication mode code.
	CommunicationMode string
	// ResponseCode is the response code.
	ResponseCode string
	// CompanyMessageID is the company message identifier.
	CompanyMessageID string
	// Revision is the detail layout revision (1 or 2), inferred from
	// trimmed line length.
	Revision int
	// SourceFile is the filename the record was read from.
	SourceFile string
	// ParsedAt is the time the record was decoded.
	ParsedAt time.Time
}

// NetAmount returns the payment amount minus the fee.
func (d Detail) NetAmount() decimal.Decimal {
	return d.Amount.Sub(d.Fee)
}

// Trailer is the single trailer record of a MEPS file (type marker '9').
type Trailer struct {
	// RecordType is the record-type marker, always "9".
	RecordType string
	// TotalRecords is the declared number of detail records.
	TotalRecords int
	// TotalAmount is the declared total transaction amount.
	TotalAmount decimal.Decimal
	// TotalFees is the declared total of fees.
	TotalFees decimal.Decimal
	// VATAmount is the declared VAT amount.
	VATAmount decimal.Decimal
	// Entity is the entity number derived from the source filename.
	Entity string
	// ID is a derived identifier composed from the filename timestamp and
	// the entity number. Kept as a string to avoid integer overflow.
	ID string
	// SourceFile is the filename the record was read from.
	SourceFile string
	// ParsedAt is the time the record was decoded.
	ParsedAt time.Time
}

// File is the result of a successful parse: exactly one header, the
// detail records in original line order, and exactly one trailer.
// A File is never returned for input that failed validation, and the
// engine does not mutate it after returning it.
type File struct {
	// Header is the file header record.
	Header Header
	// Details contains the detail records in original line order.
	Details []Detail
	// Trailer is the file trailer record.
	Trailer Trailer
	// Info is the filename-derived context used during the parse.
	Info FileInfo
}

// TotalAmount returns the sum of all detail payment amounts.
func (f *File) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, d := range f.Details {
		total = total.Add(d.Amount)
	}
	return total
}

// TotalFees returns the sum of all detail fees.
func (f *File) TotalFees() decimal.Decimal {
	total := decimal.Zero
	for _, d := range f.Details {
		total = total.Add(d.Fee)
	}
	return total
}

// Clone returns a deep copy of the file. Useful when a caller wants to
// hand the result to code it does not control while keeping its own
// copy pristine.
func (f *File) Clone() (*File, error) {
	var out File
	if err := deepcopy.Copy(&out, f); err != nil {
		return nil, fmt.Errorf("failed to deep copy file: %w", err)
	}
	return &out, nil
}
