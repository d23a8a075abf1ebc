package mepsparser

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Record-type markers.
const (
	markerHeader  = "0"
	markerDetail  = "2"
	markerTrailer = "9"
)

// headerFileType is the literal file-type tag every header must carry.
const headerFileType = "MEPS"

// Minimum line widths for each record kind. Field offsets below index
// past these bounds, so shorter lines are rejected up front instead of
// slicing out of range.
const (
	headerMinLen   = 68
	detailRev1Len  = 98
	detailRev2Len  = 103
	trailerMinLen  = 49
	dateTimeLayout = "20060102150405"
)

// field slices a fixed-offset range out of a line and trims the
// surrounding whitespace padding.
func field(line string, start, end int) string {
	return strings.TrimSpace(line[start:end])
}

// decodeHeader decodes a header record (type marker '0').
//
// Offsets: marker [0:1], file-type [1:5], origin institution [5:13],
// destination institution [13:21], file ID [21:32], previous file ID
// [32:43], entity [46:51] (the gap [43:46] is unused padding), currency
// [51:54], VAT rate [54:57], destination file ID [57:68].
func decodeHeader(line string, info FileInfo, now time.Time) (Header, error) {
	if len(line) < headerMinLen {
		return Header{}, fmt.Errorf("header line is %d characters, need at least %d", len(line), headerMinLen)
	}

	h := Header{
		RecordType:             line[0:1],
		FileType:               field(line, 1, 5),
		OriginInstitution:      field(line, 5, 13),
		DestinationInstitution: field(line, 13, 21),
		FileID:                 field(line, 21, 32),
		PreviousFileID:         field(line, 32, 43),
		Entity:                 field(line, 46, 51),
		Currency:               field(line, 51, 54),
		DestinationFileID:      field(line, 57, 68),
		SourceFile:             info.Name,
		ParsedAt:               now,
	}

	if h.RecordType != markerHeader {
		return Header{}, validationErrorf("invalid header record type %q, want %q", h.RecordType, markerHeader)
	}
	if h.FileType != headerFileType {
		return Header{}, validationErrorf("invalid file type %q, want %q", h.FileType, headerFileType)
	}

	// VAT rate is a plain decimal, not a cents-scaled minor-unit field.
	vat, err := ParseAmount(field(line, 54, 57), 0)
	if err != nil {
		return Header{}, validationErrorf("invalid VAT rate %q", field(line, 54, 57))
	}
	h.VATRate = vat

	// Derived identifier: numeric tail of the file ID plus the entity
	// code. Kept as a string; the concatenation does not fit fixed-width
	// integer types for large file sequences.
	h.ID = digitSuffix(h.FileID) + h.Entity

	return h, nil
}

// decodeDetail decodes a detail record (type marker '2').
//
// The layout revision is inferred from the trimmed line length: 103
// characters or more means revision 2, anything shorter is revision 1.
// There is no explicit version tag in the data; the 103 threshold is
// load-bearing and must not change unless the interchange format does.
//
// Shared offsets: marker [0:1], processing code [1:3], log ID [3:7],
// central log number [7:15], date/time [15:29], amount [29:39].
// Revision 1: fee [39:44], terminal type [44:45], terminal ID [45:55],
// local tx ID [55:60], location [60:75], reference [75:84], comm mode
// [84:85], response [85:86], company message ID [86:98].
// Revision 2: fee [39:49], terminal type [49:50], terminal ID [50:60],
// local tx ID [60:65], location [65:80], reference [80:89], comm mode
// [89:90], response [90:91], company message ID [91:103].
func decodeDetail(line string, info FileInfo, now time.Time) (Detail, error) {
	revision := 1
	minLen := detailRev1Len
	if len(strings.TrimSpace(line)) >= detailRev2Len {
		revision = 2
		minLen = detailRev2Len
	}
	if len(line) < minLen {
		return Detail{}, fmt.Errorf("detail line is %d characters, need at least %d for revision %d", len(line), minLen, revision)
	}

	d := Detail{
		RecordType:       line[0:1],
		ProcessingCode:   field(line, 1, 3),
		LogID:            field(line, 3, 7),
		CentralLogNumber: field(line, 7, 15),
		Revision:         revision,
		SourceFile:       info.Name,
		ParsedAt:         now,
	}

	if d.RecordType != markerDetail {
		return Detail{}, validationErrorf("invalid detail record type %q, want %q", d.RecordType, markerDetail)
	}

	rawDateTime := field(line, 15, 29)
	dateTime, err := time.Parse(dateTimeLayout, rawDateTime)
	if err != nil {
		return Detail{}, validationErrorf("invalid transaction date/time %q", rawDateTime)
	}
	d.DateTime = dateTime

	amount, err := ParseAmount(field(line, 29, 39), 2)
	if err != nil {
		return Detail{}, err
	}
	d.Amount = amount

	var feeRaw, termCode string
	if revision == 1 {
		feeRaw = field(line, 39, 44)
		termCode = field(line, 44, 45)
		d.TerminalID = field(line, 45, 55)
		d.LocalTransactionID = field(line, 55, 60)
		d.Location = field(line, 60, 75)
		d.PaymentReference = field(line, 75, 84)
		d.CommunicationMode = field(line, 84, 85)
		d.ResponseCode = field(line, 85, 86)
		d.CompanyMessageID = field(line, 86, 98)
	} else {
		feeRaw = field(line, 39, 49)
		termCode = field(line, 49, 50)
		d.TerminalID = field(line, 50, 60)
		d.LocalTransactionID = field(line, 60, 65)
		d.Location = field(line, 65, 80)
		d.PaymentReference = field(line, 80, 89)
		d.CommunicationMode = field(line, 89, 90)
		d.ResponseCode = field(line, 90, 91)
		d.CompanyMessageID = field(line, 91, 103)
	}

	fee, err := ParseAmount(feeRaw, 2)
	if err != nil {
		return Detail{}, err
	}
	d.Fee = fee

	terminalType, ok := terminalTypeFromCode(termCode)
	if !ok {
		return Detail{}, validationErrorf("invalid terminal type %q", termCode)
	}
	d.TerminalType = terminalType

	return d, nil
}

// decodeTrailer decodes a trailer record (type marker '9').
//
// Offsets: marker [0:1], total record count [1:9], total amount [9:25],
// total fees [25:37], VAT amount [37:49]. The entity and derived
// identifier come from the filename-derived FileInfo, not the line.
func decodeTrailer(line string, info FileInfo, now time.Time) (Trailer, error) {
	if len(line) < trailerMinLen {
		return Trailer{}, fmt.Errorf("trailer line is %d characters, need at least %d", len(line), trailerMinLen)
	}

	t := Trailer{
		RecordType: line[0:1],
		Entity:     info.Entity,
		ID:         info.Timestamp + info.Entity,
		SourceFile: info.Name,
		ParsedAt:   now,
	}

	if t.RecordType != markerTrailer {
		return Trailer{}, validationErrorf("invalid trailer record type %q, want %q", t.RecordType, markerTrailer)
	}

	rawCount := field(line, 1, 9)
	count, err := strconv.Atoi(rawCount)
	if err != nil {
		return Trailer{}, validationErrorf("invalid record count %q", rawCount)
	}
	t.TotalRecords = count

	totalAmount, err := ParseAmount(field(line, 9, 25), 2)
	if err != nil {
		return Trailer{}, err
	}
	t.TotalAmount = totalAmount

	totalFees, err := ParseAmount(field(line, 25, 37), 2)
	if err != nil {
		return Trailer{}, err
	}
	t.TotalFees = totalFees

	vatAmount, err := ParseAmount(field(line, 37, 49), 2)
	if err != nil {
		return Trailer{}, err
	}
	t.VATAmount = vatAmount

	return t, nil
}

// digitSuffix returns the trailing run of decimal digits in s, or ""
// when s does not end with a digit.
func digitSuffix(s string) string {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	return s[i:]
}
