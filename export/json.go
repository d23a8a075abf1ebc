package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/nao1215/mepsparser"
)

// jsonHeader mirrors mepsparser.Header with every field rendered as a
// string.
type jsonHeader struct {
	RecordType             string `json:"record_type"`
	FileType               string `json:"file_type"`
	OriginInstitution      string `json:"origin_institution"`
	DestinationInstitution string `json:"destination_institution"`
	FileID                 string `json:"file_id"`
	PreviousFileID         string `json:"previous_file_id"`
	Entity                 string `json:"entity"`
	Currency               string `json:"currency"`
	VATRate                string `json:"vat_rate"`
	DestinationFileID      string `json:"destination_file_id"`
	ID                     string `json:"id"`
	SourceFile             string `json:"source_file"`
	ParsedAt               string `json:"parsed_at"`
}

// jsonDetail mirrors mepsparser.Detail with every field rendered as a
// string.
type jsonDetail struct {
	RecordType         string `json:"record_type"`
	ProcessingCode     string `json:"processing_code"`
	LogID              string `json:"log_id"`
	CentralLogNumber   string `json:"central_log_number"`
	DateTime           string `json:"date_time"`
	Amount             string `json:"amount"`
	Fee                string `json:"fee"`
	NetAmount          string `json:"net_amount"`
	TerminalType       string `json:"terminal_type"`
	TerminalID         string `json:"terminal_id"`
	LocalTransactionID string `json:"local_transaction_id"`
	Location           string `json:"location"`
	PaymentReference   string `json:"payment_reference"`
	CommunicationMode  string `json:"communication_mode"`
	ResponseCode       string `json:"response_code"`
	CompanyMessageID   string `json:"company_message_id"`
	Revision           string `json:"revision"`
	SourceFile         string `json:"source_file"`
	ParsedAt           string `json:"parsed_at"`
}

// jsonTrailer mirrors mepsparser.Trailer with every field rendered as
// a string.
type jsonTrailer struct {
	RecordType   string `json:"record_type"`
	TotalRecords string `json:"total_records"`
	TotalAmount  string `json:"total_amount"`
	TotalFees    string `json:"total_fees"`
	VATAmount    string `json:"vat_amount"`
	Entity       string `json:"entity"`
	ID           string `json:"id"`
	SourceFile   string `json:"source_file"`
	ParsedAt     string `json:"parsed_at"`
}

// jsonFile is the full aggregate rendered for JSON export.
type jsonFile struct {
	Header  jsonHeader   `json:"header"`
	Details []jsonDetail `json:"details"`
	Trailer jsonTrailer  `json:"trailer"`
}

// WriteJSON renders the full parse result to w with two-space
// indentation. Every field is rendered as a string so downstream
// consumers never lose precision to floating-point JSON numbers.
func WriteJSON(w io.Writer, file *mepsparser.File) error {
	if file == nil {
		return errors.New("file cannot be nil")
	}

	out := jsonFile{
		Header: jsonHeader{
			RecordType:             file.Header.RecordType,
			FileType:               file.Header.FileType,
			OriginInstitution:      file.Header.OriginInstitution,
			DestinationInstitution: file.Header.DestinationInstitution,
			FileID:                 file.Header.FileID,
			PreviousFileID:         file.Header.PreviousFileID,
			Entity:                 file.Header.Entity,
			Currency:               file.Header.Currency,
			VATRate:                file.Header.VATRate.String(),
			DestinationFileID:      file.Header.DestinationFileID,
			ID:                     file.Header.ID,
			SourceFile:             file.Header.SourceFile,
			ParsedAt:               file.Header.ParsedAt.Format(time.RFC3339),
		},
		Details: make([]jsonDetail, 0, len(file.Details)),
		Trailer: jsonTrailer{
			RecordType:   file.Trailer.RecordType,
			TotalRecords: strconv.Itoa(file.Trailer.TotalRecords),
			TotalAmount:  file.Trailer.TotalAmount.StringFixed(2),
			TotalFees:    file.Trailer.TotalFees.StringFixed(2),
			VATAmount:    file.Trailer.VATAmount.StringFixed(2),
			Entity:       file.Trailer.Entity,
			ID:           file.Trailer.ID,
			SourceFile:   file.Trailer.SourceFile,
			ParsedAt:     file.Trailer.ParsedAt.Format(time.RFC3339),
		},
	}

	for _, d := range file.Details {
		out.Details = append(out.Details, jsonDetail{
			RecordType:         d.RecordType,
			ProcessingCode:     d.ProcessingCode,
			LogID:              d.LogID,
			CentralLogNumber:   d.CentralLogNumber,
			DateTime:           formatTimestamp(d.DateTime),
			Amount:             d.Amount.StringFixed(2),
			Fee:                d.Fee.StringFixed(2),
			NetAmount:          d.NetAmount().StringFixed(2),
			TerminalType:       d.TerminalType.String(),
			TerminalID:         d.TerminalID,
			LocalTransactionID: d.LocalTransactionID,
			Location:           d.Location,
			PaymentReference:   d.PaymentReference,
			CommunicationMode:  d.CommunicationMode,
			ResponseCode:       d.ResponseCode,
			CompanyMessageID:   d.CompanyMessageID,
			Revision:           strconv.Itoa(d.Revision),
			SourceFile:         d.SourceFile,
			ParsedAt:           d.ParsedAt.Format(time.RFC3339),
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}
