package export

import (
	"time"

	"github.com/nao1215/mepsparser"
	"github.com/shopspring/decimal"
)

// settlementFile builds a small parsed file for exporter tests without
// going through the parsing engine.
func settlementFile() *mepsparser.File {
	parsedAt := time.Date(2024, 10, 27, 2, 0, 0, 0, time.UTC)

	return &mepsparser.File{
		Header: mepsparser.Header{
			RecordType:             "0",
			FileType:               "MEPS",
			OriginInstitution:      "00000001",
			DestinationInstitution: "00000002",
			FileID:                 "MEPS0002901",
			PreviousFileID:         "MEPS0002900",
			Entity:                 "00029",
			Currency:               "978",
			VATRate:                decimal.NewFromInt(23),
			DestinationFileID:      "MEPS0002902",
			ID:                     "000290100029",
			SourceFile:             "MEPS_00029_20241027011323_1",
			ParsedAt:               parsedAt,
		},
		Details: []mepsparser.Detail{
			{
				RecordType:         "2",
				ProcessingCode:     "01",
				LogID:              "0001",
				CentralLogNumber:   "00000001",
				DateTime:           time.Date(2024, 10, 27, 1, 13, 23, 0, time.UTC),
				Amount:             decimal.RequireFromString("10.00"),
				Fee:                decimal.RequireFromString("0.50"),
				TerminalType:       mepsparser.TerminalATM,
				TerminalID:         "TERM000001",
				LocalTransactionID: "00001",
				Location:           "LISBOA",
				PaymentReference:   "123456789",
				CommunicationMode:  "O",
				ResponseCode:       "0",
				CompanyMessageID:   "MSG000000001",
				Revision:           1,
				SourceFile:         "MEPS_00029_20241027011323_1",
				ParsedAt:           parsedAt,
			},
			{
				RecordType:         "2",
				ProcessingCode:     "01",
				LogID:              "0002",
				CentralLogNumber:   "00000002",
				DateTime:           time.Date(2024, 10, 27, 1, 13, 30, 0, time.UTC),
				Amount:             decimal.RequireFromString("20.00"),
				Fee:                decimal.RequireFromString("1.00"),
				TerminalType:       mepsparser.TerminalInternet,
				TerminalID:         "TERM000002",
				LocalTransactionID: "00002",
				Location:           "PORTO",
				PaymentReference:   "987654321",
				CommunicationMode:  "O",
				ResponseCode:       "0",
				CompanyMessageID:   "MSG000000002",
				Revision:           2,
				SourceFile:         "MEPS_00029_20241027011323_1",
				ParsedAt:           parsedAt,
			},
		},
		Trailer: mepsparser.Trailer{
			RecordType:   "9",
			TotalRecords: 2,
			TotalAmount:  decimal.RequireFromString("28.50"),
			TotalFees:    decimal.RequireFromString("1.50"),
			VATAmount:    decimal.RequireFromString("0.35"),
			Entity:       "00029",
			ID:           "2024102701132300029",
			SourceFile:   "MEPS_00029_20241027011323_1",
			ParsedAt:     parsedAt,
		},
		Info: mepsparser.FileInfo{
			Name:      "MEPS_00029_20241027011323_1",
			Entity:    "00029",
			Timestamp: "20241027011323",
		},
	}
}
