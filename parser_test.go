package mepsparser

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

// Fixture lines. Field widths follow the interchange layout exactly;
// do not reflow these.
const (
	testFilename = "MEPS_00029_20241027011323_1"

	// 68 characters.
	headerLine = "0MEPS0000000100000002MEPS0002901MEPS0002900   00029978023MEPS0002902"

	// Revision 1 layout, 98 characters. Amount 10.00, fee 0.50, ATM.
	detailRev1Line = "2010001000000012024102701132300000010000005" + "0ATERM00000100001LISBOA         123456789O0MSG000000001"

	// Revision 2 layout, 103 characters. Amount 20.00, fee 1.00, Internet.
	detailRev2Line = "20100020000000220241027011330000000200000000" + "00100ITERM00000200002PORTO          987654321O0MSG000000002"

	// 49 characters. totreg=1, total 9.50, fees 0.50, VAT 0.12.
	trailerLineOne = "9000000010000000000000950000000000050000000000012"

	// totreg=2, total 28.50, fees 1.50, VAT 0.35.
	trailerLineTwo = "9000000020000000000002850000000000150000000000035"
)

func singleDetailFile() string {
	return strings.Join([]string{headerLine, detailRev1Line, trailerLineOne}, "\n")
}

func twoDetailFile() string {
	return strings.Join([]string{headerLine, detailRev1Line, detailRev2Line, trailerLineTwo}, "\n")
}

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("parses a valid single-detail file", func(t *testing.T) {
		t.Parallel()

		result, err := Parse(strings.NewReader(singleDetailFile()), testFilename)

		require.NoError(t, err)
		assert.Equal(t, "MEPS", result.Header.FileType)
		assert.Equal(t, "00029", result.Header.Entity)
		assert.Equal(t, 1, len(result.Details))
		assert.Equal(t, 1, result.Trailer.TotalRecords)
		assert.True(t, result.Details[0].NetAmount().Equal(decimal.RequireFromString("9.50")),
			"net amount = %s", result.Details[0].NetAmount())
	})

	t.Run("parses both detail revisions and preserves line order", func(t *testing.T) {
		t.Parallel()

		result, err := Parse(strings.NewReader(twoDetailFile()), testFilename)

		require.NoError(t, err)
		require.Equal(t, 2, len(result.Details))
		assert.Equal(t, 1, result.Details[0].Revision)
		assert.Equal(t, 2, result.Details[1].Revision)
		assert.Equal(t, TerminalATM, result.Details[0].TerminalType)
		assert.Equal(t, TerminalInternet, result.Details[1].TerminalType)
		assert.True(t, result.TotalAmount().Equal(decimal.RequireFromString("30.00")))
		assert.True(t, result.TotalFees().Equal(decimal.RequireFromString("1.50")))
	})

	t.Run("enforces record count against trailer", func(t *testing.T) {
		t.Parallel()

		input := strings.Join([]string{headerLine, detailRev1Line, trailerLineTwo}, "\n")

		_, err := Parse(strings.NewReader(input), testFilename)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, err.Error(), "record count mismatch")
	})

	t.Run("enforces net amount reconciliation", func(t *testing.T) {
		t.Parallel()

		// Trailer declares 9.40; the single detail nets 9.50.
		trailer := "9000000010000000000000940000000000050000000000012"
		input := strings.Join([]string{headerLine, detailRev1Line, trailer}, "\n")

		_, err := Parse(strings.NewReader(input), testFilename)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, err.Error(), "amount mismatch")
	})

	t.Run("enforces fee reconciliation", func(t *testing.T) {
		t.Parallel()

		// Trailer declares 0.70 in fees; the single detail carries 0.50.
		trailer := "9000000010000000000000950000000000070000000000012"
		input := strings.Join([]string{headerLine, detailRev1Line, trailer}, "\n")

		_, err := Parse(strings.NewReader(input), testFilename)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, err.Error(), "fee mismatch")
	})

	t.Run("fails when no detail records exist", func(t *testing.T) {
		t.Parallel()

		input := strings.Join([]string{headerLine, trailerLineOne}, "\n")

		_, err := Parse(strings.NewReader(input), testFilename)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, err.Error(), "no detail records found")
	})

	t.Run("fails when header is missing", func(t *testing.T) {
		t.Parallel()

		input := strings.Join([]string{detailRev1Line, trailerLineOne}, "\n")

		_, err := Parse(strings.NewReader(input), testFilename)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, err.Error(), "missing header record")
	})

	t.Run("fails when trailer is missing", func(t *testing.T) {
		t.Parallel()

		input := strings.Join([]string{headerLine, detailRev1Line}, "\n")

		_, err := Parse(strings.NewReader(input), testFilename)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, err.Error(), "missing trailer record")
	})

	t.Run("reports invalid terminal type with line number", func(t *testing.T) {
		t.Parallel()

		badDetail := strings.Replace(detailRev1Line, "ATERM000001", "ZTERM000001", 1)
		input := strings.Join([]string{headerLine, badDetail, trailerLineOne}, "\n")

		_, err := Parse(strings.NewReader(input), testFilename)

		var perr *ParseError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, 2, perr.Line)
		assert.Equal(t, "detail parsing", perr.Phase)
		assert.Contains(t, err.Error(), `invalid terminal type "Z"`)
		assert.Contains(t, err.Error(), "line 2")

		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("rejects unknown record-type markers", func(t *testing.T) {
		t.Parallel()

		input := strings.Join([]string{headerLine, "5JUNK", detailRev1Line, trailerLineOne}, "\n")

		_, err := Parse(strings.NewReader(input), testFilename)

		var cerr *ClassificationError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, 2, cerr.Line)
		assert.Equal(t, "5", cerr.Marker)
	})

	t.Run("skips blank lines without losing line numbers", func(t *testing.T) {
		t.Parallel()

		input := strings.Join([]string{headerLine, "", "   ", detailRev1Line, "", trailerLineOne}, "\n")

		result, err := Parse(strings.NewReader(input), testFilename)

		require.NoError(t, err)
		assert.Equal(t, 1, len(result.Details))
	})

	t.Run("last header wins on duplicates", func(t *testing.T) {
		t.Parallel()

		secondHeader := strings.Replace(headerLine, "MEPS0002901", "MEPS0002999", 1)
		input := strings.Join([]string{headerLine, secondHeader, detailRev1Line, trailerLineOne}, "\n")

		result, err := Parse(strings.NewReader(input), testFilename)

		require.NoError(t, err)
		assert.Equal(t, "MEPS0002999", result.Header.FileID)
	})

	t.Run("returns error for nil reader", func(t *testing.T) {
		t.Parallel()

		_, err := Parse(nil, testFilename)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "reader cannot be nil")
	})

	t.Run("fails on malformed filename", func(t *testing.T) {
		t.Parallel()

		_, err := Parse(strings.NewReader(singleDetailFile()), "settlement.txt")

		var perr *ParseError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "file parsing", perr.Phase)
	})

	t.Run("surfaces reader failures as-is", func(t *testing.T) {
		t.Parallel()

		readErr := errors.New("disk on fire")
		_, err := Parse(&failingReader{err: readErr}, testFilename)

		require.Error(t, err)
		assert.ErrorIs(t, err, readErr)

		var verr *ValidationError
		assert.False(t, errors.As(err, &verr))
	})
}

func TestParse_Provenance(t *testing.T) {
	t.Parallel()

	result, err := Parse(strings.NewReader(singleDetailFile()), testFilename)
	require.NoError(t, err)

	assert.Equal(t, testFilename, result.Info.Name)
	assert.Equal(t, "00029", result.Info.Entity)
	assert.Equal(t, "20241027011323", result.Info.Timestamp)

	assert.Equal(t, testFilename, result.Header.SourceFile)
	assert.Equal(t, testFilename, result.Details[0].SourceFile)
	assert.Equal(t, testFilename, result.Trailer.SourceFile)
	assert.False(t, result.Header.ParsedAt.IsZero())

	// Derived identifiers stay strings; no integer parsing, no overflow.
	assert.Equal(t, "000290100029", result.Header.ID)
	assert.Equal(t, "2024102701132300029", result.Trailer.ID)
	assert.Equal(t, "00029", result.Trailer.Entity)
}

func TestParse_Compressed(t *testing.T) {
	t.Parallel()

	t.Run("gzip", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		gzWriter := gzip.NewWriter(&buf)
		_, err := gzWriter.Write([]byte(singleDetailFile()))
		require.NoError(t, err)
		require.NoError(t, gzWriter.Close())

		result, err := Parse(&buf, testFilename+".gz")

		require.NoError(t, err)
		assert.Equal(t, 1, len(result.Details))
		// Compression extension must not leak into filename-derived fields.
		assert.Equal(t, testFilename, result.Info.Name)
		assert.Equal(t, "00029", result.Trailer.Entity)
	})

	t.Run("zstd", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		encoder, err := zstd.NewWriter(&buf)
		require.NoError(t, err)
		_, err = encoder.Write([]byte(singleDetailFile()))
		require.NoError(t, err)
		require.NoError(t, encoder.Close())

		result, err := Parse(&buf, testFilename+".zst")

		require.NoError(t, err)
		assert.Equal(t, 1, len(result.Details))
	})

	t.Run("xz", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		xzWriter, err := xz.NewWriter(&buf)
		require.NoError(t, err)
		_, err = xzWriter.Write([]byte(singleDetailFile()))
		require.NoError(t, err)
		require.NoError(t, xzWriter.Close())

		result, err := Parse(&buf, testFilename+".xz")

		require.NoError(t, err)
		assert.Equal(t, 1, len(result.Details))
	})

	t.Run("lz4", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		lz4Writer := lz4.NewWriter(&buf)
		_, err := lz4Writer.Write([]byte(singleDetailFile()))
		require.NoError(t, err)
		require.NoError(t, lz4Writer.Close())

		result, err := Parse(&buf, testFilename+".lz4")

		require.NoError(t, err)
		assert.Equal(t, 1, len(result.Details))
	})

	t.Run("WithCompression overrides filename detection", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		gzWriter := gzip.NewWriter(&buf)
		_, err := gzWriter.Write([]byte(singleDetailFile()))
		require.NoError(t, err)
		require.NoError(t, gzWriter.Close())

		result, err := Parse(&buf, testFilename, WithCompression(CompressionGzip))

		require.NoError(t, err)
		assert.Equal(t, 1, len(result.Details))
	})
}

func TestParseContext(t *testing.T) {
	t.Parallel()

	t.Run("stops on canceled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := ParseContext(ctx, strings.NewReader(singleDetailFile()), testFilename)

		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("parses normally with a live context", func(t *testing.T) {
		t.Parallel()

		result, err := ParseContext(context.Background(), strings.NewReader(singleDetailFile()), testFilename)

		require.NoError(t, err)
		assert.Equal(t, 1, len(result.Details))
	})
}

func TestParse_Observer(t *testing.T) {
	t.Parallel()

	obs := &recordingObserver{}
	_, err := Parse(strings.NewReader(twoDetailFile()), testFilename, WithObserver(obs))

	require.NoError(t, err)
	assert.Equal(t, []RecordKind{KindHeader, KindDetail, KindDetail, KindTrailer}, obs.kinds)
	assert.Equal(t, []int{1, 2, 3, 4}, obs.lines)
}

func TestDetectCompression(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want Compression
	}{
		{"MEPS_00029_20241027011323_1", CompressionNone},
		{"MEPS_00029_20241027011323_1.gz", CompressionGzip},
		{"MEPS_00029_20241027011323_1.bz2", CompressionBzip2},
		{"MEPS_00029_20241027011323_1.xz", CompressionXZ},
		{"MEPS_00029_20241027011323_1.zst", CompressionZstd},
		{"MEPS_00029_20241027011323_1.LZ4", CompressionLZ4},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectCompression(tt.path), "path %s", tt.path)
	}
}

// recordingObserver collects observer callbacks for assertions.
type recordingObserver struct {
	kinds []RecordKind
	lines []int
}

func (o *recordingObserver) RecordDecoded(kind RecordKind, line int) {
	o.kinds = append(o.kinds, kind)
	o.lines = append(o.lines, line)
}

// failingReader always fails with the configured error.
type failingReader struct {
	err error
}

func (r *failingReader) Read([]byte) (int, error) {
	return 0, r.err
}
