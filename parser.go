// Package mepsparser parses fixed-width MEPS interchange files: batch
// settlement records exchanged between payment-network institutions.
//
// A MEPS file is a text stream of positional records. The first
// character of each non-blank line selects the record kind: '0' for
// the single header, '2' for detail records, '9' for the single
// trailer. Detail records exist in two layout revisions distinguished
// only by line length; lines of 103 or more characters (after
// trimming) use the revision 2 layout.
//
// Parsing is single-pass and synchronous. After the whole stream is
// consumed the file is validated as a unit: header and trailer must be
// present, at least one detail must exist, the trailer's declared
// record count must match exactly, and the declared monetary totals
// must reconcile with the detail records within 0.01. Only a file that
// passes every check produces a result; there is no partial success.
//
// If the input supplies more than one header or trailer, the last one
// wins. This mirrors the behavior of upstream producers and is kept
// for compatibility.
//
// # Filenames
//
// MEPS filenames follow the pattern <prefix>_<entity>_<timestamp>_...,
// for example "MEPS_00029_20241027011323_1". The trailer's entity and
// derived identifier come from the filename, so Parse requires the
// filename alongside the byte stream. Compressed batches keep the
// pattern with a compression extension appended ("...._1.gz").
//
// # Compression
//
// Archived settlement batches are often stored compressed. Parse
// detects gzip, bzip2, xz, zstd, and lz4 from the filename extension
// and decompresses transparently; WithCompression overrides the
// detection.
//
// # Monetary values
//
// Monetary fields are fixed-point integer strings ("minor units") and
// are decoded into exact decimals. No binary floating point is used
// anywhere in the engine, so reconciliation against the 0.01 tolerance
// is exact.
//
// # Example usage
//
//	f, _ := os.Open("MEPS_00029_20241027011323_1")
//	defer f.Close()
//	result, err := mepsparser.Parse(f, "MEPS_00029_20241027011323_1")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("Entity:", result.Header.Entity)
//	fmt.Println("Transactions:", len(result.Details))
package mepsparser

import (
	"bufio"
	"compress/bzip2"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// Compression represents the compression applied to an input stream.
type Compression int

const (
	// CompressionNone represents an uncompressed stream.
	CompressionNone Compression = iota
	// CompressionGzip represents a gzip-compressed stream.
	CompressionGzip
	// CompressionBzip2 represents a bzip2-compressed stream.
	CompressionBzip2
	// CompressionXZ represents an xz-compressed stream.
	CompressionXZ
	// CompressionZstd represents a zstd-compressed stream.
	CompressionZstd
	// CompressionLZ4 represents an lz4-compressed stream.
	CompressionLZ4
)

// String returns a human-readable string representation of the Compression.
func (c Compression) String() string {
	switch c {
	case CompressionGzip:
		return "gzip"
	case CompressionBzip2:
		return "bzip2"
	case CompressionXZ:
		return "xz"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return "none"
	}
}

// Compression file extensions.
const (
	extGZ   = ".gz"
	extBZ2  = ".bz2"
	extXZ   = ".xz"
	extZSTD = ".zst"
	extLZ4  = ".lz4"
)

// DetectCompression detects the compression variant from a filename
// extension. Filenames without a known compression extension are
// treated as uncompressed.
func DetectCompression(path string) Compression {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, extGZ):
		return CompressionGzip
	case strings.HasSuffix(lower, extBZ2):
		return CompressionBzip2
	case strings.HasSuffix(lower, extXZ):
		return CompressionXZ
	case strings.HasSuffix(lower, extZSTD):
		return CompressionZstd
	case strings.HasSuffix(lower, extLZ4):
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

// stripCompressionExt removes a trailing compression extension so the
// filename-derived fields are the same for plain and archived batches.
func stripCompressionExt(path string) string {
	lower := strings.ToLower(path)
	for _, ext := range []string{extGZ, extBZ2, extXZ, extZSTD, extLZ4} {
		if strings.HasSuffix(lower, ext) {
			return path[:len(path)-len(ext)]
		}
	}
	return path
}

// newDecompressedReader wraps the reader with the matching
// decompressor. The returned close function, when non-nil, must be
// called after reading.
func newDecompressedReader(reader io.Reader, compression Compression) (io.Reader, func() error, error) {
	switch compression {
	case CompressionGzip:
		gzReader, err := gzip.NewReader(reader)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return gzReader, func() error { return gzReader.Close() }, nil

	case CompressionBzip2:
		return bzip2.NewReader(reader), nil, nil

	case CompressionXZ:
		xzReader, err := xz.NewReader(reader)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		return xzReader, nil, nil

	case CompressionZstd:
		decoder, err := zstd.NewReader(reader)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return decoder, func() error { decoder.Close(); return nil }, nil

	case CompressionLZ4:
		return lz4.NewReader(reader), nil, nil

	default:
		// No compression
		return reader, nil, nil
	}
}

// Option configures a parse call.
type Option func(*parser)

// WithObserver injects an Observer that receives a notification for
// every successfully decoded record.
func WithObserver(obs Observer) Option {
	return func(p *parser) {
		if obs != nil {
			p.observer = obs
		}
	}
}

// WithCompression overrides the compression detected from the
// filename extension.
func WithCompression(c Compression) Option {
	return func(p *parser) {
		p.compression = c
		p.compressionSet = true
	}
}

// parser holds the in-progress state of one parse call. Every call
// owns its own parser, so concurrent parses of independent streams
// need no synchronization.
type parser struct {
	observer       Observer
	compression    Compression
	compressionSet bool

	file       File
	hasHeader  bool
	hasTrailer bool
	now        time.Time
}

// Parse reads a MEPS file from reader and returns the validated
// result. The filename must follow the interchange naming pattern
// (see the package documentation); it supplies the trailer's
// filename-derived fields and the default compression detection.
//
// Example:
//
//	f, _ := os.Open("MEPS_00029_20241027011323_1.gz")
//	defer f.Close()
//	result, err := mepsparser.Parse(f, "MEPS_00029_20241027011323_1.gz")
func Parse(reader io.Reader, filename string, opts ...Option) (*File, error) {
	return ParseContext(context.Background(), reader, filename, opts...)
}

// ParseContext is Parse with cancellation: the context is checked
// between lines, so a canceled context stops the parse promptly
// without changing behavior on the happy path.
func ParseContext(ctx context.Context, reader io.Reader, filename string, opts ...Option) (result *File, err error) {
	if reader == nil {
		return nil, errors.New("reader cannot be nil")
	}

	p := &parser{
		observer: nopObserver{},
		now:      time.Now(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if !p.compressionSet {
		p.compression = DetectCompression(filename)
	}

	info, infoErr := ParseFileInfo(filename)
	if infoErr != nil {
		return nil, &ParseError{Phase: "file parsing", Err: infoErr}
	}
	p.file.Info = info

	decompressedReader, closeFunc, decompErr := newDecompressedReader(reader, p.compression)
	if decompErr != nil {
		return nil, fmt.Errorf("failed to decompress: %w", decompErr)
	}
	if closeFunc != nil {
		defer func() {
			if closeErr := closeFunc(); closeErr != nil && err == nil {
				err = fmt.Errorf("failed to close decompressor: %w", closeErr)
			}
		}()
	}

	if err := p.scan(ctx, decompressedReader); err != nil {
		return nil, err
	}

	if err := validateFile(&p.file, p.hasHeader, p.hasTrailer); err != nil {
		return nil, err
	}

	return &p.file, nil
}

// scan consumes the stream line by line, classifying each non-blank
// line by its leading record-type marker and dispatching it to the
// matching decoder.
func (p *parser) scan(ctx context.Context, reader io.Reader) error {
	scanner := bufio.NewScanner(reader)

	lineNo := 0
	for scanner.Scan() {
		lineNo++

		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if err := p.classify(line, lineNo); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}

// classify dispatches one line to the decoder matching its leading
// record-type marker. Decode failures are annotated with the 1-based
// line number and the decoding phase; the underlying error stays
// reachable through errors.As.
func (p *parser) classify(line string, lineNo int) error {
	switch line[0:1] {
	case markerHeader:
		header, err := decodeHeader(line, p.file.Info, p.now)
		if err != nil {
			return &ParseError{Line: lineNo, Phase: "header parsing", Err: err}
		}
		// Last write wins on duplicate headers.
		p.file.Header = header
		p.hasHeader = true
		p.observer.RecordDecoded(KindHeader, lineNo)

	case markerDetail:
		detail, err := decodeDetail(line, p.file.Info, p.now)
		if err != nil {
			return &ParseError{Line: lineNo, Phase: "detail parsing", Err: err}
		}
		p.file.Details = append(p.file.Details, detail)
		p.observer.RecordDecoded(KindDetail, lineNo)

	case markerTrailer:
		trailer, err := decodeTrailer(line, p.file.Info, p.now)
		if err != nil {
			return &ParseError{Line: lineNo, Phase: "trailer parsing", Err: err}
		}
		// Last write wins on duplicate trailers.
		p.file.Trailer = trailer
		p.hasTrailer = true
		p.observer.RecordDecoded(KindTrailer, lineNo)

	default:
		return &ClassificationError{Line: lineNo, Marker: line[0:1]}
	}
	return nil
}
