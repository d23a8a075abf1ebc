package mepsparser

// Observer receives progress notifications during a parse. The engine
// has no logger of its own; callers that want visibility inject an
// Observer through WithObserver. Implementations must be safe for the
// single goroutine running the parse; the engine never calls an
// Observer concurrently.
type Observer interface {
	// RecordDecoded is called after each record decodes successfully,
	// with the record kind and the 1-based line number.
	RecordDecoded(kind RecordKind, line int)
}

// nopObserver is the default Observer. It does nothing.
type nopObserver struct{}

func (nopObserver) RecordDecoded(RecordKind, int) {}
