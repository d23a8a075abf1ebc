package mepsparser

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ParseFileInfo derives the entity number and batch timestamp from a
// MEPS filename. Interchange filenames follow the pattern
//
//	<prefix>_<entity-number>_<14-digit-timestamp>_<sequence>
//
// for example "MEPS_00029_20241027011323_1". Callers that do not
// follow this pattern cannot supply the trailer's filename-derived
// fields, so the parse fails.
//
// Directory components and a trailing compression extension
// (.gz, .bz2, .xz, .zst, .lz4) are stripped before the split.
func ParseFileInfo(filename string) (FileInfo, error) {
	name := stripCompressionExt(filepath.Base(filename))

	parts := strings.Split(name, "_")
	if len(parts) < 3 {
		return FileInfo{}, fmt.Errorf("filename %q does not match pattern <prefix>_<entity>_<timestamp>_...", name)
	}

	entity := parts[1]
	timestamp := parts[2]
	if !isDigits(entity) {
		return FileInfo{}, fmt.Errorf("filename %q: entity %q is not numeric", name, entity)
	}
	if len(timestamp) != 14 || !isDigits(timestamp) {
		return FileInfo{}, fmt.Errorf("filename %q: timestamp %q is not a 14-digit value", name, timestamp)
	}

	return FileInfo{
		Name:      name,
		Entity:    entity,
		Timestamp: timestamp,
	}, nil
}

// isDigits reports whether s is a non-empty unsigned digit string.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
