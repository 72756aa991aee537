package store

import (
	"encoding/json"
	"log"
)

// List-shaped columns (capabilities, child tasks, dependencies, notes)
// are stored as JSON text. Encoding and decoding live here so a
// malformed blob is handled in exactly one place: it decodes to an
// empty list with a warning instead of failing the whole read.

// encodeList serializes a string list for storage. A nil list encodes
// as the empty JSON array so columns never hold SQL NULL.
func encodeList(items []string) string {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		// Marshalling []string cannot fail; keep the column well-formed anyway.
		return "[]"
	}
	return string(b)
}

// decodeList parses a stored JSON list. Malformed blobs degrade to an
// empty list — a logged warning, not an error.
func decodeList(blob, column string) []string {
	if blob == "" {
		return []string{}
	}
	var items []string
	if err := json.Unmarshal([]byte(blob), &items); err != nil {
		log.Printf("WARNING: store: malformed %s blob, treating as empty: %v", column, err)
		return []string{}
	}
	if items == nil {
		return []string{}
	}
	return items
}
