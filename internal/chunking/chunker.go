// Package chunking splits blob text into bounded-size segments for upload to
// the retrieval index.
package chunking

import "iter"

// DefaultChunkBytes is the maximum payload size of one chunk. Upstream file
// uploads reject larger parts, so every chunk stays at or under this bound.
const DefaultChunkBytes = 80_000

// Chunk is one bounded slice of a file's text. Index is 0-based and
// gap-free within a file; concatenating a file's chunks in index order
// reproduces the original text exactly.
type Chunk struct {
	Path  string
	Index int
	Data  string
}

// Split returns a lazy, restartable sequence of substrings of text, each at
// most size bytes, in original order. Every chunk except possibly the last
// has length exactly size; an empty input yields no chunks. Split is pure
// and deterministic. A non-positive size falls back to DefaultChunkBytes.
func Split(text string, size int) iter.Seq[string] {
	if size <= 0 {
		size = DefaultChunkBytes
	}
	return func(yield func(string) bool) {
		for offset := 0; offset < len(text); offset += size {
			end := offset + size
			if end > len(text) {
				end = len(text)
			}
			if !yield(text[offset:end]) {
				return
			}
		}
	}
}

// File chunks one file's text, pairing each segment with its owning path and
// sequence index.
func File(path, text string, size int) iter.Seq[Chunk] {
	return func(yield func(Chunk) bool) {
		index := 0
		for data := range Split(text, size) {
			if !yield(Chunk{Path: path, Index: index, Data: data}) {
				return
			}
			index++
		}
	}
}
