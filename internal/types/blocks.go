// Package types defines the shared data model for the expound pipeline:
// the typed README block union and the stored-document key.
package types

import (
	"encoding/json"
	"fmt"
)

// BlockType discriminates the README block union.
type BlockType string

// Block type constants mirror the README block schema.
const (
	BlockHeading   BlockType = "heading"
	BlockParagraph BlockType = "paragraph"
	BlockList      BlockType = "list"
	BlockCode      BlockType = "code"
	BlockImage     BlockType = "image"
	BlockTable     BlockType = "table"
)

// ReadmeBlock is one structured unit of a generated document. It is a tagged
// union: Type selects the variant and only that variant's fields are
// meaningful. Payloads are validated against the strict JSON Schema in the
// schemas package before they are turned into ReadmeBlock values, so code
// downstream of the boundary may trust the shape.
type ReadmeBlock struct {
	Type BlockType `json:"type"`

	// heading
	Level int `json:"level,omitempty"`

	// heading, paragraph
	Text string `json:"text,omitempty"`

	// list
	Ordered bool     `json:"ordered,omitempty"`
	Items   []string `json:"items,omitempty"`

	// code
	Language string `json:"language,omitempty"`
	Code     string `json:"code,omitempty"`

	// image
	URL string `json:"url,omitempty"`
	Alt string `json:"alt,omitempty"`

	// table
	Headers []string   `json:"headers,omitempty"`
	Rows    [][]string `json:"rows,omitempty"`
}

// ReadmeDocument is the top-level shape returned by the synthesizer and by
// the generate endpoint. Blocks is ordered and never empty on the success
// path.
type ReadmeDocument struct {
	Blocks []ReadmeBlock `json:"blocks"`
}

// DecodeDocument parses raw JSON into a ReadmeDocument. It rejects payloads
// without a non-empty blocks field; schema validation is expected to have
// run first and catches everything subtler.
func DecodeDocument(raw []byte) (*ReadmeDocument, error) {
	var doc ReadmeDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse document JSON: %w", err)
	}
	if len(doc.Blocks) == 0 {
		return nil, fmt.Errorf("document has no blocks")
	}
	return &doc, nil
}
