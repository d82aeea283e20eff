package observability

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/repo-expounder/internal/github"
	"github.com/jonathan/repo-expounder/internal/types"
)

func TestPrintFetchedFiles(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintFetchedFiles([]github.FileContent{
		{Path: "main.go", Text: "package main\n"},
		{Path: "docs/usage.md", Text: "# Usage\n"},
	})

	out := buf.String()
	assert.Contains(t, out, "FETCHED REPOSITORY CONTENT")
	assert.Contains(t, out, "Files:    2")
	assert.Contains(t, out, "main.go")
	assert.Contains(t, out, "docs/usage.md")
}

func TestPrintFetchedFiles_TruncatesLongLists(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	files := make([]github.FileContent, 8)
	for i := range files {
		files[i] = github.FileContent{Path: "file.go", Text: "x"}
	}
	p.PrintFetchedFiles(files)

	assert.Contains(t, buf.String(), "... and 3 more")
}

func TestPrintFetchedFiles_EmptyPrintsNothing(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintFetchedFiles(nil)
	assert.Empty(t, buf.String())
}

func TestPrintBlocks(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintBlocks([]types.ReadmeBlock{
		{Type: types.BlockHeading, Level: 1, Text: "widgets"},
		{Type: types.BlockCode, Language: "go", Code: "func main() {}"},
		{Type: types.BlockTable, Headers: []string{"a", "b"}, Rows: [][]string{{"1", "2"}}},
	})

	out := buf.String()
	assert.Contains(t, out, "GENERATED DOCUMENT")
	assert.Contains(t, out, "Total blocks: 3")
	assert.Contains(t, out, "h1 widgets")
	assert.Contains(t, out, "go, 14 bytes")
	assert.Contains(t, out, "2 columns, 1 rows")
}

func TestPrintStoredDocument(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintStoredDocument("/expounder/README`u1`acme`widgets`1.md", true)
	assert.Contains(t, buf.String(), "Status: stored")

	buf.Reset()
	p.PrintStoredDocument("", false)
	assert.Contains(t, buf.String(), "Status: not persisted")
}
