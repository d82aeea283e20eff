// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/repo-expounder/internal/github"
	"github.com/jonathan/repo-expounder/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintFetchedFiles outputs a summary of the files retrieved for indexing.
func (p *Printer) PrintFetchedFiles(files []github.FileContent) {
	if len(files) == 0 {
		return
	}

	var sb strings.Builder
	totalBytes := 0
	for _, f := range files {
		totalBytes += len(f.Text)
	}
	sb.WriteString(fmt.Sprintf("Files:    %d\n", len(files)))
	sb.WriteString(fmt.Sprintf("Content:  %d bytes\n\n", totalBytes))

	count := min(len(files), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  • %s (%d bytes)\n", files[i].Path, len(files[i].Text)))
	}
	if len(files) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(files)-maxItemsToShow))
	}

	p.printBox("FETCHED REPOSITORY CONTENT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintBlocks outputs a per-type summary of the generated block sequence.
func (p *Printer) PrintBlocks(blocks []types.ReadmeBlock) {
	if len(blocks) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total blocks: %d\n\n", len(blocks)))

	count := min(len(blocks), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, blocks[i].Type))
		if summary := blockSummary(blocks[i]); summary != "" {
			sb.WriteString(fmt.Sprintf("    %s\n", summary))
		}
	}
	if len(blocks) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(blocks)-maxItemsToShow))
	}

	p.printBox("GENERATED DOCUMENT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintStoredDocument outputs where the rendered document was persisted.
func (p *Printer) PrintStoredDocument(path string, persisted bool) {
	var sb strings.Builder
	if persisted {
		sb.WriteString("Status: stored\n")
		sb.WriteString(fmt.Sprintf("Path:   %s", path))
	} else {
		sb.WriteString("Status: not persisted")
	}
	p.printBox("PERSISTENCE", sb.String())
}

// blockSummary returns a one-line description of a block's content.
func blockSummary(b types.ReadmeBlock) string {
	switch b.Type {
	case types.BlockHeading:
		return fmt.Sprintf("h%d %s", b.Level, b.Text)
	case types.BlockParagraph:
		return b.Text
	case types.BlockList:
		return fmt.Sprintf("%d items", len(b.Items))
	case types.BlockCode:
		lang := b.Language
		if lang == "" {
			lang = "plain"
		}
		return fmt.Sprintf("%s, %d bytes", lang, len(b.Code))
	case types.BlockImage:
		return b.URL
	case types.BlockTable:
		return fmt.Sprintf("%d columns, %d rows", len(b.Headers), len(b.Rows))
	}
	return ""
}
