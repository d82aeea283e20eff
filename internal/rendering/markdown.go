// Package rendering serializes README block sequences into markdown text.
package rendering

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jonathan/repo-expounder/internal/types"
)

var excessNewlines = regexp.MustCompile(`\n{3,}`)

// Markdown renders an ordered block sequence into markdown. It is a total,
// deterministic function: malformed blocks are the caller's precondition
// violation (schema validation runs upstream) and render as empty strings
// rather than errors. Blocks are joined with a blank line and runs of three
// or more newlines collapse to exactly two.
func Markdown(blocks []types.ReadmeBlock) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		parts = append(parts, renderBlock(b))
	}
	return collapseNewlines(strings.Join(parts, "\n"))
}

func renderBlock(b types.ReadmeBlock) string {
	switch b.Type {
	case types.BlockHeading:
		return strings.Repeat("#", b.Level) + " " + b.Text + "\n"
	case types.BlockParagraph:
		return b.Text + "\n"
	case types.BlockList:
		lines := make([]string, 0, len(b.Items))
		for i, item := range b.Items {
			if b.Ordered {
				lines = append(lines, fmt.Sprintf("%d. %s", i+1, item))
			} else {
				lines = append(lines, "- "+item)
			}
		}
		return strings.Join(lines, "\n") + "\n"
	case types.BlockCode:
		return "\n```" + b.Language + "\n" + b.Code + "\n```\n"
	case types.BlockImage:
		return "![" + b.Alt + "](" + b.URL + ")\n"
	case types.BlockTable:
		var sb strings.Builder
		sb.WriteString("| " + strings.Join(b.Headers, " | ") + " |\n")
		seps := make([]string, len(b.Headers))
		for i := range seps {
			seps[i] = "---"
		}
		sb.WriteString("| " + strings.Join(seps, " | ") + " |\n")
		for _, row := range b.Rows {
			sb.WriteString("| " + strings.Join(row, " | ") + " |\n")
		}
		return sb.String()
	default:
		return ""
	}
}

// collapseNewlines squeezes runs of 3+ newlines down to a single blank line.
// Applying it twice is the same as applying it once.
func collapseNewlines(s string) string {
	return excessNewlines.ReplaceAllString(s, "\n\n")
}
