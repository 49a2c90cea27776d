// Package report renders summary tables as Markdown.
package report

import (
	"bufio"
	"io"
	"strings"
	"unicode/utf8"
)

// Align is a column alignment.
type Align int

// Column alignments.
const (
	Left Align = iota
	Right
)

// Table is a small, already formatted summary table.
type Table struct {
	Header []string
	Align  []Align
	Rows   [][]string
}

// MarkdownWriter writes tables in Markdown pipe format.
type MarkdownWriter struct {
	w *bufio.Writer
}

// NewMarkdownWriter creates a new Markdown writer.
func NewMarkdownWriter(w io.Writer) *MarkdownWriter {
	return &MarkdownWriter{w: bufio.NewWriter(w)}
}

// Heading writes a level-one heading followed by a blank line.
func (mw *MarkdownWriter) Heading(text string) error {
	_, err := mw.w.WriteString("# " + text + "\n\n")
	return err
}

// Write writes t followed by a blank line.
func (mw *MarkdownWriter) Write(t Table) error {
	widths := make([]int, len(t.Header))
	for j, h := range t.Header {
		widths[j] = utf8.RuneCountInString(h)
	}
	for _, row := range t.Rows {
		for j := range widths {
			if j < len(row) {
				widths[j] = max(widths[j], utf8.RuneCountInString(row[j]))
			}
		}
	}

	if err := mw.line(t.Header, widths, t.Align); err != nil {
		return err
	}

	// Separator: a colon marks the aligned side.
	seps := make([]string, len(widths))
	for j, w := range widths {
		dashes := strings.Repeat("-", w+1)
		if alignOf(t.Align, j) == Right {
			seps[j] = dashes + ":"
		} else {
			seps[j] = ":" + dashes
		}
	}
	if _, err := mw.w.WriteString("|" + strings.Join(seps, "|") + "|\n"); err != nil {
		return err
	}

	for _, row := range t.Rows {
		if err := mw.line(row, widths, t.Align); err != nil {
			return err
		}
	}
	_, err := mw.w.WriteString("\n")
	return err
}

func (mw *MarkdownWriter) line(cells []string, widths []int, align []Align) error {
	parts := make([]string, len(widths))
	for j, w := range widths {
		cell := ""
		if j < len(cells) {
			cell = cells[j]
		}
		pad := strings.Repeat(" ", w-utf8.RuneCountInString(cell))
		if alignOf(align, j) == Right {
			parts[j] = " " + pad + cell + " "
		} else {
			parts[j] = " " + cell + pad + " "
		}
	}
	_, err := mw.w.WriteString("|" + strings.Join(parts, "|") + "|\n")
	return err
}

func alignOf(align []Align, j int) Align {
	if j < len(align) {
		return align[j]
	}
	return Left
}

// Flush flushes any buffered data to the underlying writer.
func (mw *MarkdownWriter) Flush() error {
	return mw.w.Flush()
}
