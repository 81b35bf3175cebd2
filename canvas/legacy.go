package canvas

import "strings"

// LoadPlainText replaces the canvas with the given UTF-8 text loaded onto
// a single "Base" layer: line breaks start new rows, CRLF is normalized,
// tabs become single spaces, and other control characters are dropped.
// This is the legacy non-ANSI load path kept alongside the CSI importer
// for plain .txt drag-drop.
func LoadPlainText(text string) *Canvas {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")

	columns := 1
	for _, ln := range lines {
		if n := len([]rune(ln)); n > columns {
			columns = n
		}
	}
	columns = clamp(columns, MinColumns, MaxColumns)

	c := New(columns)
	c.EnsureRows(len(lines))
	for row, ln := range lines {
		col := 0
		for _, r := range ln {
			if col >= columns {
				break
			}
			switch {
			case r == '\t':
				r = ' '
			case r < 0x20:
				continue
			}
			c.Set(0, row, col, r)
			col++
		}
	}
	return c
}
