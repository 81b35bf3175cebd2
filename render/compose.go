package render

import (
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/phosphor-art/phosphor/canvas"
	"github.com/phosphor-art/phosphor/palette"
)

// Theme supplies the colors used when a cell's fg/bg is UnsetColor.
type Theme struct {
	DefaultFG RGB
	DefaultBG RGB
}

// attrMask converts the canvas's 8-bit attribute set to tcell's mask.
func attrMask(a canvas.Attr) tcell.AttrMask {
	var m tcell.AttrMask
	if a&canvas.AttrBold != 0 {
		m |= tcell.AttrBold
	}
	if a&canvas.AttrDim != 0 {
		m |= tcell.AttrDim
	}
	if a&canvas.AttrItalic != 0 {
		m |= tcell.AttrItalic
	}
	if a&canvas.AttrUnderline != 0 {
		m |= tcell.AttrUnderline
	}
	if a&canvas.AttrBlink != 0 {
		m |= tcell.AttrBlink
	}
	if a&canvas.AttrReverse != 0 {
		m |= tcell.AttrReverse
	}
	if a&canvas.AttrStrikethrough != 0 {
		m |= tcell.AttrStrikethrough
	}
	return m
}

// ColorOf resolves a canvas color index to RGB, falling back to theme
// defaults for UnsetColor or an unresolvable index.
func ColorOf(reg *palette.Registry, pal palette.InstanceID, idx canvas.ColorIndex, dflt RGB) RGB {
	if idx == canvas.UnsetColor {
		return dflt
	}
	rgb, ok := reg.IndexToRGB(pal, palette.Index(idx))
	if !ok {
		return dflt
	}
	return RGB{rgb.R, rgb.G, rgb.B}
}

// ComposeFrame walks every visible cell of cv and writes it into buf,
// resizing buf first if the canvas geometry changed (spec §6 "Renderer
// reads via Composite(row,col) each frame").
func ComposeFrame(buf *RenderBuffer, cv *canvas.Canvas, reg *palette.Registry, pal palette.InstanceID, theme Theme) {
	cols, rows := cv.Columns(), cv.Rows()
	if w, h := buf.Bounds(); w != cols || h != rows {
		buf.Resize(cols, rows)
	} else {
		buf.Clear()
	}
	for row := 0; row < rows; row++ {
		col := 0
		for col < cols {
			cell := cv.Composite(row, col)
			fg := ColorOf(reg, pal, cell.FG, theme.DefaultFG)
			bg := ColorOf(reg, pal, cell.BG, theme.DefaultBG)
			buf.SetSolid(col, row, cell.CP, fg, bg, attrMask(cell.Attrs))
			// East-Asian/combining wide glyphs occupy two terminal columns;
			// blank the trailing cell so the compositor doesn't double-paint it.
			advance := runewidth.RuneWidth(cell.CP)
			if advance < 1 {
				advance = 1
			}
			for skip := 1; skip < advance && col+skip < cols; skip++ {
				buf.SetSolid(col+skip, row, ' ', fg, bg, attrMask(cell.Attrs))
			}
			col += advance
		}
	}
}
