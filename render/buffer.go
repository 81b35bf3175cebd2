package render

import "github.com/gdamore/tcell/v2"

// CompositorCell is one cell of a RenderBuffer.
type CompositorCell struct {
	Rune  rune
	Fg    RGB
	Bg    RGB
	Attrs tcell.AttrMask
}

var emptyCell = CompositorCell{Rune: ' ', Fg: RGBBlack, Bg: RGBBlack}

// RenderBuffer is an RGB compositor the size of one terminal frame. Every
// cell is always fully replaced on write (the donor's blend-mode
// compositor has no caller in the layered-canvas renderer, which already
// resolves fg/bg through the palette before reaching the buffer).
type RenderBuffer struct {
	cells  []CompositorCell
	width  int
	height int
}

func NewRenderBuffer(width, height int) *RenderBuffer {
	size := width * height
	cells := make([]CompositorCell, size)
	for i := range cells {
		cells[i] = emptyCell
	}
	return &RenderBuffer{cells: cells, width: width, height: height}
}

// Resize adjusts buffer dimensions, reallocating only if capacity is
// insufficient, then clears.
func (b *RenderBuffer) Resize(width, height int) {
	size := width * height
	if cap(b.cells) < size {
		b.cells = make([]CompositorCell, size)
	} else {
		b.cells = b.cells[:size]
	}
	b.width = width
	b.height = height
	b.Clear()
}

// Clear resets all cells to empty using exponential self-copy.
func (b *RenderBuffer) Clear() {
	if len(b.cells) == 0 {
		return
	}
	b.cells[0] = emptyCell
	for filled := 1; filled < len(b.cells); filled *= 2 {
		copy(b.cells[filled:], b.cells[:filled])
	}
}

func (b *RenderBuffer) Bounds() (width, height int) { return b.width, b.height }

func (b *RenderBuffer) inBounds(x, y int) bool {
	return x >= 0 && x < b.width && y >= 0 && y < b.height
}

// SetSolid replaces one cell outright: rune, fg, bg and attrs all come
// from the canvas compositor, which has already resolved every color.
func (b *RenderBuffer) SetSolid(x, y int, r rune, fg, bg RGB, attrs tcell.AttrMask) {
	if !b.inBounds(x, y) {
		return
	}
	b.cells[y*b.width+x] = CompositorCell{Rune: r, Fg: fg, Bg: bg, Attrs: attrs}
}

func (b *RenderBuffer) Get(x, y int) CompositorCell {
	if !b.inBounds(x, y) {
		return emptyCell
	}
	return b.cells[y*b.width+x]
}

// Flush writes buffer contents to a tcell.Screen; the caller is
// responsible for screen.Show().
func (b *RenderBuffer) Flush(screen tcell.Screen) {
	for y := 0; y < b.height; y++ {
		row := y * b.width
		for x := 0; x < b.width; x++ {
			c := b.cells[row+x]
			style := tcell.StyleDefault.
				Foreground(RGBToTcell(c.Fg)).
				Background(RGBToTcell(c.Bg)).
				Attributes(c.Attrs)
			screen.SetContent(x, y, c.Rune, nil, style)
		}
	}
}

// TcellToRGB converts a tcell.Color to RGB, treating ColorDefault as dflt.
func TcellToRGB(c tcell.Color, dflt RGB) RGB {
	if c == tcell.ColorDefault {
		return dflt
	}
	r, g, b := c.RGB()
	return RGB{uint8(r), uint8(g), uint8(b)}
}

func RGBToTcell(rgb RGB) tcell.Color {
	return tcell.NewRGBColor(int32(rgb.R), int32(rgb.G), int32(rgb.B))
}
