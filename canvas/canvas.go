// Package canvas implements the layered cell grid at the heart of Phosphor:
// layer stack, compositing, caret state, undo/redo history, and the project
// snapshot codec.
package canvas

import (
	"fmt"

	"github.com/phosphor-art/phosphor/core"
)

// Codepoint is an unsigned Unicode scalar value. The blank cell is U+0020.
type Codepoint = rune

// ColorIndex names an entry in a palette, or UnsetColor for "no color".
type ColorIndex uint16

// UnsetColor is the reserved sentinel meaning "use the theme default";
// a bg of UnsetColor is transparent during compositing.
const UnsetColor ColorIndex = 0xFFFF

// Attr is an 8-bit typographic attribute bitset.
type Attr uint8

const (
	AttrBold Attr = 1 << iota
	AttrDim
	AttrItalic
	AttrUnderline
	AttrBlink
	AttrReverse
	AttrStrikethrough
)

// Blank is the default cell value: a space with unset colors and no attrs.
const Blank Codepoint = ' '

const (
	MinColumns = 1
	MaxColumns = 4096
	MinRows    = 1
	MaxRows    = 16384
)

// Cell is the quadruple stored per grid position.
type Cell struct {
	CP    Codepoint
	FG    ColorIndex
	BG    ColorIndex
	Attrs Attr
}

var blankCell = Cell{CP: Blank, FG: UnsetColor, BG: UnsetColor}

// Layer is a rectangular plane of cells, sized columns*rows, sharing the
// owning Canvas's geometry. Cells are parallel arrays indexed row*columns+col.
type Layer struct {
	Name    string
	Visible bool
	cp      []Codepoint
	fg      []ColorIndex
	bg      []ColorIndex
	attrs   []Attr
}

func newLayer(name string, columns, rows int) *Layer {
	n := columns * rows
	l := &Layer{
		Name:    name,
		Visible: true,
		cp:      make([]Codepoint, n),
		fg:      make([]ColorIndex, n),
		bg:      make([]ColorIndex, n),
		attrs:   make([]Attr, n),
	}
	for i := range l.cp {
		l.cp[i] = Blank
		l.fg[i] = UnsetColor
		l.bg[i] = UnsetColor
	}
	return l
}

func (l *Layer) cellAt(idx int) Cell {
	return Cell{CP: l.cp[idx], FG: l.fg[idx], BG: l.bg[idx], Attrs: l.attrs[idx]}
}

// Caret is the canvas's single text-entry cursor position.
type Caret struct {
	Row, Col int
}

// PaletteIdentity names either a built-in palette or a registry UID. It is
// opaque to the canvas; only the palette package interprets it.
type PaletteIdentity uint64

// Canvas is the ordered stack of layers together with geometry, caret,
// palette identity, undo/redo, and a revision counter.
type Canvas struct {
	columns, rows int
	layers        []*Layer
	activeLayer   int
	caret         Caret
	palette       PaletteIdentity
	revision      uint64

	undo undoRing

	inCapture    bool
	captureDirty bool
	captureSnap  Snapshot
	applying     bool

	inExternal   bool
	externalBump bool

	typed []rune
}

// New creates an empty single-layer canvas of the given column count and one row.
func New(columns int) *Canvas {
	columns = clamp(columns, MinColumns, MaxColumns)
	c := &Canvas{
		columns: columns,
		rows:    1,
		undo:    newUndoRing(256),
	}
	c.layers = []*Layer{newLayer("Base", columns, 1)}
	return c
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (c *Canvas) Columns() int              { return c.columns }
func (c *Canvas) Rows() int                 { return c.rows }
func (c *Canvas) Revision() uint64          { return c.revision }
func (c *Canvas) ActiveLayerIndex() int     { return c.activeLayer }
func (c *Canvas) LayerCount() int           { return len(c.layers) }
func (c *Canvas) Caret() Caret              { return c.caret }
func (c *Canvas) Palette() PaletteIdentity  { return c.palette }
func (c *Canvas) SetPalette(p PaletteIdentity) { c.palette = p }

func (c *Canvas) bump() {
	if c.inExternal {
		c.externalBump = true
		return
	}
	c.revision++
}

func (c *Canvas) inBounds(row, col int) bool {
	return row >= 0 && row < c.rows && col >= 0 && col < c.columns
}

func (c *Canvas) idx(row, col int) int { return row*c.columns + col }

// EnsureRows grows the canvas (and all layers) so rows >= n, filling new
// cells blank. A no-op if already large enough.
func (c *Canvas) EnsureRows(n int) {
	if n <= c.rows {
		return
	}
	n = clamp(n, MinRows, MaxRows)
	if n <= c.rows {
		return
	}
	for _, l := range c.layers {
		need := n * c.columns
		if cap(l.cp) >= need {
			l.cp = l.cp[:need]
			l.fg = l.fg[:need]
			l.bg = l.bg[:need]
			l.attrs = l.attrs[:need]
		} else {
			grownCP := make([]Codepoint, need)
			grownFG := make([]ColorIndex, need)
			grownBG := make([]ColorIndex, need)
			grownAttrs := make([]Attr, need)
			copy(grownCP, l.cp)
			copy(grownFG, l.fg)
			copy(grownBG, l.bg)
			copy(grownAttrs, l.attrs)
			l.cp, l.fg, l.bg, l.attrs = grownCP, grownFG, grownBG, grownAttrs
		}
		for i := c.rows * c.columns; i < need; i++ {
			l.cp[i] = Blank
			l.fg[i] = UnsetColor
			l.bg[i] = UnsetColor
		}
	}
	c.rows = n
	if c.caret.Row >= c.rows {
		c.caret.Row = c.rows - 1
	}
}

// Get returns the cell quadruple for a layer; out-of-range returns blank.
func (c *Canvas) Get(layer, row, col int) Cell {
	if layer < 0 || layer >= len(c.layers) || !c.inBounds(row, col) {
		return blankCell
	}
	return c.layers[layer].cellAt(c.idx(row, col))
}

// Set writes a layer's cell. Row growth is automatic. Out-of-range column
// or layer indices are a silent no-op per the validation failure model.
func (c *Canvas) Set(layer, row, col int, cp Codepoint, colors ...ColorIndex) {
	if layer < 0 || layer >= len(c.layers) || col < 0 || col >= c.columns || row < 0 {
		return
	}
	c.preMutate()
	c.EnsureRows(row + 1)
	l := c.layers[layer]
	i := c.idx(row, col)
	l.cp[i] = cp
	if len(colors) > 0 {
		l.fg[i] = colors[0]
	}
	if len(colors) > 1 {
		l.bg[i] = colors[1]
	}
	if len(colors) > 2 {
		l.attrs[i] = Attr(colors[2])
	}
	c.bump()
}

// SetAttrs sets fg, bg and attrs explicitly for a cell.
func (c *Canvas) SetAttrs(layer, row, col int, cp Codepoint, fg, bg ColorIndex, attrs Attr) {
	if layer < 0 || layer >= len(c.layers) || col < 0 || col >= c.columns || row < 0 {
		return
	}
	c.preMutate()
	c.EnsureRows(row + 1)
	l := c.layers[layer]
	i := c.idx(row, col)
	l.cp[i], l.fg[i], l.bg[i], l.attrs[i] = cp, fg, bg, attrs
	c.bump()
}

// ClearLayerStyle resets fg/bg/attrs of a cell to unset/zero, keeping cp.
func (c *Canvas) ClearLayerStyle(layer, row, col int) {
	if layer < 0 || layer >= len(c.layers) || !c.inBounds(row, col) {
		return
	}
	c.preMutate()
	l := c.layers[layer]
	i := c.idx(row, col)
	l.fg[i], l.bg[i], l.attrs[i] = UnsetColor, UnsetColor, 0
	c.bump()
}

// ClearLayer fills an entire layer with cp and resets fg/bg/attrs.
func (c *Canvas) ClearLayer(layer int, cp Codepoint) {
	if layer < 0 || layer >= len(c.layers) {
		return
	}
	c.preMutate()
	l := c.layers[layer]
	for i := range l.cp {
		l.cp[i] = cp
		l.fg[i] = UnsetColor
		l.bg[i] = UnsetColor
		l.attrs[i] = 0
	}
	c.bump()
}

// FillLayer fills an entire layer with the given cell values.
func (c *Canvas) FillLayer(layer int, cp Codepoint, fg, bg ColorIndex, attrs Attr) {
	if layer < 0 || layer >= len(c.layers) {
		return
	}
	c.preMutate()
	l := c.layers[layer]
	for i := range l.cp {
		l.cp[i] = cp
		l.fg[i] = fg
		l.bg[i] = bg
		l.attrs[i] = attrs
	}
	c.bump()
}

// Composite returns the rendered cell for (row,col): two independent
// top-down searches over the layers, one for glyph+fg+attrs, one for bg.
func (c *Canvas) Composite(row, col int) Cell {
	if !c.inBounds(row, col) {
		return blankCell
	}
	i := c.idx(row, col)
	out := blankCell
	haveGlyph, haveBG := false, false
	for li := len(c.layers) - 1; li >= 0; li-- {
		l := c.layers[li]
		if !l.Visible {
			continue
		}
		if !haveGlyph && l.cp[i] != Blank {
			out.CP = l.cp[i]
			out.FG = l.fg[i]
			out.Attrs = l.attrs[i]
			haveGlyph = true
		}
		if !haveBG && l.bg[i] != UnsetColor {
			out.BG = l.bg[i]
			haveBG = true
		}
		if haveGlyph && haveBG {
			break
		}
	}
	return out
}

// Geometry is the renderer-facing {columns, rows, revision} record (§6).
type Geometry struct {
	Columns, Rows int
	Revision      uint64
}

func (c *Canvas) Geometry() Geometry {
	return Geometry{Columns: c.columns, Rows: c.rows, Revision: c.revision}
}

// --- Layer management (supplemented from original_source/canvas.cpp) ---

func (c *Canvas) LayerName(i int) string {
	if i < 0 || i >= len(c.layers) {
		return ""
	}
	return c.layers[i].Name
}

func (c *Canvas) SetLayerName(i int, name string) {
	if i < 0 || i >= len(c.layers) {
		return
	}
	c.layers[i].Name = name
}

func (c *Canvas) IsLayerVisible(i int) bool {
	if i < 0 || i >= len(c.layers) {
		return false
	}
	return c.layers[i].Visible
}

func (c *Canvas) SetLayerVisible(i int, visible bool) {
	if i < 0 || i >= len(c.layers) {
		return
	}
	c.preMutate()
	c.layers[i].Visible = visible
	c.bump()
}

// AddLayer appends a new layer on top and makes it active. An empty name
// is replaced with "Layer N".
func (c *Canvas) AddLayer(name string) int {
	c.preMutate()
	if name == "" {
		name = fmt.Sprintf("Layer %d", len(c.layers)+1)
	}
	c.layers = append(c.layers, newLayer(name, c.columns, c.rows))
	c.activeLayer = len(c.layers) - 1
	c.bump()
	return c.activeLayer
}

// RemoveLayer refuses to remove the last remaining layer.
func (c *Canvas) RemoveLayer(i int) bool {
	if i < 0 || i >= len(c.layers) || len(c.layers) <= 1 {
		return false
	}
	c.preMutate()
	c.layers = append(c.layers[:i], c.layers[i+1:]...)
	if c.activeLayer >= len(c.layers) {
		c.activeLayer = len(c.layers) - 1
	} else if c.activeLayer > i {
		c.activeLayer--
	}
	c.bump()
	return true
}

func (c *Canvas) SetActiveLayerIndex(i int) {
	if i < 0 || i >= len(c.layers) {
		return
	}
	c.activeLayer = i
}

// MoveLayer relocates the layer at `from` to `to`, adjusting the active
// index so the same logical layer stays selected.
func (c *Canvas) MoveLayer(from, to int) bool {
	n := len(c.layers)
	if from < 0 || from >= n || to < 0 || to >= n || from == to {
		return false
	}
	c.preMutate()
	l := c.layers[from]
	c.layers = append(c.layers[:from], c.layers[from+1:]...)
	c.layers = append(c.layers[:to], append([]*Layer{l}, c.layers[to:]...)...)
	switch {
	case c.activeLayer == from:
		c.activeLayer = to
	case from < c.activeLayer && c.activeLayer <= to:
		c.activeLayer--
	case to <= c.activeLayer && c.activeLayer < from:
		c.activeLayer++
	}
	c.bump()
	return true
}

func (c *Canvas) MoveLayerUp(i int) bool   { return c.MoveLayer(i, i+1) }
func (c *Canvas) MoveLayerDown(i int) bool { return c.MoveLayer(i, i-1) }

// --- caret & text queue (§6 "to input") ---

// QueueText enqueues a decoded codepoint for the active tool to consume.
func (c *Canvas) QueueText(cp rune) {
	c.typed = append(c.typed, cp)
}

// TakeTypedCodepoints drains and returns the queued text input.
func (c *Canvas) TakeTypedCodepoints() []rune {
	out := c.typed
	c.typed = nil
	return out
}

// SetCaret moves the caret, clamped to canvas bounds.
func (c *Canvas) SetCaret(row, col int) {
	c.caret.Row = clamp(row, 0, c.rows-1)
	c.caret.Col = clamp(col, 0, c.columns-1)
}

// KeyEvent is a decoded key the input surface hands to ApplyKey.
type KeyEvent struct {
	Rune    rune
	Special string // "Up","Down","Left","Right","Home","End", etc.
}

// ApplyKey moves the caret for navigation keys; anything else is ignored
// by the canvas itself and left for the active tool.
func (c *Canvas) ApplyKey(ev KeyEvent) {
	switch ev.Special {
	case "Up":
		c.SetCaret(c.caret.Row-1, c.caret.Col)
	case "Down":
		c.SetCaret(c.caret.Row+1, c.caret.Col)
	case "Left":
		c.SetCaret(c.caret.Row, c.caret.Col-1)
	case "Right":
		c.SetCaret(c.caret.Row, c.caret.Col+1)
	case "Home":
		c.SetCaret(c.caret.Row, 0)
	case "End":
		c.SetCaret(c.caret.Row, c.columns-1)
	}
}

// --- external-mutation scope (§4.B "batched external mutations") ---

// BeginExternalMutation opens a scope that defers the revision bump to a
// single increment at scope close. Undo semantics are unaffected.
func (c *Canvas) BeginExternalMutation() {
	c.inExternal = true
	c.externalBump = false
}

func (c *Canvas) EndExternalMutation() {
	c.inExternal = false
	if c.externalBump {
		c.revision++
		c.externalBump = false
	}
}

// SetColumns resizes the canvas, preserving the intersection of old and
// new rectangles per-row; new cells are blank. A no-op if unchanged.
func (c *Canvas) SetColumns(columns int) {
	columns = clamp(columns, MinColumns, MaxColumns)
	if columns == c.columns {
		return
	}
	c.preMutate()
	for li, l := range c.layers {
		fresh := newLayer(l.Name, columns, c.rows)
		fresh.Visible = l.Visible
		minCols := columns
		if c.columns < minCols {
			minCols = c.columns
		}
		for row := 0; row < c.rows; row++ {
			srcBase := row * c.columns
			dstBase := row * columns
			copy(fresh.cp[dstBase:dstBase+minCols], l.cp[srcBase:srcBase+minCols])
			copy(fresh.fg[dstBase:dstBase+minCols], l.fg[srcBase:srcBase+minCols])
			copy(fresh.bg[dstBase:dstBase+minCols], l.bg[srcBase:srcBase+minCols])
			copy(fresh.attrs[dstBase:dstBase+minCols], l.attrs[srcBase:srcBase+minCols])
		}
		c.layers[li] = fresh
	}
	c.columns = columns
	if c.caret.Col >= c.columns {
		c.caret.Col = c.columns - 1
	}
	c.bump()
}

// errImportRefused classifies a snapshot the canvas refuses (§4.C failure model).
func errImportRefused(reason string) error {
	return fmt.Errorf("%w: %s", core.ErrImport, reason)
}
