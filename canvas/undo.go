package canvas

// Snapshot is a value-semantic deep copy of a canvas's mutable state, used
// by undo/redo and by the project codec.
type Snapshot struct {
	Columns, Rows int
	ActiveLayer   int
	CaretRow      int
	CaretCol      int
	Layers        []SnapLayer
}

// SnapLayer is the serializable form of a Layer.
type SnapLayer struct {
	Name    string
	Visible bool
	Cells   []Codepoint
	FG      []ColorIndex
	BG      []ColorIndex
	Attrs   []Attr
}

// MakeSnapshot deep-copies the canvas's current mutable state.
func (c *Canvas) MakeSnapshot() Snapshot {
	s := Snapshot{
		Columns:     c.columns,
		Rows:        c.rows,
		ActiveLayer: c.activeLayer,
		CaretRow:    c.caret.Row,
		CaretCol:    c.caret.Col,
		Layers:      make([]SnapLayer, len(c.layers)),
	}
	for i, l := range c.layers {
		s.Layers[i] = SnapLayer{
			Name:    l.Name,
			Visible: l.Visible,
			Cells:   append([]Codepoint(nil), l.cp...),
			FG:      append([]ColorIndex(nil), l.fg...),
			BG:      append([]ColorIndex(nil), l.bg...),
			Attrs:   append([]Attr(nil), l.attrs...),
		}
	}
	return s
}

// ApplySnapshot replaces the canvas's mutable state with s. Undo
// dirty-tracking is suppressed while applying.
func (c *Canvas) ApplySnapshot(s Snapshot) {
	c.applying = true
	defer func() { c.applying = false }()

	srcColumns, srcRows := s.Columns, s.Rows
	if srcColumns < 1 {
		srcColumns = 1
	}
	if srcRows < 1 {
		srcRows = 1
	}

	c.columns = clamp(s.Columns, MinColumns, MaxColumns)
	c.rows = clamp(s.Rows, MinRows, MaxRows)
	c.activeLayer = s.ActiveLayer
	c.caret = Caret{Row: s.CaretRow, Col: s.CaretCol}

	// A snapshot whose geometry exceeds the canvas's bounds (a crafted
	// project file, or a malformed import) must not desync the layer
	// arrays' stride from c.columns: rebuild at the clamped rectangle,
	// copying row-by-row the same way SetColumns does.
	minCols := c.columns
	if srcColumns < minCols {
		minCols = srcColumns
	}
	minRows := c.rows
	if srcRows < minRows {
		minRows = srcRows
	}

	c.layers = make([]*Layer, len(s.Layers))
	for i, sl := range s.Layers {
		fresh := newLayer(sl.Name, c.columns, c.rows)
		fresh.Visible = sl.Visible
		for row := 0; row < minRows; row++ {
			srcBase := row * srcColumns
			dstBase := row * c.columns
			if srcBase+minCols > len(sl.Cells) {
				break
			}
			copy(fresh.cp[dstBase:dstBase+minCols], sl.Cells[srcBase:srcBase+minCols])
			copy(fresh.fg[dstBase:dstBase+minCols], sl.FG[srcBase:srcBase+minCols])
			copy(fresh.bg[dstBase:dstBase+minCols], sl.BG[srcBase:srcBase+minCols])
			copy(fresh.attrs[dstBase:dstBase+minCols], sl.Attrs[srcBase:srcBase+minCols])
		}
		c.layers[i] = fresh
	}
	if len(c.layers) == 0 {
		c.layers = []*Layer{newLayer("Base", c.columns, c.rows)}
	}
	if c.activeLayer < 0 || c.activeLayer >= len(c.layers) {
		c.activeLayer = 0
	}
	c.caret.Row = clamp(c.caret.Row, 0, c.rows-1)
	c.caret.Col = clamp(c.caret.Col, 0, c.columns-1)
	c.inCapture = false
	c.captureDirty = false
	c.inExternal = false
	c.externalBump = false
	c.typed = nil
	c.revision++
}

// undoRing is a pair of bounded stacks sharing one capacity.
type undoRing struct {
	capacity   int
	undoStack  []Snapshot
	redoStack  []Snapshot
}

func newUndoRing(capacity int) undoRing {
	return undoRing{capacity: capacity}
}

func (r *undoRing) pushUndo(s Snapshot) {
	r.undoStack = append(r.undoStack, s)
	if len(r.undoStack) > r.capacity {
		r.undoStack = r.undoStack[len(r.undoStack)-r.capacity:]
	}
	r.redoStack = nil
}

// --- capture scopes (§4.B "undo/redo discipline") ---

// BeginUndoCapture opens a capture scope, marking it clean. The first
// mutation inside the scope snapshots the pre-state lazily.
func (c *Canvas) BeginUndoCapture() {
	c.inCapture = true
	c.captureDirty = false
}

// preMutate is called by every mutating canvas method. It takes the
// pre-mutation snapshot the first time a capture scope goes dirty.
func (c *Canvas) preMutate() {
	if c.applying || !c.inCapture || c.captureDirty {
		return
	}
	c.captureSnap = c.MakeSnapshot()
	c.captureDirty = true
}

// EndUndoCapture closes the scope: if dirty, the pre-state snapshot is
// pushed onto undo (evicting the oldest past capacity) and redo is cleared.
func (c *Canvas) EndUndoCapture() {
	if c.inCapture && c.captureDirty {
		c.undo.pushUndo(c.captureSnap)
	}
	c.inCapture = false
	c.captureDirty = false
}

// PrepareUndoSnapshot is the public form of preMutate for callers (tools,
// importers) that mutate the canvas directly without going through Set.
func (c *Canvas) PrepareUndoSnapshot() { c.preMutate() }

func (c *Canvas) CanUndo() bool { return len(c.undo.undoStack) > 0 }
func (c *Canvas) CanRedo() bool { return len(c.undo.redoStack) > 0 }

// Undo pops the most recent undo snapshot, pushes the current state onto
// redo, and applies the popped snapshot.
func (c *Canvas) Undo() bool {
	n := len(c.undo.undoStack)
	if n == 0 {
		return false
	}
	prev := c.undo.undoStack[n-1]
	c.undo.undoStack = c.undo.undoStack[:n-1]
	cur := c.MakeSnapshot()
	c.undo.redoStack = append(c.undo.redoStack, cur)
	c.ApplySnapshot(prev)
	return true
}

// Redo is symmetric to Undo.
func (c *Canvas) Redo() bool {
	n := len(c.undo.redoStack)
	if n == 0 {
		return false
	}
	next := c.undo.redoStack[n-1]
	c.undo.redoStack = c.undo.redoStack[:n-1]
	cur := c.MakeSnapshot()
	c.undo.undoStack = append(c.undo.undoStack, cur)
	c.ApplySnapshot(next)
	return true
}

// UndoDepth and RedoDepth expose stack lengths for tests and UI badges.
func (c *Canvas) UndoDepth() int { return len(c.undo.undoStack) }
func (c *Canvas) RedoDepth() int { return len(c.undo.redoStack) }

// UndoCapacity returns the shared stack capacity.
func (c *Canvas) UndoCapacity() int { return c.undo.capacity }

// SetUndoCapacity adjusts the shared capacity, trimming the undo stack
// if it now exceeds it.
func (c *Canvas) SetUndoCapacity(n int) {
	if n <= 0 {
		n = 256
	}
	c.undo.capacity = n
	if len(c.undo.undoStack) > n {
		c.undo.undoStack = c.undo.undoStack[len(c.undo.undoStack)-n:]
	}
}
