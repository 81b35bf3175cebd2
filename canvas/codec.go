package canvas

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"github.com/phosphor-art/phosphor/core"
)

// Wire format (§4.B): 4-byte magic "U8PZ", 4-byte LE version, 8-byte LE
// uncompressed length, then a zstd-compressed CBOR payload.
var wireMagic = [4]byte{'U', '8', 'P', 'Z'}

const wireVersion = 1

// wireLayer/wireSnapshot/wireDocument mirror the CBOR object shape from
// §4.B exactly, including cbor field names.
type wireLayer struct {
	Name    string   `cbor:"name"`
	Visible bool     `cbor:"visible"`
	Cells   []uint32 `cbor:"cells"`
	FG      []uint16 `cbor:"fg"`
	BG      []uint16 `cbor:"bg"`
	Attrs   []uint8  `cbor:"attrs,omitempty"`

	// Legacy project files may carry packed ABGR colors instead of
	// palette indices (spec.md §9 Open Question). When present and FG/BG
	// are absent, these are decoded via color32_to_index at load time.
	FGColor32 []uint32 `cbor:"fg_color32,omitempty"`
	BGColor32 []uint32 `cbor:"bg_color32,omitempty"`
}

type wireSnapshot struct {
	Columns     int         `cbor:"columns"`
	Rows        int         `cbor:"rows"`
	ActiveLayer int         `cbor:"active_layer"`
	CaretRow    int         `cbor:"caret_row"`
	CaretCol    int         `cbor:"caret_col"`
	Layers      []wireLayer `cbor:"layers"`
}

type wireDocument struct {
	Magic     string         `cbor:"magic"`
	Version   int            `cbor:"version"`
	UndoLimit int            `cbor:"undo_limit"`
	Current   wireSnapshot   `cbor:"current"`
	Undo      []wireSnapshot `cbor:"undo"`
	Redo      []wireSnapshot `cbor:"redo"`
}

const cborMagic = "utf8-art-editor"

// Quantizer resolves a legacy packed ABGR color to a palette index, used
// only when decoding project files that predate index-typed colors.
type Quantizer interface {
	Color32ToIndex(packed uint32) ColorIndex
}

func toWireSnapshot(s Snapshot) wireSnapshot {
	ws := wireSnapshot{
		Columns: s.Columns, Rows: s.Rows, ActiveLayer: s.ActiveLayer,
		CaretRow: s.CaretRow, CaretCol: s.CaretCol,
		Layers: make([]wireLayer, len(s.Layers)),
	}
	for i, l := range s.Layers {
		wl := wireLayer{Name: l.Name, Visible: l.Visible}
		wl.Cells = make([]uint32, len(l.Cells))
		for j, cp := range l.Cells {
			wl.Cells[j] = uint32(cp)
		}
		wl.FG = make([]uint16, len(l.FG))
		for j, v := range l.FG {
			wl.FG[j] = uint16(v)
		}
		wl.BG = make([]uint16, len(l.BG))
		for j, v := range l.BG {
			wl.BG[j] = uint16(v)
		}
		wl.Attrs = make([]uint8, len(l.Attrs))
		for j, v := range l.Attrs {
			wl.Attrs[j] = uint8(v)
		}
		ws.Layers[i] = wl
	}
	return ws
}

func fromWireSnapshot(ws wireSnapshot, q Quantizer) (Snapshot, error) {
	s := Snapshot{
		Columns: ws.Columns, Rows: ws.Rows, ActiveLayer: ws.ActiveLayer,
		CaretRow: ws.CaretRow, CaretCol: ws.CaretCol,
		Layers: make([]SnapLayer, len(ws.Layers)),
	}
	for i, wl := range ws.Layers {
		n := len(wl.Cells)
		sl := SnapLayer{Name: wl.Name, Visible: wl.Visible}
		sl.Cells = make([]Codepoint, n)
		for j, cp := range wl.Cells {
			sl.Cells[j] = Codepoint(cp)
		}

		switch {
		case len(wl.FG) > 0:
			if len(wl.FG) != n {
				return Snapshot{}, codecErr("fg length mismatch")
			}
			sl.FG = make([]ColorIndex, n)
			for j, v := range wl.FG {
				sl.FG[j] = ColorIndex(v)
			}
		case len(wl.FGColor32) == n && q != nil:
			sl.FG = make([]ColorIndex, n)
			for j, v := range wl.FGColor32 {
				sl.FG[j] = q.Color32ToIndex(v)
			}
		default:
			sl.FG = make([]ColorIndex, n)
			for j := range sl.FG {
				sl.FG[j] = UnsetColor
			}
		}

		switch {
		case len(wl.BG) > 0:
			if len(wl.BG) != n {
				return Snapshot{}, codecErr("bg length mismatch")
			}
			sl.BG = make([]ColorIndex, n)
			for j, v := range wl.BG {
				sl.BG[j] = ColorIndex(v)
			}
		case len(wl.BGColor32) == n && q != nil:
			sl.BG = make([]ColorIndex, n)
			for j, v := range wl.BGColor32 {
				sl.BG[j] = q.Color32ToIndex(v)
			}
		default:
			sl.BG = make([]ColorIndex, n)
			for j := range sl.BG {
				sl.BG[j] = UnsetColor
			}
		}

		if len(wl.Attrs) > 0 {
			if len(wl.Attrs) != n {
				return Snapshot{}, codecErr("attrs length mismatch")
			}
			sl.Attrs = make([]Attr, n)
			for j, v := range wl.Attrs {
				sl.Attrs[j] = Attr(v)
			}
		} else {
			sl.Attrs = make([]Attr, n)
		}

		s.Layers[i] = sl
	}
	return s, nil
}

func codecErr(msg string) error {
	return fmt.Errorf("%w: %s", core.ErrCodec, msg)
}

// Encode serializes the canvas's current state plus its undo/redo history
// into the §4.B wire format.
func (c *Canvas) Encode() ([]byte, error) {
	doc := wireDocument{
		Magic:     cborMagic,
		Version:   wireVersion,
		UndoLimit: c.undo.capacity,
		Current:   toWireSnapshot(c.MakeSnapshot()),
	}
	doc.Undo = make([]wireSnapshot, len(c.undo.undoStack))
	for i, s := range c.undo.undoStack {
		doc.Undo[i] = toWireSnapshot(s)
	}
	doc.Redo = make([]wireSnapshot, len(c.undo.redoStack))
	for i, s := range c.undo.redoStack {
		doc.Redo[i] = toWireSnapshot(s)
	}

	payload, err := cbor.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "cbor encode")
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, errors.Wrap(err, "zstd writer")
	}
	compressed := enc.EncodeAll(payload, nil)
	_ = enc.Close()

	var buf bytes.Buffer
	buf.Write(wireMagic[:])
	binary.Write(&buf, binary.LittleEndian, uint32(wireVersion))
	binary.Write(&buf, binary.LittleEndian, uint64(len(payload)))
	buf.Write(compressed)
	return buf.Bytes(), nil
}

// Decode parses the §4.B wire format, or (for backward compatibility)
// raw uncompressed CBOR when the magic is absent, replacing the receiver's
// state in place. q resolves legacy packed-color fields if present.
func (c *Canvas) Decode(data []byte, q Quantizer) error {
	var payload []byte

	if len(data) >= 4 && bytes.Equal(data[:4], wireMagic[:]) {
		if len(data) < 16 {
			return codecErr("truncated header")
		}
		version := binary.LittleEndian.Uint32(data[4:8])
		if version != wireVersion {
			return fmt.Errorf("%w: unsupported version %d", core.ErrCodec, version)
		}
		uncompressedLen := binary.LittleEndian.Uint64(data[8:16])
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return errors.Wrap(err, "zstd reader")
		}
		defer dec.Close()
		payload, err = dec.DecodeAll(data[16:], make([]byte, 0, uncompressedLen))
		if err != nil {
			return fmt.Errorf("%w: zstd: %v", core.ErrCodec, err)
		}
	} else {
		payload = data
	}

	var doc wireDocument
	if err := cbor.Unmarshal(payload, &doc); err != nil {
		return fmt.Errorf("%w: cbor: %v", core.ErrCodec, err)
	}

	cur, err := fromWireSnapshot(doc.Current, q)
	if err != nil {
		return err
	}
	undoStack := make([]Snapshot, len(doc.Undo))
	for i, ws := range doc.Undo {
		if undoStack[i], err = fromWireSnapshot(ws, q); err != nil {
			return err
		}
	}
	redoStack := make([]Snapshot, len(doc.Redo))
	for i, ws := range doc.Redo {
		if redoStack[i], err = fromWireSnapshot(ws, q); err != nil {
			return err
		}
	}

	limit := doc.UndoLimit
	if limit <= 0 {
		limit = 256
	}

	c.ApplySnapshot(cur)
	c.EnsureRows(c.rows)
	c.undo = undoRing{capacity: limit, undoStack: undoStack, redoStack: redoStack}
	return nil
}
