package ansiimport

import (
	"testing"

	"github.com/phosphor-art/phosphor/canvas"
)

// plainResolver maps ANSI-16/xterm256 indices directly (matches the
// builtin palette's layout where indices 0-15 are the ANSI base colors)
// and true-color/packed triples to a synthetic sentinel, sufficient for
// exercising the importer's state machine without depending on palette.
type plainResolver struct{}

func (plainResolver) FromAnsi16(idx int) canvas.ColorIndex    { return canvas.ColorIndex(idx) }
func (plainResolver) FromXterm256(idx int) canvas.ColorIndex  { return canvas.ColorIndex(idx) }
func (plainResolver) FromTrueColor(r, g, b uint8) canvas.ColorIndex {
	return canvas.ColorIndex(int(r) + int(g) + int(b))
}
func (plainResolver) FromPacked(argb uint32) canvas.ColorIndex { return canvas.ColorIndex(argb % 256) }

func TestMinimalAnsiRoundTrip(t *testing.T) {
	// ESC[31mAB
	data := []byte{0x1B, '[', '3', '1', 'm', 'A', 'B'}
	snap, err := Import(data, Options{Columns: 80}, plainResolver{})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if snap.Columns != 80 || snap.Rows != 1 {
		t.Fatalf("want 80x1, got %dx%d", snap.Columns, snap.Rows)
	}
	l := snap.Layers[0]
	if l.Cells[0] != 'A' || l.FG[0] != 1 || l.BG[0] != 0 {
		t.Fatalf("cell 0: cp=%q fg=%d bg=%d", l.Cells[0], l.FG[0], l.BG[0])
	}
	if l.Cells[1] != 'B' || l.FG[1] != 1 || l.BG[1] != 0 {
		t.Fatalf("cell 1: cp=%q fg=%d bg=%d", l.Cells[1], l.FG[1], l.BG[1])
	}
}

func TestCSIPositionAndErase(t *testing.T) {
	// ESC[2;3H X ESC[2J
	data := []byte{0x1B, '[', '2', ';', '3', 'H', 'X', 0x1B, '[', '2', 'J'}
	snap, err := Import(data, Options{Columns: 80}, plainResolver{})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if snap.Rows != 1 {
		t.Fatalf("want 1 row after erase collapse, got %d", snap.Rows)
	}
	l := snap.Layers[0]
	for i, cp := range l.Cells {
		if cp != ' ' {
			t.Fatalf("cell %d not blank after ESC[2J: %q", i, cp)
		}
	}
}

func TestSauceColumnsOverride(t *testing.T) {
	data := make([]byte, 128)
	copy(data, []byte("SAUCE"))
	data[92] = 132 // little-endian low byte of TInfo1
	data[93] = 0
	data[94] = 50
	data[95] = 0

	snap, err := Import(data, Options{Columns: -1}, plainResolver{})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if snap.Columns != 132 {
		t.Fatalf("want columns 132 from SAUCE, got %d", snap.Columns)
	}
	if snap.Rows != 1 {
		t.Fatalf("want rows 1 (content-driven, not SAUCE), got %d", snap.Rows)
	}
}

func TestICEColorsBlinkBump(t *testing.T) {
	// ESC[5;44m<space>
	data := []byte{0x1B, '[', '5', ';', '4', '4', 'm', ' '}
	snap, err := Import(data, Options{Columns: 80, ICEColors: true}, plainResolver{})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if got := snap.Layers[0].BG[0]; got != 12 {
		t.Fatalf("icecolors bg = %d, want 12", got)
	}
}

func TestEagerWrapAdvancesRowAtColumnBoundary(t *testing.T) {
	data := []byte("ABC") // 2-column canvas: eager wrap after 'B'
	snap, err := Import(data, Options{Columns: 2}, plainResolver{})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if snap.Rows != 2 {
		t.Fatalf("want 2 rows from eager wrap, got %d", snap.Rows)
	}
	if snap.Layers[0].Cells[2] != 'C' {
		t.Fatalf("want 'C' wrapped onto row 1 col 0, got %q", snap.Layers[0].Cells[2])
	}
}

func TestPutOnlyClampsInsteadOfWrapping(t *testing.T) {
	data := []byte("ABC")
	snap, err := Import(data, Options{Columns: 2, WrapPolicy: WrapPutOnly}, plainResolver{})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if snap.Rows != 1 {
		t.Fatalf("put-only must not advance rows, got %d rows", snap.Rows)
	}
	if snap.Layers[0].Cells[1] != 'C' {
		t.Fatalf("want 'C' to overwrite the last column, got %q", snap.Layers[0].Cells[1])
	}
}

func TestCursorPositionRowClampedToCanvasRectangle(t *testing.T) {
	// ESC[999999999;1H then one printable byte: row must clamp, not balloon.
	data := []byte("\x1b[999999999;1HX")
	snap, err := Import(data, Options{Columns: 10}, plainResolver{})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if snap.Rows != canvas.MaxRows {
		t.Fatalf("rows = %d, want clamped to canvas.MaxRows (%d)", snap.Rows, canvas.MaxRows)
	}
}

func TestCleanASCIIWithoutCSI(t *testing.T) {
	data := []byte("hello")
	snap, err := Import(data, Options{Columns: 80}, plainResolver{})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	for i, r := range "hello" {
		if snap.Layers[0].Cells[i] != r {
			t.Fatalf("cell %d = %q, want %q", i, snap.Layers[0].Cells[i], r)
		}
	}
}
