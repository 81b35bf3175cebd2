package canvas

import (
	"testing"

	"github.com/fxamacker/cbor/v2"
)

func TestEncodeBeginsWithMagicAndVersion(t *testing.T) {
	c := New(8)
	data, err := c.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := []byte{'U', '8', 'P', 'Z', 1, 0, 0, 0}
	for i, b := range want {
		if data[i] != b {
			t.Fatalf("byte %d: got %#x want %#x", i, data[i], b)
		}
	}
}

func TestCodecRoundTripAcrossUndo(t *testing.T) {
	c := New(80)
	c.BeginUndoCapture()
	c.Set(0, 0, 0, 'X')
	c.EndUndoCapture()

	data, err := c.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	fresh := New(1)
	if err := fresh.Decode(data, nil); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if fresh.Get(0, 0, 0).CP != 'X' {
		t.Fatalf("decoded canvas missing written cell")
	}
	if fresh.UndoDepth() != 1 {
		t.Fatalf("want undo depth 1 after decode, got %d", fresh.UndoDepth())
	}
	if !fresh.Undo() {
		t.Fatalf("undo should succeed on decoded canvas")
	}
	if fresh.Get(0, 0, 0).CP != Blank {
		t.Fatalf("undo on decoded canvas should restore blank cell")
	}
}

func TestDecodeWithoutMagicIsRawCBOR(t *testing.T) {
	c := New(4)
	c.Set(0, 0, 0, 'R')
	doc := wireDocument{
		Magic:     cborMagic,
		Version:   wireVersion,
		UndoLimit: 256,
		Current:   toWireSnapshot(c.MakeSnapshot()),
	}
	raw, err := cbor.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	fresh := New(1)
	if err := fresh.Decode(raw, nil); err != nil {
		t.Fatalf("decode raw cbor: %v", err)
	}
	if fresh.Get(0, 0, 0).CP != 'R' {
		t.Fatalf("raw cbor round trip lost content")
	}
}
