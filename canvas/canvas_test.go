package canvas

import "testing"

func TestNewCanvasInvariants(t *testing.T) {
	c := New(80)
	if c.Columns() != 80 || c.Rows() != 1 {
		t.Fatalf("got %dx%d, want 80x1", c.Columns(), c.Rows())
	}
	if c.LayerCount() != 1 {
		t.Fatalf("want exactly one layer at creation, got %d", c.LayerCount())
	}
	if c.ActiveLayerIndex() != 0 {
		t.Fatalf("want active layer 0, got %d", c.ActiveLayerIndex())
	}
}

func TestSetAndGetRoundTrip(t *testing.T) {
	c := New(10)
	c.SetAttrs(0, 0, 3, 'X', 1, 2, AttrBold)
	cell := c.Get(0, 0, 3)
	if cell.CP != 'X' || cell.FG != 1 || cell.BG != 2 || cell.Attrs != AttrBold {
		t.Fatalf("unexpected cell %+v", cell)
	}
}

func TestSetGrowsRowsAutomatically(t *testing.T) {
	c := New(10)
	c.Set(0, 5, 0, 'Z')
	if c.Rows() != 6 {
		t.Fatalf("want 6 rows after writing row 5, got %d", c.Rows())
	}
}

func TestRevisionStrictlyIncreases(t *testing.T) {
	c := New(10)
	rev := c.Revision()
	c.Set(0, 0, 0, 'A')
	if c.Revision() <= rev {
		t.Fatalf("revision did not increase: %d -> %d", rev, c.Revision())
	}
}

func TestOutOfRangeSetIsNoop(t *testing.T) {
	c := New(10)
	rev := c.Revision()
	c.Set(0, 0, 100, 'A')
	c.Set(5, 0, 0, 'A')
	if c.Revision() != rev {
		t.Fatalf("out-of-range set mutated canvas, revision %d -> %d", rev, c.Revision())
	}
}

func TestCompositeTwoIndependentSearches(t *testing.T) {
	c := New(4)
	c.AddLayer("Top")
	// Bottom layer supplies a background only; top layer supplies a glyph only.
	c.SetAttrs(0, 0, 0, Blank, UnsetColor, 5, 0)
	c.SetAttrs(1, 0, 0, 'Q', 3, UnsetColor, AttrItalic)

	cell := c.Composite(0, 0)
	if cell.CP != 'Q' || cell.FG != 3 || cell.BG != 5 || cell.Attrs != AttrItalic {
		t.Fatalf("composite mismatch: %+v", cell)
	}
}

func TestCompositeBlankWhenNoLayerContributes(t *testing.T) {
	c := New(4)
	cell := c.Composite(0, 0)
	if cell.CP != Blank || cell.FG != UnsetColor || cell.BG != UnsetColor {
		t.Fatalf("want blank composite, got %+v", cell)
	}
}

func TestLayerManagement(t *testing.T) {
	c := New(5)
	i := c.AddLayer("")
	if c.LayerName(i) != "Layer 2" {
		t.Fatalf("want auto-named 'Layer 2', got %q", c.LayerName(i))
	}
	if c.RemoveLayer(0) != true {
		t.Fatalf("expected removal of non-last layer to succeed")
	}
	if c.LayerCount() != 1 {
		t.Fatalf("want 1 layer left, got %d", c.LayerCount())
	}
	if c.RemoveLayer(0) {
		t.Fatalf("removing the last layer must fail")
	}
}

func TestSetColumnsPreservesIntersection(t *testing.T) {
	c := New(4)
	c.Set(0, 0, 3, 'E')
	c.SetColumns(6)
	if c.Get(0, 0, 3).CP != 'E' {
		t.Fatalf("expanding columns lost existing content")
	}
	c.SetColumns(2)
	if c.Get(0, 0, 3).CP != Blank {
		t.Fatalf("shrinking columns should drop cells outside the new rectangle")
	}
}
