package palette

import "testing"

func TestXterm256NearestIndexAcceptedSets(t *testing.T) {
	reg := NewRegistry()
	ops := NewOps(reg)
	x := reg.Xterm256ID()

	black := ops.NearestIndex(x, 0, 0, 0, DefaultPolicy)
	if black != 16 && black != 0 {
		t.Fatalf("black -> %d, want 16 or 0", black)
	}
	white := ops.NearestIndex(x, 255, 255, 255, DefaultPolicy)
	if white != 15 && white != 231 {
		t.Fatalf("white -> %d, want 15 or 231", white)
	}
	gray := ops.NearestIndex(x, 128, 128, 128, DefaultPolicy)
	if gray != 244 && gray != 8 {
		t.Fatalf("mid-gray -> %d, want 244 or 8", gray)
	}
}

func TestExactMatchRoundTrip(t *testing.T) {
	reg := NewRegistry()
	ops := NewOps(reg)
	x := reg.Xterm256ID()
	p := reg.Get(x)

	for i, c := range p.RGB {
		got := ops.NearestIndex(x, c.R, c.G, c.B, DefaultPolicy)
		if int(got) != i {
			// Duplicate RGB entries (e.g. 0 and 16, 15 and 231) legitimately
			// resolve to whichever duplicate the projection picks, not necessarily i.
			if dist2(c, p.RGB[got]) != 0 {
				t.Fatalf("entry %d: quantizing its own RGB gave %d with different color", i, got)
			}
		}
	}
}

func TestMemoCacheDoesNotAlterResults(t *testing.T) {
	reg := NewRegistry()
	custom := NewPalette([]Rgb{{10, 20, 30}, {200, 100, 50}, {0, 0, 0}})
	id := reg.Register(custom)

	withCache := NewOps(reg)
	withoutCache := NewOps(reg)
	withoutCache.cache = newLRU(0)

	for i := 0; i < 5000; i++ {
		r, g, b := uint8(i%251), uint8((i*7)%251), uint8((i*13)%251)
		a := withCache.NearestIndex(id, r, g, b, DefaultPolicy)
		b2 := withoutCache.NearestIndex(id, r, g, b, DefaultPolicy)
		if a != b2 {
			t.Fatalf("cache changed result at (%d,%d,%d): %d vs %d", r, g, b, a, b2)
		}
	}
}

func TestColor32RoundTripUnset(t *testing.T) {
	reg := NewRegistry()
	ops := NewOps(reg)
	x := reg.Xterm256ID()

	if idx := ops.Color32ToIndex(x, 0, DefaultPolicy); idx != Unset {
		t.Fatalf("A=0 must decode to Unset, got %d", idx)
	}
	if c := ops.IndexToColor32(x, Unset); c != 0 {
		t.Fatalf("Unset index must encode to 0, got %#x", c)
	}
}
