package canvas

import "testing"

func TestToolScopeMaskClipsWrites(t *testing.T) {
	c := New(5)
	scope := c.BeginToolScope(func(row, col int) bool { return col < 2 }, false)

	scope.Set(0, 0, 0, 'a')
	scope.Set(0, 0, 3, 'b')

	if got := c.Get(0, 0, 0).CP; got != 'a' {
		t.Fatalf("masked-in cell = %q, want 'a'", got)
	}
	if got := c.Get(0, 0, 3).CP; got != Blank {
		t.Fatalf("masked-out cell = %q, want blank", got)
	}
}

func TestToolScopeMirrorReflectsColumn(t *testing.T) {
	c := New(5)
	scope := c.BeginToolScope(nil, true)

	scope.Set(0, 0, 1, 'x')

	if got := c.Get(0, 0, 1).CP; got != 'x' {
		t.Fatalf("source cell = %q, want 'x'", got)
	}
	if got := c.Get(0, 0, 3).CP; got != 'x' {
		t.Fatalf("mirrored cell = %q, want 'x'", got)
	}
}

func TestToolScopeMirrorRespectsMaskOnReflectedSide(t *testing.T) {
	c := New(5)
	scope := c.BeginToolScope(func(row, col int) bool { return col != 3 }, true)

	scope.Set(0, 0, 1, 'y')

	if got := c.Get(0, 0, 1).CP; got != 'y' {
		t.Fatalf("source cell = %q, want 'y'", got)
	}
	if got := c.Get(0, 0, 3).CP; got != Blank {
		t.Fatalf("mirrored cell should stay masked out, got %q", got)
	}
}

func TestToolScopeMirrorCenterColumnWritesOnce(t *testing.T) {
	c := New(5)
	scope := c.BeginToolScope(nil, true)
	rev := c.Revision()

	scope.Set(0, 0, 2, 'z')

	if got := c.Get(0, 0, 2).CP; got != 'z' {
		t.Fatalf("center cell = %q, want 'z'", got)
	}
	if writes := c.Revision() - rev; writes != 1 {
		t.Fatalf("center cell written %d times, want 1", writes)
	}
}
