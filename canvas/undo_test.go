package canvas

import "testing"

func TestUndoRedoRestoresPreciseState(t *testing.T) {
	c := New(8)
	c.BeginUndoCapture()
	c.Set(0, 0, 0, 'X')
	c.Set(0, 0, 1, 'Y')
	c.EndUndoCapture()

	if c.UndoDepth() != 1 {
		t.Fatalf("want 1 undo entry, got %d", c.UndoDepth())
	}
	if !c.Undo() {
		t.Fatalf("undo should have succeeded")
	}
	if c.Get(0, 0, 0).CP != Blank {
		t.Fatalf("undo did not restore pre-scope state")
	}
	if !c.Redo() {
		t.Fatalf("redo should have succeeded")
	}
	if c.Get(0, 0, 0).CP != 'X' {
		t.Fatalf("redo did not restore post-scope state")
	}
}

func TestNonMutatingScopePushesNothing(t *testing.T) {
	c := New(8)
	c.BeginUndoCapture()
	c.EndUndoCapture()
	if c.UndoDepth() != 0 {
		t.Fatalf("non-mutating scope must not push an undo entry")
	}
}

func TestMutationClearsRedo(t *testing.T) {
	c := New(8)
	c.BeginUndoCapture()
	c.Set(0, 0, 0, 'A')
	c.EndUndoCapture()
	c.Undo()
	if !c.CanRedo() {
		t.Fatalf("expected redo available after undo")
	}
	c.BeginUndoCapture()
	c.Set(0, 0, 0, 'B')
	c.EndUndoCapture()
	if c.CanRedo() {
		t.Fatalf("a fresh mutation must clear the redo stack")
	}
}

func TestApplySnapshotClampsOversizedGeometry(t *testing.T) {
	c := New(8)
	s := c.MakeSnapshot()
	s.Rows = MaxRows + 500
	s.Columns = MaxColumns + 500
	c.ApplySnapshot(s)
	if c.Rows() != MaxRows {
		t.Fatalf("rows = %d, want clamped to %d", c.Rows(), MaxRows)
	}
	if c.Columns() != MaxColumns {
		t.Fatalf("columns = %d, want clamped to %d", c.Columns(), MaxColumns)
	}
}

func TestUndoCapacityEviction(t *testing.T) {
	c := New(8)
	c.SetUndoCapacity(3)
	for i := 0; i < 5; i++ {
		c.BeginUndoCapture()
		c.Set(0, 0, 0, rune('A'+i))
		c.EndUndoCapture()
	}
	if c.UndoDepth() != 3 {
		t.Fatalf("want capped at 3 entries, got %d", c.UndoDepth())
	}
}
