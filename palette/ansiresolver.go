package palette

import (
	"github.com/phosphor-art/phosphor/canvas"
)

// AnsiResolver adapts Ops+Registry to ansiimport.ColorResolver, resolving
// ANSI-16 indices, xterm256 indices, true-color triples, and legacy
// packed colors against one fixed palette instance.
type AnsiResolver struct {
	Ops *Ops
	Pal InstanceID
}

func (a AnsiResolver) FromAnsi16(idx int) canvas.ColorIndex {
	idx = clampIdx(idx)
	return canvas.ColorIndex(idx)
}

func (a AnsiResolver) FromXterm256(idx int) canvas.ColorIndex {
	return canvas.ColorIndex(clampIdx(idx))
}

func (a AnsiResolver) FromTrueColor(r, g, b uint8) canvas.ColorIndex {
	return canvas.ColorIndex(a.Ops.NearestIndex(a.Pal, r, g, b, DefaultPolicy))
}

func (a AnsiResolver) FromPacked(argb uint32) canvas.ColorIndex {
	idx := a.Ops.Color32ToIndex(a.Pal, argb, DefaultPolicy)
	if idx == Unset {
		return canvas.UnsetColor
	}
	return canvas.ColorIndex(idx)
}

func clampIdx(idx int) int {
	if idx < 0 {
		return 0
	}
	if idx > 255 {
		return 255
	}
	return idx
}
