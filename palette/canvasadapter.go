package palette

import "github.com/phosphor-art/phosphor/canvas"

// CanvasQuantizer adapts Ops to canvas.Quantizer, fixing the palette
// instance and policy the codec should use when decoding legacy packed
// colors into indices.
type CanvasQuantizer struct {
	Ops    *Ops
	Pal    InstanceID
	Policy QuantizePolicy
}

func (q CanvasQuantizer) Color32ToIndex(packed uint32) canvas.ColorIndex {
	policy := q.Policy
	if policy == (QuantizePolicy{}) {
		policy = DefaultPolicy
	}
	idx := q.Ops.Color32ToIndex(q.Pal, packed, policy)
	if idx == Unset {
		return canvas.UnsetColor
	}
	return canvas.ColorIndex(idx)
}
