package palette

import "github.com/lucasb-eyer/go-colorful"

// memoKey mirrors the donor's NearestMemoKey: (palette, 24-bit RGB,
// metric, tie-break flag).
type memoKey struct {
	pal    InstanceID
	u24    uint32
	metric DistanceMetric
	lowest bool
}

// Ops bundles a Registry with its own bounded LRU memo cache. Go has no
// thread-local storage; instead of a single implicit global, each owner
// (an importer, a script host) holds its own Ops so the cache still never
// crosses call sites that might race, without a shared mutex on a hot path.
type Ops struct {
	reg   *Registry
	cache *lru
}

// NewOps creates color operations bound to reg with a 16384-entry memo cache.
func NewOps(reg *Registry) *Ops {
	return &Ops{reg: reg, cache: newLRU(16384)}
}

// NearestIndex implements §4.A nearest_index: exact builtin xterm256 fast
// path, exact-24-bit-match fast path, memo cache, then brute force.
func (o *Ops) NearestIndex(pal InstanceID, r, g, b uint8, policy QuantizePolicy) Index {
	p := o.reg.Get(pal)
	if p == nil || len(p.RGB) == 0 {
		return 0
	}

	if p.Builtin == Xterm256 && policy.Distance == Rgb8SquaredEuclidean && policy.TieBreakLowestIndex {
		return nearestXterm256(p, r, g, b)
	}

	u24 := pack24(r, g, b)
	if idx, ok := p.exactU24ToIx[u24]; ok {
		return idx
	}

	key := memoKey{pal: pal, u24: u24, metric: policy.Distance, lowest: policy.TieBreakLowestIndex}
	if v, ok := o.cache.get(key); ok {
		return v
	}

	best := Index(0)
	bestD := 1 << 62
	for i, c := range p.RGB {
		d := o.distance(policy.Distance, r, g, b, c)
		if d < bestD {
			bestD, best = d, Index(i)
		}
	}
	o.cache.put(key, best)
	return best
}

func (o *Ops) distance(metric DistanceMetric, r, g, b uint8, c Rgb) int {
	if metric == LabDeltaE {
		a := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
		cc := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
		d := a.DistanceLab(cc)
		return int(d * 1e9)
	}
	return dist2(Rgb{r, g, b}, c)
}

// Color32ToIndex decodes a packed ABGR color (A in the high byte) to a
// palette index; A==0 round-trips as Unset.
func (o *Ops) Color32ToIndex(pal InstanceID, packed uint32, policy QuantizePolicy) Index {
	a := uint8(packed >> 24)
	if a == 0 {
		return Unset
	}
	b := uint8(packed >> 16)
	g := uint8(packed >> 8)
	r := uint8(packed)
	return o.NearestIndex(pal, r, g, b, policy)
}

// IndexToColor32 packs a palette index to an opaque ABGR color; Unset or
// an out-of-range index returns 0.
func (o *Ops) IndexToColor32(pal InstanceID, idx Index) uint32 {
	p := o.reg.Get(pal)
	if p == nil || idx == Unset || int(idx) >= len(p.RGB) {
		return 0
	}
	c := p.RGB[idx]
	return 0xFF000000 | uint32(c.B)<<16 | uint32(c.G)<<8 | uint32(c.R)
}

// --- bounded LRU ---

type lruNode struct {
	key        memoKey
	val        Index
	prev, next *lruNode
}

type lru struct {
	cap        int
	m          map[memoKey]*lruNode
	head, tail *lruNode // head = most recent
}

func newLRU(capacity int) *lru {
	return &lru{cap: capacity, m: make(map[memoKey]*lruNode, capacity)}
}

func (l *lru) unlink(n *lruNode) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev, n.next = nil, nil
}

func (l *lru) pushFront(n *lruNode) {
	n.next = l.head
	n.prev = nil
	if l.head != nil {
		l.head.prev = n
	}
	l.head = n
	if l.tail == nil {
		l.tail = n
	}
}

func (l *lru) get(k memoKey) (Index, bool) {
	n, ok := l.m[k]
	if !ok {
		return 0, false
	}
	l.unlink(n)
	l.pushFront(n)
	return n.val, true
}

func (l *lru) put(k memoKey, v Index) {
	if l.cap <= 0 {
		return
	}
	if n, ok := l.m[k]; ok {
		n.val = v
		l.unlink(n)
		l.pushFront(n)
		return
	}
	if len(l.m) >= l.cap && l.tail != nil {
		old := l.tail
		l.unlink(old)
		delete(l.m, old.key)
	}
	n := &lruNode{key: k, val: v}
	l.pushFront(n)
	l.m[k] = n
}
