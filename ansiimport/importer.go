// Package ansiimport parses classic ANSI/CP437 art streams (CSI state
// machine, SAUCE trailer, UTF-8/CP437 auto-detection) into a canvas
// snapshot (spec §4.C).
package ansiimport

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/phosphor-art/phosphor/canvas"
	"github.com/phosphor-art/phosphor/core"
)

const (
	byteLF  = 0x0A
	byteCR  = 0x0D
	byteTAB = 0x09
	byteSUB = 0x1A
	byteESC = 0x1B
)

// WrapPolicy selects how builder.put handles a cursor sitting past the
// last column when the next printable character arrives.
type WrapPolicy int

const (
	// WrapEager wraps to the next row before placing the character, the
	// libansilove-derived default for hand-authored ANSI art.
	WrapEager WrapPolicy = iota
	// WrapPutOnly clamps the write to the last column instead of wrapping,
	// for generators (e.g. image-to-text converters) that already emit an
	// explicit newline at the row boundary and would otherwise double-advance.
	WrapPutOnly
)

// Options configures the import (§4.C).
type Options struct {
	Columns        int  // explicit; 0/negative means "auto" (SAUCE, else 80)
	ICEColors      bool
	DefaultFG      uint32 // packed ABGR; 0 = unset
	DefaultBG      uint32
	CP437          bool // true = prefer CP437 with UTF-8 auto-switch
	DefaultBGUnset bool
	WrapPolicy     WrapPolicy
}

// ColorResolver resolves ANSI-16 and xterm256 indices, true-color triples
// and packed ABGR colors to a canvas.ColorIndex. The importer only needs
// enough of the palette package's surface to avoid a hard dependency
// cycle; it is supplied by the caller (the CLI passes palette.AnsiResolver).
type ColorResolver interface {
	FromAnsi16(idx int) canvas.ColorIndex
	FromXterm256(idx int) canvas.ColorIndex
	FromTrueColor(r, g, b uint8) canvas.ColorIndex
	FromPacked(argb uint32) canvas.ColorIndex
}

func clampColumns(n int) int {
	if n < 1 {
		return 1
	}
	if n > 4096 {
		return 4096
	}
	return n
}

func containsEsc(b []byte) bool {
	for _, c := range b {
		if c == byteESC {
			return true
		}
	}
	return false
}

// looksLikeUTF8Text implements the §4.C heuristic: requires at least one
// non-ASCII byte, then requires >=95% of attempted multi-byte decodes to
// succeed and at least 4 successes.
func looksLikeUTF8Text(b []byte) bool {
	nonASCII := 0
	ok, bad := 0, 0
	i := 0
	for i < len(b) {
		if b[i] > 0x7F {
			nonASCII++
			r, size := utf8.DecodeRune(b[i:])
			if r == utf8.RuneError && size <= 1 {
				bad++
				i++
				continue
			}
			ok++
			i += size
			continue
		}
		i++
	}
	if nonASCII == 0 {
		return false
	}
	total := ok + bad
	if total == 0 {
		return false
	}
	ratio := float64(ok) / float64(total)
	return ratio >= 0.95 && ok >= 4
}

// pen is the importer's current SGR state.
type pen struct {
	bold, blink, invert bool
	fgIdx, bgIdx        int // 16-palette index when set via 30-37/40-47 etc, else -1
	fg, bg              canvas.ColorIndex
}

func applyDefaults(opt Options, res ColorResolver, p *pen) {
	p.bold, p.blink, p.invert = false, false, false
	p.fgIdx, p.bgIdx = 7, 0
	if opt.DefaultFG != 0 {
		p.fg = res.FromPacked(opt.DefaultFG)
	} else {
		p.fg = res.FromAnsi16(7)
	}
	if opt.DefaultBG != 0 {
		p.bg = res.FromPacked(opt.DefaultBG)
	} else if opt.DefaultBGUnset {
		p.bg = canvas.UnsetColor
	} else {
		p.bg = res.FromAnsi16(0)
	}
}

func parseParams(s string) []int {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ";")
	out := make([]int, len(parts))
	for i, p := range parts {
		if p == "" {
			out[i] = 0
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			out[i] = 0
			continue
		}
		out[i] = n
	}
	return out
}

func paramOr(params []int, i, def int) int {
	if i < len(params) {
		return params[i]
	}
	return def
}

// builder accumulates one layer's worth of cells as the state machine runs.
type builder struct {
	columns     int
	wrapPolicy  WrapPolicy
	cp          []rune
	fg          []canvas.ColorIndex
	bg          []canvas.ColorIndex
	attrs       []canvas.Attr
	row, col    int
	savedRow    int
	savedCol    int
	rowMax      int
}

func newBuilder(columns int, wrapPolicy WrapPolicy) *builder {
	return &builder{columns: columns, wrapPolicy: wrapPolicy}
}

func (b *builder) idxOf(row, col int) int { return row*b.columns + col }

func (b *builder) ensureRows(n int) {
	need := n * b.columns
	for len(b.cp) < need {
		b.cp = append(b.cp, ' ')
		b.fg = append(b.fg, canvas.UnsetColor)
		b.bg = append(b.bg, canvas.UnsetColor)
		b.attrs = append(b.attrs, 0)
	}
}

func (b *builder) put(cp rune, p pen) {
	if b.col >= b.columns {
		switch b.wrapPolicy {
		case WrapPutOnly:
			b.col = b.columns - 1
		default:
			b.row++
			b.col = 0
		}
	}
	b.ensureRows(b.row + 1)
	at := b.idxOf(b.row, b.col)

	fg, bg := p.fg, p.bg
	if p.invert {
		if p.fgIdx >= 0 && p.fgIdx < 16 && p.bgIdx >= 0 && p.bgIdx < 16 {
			outBg := p.fgIdx % 8
			outFg := p.bgIdx + (p.fgIdx & 8)
			bg = canvas.ColorIndex(outBg)
			fg = canvas.ColorIndex(outFg)
		} else {
			fg, bg = bg, fg
		}
	}

	var attrs canvas.Attr
	if p.bold {
		attrs |= canvas.AttrBold
	}
	if p.blink {
		attrs |= canvas.AttrBlink
	}

	b.cp[at] = cp
	b.fg[at] = fg
	b.bg[at] = bg
	b.attrs[at] = attrs

	if b.row > b.rowMax {
		b.rowMax = b.row
	}
	b.col++
}

// Import parses data per §4.C and returns a canvas.Snapshot with a single
// "Base" layer, or an error if the produced geometry cannot be applied.
func Import(data []byte, opt Options, res ColorResolver) (canvas.Snapshot, error) {
	sauce := parseSauce(data)

	columns := opt.Columns
	if columns <= 0 {
		if sauce.Present && sauce.Columns > 0 {
			columns = sauce.Columns
		} else {
			columns = 80
		}
	}
	columns = clampColumns(columns)

	if len(data) == 0 {
		return emptySnapshot(columns), nil
	}

	decodeCP437Mode := opt.CP437
	if decodeCP437Mode && !containsEsc(data) && looksLikeUTF8Text(data) {
		decodeCP437Mode = false
	}

	b := newBuilder(columns, opt.WrapPolicy)
	var p pen
	applyDefaults(opt, res, &p)

	const (
		stateText = iota
		stateSequence
		stateEnd
	)
	state := stateText
	i := 0
	n := len(data)
	const seqMaxLen = 64

	decodeOne := func(pos int) (rune, int) {
		if decodeCP437Mode {
			return decodeCP437(data[pos]), 1
		}
		r, size := utf8.DecodeRune(data[pos:])
		if r == utf8.RuneError && size <= 1 {
			return utf8.RuneError, 1
		}
		return r, size
	}

	for i < n && state != stateEnd {
		c := data[i]

		switch state {
		case stateText:
			switch {
			case c == byteLF:
				b.row++
				b.col = 0
				i++
			case c == byteCR:
				b.col = 0
				i++
			case c == byteTAB:
				next := ((b.col / 8) + 1) * 8
				if next > b.columns {
					next = b.columns
				}
				for b.col < next {
					b.put(' ', p)
				}
				i++
			case c == byteSUB:
				state = stateEnd
				i++
			case c == byteESC && i+1 < n && data[i+1] == '[':
				state = stateSequence
				i += 2
			case c < 0x20:
				// control byte outside the recognized set: treat as space.
				b.put(' ', p)
				i++
			default:
				r, size := decodeOne(i)
				if r == utf8.RuneError && size == 1 {
					r = 0xFFFD
				}
				b.put(r, p)
				i += size
			}

		case stateSequence:
			seqStart := i
			j := i
			for j < n && j-seqStart < seqMaxLen {
				fb := data[j]
				if (fb >= 0x40 && fb <= 0x7E) || fb == '!' {
					break
				}
				j++
			}
			if j >= n || j-seqStart >= seqMaxLen {
				// truncated: abort back to Text without desync.
				state = stateText
				i = min(n, seqStart+seqMaxLen)
				continue
			}
			final := data[j]
			params := parseParams(string(data[seqStart:j]))
			applySequence(final, params, b, &p, opt, res)
			state = stateText
			i = j + 1
		}
	}

	rows := b.rowMax + 1
	if rows < 1 {
		rows = 1
	}
	b.ensureRows(rows)

	snap := canvas.Snapshot{
		Columns:     columns,
		Rows:        rows,
		ActiveLayer: 0,
		Layers: []canvas.SnapLayer{{
			Name:    "Base",
			Visible: true,
			Cells:   b.cp[:rows*columns],
			FG:      b.fg[:rows*columns],
			BG:      b.bg[:rows*columns],
			Attrs:   b.attrs[:rows*columns],
		}},
	}

	return snap, validateSnapshot(snap)
}

func emptySnapshot(columns int) canvas.Snapshot {
	n := columns
	return canvas.Snapshot{
		Columns: columns,
		Rows:    1,
		Layers: []canvas.SnapLayer{{
			Name:    "Base",
			Visible: true,
			Cells:   make([]canvas.Codepoint, n),
			FG:      makeUnsetColors(n),
			BG:      makeUnsetColors(n),
			Attrs:   make([]canvas.Attr, n),
		}},
	}
}

func makeUnsetColors(n int) []canvas.ColorIndex {
	out := make([]canvas.ColorIndex, n)
	for i := range out {
		out[i] = canvas.UnsetColor
	}
	return out
}

// validateSnapshot applies the snapshot to a throwaway empty canvas to
// confirm it is well-formed. ApplySnapshot itself reports no error, so the
// failures returned here are a snapshot with no layers and a panic raised
// while applying, which is returned as an import-geometry error.
func validateSnapshot(s canvas.Snapshot) (err error) {
	c := canvas.New(s.Columns)
	defer func() {
		if r := recover(); r != nil {
			// Applying should never panic; treat it as an import-geometry failure.
			err = fmt.Errorf("%w: %v", core.ErrImport, r)
		}
	}()
	if len(s.Layers) == 0 {
		return errors.New("import produced no layers")
	}
	c.ApplySnapshot(s)
	return nil
}

