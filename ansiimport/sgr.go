package ansiimport

import "github.com/phosphor-art/phosphor/canvas"

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// applySequence dispatches a completed CSI sequence by its final byte
// (§4.C "Commands recognized").
func applySequence(final byte, params []int, b *builder, p *pen, opt Options, res ColorResolver) {
	switch final {
	case 'H', 'f':
		row := paramOr(params, 0, 1) - 1
		col := paramOr(params, 1, 1) - 1
		b.row = clampInt(row, 0, canvas.MaxRows-1)
		b.col = clampInt(col, 0, b.columns-1)

	case 'A':
		b.row = clampInt(b.row-paramOr(params, 0, 1), 0, canvas.MaxRows-1)
	case 'B':
		b.row = clampInt(b.row+paramOr(params, 0, 1), 0, canvas.MaxRows-1)
	case 'C':
		b.col = clampInt(b.col+paramOr(params, 0, 1), 0, b.columns-1)
	case 'D':
		b.col = clampInt(b.col-paramOr(params, 0, 1), 0, b.columns-1)

	case 'G':
		b.col = clampInt(paramOr(params, 0, 1)-1, 0, b.columns-1)

	case 's':
		b.savedRow, b.savedCol = b.row, b.col
	case 'u':
		b.row, b.col = b.savedRow, b.savedCol

	case 'J':
		if paramOr(params, 0, 0) == 2 {
			for i := range b.cp {
				b.cp[i] = ' '
				b.fg[i] = canvas.UnsetColor
				b.bg[i] = canvas.UnsetColor
				b.attrs[i] = 0
			}
			b.row, b.col, b.rowMax = 0, 0, 0
			b.savedRow, b.savedCol = 0, 0
		}

	case 'K', 'h', 'l', 'p', '!':
		// ignored

	case 'm':
		applySGR(params, p, opt, res)

	case 't':
		applyPabloDraw(params, p, res)
	}
}

func applySGR(params []int, p *pen, opt Options, res ColorResolver) {
	if len(params) == 0 {
		params = []int{0}
	}
	for k := 0; k < len(params); k++ {
		code := params[k]
		switch {
		case code == 0:
			applyDefaults(opt, res, p)
		case code == 1:
			p.bold = true
			if p.fgIdx >= 0 && p.fgIdx < 8 {
				p.fgIdx += 8
				p.fg = res.FromAnsi16(p.fgIdx)
			}
		case code == 5:
			p.blink = true
			if opt.ICEColors && p.bgIdx >= 0 && p.bgIdx < 8 {
				p.bgIdx += 8
				p.bg = res.FromAnsi16(p.bgIdx)
			}
		case code == 7:
			p.invert = true
		case code == 27:
			p.invert = false
		case code == 22:
			p.bold = false
		case code == 39:
			p.fgIdx = 7
			if opt.DefaultFG != 0 {
				p.fg = res.FromPacked(opt.DefaultFG)
			} else {
				p.fg = res.FromAnsi16(7)
			}
		case code == 49:
			p.bgIdx = 0
			if opt.DefaultBG != 0 {
				p.bg = res.FromPacked(opt.DefaultBG)
			} else if opt.DefaultBGUnset {
				p.bg = canvas.UnsetColor
			} else {
				p.bg = res.FromAnsi16(0)
			}
		case code >= 30 && code <= 37:
			p.fgIdx = code - 30
			if p.bold {
				p.fgIdx += 8
			}
			p.fg = res.FromAnsi16(p.fgIdx)
		case code >= 90 && code <= 97:
			p.fgIdx = code - 90 + 8
			p.fg = res.FromAnsi16(p.fgIdx)
		case code >= 40 && code <= 47:
			p.bgIdx = code - 40
			if opt.ICEColors && p.blink {
				p.bgIdx += 8
			}
			p.bg = res.FromAnsi16(p.bgIdx)
		case code >= 100 && code <= 107:
			p.bgIdx = code - 100 + 8
			p.bg = res.FromAnsi16(p.bgIdx)
		case code == 38 || code == 48:
			mode := paramOr(params, k+1, -1)
			switch mode {
			case 5:
				idx := paramOr(params, k+2, 0)
				if code == 38 {
					p.fgIdx = -1
					p.fg = res.FromXterm256(idx)
				} else {
					p.bgIdx = -1
					p.bg = res.FromXterm256(idx)
				}
				k += 2
			case 2:
				r := paramOr(params, k+2, 0)
				g := paramOr(params, k+3, 0)
				bl := paramOr(params, k+4, 0)
				if code == 38 {
					p.fgIdx = -1
					p.fg = res.FromTrueColor(uint8(r), uint8(g), uint8(bl))
				} else {
					p.bgIdx = -1
					p.bg = res.FromTrueColor(uint8(r), uint8(g), uint8(bl))
				}
				k += 4
			}
		}
	}
}

// applyPabloDraw handles ESC[0;R;G;B t (bg) and ESC[1;R;G;B t (fg).
func applyPabloDraw(params []int, p *pen, res ColorResolver) {
	if len(params) < 4 {
		return
	}
	r, g, b := uint8(params[1]), uint8(params[2]), uint8(params[3])
	switch params[0] {
	case 0:
		p.bgIdx = -1
		p.bg = res.FromTrueColor(r, g, b)
	case 1:
		p.fgIdx = -1
		p.fg = res.FromTrueColor(r, g, b)
	}
}
