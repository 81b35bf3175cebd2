package scripthost

import (
	lua "github.com/yuin/gopher-lua"
	"github.com/rivo/uniseg"
)

// registerModule publishes the native `ansl` module table (vec2/vec3, sdf
// primitives, noise, palette ops, text helpers, sort.by_brightness) and
// makes it available as `require("ansl")` and the global `ansl`, matching
// the donor's EnsureAnslModule convention.
func registerModule(L *lua.LState, h *Host) {
	L.PreloadModule("ansl", func(L *lua.LState) int {
		mod := L.NewTable()
		L.SetFuncs(mod, map[string]lua.LGFunction{
			"vec2": luaVec2,
			"vec3": luaVec3,
		})

		sdfTable := L.NewTable()
		L.SetFuncs(sdfTable, sdfFuncs)
		L.SetField(mod, "sdf", sdfTable)

		noiseTable := L.NewTable()
		L.SetFuncs(noiseTable, map[string]lua.LGFunction{
			"perlin": luaNoisePerlin,
		})
		L.SetField(mod, "noise", noiseTable)

		paletteTable := L.NewTable()
		L.SetFuncs(paletteTable, map[string]lua.LGFunction{
			"rgb":    luaPaletteRGB,
			"hex":    luaPaletteHex,
			"ansi16": luaPaletteAnsi16,
		})
		L.SetField(mod, "palette", paletteTable)

		textTable := L.NewTable()
		L.SetFuncs(textTable, map[string]lua.LGFunction{
			"measure": luaTextMeasure,
			"wrap":    luaTextWrap,
		})
		L.SetField(mod, "text", textTable)

		sortTable := L.NewTable()
		sortTable.RawSetString("by_brightness", L.NewFunction(luaSortByBrightness(h)))
		L.SetField(mod, "sort", sortTable)

		L.Push(mod)
		return 1
	})
	L.DoString(`ansl = require("ansl")`)
}

func newVecTable(L *lua.LState, vals ...float64) *lua.LTable {
	t := L.NewTable()
	names := []string{"x", "y", "z"}
	for i, v := range vals {
		t.RawSetString(names[i], lua.LNumber(v))
	}
	return t
}

func vecField(t *lua.LTable, name string) float64 {
	v := t.RawGetString(name)
	if n, ok := v.(lua.LNumber); ok {
		return float64(n)
	}
	return 0
}

func luaVec2(L *lua.LState) int {
	x := float64(L.CheckNumber(1))
	y := float64(L.CheckNumber(2))
	L.Push(newVecTable(L, x, y))
	return 1
}

func luaVec3(L *lua.LState) int {
	x := float64(L.CheckNumber(1))
	y := float64(L.CheckNumber(2))
	z := float64(L.CheckNumber(3))
	L.Push(newVecTable(L, x, y, z))
	return 1
}

// --- palette ops ---

func luaPaletteRGB(L *lua.LState) int {
	r := int(L.CheckNumber(1))
	g := int(L.CheckNumber(2))
	b := int(L.CheckNumber(3))
	packed := 0xFF000000 | (b << 16) | (g << 8) | r
	L.Push(lua.LNumber(packed))
	return 1
}

func luaPaletteHex(L *lua.LState) int {
	s := L.CheckString(1)
	packed, ok := parseHexColor(s)
	if !ok {
		L.RaiseError("invalid hex color %q", s)
	}
	L.Push(lua.LNumber(packed))
	return 1
}

var ansi16Names = [16]string{
	"black", "red", "green", "yellow", "blue", "magenta", "cyan", "white",
	"bright_black", "bright_red", "bright_green", "bright_yellow",
	"bright_blue", "bright_magenta", "bright_cyan", "bright_white",
}

func luaPaletteAnsi16(L *lua.LState) int {
	name := L.CheckString(1)
	for i, n := range ansi16Names {
		if n == name {
			L.Push(lua.LNumber(i))
			return 1
		}
	}
	L.Push(lua.LNil)
	return 1
}

// --- text helpers (grapheme-cluster aware via uniseg) ---

func luaTextMeasure(L *lua.LState) int {
	s := L.CheckString(1)
	gr := uniseg.NewGraphemes(s)
	count := 0
	for gr.Next() {
		count++
	}
	L.Push(lua.LNumber(count))
	return 1
}

func luaTextWrap(L *lua.LState) int {
	s := L.CheckString(1)
	width := L.CheckInt(2)
	if width < 1 {
		width = 1
	}
	var lines []string
	cur := ""
	col := 0
	gr := uniseg.NewGraphemes(s)
	for gr.Next() {
		g := gr.Str()
		newline := g == "\n" || g == "\r\n"
		if newline || col >= width {
			lines = append(lines, cur)
			cur = ""
			col = 0
			if newline {
				continue
			}
		}
		cur += g
		col++
	}
	lines = append(lines, cur)

	out := L.NewTable()
	for i, ln := range lines {
		out.RawSetInt(i+1, lua.LString(ln))
	}
	L.Push(out)
	return 1
}

// --- sort.by_brightness ---

func luaSortByBrightness(h *Host) lua.LGFunction {
	return func(L *lua.LState) int {
		s := L.CheckString(1)
		ascending := true
		if L.GetTop() >= 2 {
			ascending = lua.LVAsBool(L.Get(2))
		}
		runes := []rune(s)
		type scored struct {
			r rune
			v float64
		}
		items := make([]scored, len(runes))
		for i, r := range runes {
			items[i] = scored{r, h.ink.Ink(r)}
		}
		for i := 1; i < len(items); i++ {
			for j := i; j > 0; j-- {
				less := items[j-1].v > items[j].v
				if !ascending {
					less = items[j-1].v < items[j].v
				}
				if less {
					items[j-1], items[j] = items[j], items[j-1]
				} else {
					break
				}
			}
		}
		out := make([]rune, len(items))
		for i, it := range items {
			out[i] = it.r
		}
		L.Push(lua.LString(string(out)))
		return 1
	}
}
