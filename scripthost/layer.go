package scripthost

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/phosphor-art/phosphor/canvas"
)

const layerMetatableName = "AnsiLayer"

type layerBinding struct {
	cv    *canvas.Canvas
	layer int
	valid bool
}

func newLayerBinding(L *lua.LState, cv *canvas.Canvas, layer int) *lua.LUserData {
	ud := L.NewUserData()
	ud.Value = &layerBinding{cv: cv, layer: layer, valid: true}
	L.SetMetatable(ud, L.GetTypeMetatable(layerMetatableName))
	return ud
}

// invalidateLayerBinding marks the handle dead once its tick scope ends;
// any script call retaining it afterward is a programming error, not
// memory unsafety (spec §9).
func invalidateLayerBinding(ud *lua.LUserData) {
	if b, ok := ud.Value.(*layerBinding); ok {
		b.valid = false
	}
}

func checkLayer(L *lua.LState, n int) *layerBinding {
	ud, ok := L.CheckUserData(n).Value.(*layerBinding)
	if !ok {
		L.ArgError(n, "AnsiLayer expected")
	}
	if !ud.valid {
		L.RaiseError("layer handle used after its tick scope ended")
	}
	return ud
}

func registerLayerMetatable(L *lua.LState) {
	mt := L.NewTypeMetatable(layerMetatableName)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"set":    layerSet,
		"get":    layerGet,
		"clear":  layerClear,
		"setRow": layerSetRow,
	}))
}

func layerSet(L *lua.LState) int {
	b := checkLayer(L, 1)
	x := L.CheckInt(2)
	y := L.CheckInt(3)
	cp := charArg(L, 4)
	var colors []canvas.ColorIndex
	if L.GetTop() >= 5 {
		colors = append(colors, canvas.ColorIndex(L.CheckInt(5)))
	}
	if L.GetTop() >= 6 {
		colors = append(colors, canvas.ColorIndex(L.CheckInt(6)))
	}
	idxColors := make([]canvas.ColorIndex, len(colors))
	copy(idxColors, colors)
	if len(idxColors) == 0 {
		b.cv.Set(b.layer, y, x, cp)
	} else if len(idxColors) == 1 {
		b.cv.Set(b.layer, y, x, cp, idxColors[0])
	} else {
		b.cv.Set(b.layer, y, x, cp, idxColors[0], idxColors[1])
	}
	return 0
}

func layerGet(L *lua.LState) int {
	b := checkLayer(L, 1)
	x := L.CheckInt(2)
	y := L.CheckInt(3)
	cell := b.cv.Get(b.layer, y, x)
	L.Push(lua.LString(string(cell.CP)))
	L.Push(lua.LNumber(int(cell.FG)))
	L.Push(lua.LNumber(int(cell.BG)))
	return 3
}

func layerClear(L *lua.LState) int {
	b := checkLayer(L, 1)
	cp := canvas.Blank
	if L.GetTop() >= 2 {
		cp = charArg(L, 2)
	}
	b.cv.ClearLayer(b.layer, cp)
	return 0
}

func layerSetRow(L *lua.LState) int {
	b := checkLayer(L, 1)
	y := L.CheckInt(2)
	s := L.CheckString(3)
	cols := b.cv.Columns()
	runes := []rune(s)
	for x := 0; x < cols; x++ {
		cp := canvas.Blank
		if x < len(runes) {
			cp = runes[x]
		}
		b.cv.Set(b.layer, y, x, cp)
	}
	return 0
}

// charArg accepts a number (codepoint) or a string (first decoded rune).
func charArg(L *lua.LState, n int) rune {
	v := L.Get(n)
	switch v.Type() {
	case lua.LTNumber:
		return rune(int(v.(lua.LNumber)))
	case lua.LTString:
		s := string(v.(lua.LString))
		for _, r := range s {
			return r
		}
	}
	return ' '
}
