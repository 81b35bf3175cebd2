// Package scripthost embeds a Lua scripting sandbox over gopher-lua that
// exposes the canvas as a mutable layer to user scripts, runs a
// frame-paced scheduler with cooperative single-tick throttling, and
// surfaces parameter metadata for host-driven UI (spec §4.D).
package scripthost

import (
	"fmt"
	"math"

	lua "github.com/yuin/gopher-lua"

	"github.com/phosphor-art/phosphor/canvas"
	"github.com/phosphor-art/phosphor/core"
)

// FrameContext lists the per-tick values a script sees in `ctx`. The host
// does not pass a FrameContext: buildCtxTable builds a new `ctx` table on
// every tick directly from the canvas and host state.
type FrameContext struct {
	Cols, Rows int
	Frame      int
	TimeMS     float64
	Aspect     float64
	Cursor     CursorState
	FG, BG     int // -1 means unset
}

// CursorState mirrors §4.D's ctx.cursor fields.
type CursorState struct {
	X, Y                       float64
	HalfY                      float64
	PX, PY, PHalfY             float64
	LeftDown, RightDown        bool
	PrevLeftDown, PrevRightDown bool
}

// Settings is the host-managed `settings` table a script may declare.
type Settings struct {
	FPS    float64
	Once   bool
	FG, BG int
	Params []ParamSpec
}

// Command is one entry appended to ctx.out[] by a script tick.
type Command struct {
	Name string
	Args map[string]any
}

// Host runs a single compiled script against a canvas layer.
type Host struct {
	L            *lua.LState
	canvas       *canvas.Canvas
	layerIndex   int
	ink          GlyphInk
	renderRef    int
	lastSource   string
	lastPalette  canvas.PaletteIdentity
	compiled     bool
	settings     Settings
	paramValues  map[string]any
	frame        int
	accumulator  float64
	totalMS      float64
	buttonPrev   map[string]bool
	measuredFPS  float64
	fpsWindow    []float64
	lastErr      error
	outCommands  []Command

	// Quantize resolves a packed ABGR color (as produced by parseHexColor)
	// to a palette index. Nil leaves hex-string settings colors unresolved.
	Quantize func(packedABGR uint32) int
}

// GlyphInk abstracts ink-coverage lookup for sort.by_brightness, replacing
// the donor's font-atlas dependency (spec §9).
type GlyphInk interface {
	Ink(r rune) float64
}

// defaultInk is a coarse coverage heuristic usable with no font atlas.
type defaultInk struct{}

func (defaultInk) Ink(r rune) float64 {
	switch {
	case r == ' ':
		return 0
	case r == '█':
		return 1
	case r == '░':
		return 0.25
	case r == '▒':
		return 0.5
	case r == '▓':
		return 0.75
	case r < 0x20:
		return 0
	default:
		return 0.5
	}
}

// New creates a host bound to layerIndex on cv, using ink for brightness
// sorting (nil selects the built-in coarse heuristic).
func New(cv *canvas.Canvas, layerIndex int, ink GlyphInk) *Host {
	if ink == nil {
		ink = defaultInk{}
	}
	h := &Host{
		canvas:      cv,
		layerIndex:  layerIndex,
		ink:         ink,
		renderRef:   lua.LNoRef,
		paramValues: make(map[string]any),
		buttonPrev:  make(map[string]bool),
	}
	h.L = lua.NewState(lua.Options{SkipOpenLibs: false})
	registerLayerMetatable(h.L)
	registerModule(h.L, h)
	return h
}

func (h *Host) Close() {
	if h.L != nil {
		h.L.Close()
	}
}

// Compile parses source, looks up `render`, installing the classic
// `main(coord, context, cursor, buffer)` shim if `render` is absent but
// `main` is present. On failure the previously compiled chunk stays
// discarded and LastError is set.
func (h *Host) Compile(source string) error {
	palette := h.canvas.Palette()
	if source == h.lastSource && palette == h.lastPalette && h.compiled {
		return nil
	}
	h.compiled = false
	if h.renderRef != lua.LNoRef {
		h.L.Unref(lua.RegistryIndex, h.renderRef)
		h.renderRef = lua.LNoRef
	}

	fn, err := h.L.LoadString(source)
	if err != nil {
		h.lastErr = fmt.Errorf("%w: compile: %v", core.ErrScript, err)
		return h.lastErr
	}
	h.L.Push(fn)
	if err := h.L.PCall(0, lua.MultRet, nil); err != nil {
		h.lastErr = fmt.Errorf("%w: %v", core.ErrScript, err)
		return h.lastErr
	}

	renderFn := h.L.GetGlobal("render")
	if renderFn.Type() != lua.LTFunction {
		mainFn := h.L.GetGlobal("main")
		if mainFn.Type() == lua.LTFunction {
			if err := h.L.DoString(mainShimSource); err != nil {
				h.lastErr = fmt.Errorf("%w: shim: %v", core.ErrScript, err)
				return h.lastErr
			}
			renderFn = h.L.GetGlobal("render")
		}
	}
	if renderFn.Type() != lua.LTFunction {
		h.lastErr = fmt.Errorf("%w: script must define render(ctx, layer) or main(coord, context, cursor, buffer)", core.ErrScript)
		return h.lastErr
	}

	h.renderRef = h.L.Ref(lua.RegistryIndex, renderFn)
	h.lastSource = source
	h.lastPalette = palette
	h.compiled = true
	h.lastErr = nil
	h.readSettings()
	return nil
}

// mainShimSource wraps a classic per-cell main() into a render(ctx,layer)
// that iterates the grid, matching the documented compatibility shim.
const mainShimSource = `
function render(ctx, layer)
  for y = 0, ctx.rows - 1 do
    local parts = {}
    for x = 0, ctx.cols - 1 do
      local v = main({x = x, y = y, index = y * ctx.cols + x}, ctx, ctx.cursor, nil)
      parts[#parts + 1] = tostring(v)
    end
    layer:setRow(y, table.concat(parts))
  end
end
`

func (h *Host) HasRenderFunction() bool { return h.compiled }
func (h *Host) LastError() error        { return h.lastErr }
func (h *Host) Settings() Settings      { return h.settings }

// readSettings reads the global `settings` table after a successful compile.
func (h *Host) readSettings() {
	s := Settings{FPS: 30, FG: -1, BG: -1}
	tbl := h.L.GetGlobal("settings")
	if t, ok := tbl.(*lua.LTable); ok {
		if v := t.RawGetString("fps"); v.Type() == lua.LTNumber {
			s.FPS = float64(v.(lua.LNumber))
		}
		if v := t.RawGetString("once"); v.Type() == lua.LTBool {
			s.Once = bool(v.(lua.LBool))
		}
		s.FG = colorField(t, "fg", h)
		s.BG = colorField(t, "bg", h)
		if v := t.RawGetString("params"); v.Type() == lua.LTTable {
			s.Params = parseParamSpecs(v.(*lua.LTable))
		}
	}
	if s.FPS < 1 {
		s.FPS = 1
	}
	if s.FPS > 240 {
		s.FPS = 240
	}
	h.settings = s
}

func colorField(t *lua.LTable, key string, h *Host) int {
	v := t.RawGetString(key)
	switch v.Type() {
	case lua.LTNumber:
		return int(v.(lua.LNumber))
	case lua.LTString:
		packed, ok := parseHexColor(string(v.(lua.LString)))
		if ok && h.Quantize != nil {
			return h.Quantize(uint32(packed))
		}
	}
	return -1
}

// RunFrame advances the host's wall-clock accumulator by dtMS and runs at
// most one tick if the interval has elapsed, per §4.D's scheduler rule.
// It returns true if a tick ran.
func (h *Host) RunFrame(dtMS float64) bool {
	if !h.compiled {
		return false
	}
	h.totalMS += dtMS

	if h.settings.Once {
		if h.frame > 0 {
			return false
		}
		h.tick()
		return true
	}

	interval := 1000.0 / h.settings.FPS
	h.accumulator += dtMS
	if h.accumulator < interval {
		return false
	}
	h.accumulator = math.Mod(h.accumulator, interval)
	h.tick()
	return true
}

// recordTick appends the current wall-clock timestamp to the rolling
// 1-second window and recomputes measuredFPS as the number of ticks that
// landed within the trailing second.
func (h *Host) recordTick() {
	h.fpsWindow = append(h.fpsWindow, h.totalMS)
	cutoff := h.totalMS - 1000
	i := 0
	for i < len(h.fpsWindow) && h.fpsWindow[i] < cutoff {
		i++
	}
	if i > 0 {
		h.fpsWindow = append(h.fpsWindow[:0], h.fpsWindow[i:]...)
	}
	h.measuredFPS = float64(len(h.fpsWindow))
}

func (h *Host) tick() {
	defer func() {
		if r := recover(); r != nil {
			h.lastErr = fmt.Errorf("%w: panic: %v", core.ErrScript, r)
			h.compiled = false
		}
	}()

	h.outCommands = h.outCommands[:0]
	ctxTable := h.buildCtxTable()
	layerUD := newLayerBinding(h.L, h.canvas, h.layerIndex)
	defer invalidateLayerBinding(layerUD)

	h.L.Push(h.refValue(h.renderRef))
	h.L.Push(ctxTable)
	h.L.Push(layerUD)
	if err := h.L.PCall(2, 0, nil); err != nil {
		h.lastErr = fmt.Errorf("%w: %v", core.ErrScript, err)
		h.compiled = false
		return
	}

	h.drainOutTable(ctxTable)
	h.recordTick()
	h.frame++
}

// drainOutTable reads back ctx.out after render() returns and parses the
// recognized tool commands (§4.D "Tool commands") into h.outCommands.
func (h *Host) drainOutTable(ctxTable *lua.LTable) {
	out, ok := ctxTable.RawGetString("out").(*lua.LTable)
	if !ok {
		return
	}
	out.ForEach(func(_, v lua.LValue) {
		entry, ok := v.(*lua.LTable)
		if !ok {
			return
		}
		name, ok := entry.RawGetString("cmd").(lua.LString)
		if !ok {
			return
		}
		switch string(name) {
		case "palette.set", "brush.set", "tool.activate", "tool.activate_prev", "canvas.crop_to_selection":
		default:
			return
		}
		args := make(map[string]any)
		entry.ForEach(func(k, av lua.LValue) {
			key, ok := k.(lua.LString)
			if !ok || string(key) == "cmd" {
				return
			}
			switch a := av.(type) {
			case lua.LBool:
				args[string(key)] = bool(a)
			case lua.LNumber:
				args[string(key)] = float64(a)
			case lua.LString:
				args[string(key)] = string(a)
			}
		})
		h.outCommands = append(h.outCommands, Command{Name: string(name), Args: args})
	})
}

func (h *Host) refValue(ref int) lua.LValue {
	reg := h.L.Get(lua.RegistryIndex).(*lua.LTable)
	return reg.RawGetInt(ref)
}

func (h *Host) buildCtxTable() *lua.LTable {
	cv := h.canvas
	ctx := h.L.NewTable()
	ctx.RawSetString("cols", lua.LNumber(cv.Columns()))
	ctx.RawSetString("rows", lua.LNumber(cv.Rows()))
	ctx.RawSetString("frame", lua.LNumber(h.frame))
	ctx.RawSetString("time_ms", lua.LNumber(h.totalMS))
	metrics := h.L.NewTable()
	aspect := 1.0
	if cv.Rows() > 0 {
		aspect = float64(cv.Columns()) / float64(cv.Rows())
	}
	metrics.RawSetString("aspect", lua.LNumber(aspect))
	ctx.RawSetString("metrics", metrics)

	cursor := h.L.NewTable()
	cursor.RawSetString("x", lua.LNumber(0))
	cursor.RawSetString("y", lua.LNumber(0))
	cursor.RawSetString("left_down", lua.LFalse)
	cursor.RawSetString("right_down", lua.LFalse)
	ctx.RawSetString("cursor", cursor)

	if h.settings.FG >= 0 {
		ctx.RawSetString("fg", lua.LNumber(h.settings.FG))
	} else {
		ctx.RawSetString("fg", lua.LNil)
	}
	if h.settings.BG >= 0 {
		ctx.RawSetString("bg", lua.LNumber(h.settings.BG))
	} else {
		ctx.RawSetString("bg", lua.LNil)
	}

	params := h.L.NewTable()
	for k, v := range h.paramValues {
		if h.isButtonParam(k) {
			raw, _ := v.(bool)
			edge := raw && !h.buttonPrev[k]
			h.buttonPrev[k] = raw
			params.RawSetString(k, lua.LBool(edge))
			continue
		}
		switch vv := v.(type) {
		case bool:
			params.RawSetString(k, lua.LBool(vv))
		case float64:
			params.RawSetString(k, lua.LNumber(vv))
		case int:
			params.RawSetString(k, lua.LNumber(vv))
		case string:
			params.RawSetString(k, lua.LString(vv))
		}
	}
	ctx.RawSetString("params", params)

	out := h.L.NewTable()
	ctx.RawSetString("out", out)

	return ctx
}

// MeasuredFPS returns the rolling 1-second tick rate (approximate).
func (h *Host) MeasuredFPS() float64 { return h.measuredFPS }

// SetParam stores a host-managed parameter value the script reads via
// ctx.params.<key>. For a button-type param, v is the raw held-down state;
// the script only observes true on the frame it rises.
func (h *Host) SetParam(key string, v any) { h.paramValues[key] = v }

// isButtonParam reports whether key names a declared ParamButton.
func (h *Host) isButtonParam(key string) bool {
	for _, ps := range h.settings.Params {
		if ps.Key == key {
			return ps.Type == ParamButton
		}
	}
	return false
}

// DrainCommands returns and clears the tool-command bus accumulated this
// tick (§4.D "Tool commands").
func (h *Host) DrainCommands() []Command {
	out := h.outCommands
	h.outCommands = nil
	return out
}
