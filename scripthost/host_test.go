package scripthost

import (
	"strings"
	"testing"

	"github.com/phosphor-art/phosphor/canvas"
)

const fillScript = `
settings = { fps = 50 }
function render(ctx, layer)
  layer:setRow(0, string.rep("x", ctx.cols))
end
`

func newTestHost(t *testing.T) (*Host, *canvas.Canvas) {
	t.Helper()
	cv := canvas.New(10)
	cv.EnsureRows(4)
	h := New(cv, 0, nil)
	return h, cv
}

func TestRunFrameRespectsTargetFPS(t *testing.T) {
	h, _ := newTestHost(t)
	defer h.Close()
	if err := h.Compile(fillScript); err != nil {
		t.Fatalf("compile: %v", err)
	}

	// 50fps => 20ms interval. Three seconds of 1ms ticks should produce
	// a tick count within N*T +/- 1 of the target.
	const totalMS = 3000.0
	const intervalMS = 20.0
	ticks := 0
	for i := 0; i < int(totalMS); i++ {
		if h.RunFrame(1) {
			ticks++
		}
	}
	want := int(totalMS / intervalMS)
	if diff := ticks - want; diff < -1 || diff > 1 {
		t.Fatalf("ticks=%d want~%d (+/-1)", ticks, want)
	}
}

func TestRunFrameNeverMoreThanOneTickPerCall(t *testing.T) {
	h, _ := newTestHost(t)
	defer h.Close()
	if err := h.Compile(fillScript); err != nil {
		t.Fatalf("compile: %v", err)
	}
	before := h.frame
	h.RunFrame(500) // many intervals' worth of wall-clock in one call
	if h.frame-before != 1 {
		t.Fatalf("expected exactly one tick per RunFrame call, got %d", h.frame-before)
	}
}

func TestOnceModeRunsExactlyOnce(t *testing.T) {
	h, _ := newTestHost(t)
	defer h.Close()
	src := strings.Replace(fillScript, "fps = 50", "fps = 50, once = true", 1)
	if err := h.Compile(src); err != nil {
		t.Fatalf("compile: %v", err)
	}
	ran := 0
	for i := 0; i < 100; i++ {
		if h.RunFrame(100) {
			ran++
		}
	}
	if ran != 1 {
		t.Fatalf("once mode ticked %d times, want 1", ran)
	}
}

func TestCompileRecompilesOnSourceChange(t *testing.T) {
	h, _ := newTestHost(t)
	defer h.Close()
	if err := h.Compile(fillScript); err != nil {
		t.Fatalf("compile: %v", err)
	}
	ref1 := h.renderRef
	if err := h.Compile(fillScript); err != nil {
		t.Fatalf("recompile same source: %v", err)
	}
	if h.renderRef != ref1 {
		t.Fatalf("recompiling identical source should be a no-op")
	}

	other := strings.Replace(fillScript, "x", "o", 1)
	if err := h.Compile(other); err != nil {
		t.Fatalf("compile changed source: %v", err)
	}
	if h.renderRef == ref1 {
		t.Fatalf("compiling changed source should install a new render function")
	}
}

func TestMainShimDrivesPerCellRender(t *testing.T) {
	h, cv := newTestHost(t)
	defer h.Close()
	src := `
function main(coord, context, cursor, buffer)
  return (coord.x + coord.y) % 2 == 0 and "#" or "."
end
`
	if err := h.Compile(src); err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !h.RunFrame(1000) {
		t.Fatalf("expected a tick")
	}
	cell := cv.Get(0, 0, 0)
	if cell.CP != '#' {
		t.Fatalf("cell(0,0) = %q, want '#'", cell.CP)
	}
}

func TestCompileRejectsScriptWithoutRenderOrMain(t *testing.T) {
	h, _ := newTestHost(t)
	defer h.Close()
	if err := h.Compile("local x = 1"); err == nil {
		t.Fatalf("expected compile error for script with no render/main")
	}
}

func TestCompileRecompilesOnPaletteChange(t *testing.T) {
	h, cv := newTestHost(t)
	defer h.Close()
	if err := h.Compile(fillScript); err != nil {
		t.Fatalf("compile: %v", err)
	}
	ref1 := h.renderRef

	cv.SetPalette(cv.Palette() + 1)
	if err := h.Compile(fillScript); err != nil {
		t.Fatalf("recompile after palette change: %v", err)
	}
	if h.renderRef == ref1 {
		t.Fatalf("a palette identity change should force recompilation even with identical source")
	}
}

func TestMeasuredFPSTracksRollingWindow(t *testing.T) {
	h, _ := newTestHost(t)
	defer h.Close()
	if err := h.Compile(fillScript); err != nil {
		t.Fatalf("compile: %v", err)
	}
	// 50fps target (20ms interval); drive 1 second of wall-clock in 10ms
	// steps and expect the rolling window to settle near 50.
	for i := 0; i < 100; i++ {
		h.RunFrame(10)
	}
	if fps := h.MeasuredFPS(); fps < 45 || fps > 55 {
		t.Fatalf("measuredFPS = %v, want ~50", fps)
	}
}

const toolCommandScript = `
settings = { fps = 50 }
function render(ctx, layer)
  ctx.out[#ctx.out + 1] = { cmd = "palette.set", index = 3 }
  ctx.out[#ctx.out + 1] = { cmd = "ignored.unknown" }
end
`

func TestDrainCommandsReadsBackToolBus(t *testing.T) {
	h, _ := newTestHost(t)
	defer h.Close()
	if err := h.Compile(toolCommandScript); err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !h.RunFrame(1000) {
		t.Fatalf("expected a tick")
	}
	cmds := h.DrainCommands()
	if len(cmds) != 1 {
		t.Fatalf("got %d commands, want 1 recognized command", len(cmds))
	}
	if cmds[0].Name != "palette.set" || cmds[0].Args["index"] != 3.0 {
		t.Fatalf("unexpected command: %+v", cmds[0])
	}
	if got := h.DrainCommands(); len(got) != 0 {
		t.Fatalf("DrainCommands should clear the bus, got %d", len(got))
	}
}

const buttonScript = `
settings = { fps = 50, params = { { key = "fire", type = "button" } } }
function render(ctx, layer)
  layer:setRow(0, ctx.params.fire and "1" or "0")
end
`

func TestButtonParamIsEdgeTriggered(t *testing.T) {
	h, cv := newTestHost(t)
	defer h.Close()
	if err := h.Compile(buttonScript); err != nil {
		t.Fatalf("compile: %v", err)
	}

	h.SetParam("fire", true)
	h.RunFrame(1000)
	if cell := cv.Get(0, 0, 0); cell.CP != '1' {
		t.Fatalf("rising edge: cell = %q, want '1'", cell.CP)
	}

	h.RunFrame(1000) // still held down
	if cell := cv.Get(0, 0, 0); cell.CP != '0' {
		t.Fatalf("held (no new edge): cell = %q, want '0'", cell.CP)
	}

	h.SetParam("fire", false)
	h.RunFrame(1000)
	h.SetParam("fire", true)
	h.RunFrame(1000)
	if cell := cv.Get(0, 0, 0); cell.CP != '1' {
		t.Fatalf("second rising edge: cell = %q, want '1'", cell.CP)
	}
}
