// Command phosphor is the terminal front end: it opens a single path
// (.phos project or raw ANSI/text art), runs an optional companion
// script, and drives a tcell render loop (spec §6 "CLI").
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/phosphor-art/phosphor/canvas"
	"github.com/phosphor-art/phosphor/config"
	"github.com/phosphor-art/phosphor/core"
	"github.com/phosphor-art/phosphor/ansiimport"
	"github.com/phosphor-art/phosphor/palette"
	"github.com/phosphor-art/phosphor/render"
	"github.com/phosphor-art/phosphor/scripthost"
	"github.com/phosphor-art/phosphor/session"
)

const logFileName = "phosphor.log"

func setupLogging(debug bool) *os.File {
	if !debug {
		log.SetOutput(io.Discard)
		return nil
	}
	if err := config.EnsureDirs(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to create cache dir: %v\n", err)
		log.SetOutput(io.Discard)
		return nil
	}
	logPath := filepath.Join(config.CacheDir(), logFileName)
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to open log file: %v\n", err)
		log.SetOutput(io.Discard)
		return nil
	}
	log.SetOutput(f)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Printf("=== phosphor started ===")
	return f
}

func loadCanvas(path string, reg *palette.Registry, ops *palette.Ops) (*canvas.Canvas, palette.InstanceID, error) {
	pal := reg.Xterm256ID()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pal, fmt.Errorf("%w: read %s: %v", core.ErrIO, path, err)
	}

	if strings.HasSuffix(path, ".phos") {
		cv := canvas.New(80)
		quant := palette.CanvasQuantizer{Ops: ops, Pal: pal, Policy: palette.DefaultPolicy}
		if err := cv.Decode(data, quant); err != nil {
			return nil, pal, err
		}
		return cv, pal, nil
	}

	resolver := palette.AnsiResolver{Ops: ops, Pal: pal}
	snap, err := ansiimport.Import(data, ansiimport.Options{CP437: true}, resolver)
	if err != nil {
		return nil, pal, err
	}
	cv := canvas.New(snap.Columns)
	cv.ApplySnapshot(snap)
	return cv, pal, nil
}

func main() {
	debug := flag.Bool("debug", false, "enable debug logging to the cache directory")
	scriptPath := flag.String("script", "", "optional Lua script to run against the canvas")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: phosphor [-debug] [-script path.lua] <file.phos|file.ans|file.txt>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	logFile := setupLogging(*debug)
	if logFile != nil {
		defer logFile.Close()
	}

	reg := palette.NewRegistry()
	ops := palette.NewOps(reg)

	cv, pal, err := loadCanvas(path, reg, ops)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load %s: %v\n", path, err)
		os.Exit(1)
	}

	sess, err := session.Load(config.SessionPath())
	if err != nil {
		log.Printf("session load: %v", err)
		sess = session.New()
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create screen: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize screen: %v\n", err)
		os.Exit(1)
	}
	defer screen.Fini()

	var host *scripthost.Host
	if *scriptPath != "" {
		src, err := os.ReadFile(*scriptPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read script: %v\n", err)
			os.Exit(1)
		}
		host = scripthost.New(cv, cv.ActiveLayerIndex(), nil)
		host.Quantize = func(packed uint32) int {
			return int(ops.Color32ToIndex(pal, packed, palette.DefaultPolicy))
		}
		defer host.Close()
		if err := host.Compile(string(src)); err != nil {
			fmt.Fprintf(os.Stderr, "script compile failed: %v\n", err)
			os.Exit(1)
		}
	}

	buf := render.NewRenderBuffer(cv.Columns(), cv.Rows())
	theme := render.Theme{DefaultFG: render.RGB{R: 220, G: 220, B: 220}, DefaultBG: render.RGBBlack}

	eventChan := make(chan tcell.Event, 16)
	core.Go(func() {
		for {
			eventChan <- screen.PollEvent()
		}
	})

	ticker := time.NewTicker(16 * time.Millisecond)
	defer ticker.Stop()
	lastTick := time.Now()

	for {
		select {
		case ev := <-eventChan:
			switch e := ev.(type) {
			case *tcell.EventKey:
				if e.Key() == tcell.KeyCtrlC || e.Key() == tcell.KeyEscape {
					if err := session.Save(config.SessionPath(), sess); err != nil {
						log.Printf("session save: %v", err)
					}
					return
				}
				if e.Key() == tcell.KeyCtrlZ {
					cv.Undo()
				}
				if e.Key() == tcell.KeyCtrlY {
					cv.Redo()
				}
			case *tcell.EventResize:
				screen.Sync()
			}

		case now := <-ticker.C:
			dt := now.Sub(lastTick)
			lastTick = now
			if host != nil {
				host.RunFrame(float64(dt.Milliseconds()))
			}
			render.ComposeFrame(buf, cv, reg, pal, theme)
			buf.Flush(screen)
			screen.Show()
		}
	}
}
