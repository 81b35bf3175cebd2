// Package render turns a composited canvas into a tcell.Screen frame: an
// RGB compositor buffer, plus a bridge from canvas cells and palette
// indices to concrete colors (spec §6 "Rendering contract").
package render

// RGB is a packed 8-bit-per-channel color, decoupled from tcell so the
// compositor buffer doesn't need a live tcell.Screen to build frames.
type RGB struct {
	R, G, B uint8
}

var RGBBlack = RGB{0, 0, 0}
