package palette

// cubeLevels are the 6 per-channel intensities used by the 16..231 color
// cube. The nearest-level midpoints below are the donor's chosen
// thresholds, not the arithmetic midpoints between levels, and must be
// preserved bit-for-bit for save-file compatibility (spec.md §9).
var cubeLevels = [6]uint8{0, 95, 135, 175, 215, 255}

func nearestLevelIndex(v uint8) int {
	switch {
	case v < 48:
		return 0
	case v < 115:
		return 1
	case v < 155:
		return 2
	case v < 195:
		return 3
	case v < 235:
		return 4
	default:
		return 5
	}
}

func buildXterm256() *Palette {
	rgb := make([]Rgb, 256)
	ansi16 := [16]Rgb{
		{0, 0, 0}, {205, 0, 0}, {0, 205, 0}, {205, 205, 0},
		{0, 0, 238}, {205, 0, 205}, {0, 205, 205}, {229, 229, 229},
		{127, 127, 127}, {255, 0, 0}, {0, 255, 0}, {255, 255, 0},
		{92, 92, 255}, {255, 0, 255}, {0, 255, 255}, {255, 255, 255},
	}
	copy(rgb[:16], ansi16[:])

	for i := 16; i <= 231; i++ {
		idx := i - 16
		rr, gg, bb := idx/36, (idx%36)/6, idx%6
		rgb[i] = Rgb{cubeLevels[rr], cubeLevels[gg], cubeLevels[bb]}
	}

	for i := 232; i <= 255; i++ {
		shade := uint8(8 + (i-232)*10)
		rgb[i] = Rgb{shade, shade, shade}
	}

	return NewPalette(rgb)
}

func buildAnsi16() *Palette {
	x := buildXterm256()
	return NewPalette(append([]Rgb(nil), x.RGB[:16]...))
}

func dist2(a, b Rgb) int {
	dr := int(a.R) - int(b.R)
	dg := int(a.G) - int(b.G)
	db := int(a.B) - int(b.B)
	return dr*dr + dg*dg + db*db
}

// nearestXterm256 is the canonical projection: cube cell + grayscale ramp
// + 16 base entries, argmin by squared distance. Candidates are compared in
// that order and a later one replaces the best only when strictly closer,
// so ties go to the earlier candidate (pure black yields 16, not 0).
// It never scans the full 256-entry table.
func nearestXterm256(x *Palette, r, g, b uint8) Index {
	ri, gi, bi := nearestLevelIndex(r), nearestLevelIndex(g), nearestLevelIndex(b)
	cubeColor := Rgb{cubeLevels[ri], cubeLevels[gi], cubeLevels[bi]}
	cubeIdx := 16 + 36*ri + 6*gi + bi
	bestIdx := cubeIdx
	bestD2 := dist2(Rgb{r, g, b}, cubeColor)

	avg := (int(r) + int(g) + int(b) + 1) / 3
	var grayIdx int
	switch {
	case avg <= 8:
		grayIdx = 232
	case avg >= 238:
		grayIdx = 255
	default:
		k := (avg - 8 + 5) / 10
		if k < 0 {
			k = 0
		} else if k > 23 {
			k = 23
		}
		grayIdx = 232 + k
	}
	if d2 := dist2(Rgb{r, g, b}, x.RGB[grayIdx]); d2 < bestD2 {
		bestD2, bestIdx = d2, grayIdx
	}

	for i := 0; i < 16; i++ {
		if d2 := dist2(Rgb{r, g, b}, x.RGB[i]); d2 < bestD2 {
			bestD2, bestIdx = d2, i
		}
	}
	return Index(bestIdx)
}
