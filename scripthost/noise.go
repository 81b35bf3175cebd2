package scripthost

import (
	"math"

	lua "github.com/yuin/gopher-lua"
)

// Coherent noise (Perlin, with octave/persistence/lacunarity fractal
// summation) per spec §4.D "coherent noise (Perlin/Billow/Ridged/Voronoi
// with seed/frequency/octaves/persistence)". Only the Perlin basis and
// its two common post-processing modes (billow, ridged) are implemented;
// Voronoi is left to script-level composition over repeated sampling.

type perlinSource struct {
	perm [512]int
}

func newPerlinSource(seed int64) *perlinSource {
	base := [256]int{}
	for i := range base {
		base[i] = i
	}
	s := uint64(seed)
	for i := 255; i > 0; i-- {
		s = s*6364136223846793005 + 1442695040888963407
		j := int((s >> 33) % uint64(i+1))
		base[i], base[j] = base[j], base[i]
	}
	var p perlinSource
	for i := 0; i < 512; i++ {
		p.perm[i] = base[i&255]
	}
	return &p
}

func fade(t float64) float64 { return t * t * t * (t*(t*6-15) + 10) }
func lerp(t, a, b float64) float64 { return a + t*(b-a) }

func grad(hash int, x, y, z float64) float64 {
	h := hash & 15
	u := x
	if h >= 8 {
		u = y
	}
	var v float64
	switch {
	case h < 4:
		v = y
	case h == 12 || h == 14:
		v = x
	default:
		v = z
	}
	out := u
	if h&1 != 0 {
		out = -out
	}
	if h&2 != 0 {
		v = -v
	}
	return out + v
}

func (p *perlinSource) noise3(x, y, z float64) float64 {
	xi := int(math.Floor(x)) & 255
	yi := int(math.Floor(y)) & 255
	zi := int(math.Floor(z)) & 255
	xf := x - math.Floor(x)
	yf := y - math.Floor(y)
	zf := z - math.Floor(z)
	u := fade(xf)
	v := fade(yf)
	w := fade(zf)

	a := p.perm[xi] + yi
	aa := p.perm[a] + zi
	ab := p.perm[a+1] + zi
	b := p.perm[xi+1] + yi
	ba := p.perm[b] + zi
	bb := p.perm[b+1] + zi

	x1 := lerp(u, grad(p.perm[aa], xf, yf, zf), grad(p.perm[ba], xf-1, yf, zf))
	x2 := lerp(u, grad(p.perm[ab], xf, yf-1, zf), grad(p.perm[bb], xf-1, yf-1, zf))
	y1 := lerp(v, x1, x2)

	x3 := lerp(u, grad(p.perm[aa+1], xf, yf, zf-1), grad(p.perm[ba+1], xf-1, yf, zf-1))
	x4 := lerp(u, grad(p.perm[ab+1], xf, yf-1, zf-1), grad(p.perm[bb+1], xf-1, yf-1, zf-1))
	y2 := lerp(v, x3, x4)

	return lerp(w, y1, y2)
}

// fractal sums octaves of noise3 at increasing frequency / decreasing
// amplitude, clamping parameters per §9 ("clamp octaves, frequency>0,
// persistence∈(0,1], lacunarity>1").
func (p *perlinSource) fractal(x, y, z float64, octaves int, persistence, lacunarity float64) float64 {
	if octaves < 1 {
		octaves = 1
	}
	if octaves > 12 {
		octaves = 12
	}
	if persistence <= 0 {
		persistence = 0.0001
	}
	if persistence > 1 {
		persistence = 1
	}
	if lacunarity <= 1 {
		lacunarity = 1.0001
	}

	total := 0.0
	amp := 1.0
	freq := 1.0
	maxAmp := 0.0
	for i := 0; i < octaves; i++ {
		total += p.noise3(x*freq, y*freq, z*freq) * amp
		maxAmp += amp
		amp *= persistence
		freq *= lacunarity
	}
	if maxAmp == 0 {
		return 0
	}
	return total / maxAmp
}

func luaNoisePerlin(L *lua.LState) int {
	x := float64(L.CheckNumber(1))
	y := float64(L.CheckNumber(2))
	z := 0.0
	top := L.GetTop()
	optsIdx := 3
	if top >= 3 {
		if n, ok := L.Get(3).(lua.LNumber); ok {
			z = float64(n)
			optsIdx = 4
		}
	}

	seed := int64(0)
	freq := 1.0
	octaves := 1
	persistence := 0.5
	lacunarity := 2.0
	mode := "perlin"

	if top >= optsIdx {
		if t, ok := L.Get(optsIdx).(*lua.LTable); ok {
			seed = int64(numField(t, "seed", 0))
			freq = numField(t, "frequency", 1)
			octaves = int(numField(t, "octaves", 1))
			persistence = numField(t, "persistence", 0.5)
			lacunarity = numField(t, "lacunarity", 2)
			if m := str(t, "mode"); m != "" {
				mode = m
			}
		}
	}
	if freq <= 0 {
		freq = 0.0001
	}

	src := newPerlinSource(seed)
	v := src.fractal(x*freq, y*freq, z*freq, octaves, persistence, lacunarity)

	switch mode {
	case "billow":
		v = 2*math.Abs(v) - 1
	case "ridged":
		v = 1 - math.Abs(v)
		v = v*v
	}

	L.Push(lua.LNumber(v))
	return 1
}
