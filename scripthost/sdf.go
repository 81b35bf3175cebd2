package scripthost

import (
	"math"

	lua "github.com/yuin/gopher-lua"
)

// Signed distance primitives and combinators from the hg_sdf catalog
// (spec §4.D "2D/3D signed distance primitives and combinators"),
// operating on vec3 tables {x,y,z}.

type vec3 struct{ x, y, z float64 }

func vecArg(L *lua.LState, n int) vec3 {
	t := L.CheckTable(n)
	return vec3{vecField(t, "x"), vecField(t, "y"), vecField(t, "z")}
}

func (a vec3) sub(b vec3) vec3   { return vec3{a.x - b.x, a.y - b.y, a.z - b.z} }
func (a vec3) length() float64   { return math.Sqrt(a.x*a.x + a.y*a.y + a.z*a.z) }
func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
func maxf3(a, b, c float64) float64 { return maxf(a, maxf(b, c)) }

func fSphere(p vec3, r float64) float64 { return p.length() - r }

func fPlane(p, n vec3, dist float64) float64 {
	return p.x*n.x + p.y*n.y + p.z*n.z + dist
}

func fBoxCheap(p, b vec3) float64 {
	return maxf3(absf(p.x)-b.x, absf(p.y)-b.y, absf(p.z)-b.z)
}

func fCylinder(p vec3, r, height float64) float64 {
	d := math.Sqrt(p.x*p.x+p.z*p.z) - r
	return maxf(d, absf(p.y)-height)
}

func fCapsule(p, a, b vec3, r float64) float64 {
	ab := b.sub(a)
	ap := p.sub(a)
	abLen2 := ab.x*ab.x + ab.y*ab.y + ab.z*ab.z
	t := 0.0
	if abLen2 > 0 {
		t = (ap.x*ab.x + ap.y*ab.y + ap.z*ab.z) / abLen2
	}
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	closest := vec3{a.x + ab.x*t, a.y + ab.y*t, a.z + ab.z*t}
	return p.sub(closest).length() - r
}

func fCone(p vec3, angleRad, h float64) float64 {
	q := math.Sqrt(p.x*p.x + p.z*p.z)
	c := math.Sin(angleRad)
	s := math.Cos(angleRad)
	return maxf(c*q+s*p.y, -h-p.y)
}

func fTorus(p vec3, rMajor, rMinor float64) float64 {
	q := math.Sqrt(p.x*p.x+p.z*p.z) - rMajor
	return math.Sqrt(q*q+p.y*p.y) - rMinor
}

func pReflect(p, planeN vec3, planeO float64) vec3 {
	d := fPlane(p, planeN, planeO)
	if d > 0 {
		return p
	}
	return vec3{p.x - 2*d*planeN.x, p.y - 2*d*planeN.y, p.z - 2*d*planeN.z}
}

func fOpUnion(a, b float64) float64 { return math.Min(a, b) }
func fOpIntersect(a, b float64) float64 { return math.Max(a, b) }
func fOpDifference(a, b float64) float64 { return math.Max(a, -b) }

var sdfFuncs = map[string]lua.LGFunction{
	"sphere": func(L *lua.LState) int {
		L.Push(lua.LNumber(fSphere(vecArg(L, 1), float64(L.CheckNumber(2)))))
		return 1
	},
	"plane": func(L *lua.LState) int {
		L.Push(lua.LNumber(fPlane(vecArg(L, 1), vecArg(L, 2), float64(L.CheckNumber(3)))))
		return 1
	},
	"box": func(L *lua.LState) int {
		L.Push(lua.LNumber(fBoxCheap(vecArg(L, 1), vecArg(L, 2))))
		return 1
	},
	"cylinder": func(L *lua.LState) int {
		L.Push(lua.LNumber(fCylinder(vecArg(L, 1), float64(L.CheckNumber(2)), float64(L.CheckNumber(3)))))
		return 1
	},
	"capsule": func(L *lua.LState) int {
		L.Push(lua.LNumber(fCapsule(vecArg(L, 1), vecArg(L, 2), vecArg(L, 3), float64(L.CheckNumber(4)))))
		return 1
	},
	"cone": func(L *lua.LState) int {
		L.Push(lua.LNumber(fCone(vecArg(L, 1), float64(L.CheckNumber(2)), float64(L.CheckNumber(3)))))
		return 1
	},
	"torus": func(L *lua.LState) int {
		L.Push(lua.LNumber(fTorus(vecArg(L, 1), float64(L.CheckNumber(2)), float64(L.CheckNumber(3)))))
		return 1
	},
	"union": func(L *lua.LState) int {
		L.Push(lua.LNumber(fOpUnion(float64(L.CheckNumber(1)), float64(L.CheckNumber(2)))))
		return 1
	},
	"intersect": func(L *lua.LState) int {
		L.Push(lua.LNumber(fOpIntersect(float64(L.CheckNumber(1)), float64(L.CheckNumber(2)))))
		return 1
	},
	"difference": func(L *lua.LState) int {
		L.Push(lua.LNumber(fOpDifference(float64(L.CheckNumber(1)), float64(L.CheckNumber(2)))))
		return 1
	},
	"reflect": func(L *lua.LState) int {
		r := pReflect(vecArg(L, 1), vecArg(L, 2), float64(L.CheckNumber(3)))
		L.Push(newVecTable(L, r.x, r.y, r.z))
		return 1
	},
}
