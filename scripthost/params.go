package scripthost

import (
	"strconv"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// ParamType enumerates the kinds a parameter spec's `type` field may be.
type ParamType string

const (
	ParamBool   ParamType = "bool"
	ParamInt    ParamType = "int"
	ParamFloat  ParamType = "float"
	ParamEnum   ParamType = "enum"
	ParamButton ParamType = "button"
)

// ParamSpec describes one host-managed parameter (§4.D "Parameters").
type ParamSpec struct {
	Key            string
	Label          string
	Type           ParamType
	Tooltip        string
	Primary        bool
	Section        string
	InlineWithPrev bool
	Width          float64
	UI             string
	Min, Max, Step float64
	HasRange       bool
	EnumItems      []string
	EnabledIf      string
}

func parseParamSpecs(t *lua.LTable) []ParamSpec {
	var out []ParamSpec
	t.ForEach(func(_, v lua.LValue) {
		pt, ok := v.(*lua.LTable)
		if !ok {
			return
		}
		p := ParamSpec{
			Key:   str(pt, "key"),
			Label: str(pt, "label"),
			Type:  ParamType(str(pt, "type")),
		}
		p.Tooltip = str(pt, "tooltip")
		p.Section = str(pt, "section")
		p.UI = str(pt, "ui")
		p.EnabledIf = str(pt, "enabled_if")
		p.Primary = boolField(pt, "primary")
		p.InlineWithPrev = boolField(pt, "inline_with_prev")
		p.Width = numField(pt, "width", 0)

		if lo, hi, step, ok := rangeField(pt); ok {
			p.HasRange = true
			p.Min, p.Max, p.Step = lo, hi, step
		}
		if items := pt.RawGetString("items"); items.Type() == lua.LTTable {
			it := items.(*lua.LTable)
			for i := 1; i <= it.Len(); i++ {
				p.EnumItems = append(p.EnumItems, lua.LVAsString(it.RawGetInt(i)))
			}
		}
		out = append(out, p)
	})
	return out
}

func str(t *lua.LTable, key string) string {
	v := t.RawGetString(key)
	if v.Type() == lua.LTString {
		return string(v.(lua.LString))
	}
	return ""
}

func boolField(t *lua.LTable, key string) bool {
	v := t.RawGetString(key)
	return v.Type() == lua.LTBool && bool(v.(lua.LBool))
}

func numField(t *lua.LTable, key string, def float64) float64 {
	v := t.RawGetString(key)
	if v.Type() == lua.LTNumber {
		return float64(v.(lua.LNumber))
	}
	return def
}

func rangeField(t *lua.LTable) (lo, hi, step float64, ok bool) {
	r := t.RawGetString("range")
	rt, isTable := r.(*lua.LTable)
	if !isTable {
		return 0, 0, 0, false
	}
	lo = numField(rt, "min", 0)
	hi = numField(rt, "max", 1)
	step = numField(rt, "step", 0)
	return lo, hi, step, true
}

// parseHexColor accepts "#RRGGBB" or "RRGGBB" and returns a packed ABGR
// color suitable for ColorResolver.FromPacked, or false on failure.
func parseHexColor(s string) (int, bool) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 16, 64)
	if err != nil {
		return 0, false
	}
	r := (n >> 16) & 0xFF
	g := (n >> 8) & 0xFF
	b := n & 0xFF
	packed := int(0xFF000000 | (b << 16) | (g << 8) | r)
	return packed, true
}
