// Package session persists the editor's cross-run preferences: last
// selected theme and per-tool parameter values, keyed by tool id (spec §6
// "Persisted session state"). The record is an arbitrary JSON object;
// the core only consumes the two fields named below.
package session

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/phosphor-art/phosphor/core"
)

// ParamValue is one tagged-union entry of a tool's parameter map.
type ParamValue struct {
	Type   string   `json:"type"`
	Bool   *bool    `json:"bool,omitempty"`
	Int    *int64   `json:"int,omitempty"`
	Float  *float64 `json:"float,omitempty"`
	String *string  `json:"string,omitempty"`
}

func BoolValue(v bool) ParamValue     { return ParamValue{Type: "bool", Bool: &v} }
func IntValue(v int64) ParamValue     { return ParamValue{Type: "int", Int: &v} }
func FloatValue(v float64) ParamValue { return ParamValue{Type: "float", Float: &v} }
func StringValue(v string) ParamValue { return ParamValue{Type: "string", String: &v} }

// State is the persisted record. Extra is any additional field the host
// application wrote (window placements, flags) that the core round-trips
// without interpreting.
type State struct {
	ThemeID         string                           `json:"theme_id"`
	ToolParamValues map[string]map[string]ParamValue `json:"tool_param_values"`
	Extra           map[string]json.RawMessage       `json:"-"`
}

// New returns an empty, ready-to-use State.
func New() *State {
	return &State{ToolParamValues: make(map[string]map[string]ParamValue)}
}

// SetParam stores a value for (toolID, key), creating the inner map if needed.
func (s *State) SetParam(toolID, key string, v ParamValue) {
	if s.ToolParamValues == nil {
		s.ToolParamValues = make(map[string]map[string]ParamValue)
	}
	m := s.ToolParamValues[toolID]
	if m == nil {
		m = make(map[string]ParamValue)
		s.ToolParamValues[toolID] = m
	}
	m[key] = v
}

// Param looks up a stored value, returning ok=false if absent.
func (s *State) Param(toolID, key string) (ParamValue, bool) {
	m, ok := s.ToolParamValues[toolID]
	if !ok {
		return ParamValue{}, false
	}
	v, ok := m[key]
	return v, ok
}

// Load reads and parses the session file at path. A missing file returns
// a fresh empty state, not an error.
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("%w: read session: %v", core.ErrIO, err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: parse session: %v", core.ErrIO, err)
	}

	s := New()
	if v, ok := raw["theme_id"]; ok {
		_ = json.Unmarshal(v, &s.ThemeID)
		delete(raw, "theme_id")
	}
	if v, ok := raw["tool_param_values"]; ok {
		_ = json.Unmarshal(v, &s.ToolParamValues)
		delete(raw, "tool_param_values")
	}
	s.Extra = raw
	return s, nil
}

// Save serializes state to path, merging back any unrecognized top-level
// fields it was loaded with so the host's own settings survive a save
// round-trip through the core.
func Save(path string, s *State) error {
	out := make(map[string]json.RawMessage, len(s.Extra)+2)
	for k, v := range s.Extra {
		out[k] = v
	}
	themeJSON, err := json.Marshal(s.ThemeID)
	if err != nil {
		return fmt.Errorf("%w: marshal theme_id: %v", core.ErrIO, err)
	}
	out["theme_id"] = themeJSON

	paramsJSON, err := json.Marshal(s.ToolParamValues)
	if err != nil {
		return fmt.Errorf("%w: marshal tool_param_values: %v", core.ErrIO, err)
	}
	out["tool_param_values"] = paramsJSON

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal session: %v", core.ErrIO, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: write session: %v", core.ErrIO, err)
	}
	return nil
}
