package castleos

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestHydrateDevice_Status(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{name: "positive", raw: `{"uniqueId":"d","currentState":1}`, expected: StatusOn},
		{name: "full", raw: `{"uniqueId":"d","currentState":100}`, expected: StatusOn},
		{name: "fractional", raw: `{"uniqueId":"d","currentState":0.5}`, expected: StatusOn},
		{name: "string_number", raw: `{"uniqueId":"d","currentState":"75"}`, expected: StatusOn},
		{name: "zero", raw: `{"uniqueId":"d","currentState":0}`, expected: StatusOff},
		{name: "negative", raw: `{"uniqueId":"d","currentState":-5}`, expected: StatusOff},
		{name: "absent", raw: `{"uniqueId":"d"}`, expected: StatusOff},
		{name: "null", raw: `{"uniqueId":"d","currentState":null}`, expected: StatusOff},
		{name: "bool_true", raw: `{"uniqueId":"d","currentState":true}`, expected: StatusOn},
		{name: "bool_false", raw: `{"uniqueId":"d","currentState":false}`, expected: StatusOff},
		{name: "status_field_ignored", raw: `{"uniqueId":"d","status":"on","currentState":0}`, expected: StatusOff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := hydrateDevice(json.RawMessage(tt.raw), nil)
			if err != nil {
				t.Fatalf("hydrateDevice() error = %v", err)
			}
			if d.Status != tt.expected {
				t.Errorf("Status = %q, want %q", d.Status, tt.expected)
			}
		})
	}
}

func TestHydrateDevice_Groups(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []string
	}{
		{name: "none", raw: `{"uniqueId":"d"}`, expected: nil},
		{name: "all", raw: `{"uniqueId":"d","groupValue":"a","groupValue2":"b","groupValue3":"c"}`, expected: []string{"a", "b", "c"}},
		{name: "field_order_wins", raw: `{"uniqueId":"d","groupValue3":"c","groupValue":"a"}`, expected: []string{"a", "c"}},
		{name: "only_second", raw: `{"uniqueId":"d","groupValue2":"b"}`, expected: []string{"b"}},
		{name: "empty_skipped", raw: `{"uniqueId":"d","groupValue":"","groupValue2":"b","groupValue3":null}`, expected: []string{"b"}},
		{name: "duplicates_kept", raw: `{"uniqueId":"d","groupValue":"a","groupValue2":"a"}`, expected: []string{"a", "a"}},
		{name: "numeric", raw: `{"uniqueId":"d","groupValue":7}`, expected: []string{"7"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := hydrateDevice(json.RawMessage(tt.raw), nil)
			if err != nil {
				t.Fatalf("hydrateDevice() error = %v", err)
			}
			if !reflect.DeepEqual(d.Groups, tt.expected) {
				t.Errorf("Groups = %v, want %v", d.Groups, tt.expected)
			}
		})
	}
}

func TestHydrateDevice_Fields(t *testing.T) {
	raw := `{
		"uniqueId": "66d478e8",
		"name": "Desk Lamp",
		"address": "zw://12",
		"currentState": 60,
		"brightness": 0.6,
		"hue": 210,
		"saturation": 0.4,
		"canChangeColor": true,
		"canChangeColorTemperature": 1,
		"colourTemperatureMin": 2700,
		"lastStateChange": "2016-03-01T10:00:00",
		"firmware": "ignored"
	}`
	d, err := hydrateDevice(json.RawMessage(raw), nil)
	if err != nil {
		t.Fatalf("hydrateDevice() error = %v", err)
	}

	if d.ID != "66d478e8" || d.Name != "Desk Lamp" || d.Address != "zw://12" {
		t.Errorf("identity = %q %q %q", d.ID, d.Name, d.Address)
	}
	if d.Level != 60 || d.Brightness != 0.6 || d.Hue != 210 || d.Saturation != 0.4 {
		t.Errorf("levels = %v %v %v %v", d.Level, d.Brightness, d.Hue, d.Saturation)
	}
	if !d.CanChangeColor || !d.CanChangeColorTemperature {
		t.Error("expected both colour capabilities")
	}
	if d.ColourTemperatureMin != 2700 {
		t.Errorf("ColourTemperatureMin = %d, want 2700", d.ColourTemperatureMin)
	}
	if d.ColourTemperatureMax != DefaultColourTemperatureMax {
		t.Errorf("ColourTemperatureMax = %d, want default", d.ColourTemperatureMax)
	}
	if d.LastStateChange != "2016-03-01T10:00:00" {
		t.Errorf("LastStateChange = %q", d.LastStateChange)
	}
}

func TestHydrateDevice_Defaults(t *testing.T) {
	d, err := hydrateDevice(json.RawMessage(`{"uniqueId":"d"}`), nil)
	if err != nil {
		t.Fatalf("hydrateDevice() error = %v", err)
	}
	if d.CanChangeColor || d.CanChangeColorTemperature {
		t.Error("capabilities should default to false")
	}
	if d.ColourTemperatureMin != 2000 || d.ColourTemperatureMax != 6550 {
		t.Errorf("bounds = [%d, %d], want [2000, 6550]", d.ColourTemperatureMin, d.ColourTemperatureMax)
	}
}

func TestHydrateDevice_KeepsClient(t *testing.T) {
	c, _ := newTestClient(nil)
	d, err := hydrateDevice(json.RawMessage(`{"uniqueId":"d"}`), c)
	if err != nil {
		t.Fatalf("hydrateDevice() error = %v", err)
	}
	if d.client != c {
		t.Error("device should reference the client that hydrated it")
	}
}

func TestHydrateDevice_Invalid(t *testing.T) {
	for _, raw := range []string{`{"name":"x"}`, `{"uniqueId":""}`, `"str"`, `{"uniqueId":"d","currentState":"high"}`} {
		_, err := hydrateDevice(json.RawMessage(raw), nil)
		if !errors.Is(err, ErrDecode) {
			t.Errorf("hydrateDevice(%s) error = %v, want ErrDecode", raw, err)
		}
	}
}

func TestHydrateGroup(t *testing.T) {
	g, err := hydrateGroup(json.RawMessage(`{"key":"Living Room","value":"g1"}`), nil)
	if err != nil {
		t.Fatalf("hydrateGroup() error = %v", err)
	}
	if g.Name != "Living Room" || g.ID != "g1" || g.Status != StatusOff {
		t.Errorf("group = {%q %q %q}", g.Name, g.ID, g.Status)
	}

	g, err = hydrateGroup(json.RawMessage(`{"key":"Porch","value":12}`), nil)
	if err != nil || g.ID != "12" {
		t.Errorf("numeric value: group = %v, err = %v", g, err)
	}

	if _, err := hydrateGroup(json.RawMessage(`{"key":"Orphan"}`), nil); !errors.Is(err, ErrDecode) {
		t.Errorf("missing value error = %v, want ErrDecode", err)
	}
}

func TestHydrateScene(t *testing.T) {
	raw := `{
		"sceneName": "Movie",
		"sceneValue": "s1",
		"devicesInScene": [{"uniqueId":"d1","level":20}],
		"groupsInScene": [],
		"scriptsInScene": ["dim-hall"]
	}`
	s, err := hydrateScene(json.RawMessage(raw), nil)
	if err != nil {
		t.Fatalf("hydrateScene() error = %v", err)
	}

	if s.Name != "Movie" || s.ID != "s1" || s.Status != StatusOff {
		t.Errorf("scene = {%q %q %q}", s.Name, s.ID, s.Status)
	}
	if len(s.Devices) != 1 || string(s.Devices[0]) != `{"uniqueId":"d1","level":20}` {
		t.Errorf("Devices = %s", s.Devices)
	}
	if len(s.Groups) != 0 || len(s.Scenes) != 0 {
		t.Errorf("Groups = %s, Scenes = %s, want empty", s.Groups, s.Scenes)
	}
	if len(s.Scripts) != 1 || string(s.Scripts[0]) != `"dim-hall"` {
		t.Errorf("Scripts = %s", s.Scripts)
	}

	if _, err := hydrateScene(json.RawMessage(`{"sceneName":"x"}`), nil); !errors.Is(err, ErrDecode) {
		t.Errorf("missing sceneValue error = %v, want ErrDecode", err)
	}
}

func TestHydrateScene_LooseSubLists(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		devices int
		scripts int
	}{
		{name: "empty_string", raw: `{"sceneValue":"s","devicesInScene":""}`},
		{name: "false", raw: `{"sceneValue":"s","scriptsInScene":false}`},
		{name: "null", raw: `{"sceneValue":"s","devicesInScene":null,"scriptsInScene":null}`},
		{name: "zero", raw: `{"sceneValue":"s","devicesInScene":0}`},
		{name: "object", raw: `{"sceneValue":"s","devicesInScene":{"a":1}}`},
		{name: "mixed", raw: `{"sceneValue":"s","devicesInScene":[{"id":"d1"},{"id":"d2"}],"scriptsInScene":""}`, devices: 2},
		{name: "scripts_only", raw: `{"sceneValue":"s","devicesInScene":false,"scriptsInScene":["x"]}`, scripts: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := hydrateScene(json.RawMessage(tt.raw), nil)
			if err != nil {
				t.Fatalf("hydrateScene() error = %v", err)
			}
			if s.ID != "s" {
				t.Errorf("ID = %q, want s", s.ID)
			}
			if len(s.Devices) != tt.devices || len(s.Scripts) != tt.scripts {
				t.Errorf("Devices = %d, Scripts = %d, want %d, %d", len(s.Devices), len(s.Scripts), tt.devices, tt.scripts)
			}
			if len(s.Groups) != 0 || len(s.Scenes) != 0 {
				t.Errorf("Groups = %s, Scenes = %s, want empty", s.Groups, s.Scenes)
			}
		})
	}
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		value    any
		expected bool
	}{
		{nil, false},
		{false, false},
		{true, true},
		{float64(0), false},
		{float64(1), true},
		{"", false},
		{"0", false},
		{"ok", true},
		{[]any{}, false},
		{[]any{1}, true},
		{map[string]any{}, false},
		{map[string]any{"a": 1}, true},
	}

	for _, tt := range tests {
		if got := truthy(tt.value); got != tt.expected {
			t.Errorf("truthy(%#v) = %v, want %v", tt.value, got, tt.expected)
		}
	}
}
