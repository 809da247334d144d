package castleos

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// The controller is loose about JSON types: numbers arrive as strings and
// flags as 0/1 depending on firmware. The flex types below accept both.

// flexString accepts a JSON string, number, boolean or null. Booleans
// become "1" and "".
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "", "null", "false":
		*s = ""
		return nil
	case "true":
		*s = "1"
		return nil
	}
	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*s = flexString(n.String())
	return nil
}

// flexFloat accepts a JSON number, numeric string, boolean or null. Null and
// "" leave the value unset; true and false are 1 and 0.
type flexFloat struct {
	Value float64
	Set   bool
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "true":
		*f = flexFloat{Value: 1, Set: true}
		return nil
	case "false":
		*f = flexFloat{Value: 0, Set: true}
		return nil
	}

	var s flexString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	if s == "" {
		*f = flexFloat{}
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(s)), 64)
	if err != nil {
		return fmt.Errorf("expected number, got %q", string(s))
	}
	*f = flexFloat{Value: v, Set: true}
	return nil
}

// flexBool accepts true/false, 0/1 and their string forms.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "true":
		*b = true
		return nil
	case "false", "null":
		*b = false
		return nil
	}
	var s flexString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(string(s))) {
	case "", "0", "false":
		*b = false
	default:
		*b = true
	}
	return nil
}

// rawList keeps the elements of a non-empty JSON array. Any other value
// leaves it empty.
type rawList []json.RawMessage

func (l *rawList) UnmarshalJSON(data []byte) error {
	*l = nil
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return err
	}
	if len(elems) > 0 {
		*l = elems
	}
	return nil
}

// truthy reports whether a decoded response counts as an acknowledgement:
// null, false, zero, "", "0" and empty arrays or objects do not.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case float64:
		return val != 0
	case string:
		return val != "" && val != "0"
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	default:
		return true
	}
}

// decodeElements splits a listing body into its raw elements. An empty or
// falsy body has no elements; a single object is one element.
func decodeElements(op string, body []byte) ([]json.RawMessage, error) {
	if len(body) == 0 {
		return nil, nil
	}

	switch body[0] {
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(body, &elems); err != nil {
			return nil, newError(KindDecode, op, err)
		}
		return elems, nil
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(body, &obj); err != nil {
			return nil, newError(KindDecode, op, err)
		}
		if len(obj) == 0 {
			return nil, nil
		}
		return []json.RawMessage{body}, nil
	}

	var scalar any
	if err := json.Unmarshal(body, &scalar); err != nil {
		return nil, newError(KindDecode, op, err)
	}
	if !truthy(scalar) {
		return nil, nil
	}
	return nil, newError(KindDecode, op, fmt.Errorf("expected a list, got %s", body))
}

type hydrateFunc[T any] func(raw json.RawMessage, c *Client) (T, error)

// fetchList calls a listing endpoint and hydrates every element, skipping
// the ones that cannot be hydrated.
func fetchList[T any](ctx context.Context, c *Client, op string, params Params, hydrate hydrateFunc[T]) ([]T, error) {
	body, err := c.call(ctx, op, params)
	if err != nil {
		return nil, err
	}

	elems, err := decodeElements(op, body)
	if err != nil {
		return nil, err
	}

	items := make([]T, 0, len(elems))
	for i, raw := range elems {
		item, err := hydrate(raw, c)
		if err != nil {
			log.Warn().Err(err).Str("path", op).Int("index", i).Msg("Skipping unusable element")
			continue
		}
		items = append(items, item)
	}

	return items, nil
}

var errMissingID = errors.New("missing identifier")

// deviceResponse is the device shape returned by GetDevices and GetDevicesForGroup.
type deviceResponse struct {
	UniqueID                  flexString `json:"uniqueId"`
	Name                      flexString `json:"name"`
	Address                   flexString `json:"address"`
	CurrentState              flexFloat  `json:"currentState"`
	Brightness                flexFloat  `json:"brightness"`
	Hue                       flexFloat  `json:"hue"`
	Saturation                flexFloat  `json:"saturation"`
	CanChangeColor            flexBool   `json:"canChangeColor"`
	CanChangeColorTemperature flexBool   `json:"canChangeColorTemperature"`
	ColourTemperatureMin      flexFloat  `json:"colourTemperatureMin"`
	ColourTemperatureMax      flexFloat  `json:"colourTemperatureMax"`
	LastStateChange           flexString `json:"lastStateChange"`
	GroupValue                flexString `json:"groupValue"`
	GroupValue2               flexString `json:"groupValue2"`
	GroupValue3               flexString `json:"groupValue3"`
}

func hydrateDevice(raw json.RawMessage, c *Client) (*Device, error) {
	var resp deviceResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, newError(KindDecode, "device", err)
	}
	if resp.UniqueID == "" {
		return nil, newError(KindDecode, "device", fmt.Errorf("uniqueId: %w", errMissingID))
	}

	d := newDevice(c)
	d.ID = string(resp.UniqueID)
	d.Name = string(resp.Name)
	d.Address = string(resp.Address)
	d.Level = resp.CurrentState.Value
	d.Brightness = resp.Brightness.Value
	d.Hue = resp.Hue.Value
	d.Saturation = resp.Saturation.Value
	d.CanChangeColor = bool(resp.CanChangeColor)
	d.CanChangeColorTemperature = bool(resp.CanChangeColorTemperature)
	d.LastStateChange = string(resp.LastStateChange)
	if resp.ColourTemperatureMin.Set {
		d.ColourTemperatureMin = int(resp.ColourTemperatureMin.Value)
	}
	if resp.ColourTemperatureMax.Set {
		d.ColourTemperatureMax = int(resp.ColourTemperatureMax.Value)
	}

	for _, g := range []flexString{resp.GroupValue, resp.GroupValue2, resp.GroupValue3} {
		if g != "" {
			d.Groups = append(d.Groups, string(g))
		}
	}

	if resp.CurrentState.Value > 0 {
		d.Status = StatusOn
	}

	return d, nil
}

// groupResponse is the key/value pair shape returned by GetAllGroups.
type groupResponse struct {
	Key   flexString `json:"key"`
	Value flexString `json:"value"`
}

func hydrateGroup(raw json.RawMessage, c *Client) (*Group, error) {
	var resp groupResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, newError(KindDecode, "group", err)
	}
	if resp.Value == "" {
		return nil, newError(KindDecode, "group", fmt.Errorf("value: %w", errMissingID))
	}

	g := newGroup(c)
	g.Name = string(resp.Key)
	g.ID = string(resp.Value)
	return g, nil
}

// sceneResponse is the scene shape returned by GetAllScenes.
type sceneResponse struct {
	SceneName      flexString `json:"sceneName"`
	SceneValue     flexString `json:"sceneValue"`
	DevicesInScene rawList    `json:"devicesInScene"`
	GroupsInScene  rawList    `json:"groupsInScene"`
	ScenesInScene  rawList    `json:"scenesInScene"`
	ScriptsInScene rawList    `json:"scriptsInScene"`
}

func hydrateScene(raw json.RawMessage, c *Client) (*Scene, error) {
	var resp sceneResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, newError(KindDecode, "scene", err)
	}
	if resp.SceneValue == "" {
		return nil, newError(KindDecode, "scene", fmt.Errorf("sceneValue: %w", errMissingID))
	}

	s := newScene(c)
	s.Name = string(resp.SceneName)
	s.ID = string(resp.SceneValue)
	s.Devices = resp.DevicesInScene
	s.Groups = resp.GroupsInScene
	s.Scenes = resp.ScenesInScene
	s.Scripts = resp.ScriptsInScene
	return s, nil
}
