package castleos

import (
	"context"
	"encoding/json"
	"strconv"
)

// Scene is a stored set of device, group, scene and script settings. The
// member lists are kept as raw response fragments.
type Scene struct {
	ID     string
	Name   string
	Status string

	Devices []json.RawMessage
	Groups  []json.RawMessage
	Scenes  []json.RawMessage
	Scripts []json.RawMessage

	client *Client
}

func newScene(c *Client) *Scene {
	return &Scene{Status: StatusOff, client: c}
}

// TurnOn activates the scene. Status is not updated.
func (s *Scene) TurnOn(ctx context.Context) error {
	return s.setPower(ctx, true)
}

// TurnOff deactivates the scene. Status is not updated.
func (s *Scene) TurnOff(ctx context.Context) error {
	return s.setPower(ctx, false)
}

func (s *Scene) setPower(ctx context.Context, on bool) error {
	return s.client.command(ctx, EndpointToggleScenePower, Params{
		{Key: "sceneId", Value: s.ID},
		{Key: "power", Value: strconv.FormatBool(on)},
	})
}
