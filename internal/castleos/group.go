package castleos

import (
	"context"
	"strconv"
	"sync"
)

// Group is a named set of devices. Groups do not track their last known
// power state: Status stays "off" regardless of TurnOn/TurnOff.
type Group struct {
	ID     string
	Name   string
	Status string

	client *Client

	mu      sync.Mutex
	devices []*Device
}

func newGroup(c *Client) *Group {
	return &Group{Status: StatusOff, client: c}
}

// TurnOn switches every device in the group on.
func (g *Group) TurnOn(ctx context.Context) error {
	return g.setPower(ctx, true)
}

// TurnOff switches every device in the group off.
func (g *Group) TurnOff(ctx context.Context) error {
	return g.setPower(ctx, false)
}

func (g *Group) setPower(ctx context.Context, on bool) error {
	return g.client.command(ctx, EndpointToggleGroupPower, Params{
		{Key: "groupId", Value: g.ID},
		{Key: "power", Value: strconv.FormatBool(on)},
	})
}

// Devices returns the member devices. The list is fetched on first use and
// cached for the lifetime of the Group; an empty result is fetched again.
func (g *Group) Devices(ctx context.Context) ([]*Device, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.devices) > 0 {
		return g.devices, nil
	}

	devices, err := fetchList(ctx, g.client, EndpointGetDevicesForGroup, Params{
		{Key: "groupId", Value: g.ID},
	}, hydrateDevice)
	if err != nil {
		return nil, err
	}

	g.devices = devices
	return g.devices, nil
}
