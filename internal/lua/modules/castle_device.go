package modules

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dokzlo13/castleos/internal/castleos"
)

const deviceTypeName = "castle.device"

// DeviceUserdata wraps a castleos.Device for Lua access
type DeviceUserdata struct {
	device *castleos.Device
	mod    *CastleModule
}

// registerDeviceType registers the castle.device metatable
func registerDeviceType(L *lua.LState) {
	mt := L.NewTypeMetatable(deviceTypeName)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), deviceMethods))
}

var deviceMethods = map[string]lua.LGFunction{
	// Getters
	"id":        deviceGetID,
	"name":      deviceGetName,
	"address":   deviceGetAddress,
	"status":    deviceGetStatus,
	"is_on":     deviceIsOn,
	"level":     deviceGetLevel,
	"groups":    deviceGetGroups,
	"can_color": deviceCanColor,
	"can_ct":    deviceCanColorTemperature,

	// Commands return (ok, err)
	"on":                 deviceOn,
	"off":                deviceOff,
	"dim":                deviceDim,
	"colour":             deviceColour,
	"color":              deviceColour,
	"colour_temperature": deviceColourTemperature,
	"color_temperature":  deviceColourTemperature,
}

func (m *CastleModule) newDevice(L *lua.LState, d *castleos.Device) *lua.LUserData {
	ud := L.NewUserData()
	ud.Value = &DeviceUserdata{device: d, mod: m}
	L.SetMetatable(ud, L.GetTypeMetatable(deviceTypeName))
	return ud
}

// checkDevice retrieves the DeviceUserdata from the Lua stack
func checkDevice(L *lua.LState) *DeviceUserdata {
	ud := L.CheckUserData(1)
	if v, ok := ud.Value.(*DeviceUserdata); ok {
		return v
	}
	L.ArgError(1, "castle.device expected")
	return nil
}

// =============================================================================
// Getters
// =============================================================================

// device:id() -> string
func deviceGetID(L *lua.LState) int {
	L.Push(lua.LString(checkDevice(L).device.ID))
	return 1
}

// device:name() -> string
func deviceGetName(L *lua.LState) int {
	L.Push(lua.LString(checkDevice(L).device.Name))
	return 1
}

// device:address() -> string
func deviceGetAddress(L *lua.LState) int {
	L.Push(lua.LString(checkDevice(L).device.Address))
	return 1
}

// device:status() -> "on" | "off"
func deviceGetStatus(L *lua.LState) int {
	L.Push(lua.LString(checkDevice(L).device.Status))
	return 1
}

// device:is_on() -> bool
func deviceIsOn(L *lua.LState) int {
	L.Push(lua.LBool(checkDevice(L).device.IsOn()))
	return 1
}

// device:level() -> number
func deviceGetLevel(L *lua.LState) int {
	L.Push(lua.LNumber(checkDevice(L).device.Level))
	return 1
}

// device:groups() -> table of group IDs
func deviceGetGroups(L *lua.LState) int {
	tbl := L.NewTable()
	for _, g := range checkDevice(L).device.Groups {
		tbl.Append(lua.LString(g))
	}
	L.Push(tbl)
	return 1
}

// device:can_color() -> bool
func deviceCanColor(L *lua.LState) int {
	L.Push(lua.LBool(checkDevice(L).device.CanChangeColor))
	return 1
}

// device:can_ct() -> bool
func deviceCanColorTemperature(L *lua.LState) int {
	L.Push(lua.LBool(checkDevice(L).device.CanChangeColorTemperature))
	return 1
}

// =============================================================================
// Commands
// =============================================================================

// device:on() -> (ok, err)
func deviceOn(L *lua.LState) int {
	d := checkDevice(L)
	err := d.device.TurnOn(ctxOf(L))
	return d.mod.pushResult(L, "device.on", d.device.ID, nil, err)
}

// device:off() -> (ok, err)
func deviceOff(L *lua.LState) int {
	d := checkDevice(L)
	err := d.device.TurnOff(ctxOf(L))
	return d.mod.pushResult(L, "device.off", d.device.ID, nil, err)
}

// device:dim([percent]) -> (ok, err)
// Without percent the level drops by 10.
func deviceDim(L *lua.LState) int {
	d := checkDevice(L)
	ctx := ctxOf(L)

	if L.Get(2) == lua.LNil {
		err := d.device.Dim(ctx)
		return d.mod.pushResult(L, "device.dim", d.device.ID, nil, err)
	}

	percent := float64(L.CheckNumber(2))
	err := d.device.DimTo(ctx, percent)
	return d.mod.pushResult(L, "device.dim", d.device.ID, map[string]any{"percent": percent}, err)
}

// device:colour(hue, saturation, brightness) -> (ok, err)
func deviceColour(L *lua.LState) int {
	d := checkDevice(L)
	hue := float64(L.CheckNumber(2))
	sat := float64(L.CheckNumber(3))
	bri := float64(L.CheckNumber(4))

	err := d.device.Colour(ctxOf(L), hue, sat, bri)
	return d.mod.pushResult(L, "device.colour", d.device.ID, map[string]any{
		"hue":        hue,
		"saturation": sat,
		"brightness": bri,
	}, err)
}

// device:colour_temperature(kelvin) -> (ok, err)
func deviceColourTemperature(L *lua.LState) int {
	d := checkDevice(L)
	kelvin := L.CheckInt(2)

	err := d.device.ColourTemperature(ctxOf(L), kelvin)
	return d.mod.pushResult(L, "device.colour_temperature", d.device.ID, map[string]any{
		"kelvin": d.device.ClampColourTemperature(kelvin),
	}, err)
}
