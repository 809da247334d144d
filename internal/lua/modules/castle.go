package modules

import (
	"context"

	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"

	"github.com/dokzlo13/castleos/internal/castleos"
)

// Recorder receives the outcome of every command a script sends.
type Recorder interface {
	Record(host, command, target string, payload map[string]any, cmdErr error) (string, error)
}

// CastleModule provides castle.* functions to Lua.
//
// ERROR HANDLING CONVENTION:
// All functions that can fail return two values: (result, error_string).
//   - On success: (result, nil)
//   - On error: (nil/false, "error message")
//
// Example Lua usage:
//
//	local castle = require("castle")
//	local lamp, err = castle.device("66d478e8")
//	if err then
//	    log.error("Failed: " .. err)
//	    return
//	end
//	lamp:on()
//	lamp:dim(40)
//
//	for _, g in ipairs(castle.groups()) do
//	    if g:name() == "Hallway" then g:off() end
//	end
type CastleModule struct {
	client   *castleos.Client
	recorder Recorder
}

// NewCastleModule creates a new castle module. recorder may be nil.
func NewCastleModule(client *castleos.Client, recorder Recorder) *CastleModule {
	return &CastleModule{
		client:   client,
		recorder: recorder,
	}
}

// Loader is the module loader for Lua
func (m *CastleModule) Loader(L *lua.LState) int {
	// Register userdata metatables
	registerDeviceType(L)
	registerGroupType(L)
	registerSceneType(L)

	mod := L.NewTable()

	L.SetField(mod, "devices", L.NewFunction(m.getDevices))
	L.SetField(mod, "device", L.NewFunction(m.getDevice))
	L.SetField(mod, "groups", L.NewFunction(m.getGroups))
	L.SetField(mod, "group", L.NewFunction(m.getGroup))
	L.SetField(mod, "scenes", L.NewFunction(m.getScenes))
	L.SetField(mod, "scene", L.NewFunction(m.getScene))
	L.SetField(mod, "authenticate", L.NewFunction(m.authenticate))
	L.SetField(mod, "has_token", L.NewFunction(m.hasToken))

	L.Push(mod)
	return 1
}

// ctxOf returns the context set on the LState by the runtime
func ctxOf(L *lua.LState) context.Context {
	if ctx := L.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// pushError pushes (nil, err) and returns 2
func pushError(L *lua.LState, err error) int {
	L.Push(lua.LNil)
	L.Push(lua.LString(err.Error()))
	return 2
}

// pushResult pushes (true, nil) or (false, err) for a command and records it
func (m *CastleModule) pushResult(L *lua.LState, command, target string, payload map[string]any, err error) int {
	if m.recorder != nil {
		if _, recErr := m.recorder.Record(m.client.Host(), command, target, payload, err); recErr != nil {
			log.Warn().Err(recErr).Str("command", command).Msg("Failed to record command")
		}
	}
	if err != nil {
		log.Error().Err(err).Str("command", command).Str("target", target).Msg("Command failed")
		L.Push(lua.LFalse)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LTrue)
	L.Push(lua.LNil)
	return 2
}

// =============================================================================
// Factory Methods (return userdata)
// =============================================================================

// castle.devices() -> (table of device, err)
func (m *CastleModule) getDevices(L *lua.LState) int {
	devices, err := m.client.Devices(ctxOf(L))
	if err != nil {
		return pushError(L, err)
	}

	tbl := L.NewTable()
	for _, d := range devices {
		tbl.Append(m.newDevice(L, d))
	}
	L.Push(tbl)
	L.Push(lua.LNil)
	return 2
}

// castle.device(id) -> (device, err)
func (m *CastleModule) getDevice(L *lua.LState) int {
	id := L.CheckString(1)

	d, err := m.client.Device(ctxOf(L), id)
	if err != nil {
		return pushError(L, err)
	}
	L.Push(m.newDevice(L, d))
	L.Push(lua.LNil)
	return 2
}

// castle.groups() -> (table of group, err)
func (m *CastleModule) getGroups(L *lua.LState) int {
	groups, err := m.client.Groups(ctxOf(L))
	if err != nil {
		return pushError(L, err)
	}

	tbl := L.NewTable()
	for _, g := range groups {
		tbl.Append(m.newGroup(L, g))
	}
	L.Push(tbl)
	L.Push(lua.LNil)
	return 2
}

// castle.group(id) -> (group, err)
func (m *CastleModule) getGroup(L *lua.LState) int {
	id := L.CheckString(1)

	g, err := m.client.Group(ctxOf(L), id)
	if err != nil {
		return pushError(L, err)
	}
	L.Push(m.newGroup(L, g))
	L.Push(lua.LNil)
	return 2
}

// castle.scenes() -> (table of scene, err)
func (m *CastleModule) getScenes(L *lua.LState) int {
	scenes, err := m.client.Scenes(ctxOf(L))
	if err != nil {
		return pushError(L, err)
	}

	tbl := L.NewTable()
	for _, s := range scenes {
		tbl.Append(m.newScene(L, s))
	}
	L.Push(tbl)
	L.Push(lua.LNil)
	return 2
}

// castle.scene(id) -> (scene, err)
func (m *CastleModule) getScene(L *lua.LState) int {
	id := L.CheckString(1)

	s, err := m.client.Scene(ctxOf(L), id)
	if err != nil {
		return pushError(L, err)
	}
	L.Push(m.newScene(L, s))
	L.Push(lua.LNil)
	return 2
}

// castle.authenticate() -> (true, err)
// The token itself never reaches the script.
func (m *CastleModule) authenticate(L *lua.LState) int {
	if _, err := m.client.GetToken(ctxOf(L)); err != nil {
		L.Push(lua.LFalse)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LTrue)
	L.Push(lua.LNil)
	return 2
}

// castle.has_token() -> bool
func (m *CastleModule) hasToken(L *lua.LState) int {
	L.Push(lua.LBool(m.client.HasToken()))
	return 1
}
