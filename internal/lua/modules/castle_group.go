package modules

import (
	"encoding/json"

	lua "github.com/yuin/gopher-lua"

	"github.com/dokzlo13/castleos/internal/castleos"
)

const (
	groupTypeName = "castle.group"
	sceneTypeName = "castle.scene"
)

// GroupUserdata wraps a castleos.Group for Lua access
type GroupUserdata struct {
	group *castleos.Group
	mod   *CastleModule
}

// SceneUserdata wraps a castleos.Scene for Lua access
type SceneUserdata struct {
	scene *castleos.Scene
	mod   *CastleModule
}

// registerGroupType registers the castle.group metatable
func registerGroupType(L *lua.LState) {
	mt := L.NewTypeMetatable(groupTypeName)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), groupMethods))
}

// registerSceneType registers the castle.scene metatable
func registerSceneType(L *lua.LState) {
	mt := L.NewTypeMetatable(sceneTypeName)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), sceneMethods))
}

var groupMethods = map[string]lua.LGFunction{
	"id":      groupGetID,
	"name":    groupGetName,
	"devices": groupGetDevices,
	"on":      groupOn,
	"off":     groupOff,
}

var sceneMethods = map[string]lua.LGFunction{
	"id":      sceneGetID,
	"name":    sceneGetName,
	"devices": sceneGetDevices,
	"groups":  sceneGetGroups,
	"scenes":  sceneGetScenes,
	"scripts": sceneGetScripts,
	"on":      sceneOn,
	"off":     sceneOff,
}

func (m *CastleModule) newGroup(L *lua.LState, g *castleos.Group) *lua.LUserData {
	ud := L.NewUserData()
	ud.Value = &GroupUserdata{group: g, mod: m}
	L.SetMetatable(ud, L.GetTypeMetatable(groupTypeName))
	return ud
}

func (m *CastleModule) newScene(L *lua.LState, s *castleos.Scene) *lua.LUserData {
	ud := L.NewUserData()
	ud.Value = &SceneUserdata{scene: s, mod: m}
	L.SetMetatable(ud, L.GetTypeMetatable(sceneTypeName))
	return ud
}

func checkGroup(L *lua.LState) *GroupUserdata {
	ud := L.CheckUserData(1)
	if v, ok := ud.Value.(*GroupUserdata); ok {
		return v
	}
	L.ArgError(1, "castle.group expected")
	return nil
}

func checkScene(L *lua.LState) *SceneUserdata {
	ud := L.CheckUserData(1)
	if v, ok := ud.Value.(*SceneUserdata); ok {
		return v
	}
	L.ArgError(1, "castle.scene expected")
	return nil
}

// group:id() -> string
func groupGetID(L *lua.LState) int {
	L.Push(lua.LString(checkGroup(L).group.ID))
	return 1
}

// group:name() -> string
func groupGetName(L *lua.LState) int {
	L.Push(lua.LString(checkGroup(L).group.Name))
	return 1
}

// group:devices() -> (table of device, err)
// Members are fetched once per group object.
func groupGetDevices(L *lua.LState) int {
	g := checkGroup(L)
	devices, err := g.group.Devices(ctxOf(L))
	if err != nil {
		return pushError(L, err)
	}

	tbl := L.NewTable()
	for _, d := range devices {
		tbl.Append(g.mod.newDevice(L, d))
	}
	L.Push(tbl)
	L.Push(lua.LNil)
	return 2
}

// group:on() -> (ok, err)
func groupOn(L *lua.LState) int {
	g := checkGroup(L)
	err := g.group.TurnOn(ctxOf(L))
	return g.mod.pushResult(L, "group.on", g.group.ID, nil, err)
}

// group:off() -> (ok, err)
func groupOff(L *lua.LState) int {
	g := checkGroup(L)
	err := g.group.TurnOff(ctxOf(L))
	return g.mod.pushResult(L, "group.off", g.group.ID, nil, err)
}

// scene:id() -> string
func sceneGetID(L *lua.LState) int {
	L.Push(lua.LString(checkScene(L).scene.ID))
	return 1
}

// scene:name() -> string
func sceneGetName(L *lua.LState) int {
	L.Push(lua.LString(checkScene(L).scene.Name))
	return 1
}

// scene:devices() -> table of raw entries
func sceneGetDevices(L *lua.LState) int {
	L.Push(rawListToLua(L, checkScene(L).scene.Devices))
	return 1
}

// scene:groups() -> table of raw entries
func sceneGetGroups(L *lua.LState) int {
	L.Push(rawListToLua(L, checkScene(L).scene.Groups))
	return 1
}

// scene:scenes() -> table of raw entries
func sceneGetScenes(L *lua.LState) int {
	L.Push(rawListToLua(L, checkScene(L).scene.Scenes))
	return 1
}

// scene:scripts() -> table of raw entries
func sceneGetScripts(L *lua.LState) int {
	L.Push(rawListToLua(L, checkScene(L).scene.Scripts))
	return 1
}

// scene:on() -> (ok, err)
func sceneOn(L *lua.LState) int {
	s := checkScene(L)
	err := s.scene.TurnOn(ctxOf(L))
	return s.mod.pushResult(L, "scene.on", s.scene.ID, nil, err)
}

// scene:off() -> (ok, err)
func sceneOff(L *lua.LState) int {
	s := checkScene(L)
	err := s.scene.TurnOff(ctxOf(L))
	return s.mod.pushResult(L, "scene.off", s.scene.ID, nil, err)
}

// rawListToLua converts raw JSON fragments to a Lua array. Fragments that
// fail to decode become nil entries.
func rawListToLua(L *lua.LState, items []json.RawMessage) *lua.LTable {
	tbl := L.NewTable()
	for i, raw := range items {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		tbl.RawSetInt(i+1, jsonToLua(L, v))
	}
	return tbl
}
