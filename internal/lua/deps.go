package lua

import (
	"github.com/dokzlo13/castleos/internal/castleos"
	"github.com/dokzlo13/castleos/internal/lua/modules"
)

// RuntimeDeps groups all dependencies needed by Lua runtime.
type RuntimeDeps struct {
	Client   *castleos.Client
	Recorder modules.Recorder // optional; receives every command a script sends
}
