// Package lua runs user scripts against a CastleOS controller.
package lua

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"

	"github.com/dokzlo13/castleos/internal/lua/modules"
)

// Runtime owns one Lua VM. Scripts run to completion on the calling
// goroutine, so the client sees a single sequential caller.
type Runtime struct {
	L    *lua.LState
	deps RuntimeDeps
}

// NewRuntime creates a new Lua runtime
func NewRuntime(deps RuntimeDeps) *Runtime {
	r := &Runtime{
		L:    lua.NewState(),
		deps: deps,
	}
	return r
}

// Close closes the Lua state.
func (r *Runtime) Close() {
	r.L.Close()
}

// registerModules registers all Lua modules
func (r *Runtime) registerModules(script string) {
	logModule := modules.NewLogModule(script)
	r.L.PreloadModule("log", logModule.Loader)

	castleModule := modules.NewCastleModule(r.deps.Client, r.deps.Recorder)
	r.L.PreloadModule("castle", castleModule.Loader)
}

// setArgs exposes script arguments as the global `arg` table.
func (r *Runtime) setArgs(args []string) {
	tbl := r.L.NewTable()
	for _, a := range args {
		tbl.Append(lua.LString(a))
	}
	r.L.SetGlobal("arg", tbl)
}

// RunFile loads and executes a Lua script.
func (r *Runtime) RunFile(ctx context.Context, path string, args ...string) error {
	name := filepath.Base(path)
	log.Info().Str("path", path).Msg("Running Lua script")

	return r.run(ctx, name, args, func() error {
		return r.L.DoFile(path)
	})
}

// RunString executes Lua source.
func (r *Runtime) RunString(ctx context.Context, name, source string, args ...string) error {
	return r.run(ctx, name, args, func() error {
		return r.L.DoString(source)
	})
}

func (r *Runtime) run(ctx context.Context, name string, args []string, do func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Str("script", name).Msg("Lua script panicked")
			err = fmt.Errorf("lua script %s panicked: %v", name, rec)
		}
	}()

	r.registerModules(name)
	r.setArgs(args)

	// Set context on LState so modules can access it via L.Context()
	r.L.SetContext(ctx)
	defer r.L.RemoveContext()

	if err := do(); err != nil {
		return fmt.Errorf("failed to execute Lua script: %w", err)
	}

	log.Debug().Str("script", name).Msg("Lua script finished")
	return nil
}
