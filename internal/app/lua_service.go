package app

import (
	"context"

	"github.com/dokzlo13/castleos/internal/config"
	luart "github.com/dokzlo13/castleos/internal/lua"
	"github.com/dokzlo13/castleos/internal/lua/modules"
)

// LuaService runs scripts against the controller. Each run gets a fresh VM.
type LuaService struct {
	cfg  *config.Config
	deps luart.RuntimeDeps
}

// NewLuaService creates a new LuaService.
func NewLuaService(cfg *config.Config, castle *CastleService, recorder modules.Recorder) *LuaService {
	return &LuaService{
		cfg: cfg,
		deps: luart.RuntimeDeps{
			Client:   castle.Client,
			Recorder: recorder,
		},
	}
}

// Run executes path, or the configured script when path is empty.
func (s *LuaService) Run(ctx context.Context, path string, args []string) error {
	if path == "" {
		path = s.cfg.Script
	}

	rt := luart.NewRuntime(s.deps)
	defer rt.Close()

	return rt.RunFile(ctx, path, args...)
}
