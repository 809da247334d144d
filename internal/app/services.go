package app

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/castleos/internal/config"
	"github.com/dokzlo13/castleos/internal/db"
	"github.com/dokzlo13/castleos/internal/ledger"
	"github.com/dokzlo13/castleos/internal/lua/modules"
	"github.com/dokzlo13/castleos/internal/storage"
	"github.com/dokzlo13/castleos/internal/storage/kv"
)

// Services is a container for all application services.
// It manages service initialization order and dependencies.
type Services struct {
	cfg *config.Config

	// Core infrastructure. DB is nil for an in-memory database and Ledger is
	// nil unless enabled.
	DB     *db.DB
	Ledger *ledger.Ledger
	Tokens *storage.TokenStore

	// High-level services
	Castle *CastleService
	Lua    *LuaService
}

// NewServices creates all services with proper dependency injection.
func NewServices(cfg *config.Config) (*Services, error) {
	s := &Services{cfg: cfg}

	var tokenBucket kv.Bucket
	if cfg.Database.InMemory() {
		tokenBucket = kv.NewMemoryBucket(storage.TokenBucket)
		if cfg.Ledger.Enabled {
			log.Warn().Msg("Command ledger needs a database file, disabled for in-memory database")
		}
	} else {
		database, err := db.Open(cfg.Database.Path)
		if err != nil {
			return nil, err
		}
		s.DB = database
		tokenBucket = kv.NewSQLiteBucket(database.DB, storage.TokenBucket)

		if cfg.Ledger.Enabled {
			s.Ledger = ledger.New(database.DB)
			s.pruneLedger()
		}
	}

	// Session tokens live in the kv store
	s.Tokens = storage.NewTokenStore(tokenBucket)

	var err error
	s.Castle, err = NewCastleService(cfg, s.Tokens)
	if err != nil {
		s.Close()
		return nil, err
	}

	s.Lua = NewLuaService(cfg, s.Castle, s.recorder())

	return s, nil
}

// recorder returns the ledger as a script recorder, or nil when disabled.
func (s *Services) recorder() modules.Recorder {
	if s.Ledger == nil {
		return nil
	}
	return s.Ledger
}

func (s *Services) pruneLedger() {
	days := s.cfg.Ledger.RetentionDays
	if days <= 0 {
		return
	}
	n, err := s.Ledger.DeleteOlderThan(time.Duration(days) * 24 * time.Hour)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to prune command ledger")
		return
	}
	if n > 0 {
		log.Debug().Int64("deleted", n).Int("retention_days", days).Msg("Pruned command ledger")
	}
}

// Close releases all resources.
func (s *Services) Close() {
	if s.Castle != nil {
		s.Castle.Close()
	}
	if s.DB != nil {
		s.DB.Close()
	}
}
