package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/castleos/internal/castleos"
	"github.com/dokzlo13/castleos/internal/config"
	"github.com/dokzlo13/castleos/internal/storage"
)

// CastleService wraps the controller client and keeps its session token
// persisted across runs.
type CastleService struct {
	cfg    *config.Config
	Client *castleos.Client
	tokens *storage.TokenStore
}

// NewCastleService creates the client. A token in the config wins over a
// stored one; a stored one is used when the config has none.
func NewCastleService(cfg *config.Config, tokens *storage.TokenStore) (*CastleService, error) {
	c := cfg.CastleOS
	s := &CastleService{cfg: cfg, tokens: tokens}

	token := c.Token
	if token == "" && tokens != nil {
		stored, err := tokens.Load(c.Host, c.Username)
		if err != nil {
			return nil, err
		}
		if stored != nil {
			token = stored.Token
			log.Debug().
				Str("host", c.Host).
				Str("username", c.Username).
				Time("obtained_at", stored.ObtainedAt).
				Msg("Restored session token")
		}
	}

	exec := castleos.NewHTTPExecutor(castleos.ExecutorConfig{
		Timeout:            c.Timeout.Duration(),
		FollowRedirects:    c.GetFollowRedirects(),
		InsecureSkipVerify: c.GetInsecureSkipVerify(),
	})

	s.Client = castleos.NewClient(castleos.Settings{
		Host:     c.Host,
		Username: c.Username,
		Password: c.Password,
		Token:    token,
	}, castleos.WithExecutor(exec), castleos.WithTokenHandler(s.saveToken))

	return s, nil
}

func (s *CastleService) saveToken(token string) {
	if s.tokens == nil {
		return
	}
	if err := s.tokens.Save(s.Client.Host(), s.Client.Username(), token); err != nil {
		log.Warn().Err(err).Msg("Failed to persist session token")
	}
}

// Authenticate obtains a fresh token regardless of the current one.
func (s *CastleService) Authenticate(ctx context.Context) error {
	_, err := s.Client.GetToken(ctx)
	return err
}

// Logout drops the current token and its persisted copy.
func (s *CastleService) Logout() (bool, error) {
	s.Client.SetToken("")
	if s.tokens == nil {
		return false, nil
	}
	return s.tokens.Forget(s.Client.Host(), s.Client.Username())
}

// Close releases the client's transport.
func (s *CastleService) Close() {
	if s.Client != nil {
		s.Client.Close()
	}
}
