package castleos

import "sync"

// DefaultHost is used when Settings.Host is empty.
const DefaultHost = "localhost"

// Settings are the connection settings recognized at construction.
type Settings struct {
	Host     string
	Username string
	Password string
	Token    string // pre-seeds an existing session token
}

// Session holds the authentication state of one client. The token is the
// only field that changes after construction; it is replaced, never expired.
type Session struct {
	host     string
	username string
	password string

	mu    sync.RWMutex
	token string
}

func newSession(s Settings) *Session {
	host := s.Host
	if host == "" {
		host = DefaultHost
	}
	return &Session{
		host:     host,
		username: s.Username,
		password: s.Password,
		token:    s.Token,
	}
}

// Token returns the current token.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) setToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// authorization is the X-CastleOS-Authorization header value.
func (s *Session) authorization() string {
	return s.username + ":" + s.Token()
}

func (s *Session) hasCredentials() bool {
	return s.username != "" && s.password != ""
}
