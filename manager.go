package mudgate

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"sync"
)

// Manager is the top-level registry: it owns the set of registered
// listeners, named TLS contexts, and live sessions. Unlike a Session, a
// Manager is shared across goroutines by design (listeners accept
// concurrently, sessions come and go), so its registries are guarded by a
// mutex — the one piece of state this gateway actually needs cross-goroutine
// protection for.
type Manager struct {
	logger *slog.Logger

	mu        sync.Mutex
	listeners map[string]*Listener
	tlsCtxs   map[string]*tls.Config
	sessions  map[string]*Session
}

// NewManager builds an empty registry. A nil logger defaults to slog.Default().
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		logger:    logger,
		listeners: make(map[string]*Listener),
		tlsCtxs:   make(map[string]*tls.Config),
		sessions:  make(map[string]*Session),
	}
}

// RegisterTLSContext makes a *tls.Config available to listeners by name.
// The embedding application owns certificate loading and rotation; mudgate
// only ever reads the config it's handed.
func (m *Manager) RegisterTLSContext(name string, cfg *tls.Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tlsCtxs[name] = cfg
}

func (m *Manager) lookupTLS(name string) (*tls.Config, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.tlsCtxs[name]
	return cfg, ok
}

// RegisterListener validates and starts one accept loop. It rejects a
// configuration error before ever opening a socket: name collision, unknown
// interface alias, out-of-range port, unsupported protocol, or an unknown
// TLS context name.
func (m *Manager) RegisterListener(cfg ListenerConfig) (*Listener, error) {
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPort, cfg.Port)
	}
	if cfg.Protocol != KindTelnet && cfg.Protocol != KindWebSocket {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedProtocol, cfg.Protocol)
	}
	host, ok := resolveInterface(cfg.Interface)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownInterface, cfg.Interface)
	}

	var tlsConfig *tls.Config
	if cfg.TLSContext != "" {
		tlsConfig, ok = m.lookupTLS(cfg.TLSContext)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTLSContext, cfg.TLSContext)
		}
	}

	m.mu.Lock()
	if _, exists := m.listeners[cfg.Name]; exists {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrNameCollision, cfg.Name)
	}
	l := newListener(cfg, host, tlsConfig, m)
	m.listeners[cfg.Name] = l
	m.mu.Unlock()

	if err := l.start(); err != nil {
		m.mu.Lock()
		delete(m.listeners, cfg.Name)
		m.mu.Unlock()
		return nil, err
	}

	return l, nil
}

// Listener looks up a previously-registered listener by name.
func (m *Manager) Listener(name string) (*Listener, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listeners[name]
	return l, ok
}

// Sessions returns a snapshot slice of every currently-connected session.
func (m *Manager) Sessions() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// Session looks up a connected session by name.
func (m *Manager) Session(name string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[name]
	if s == nil {
		return nil, false
	}
	return s, ok
}

func (m *Manager) addSession(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.name] = s
}

func (m *Manager) removeSession(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, name)
}

// reserveSessionName allocates a unique "<listener>_<random>" name, retrying
// on the (astronomically unlikely) collision, and reserves the slot
// immediately so two concurrent accepts can never settle on the same name
// before either calls addSession.
func (m *Manager) reserveSessionName(listener string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for {
		name := newSessionName(listener)
		if _, exists := m.sessions[name]; !exists {
			m.sessions[name] = nil
			return name
		}
	}
}
