package mudgate

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"

	"github.com/gobwas/ws"
)

// Listener owns one accept loop, Telnet or WebSocket, on one interface/port
// pair. It is created and started exclusively through
// Manager.RegisterListener.
type Listener struct {
	cfg     ListenerConfig
	host    string
	tlsCfg  *tls.Config
	manager *Manager

	ln net.Listener
}

func newListener(cfg ListenerConfig, host string, tlsCfg *tls.Config, mgr *Manager) *Listener {
	return &Listener{cfg: cfg, host: host, tlsCfg: tlsCfg, manager: mgr}
}

// Name returns the listener's registered name.
func (l *Listener) Name() string { return l.cfg.Name }

func (l *Listener) start() error {
	addr := fmt.Sprintf("%s:%d", l.host, l.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("mudgate: listen %s: %w", addr, err)
	}
	if l.tlsCfg != nil {
		ln = tls.NewListener(ln, l.tlsCfg)
	}
	l.ln = ln

	go l.acceptLoop()
	return nil
}

// Close stops accepting new connections. Already-running sessions are
// unaffected.
func (l *Listener) Close() error {
	return l.ln.Close()
}

func (l *Listener) acceptLoop() {
	logger := l.manager.logger.With("listener", l.cfg.Name)
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			logger.Info("accept loop stopped", "err", err)
			return
		}
		go l.accept(conn, logger)
	}
}

func (l *Listener) accept(conn net.Conn, logger *slog.Logger) {
	var tr transport
	if l.cfg.Protocol == KindWebSocket {
		if _, err := ws.Upgrade(conn); err != nil {
			logger.Error("websocket upgrade failed", "err", err)
			conn.Close()
			return
		}
		tr = newWebsocketTransport(conn)
	} else {
		tr = newTelnetTransport(conn)
	}

	name := l.manager.reserveSessionName(l.cfg.Name)
	host, port := splitHostPort(conn.RemoteAddr())

	s, err := newSession(name, l.cfg.Protocol, host, port, tr, l.cfg.SessionConfig, l.tlsCfg != nil, l.manager)
	if err != nil {
		logger.Error("session init failed", "err", err)
		l.manager.removeSession(name)
		conn.Close()
		return
	}

	l.manager.addSession(s)
	s.run()
}

func splitHostPort(addr net.Addr) (string, int) {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok {
		return addr.String(), 0
	}
	return tcp.IP.String(), tcp.Port
}
