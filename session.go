package mudgate

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net"
	"time"
)

const defaultKeepaliveInterval = 30 * time.Second

// sessionNameAlphabet is the character set for the random suffix of a
// session name, formatted as "<listener>_<20 random alphanumeric
// characters>".
const sessionNameAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Session is one connected client, Telnet or WebSocket, unified behind a
// single abstraction. All mutable fields below are touched only by the
// coordinator goroutine started in run(); reader and writer each have their
// own goroutine solely because net.Conn I/O is blocking and can't otherwise
// be folded into one select loop.
type Session struct {
	name      string
	created   time.Time
	kind      TransportKind
	host      string
	port      int
	transport transport
	logger    *slog.Logger
	manager   *Manager

	caps    *Capabilities
	options *registry
	barrier *barrier
	hooks   EventHooks

	outbox *outboundQueue

	inboundBuf []byte
	cmdBuf     []byte
	inflate    *inboundDecompressor
	deflate    *outboundCompressor

	ready bool

	inboundCh    chan []byte
	disconnectCh chan error
	closeCh      chan struct{}
	stopCh       chan struct{}
	closeOnce    bool

	keepaliveInterval time.Duration
	graceTimeout      time.Duration
}

// NewTelnetSession builds a session around an already-accepted net.Conn
// without a Manager or Listener. This is the same construction Listener
// uses internally; exposed for an embedder driving its own accept loop, or
// a test harness driving a session over net.Pipe. Call Run (in its own
// goroutine) to start the coordinator.
func NewTelnetSession(conn net.Conn, name string, cfg SessionConfig) (*Session, error) {
	return newSession(name, KindTelnet, "", 0, newTelnetTransport(conn), cfg, false, nil)
}

// Run starts the session's coordinator and blocks until the session ends.
func (s *Session) Run() { s.run() }

// newSession builds a session around an already-accepted transport. It does
// not start the coordinator; callers invoke run() (typically in its own
// goroutine) once the session has been registered with the manager.
func newSession(name string, kind TransportKind, host string, port int, tr transport, cfg SessionConfig, tlsEnabled bool, mgr *Manager) (*Session, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("session", name)

	s := &Session{
		name:              name,
		created:           time.Now(),
		kind:              kind,
		host:              host,
		port:              port,
		transport:         tr,
		logger:            logger,
		manager:           mgr,
		caps:              NewCapabilities(tlsEnabled),
		barrier:           newBarrier(),
		hooks:             cfg.Hooks,
		outbox:            newOutboundQueue(),
		inboundCh:         make(chan []byte, 16),
		disconnectCh:      make(chan error, 2),
		closeCh:           make(chan struct{}),
		stopCh:            make(chan struct{}),
		keepaliveInterval: cfg.KeepaliveInterval,
		graceTimeout:      cfg.GraceTimeout,
	}
	if s.keepaliveInterval <= 0 {
		s.keepaliveInterval = defaultKeepaliveInterval
	}
	if s.graceTimeout <= 0 {
		s.graceTimeout = GraceTimeout
	}

	if kind == KindTelnet {
		reg, err := newRegistry(s, cfg.Options)
		if err != nil {
			return nil, err
		}
		s.options = reg
	}

	return s, nil
}

// newSessionName produces the "<listener>_<20 random alphanumeric
// characters>" format.
func newSessionName(listener string) string {
	suffix := make([]byte, 20)
	for i := range suffix {
		suffix[i] = sessionNameAlphabet[rand.IntN(len(sessionNameAlphabet))]
	}
	return listener + "_" + string(suffix)
}

// Name returns the session's unique identifier.
func (s *Session) Name() string { return s.name }

// Kind reports whether this is a Telnet or WebSocket session.
func (s *Session) Kind() TransportKind { return s.kind }

// Capabilities returns the live, coordinator-owned capability record.
// Callers on another goroutine (e.g. an on-update hook handing off to a web
// request) should call Snapshot() instead of reading fields directly.
func (s *Session) Capabilities() *Capabilities { return s.caps }

// Logger returns the session-scoped structured logger.
func (s *Session) Logger() *slog.Logger { return s.logger }

// CreatedAt returns when the session was accepted.
func (s *Session) CreatedAt() time.Time { return s.created }

// IsReady reports whether the handshake barrier has already fired.
func (s *Session) IsReady() bool { return s.ready }

// RemoteHost returns the connecting peer's address, best-effort.
func (s *Session) RemoteHost() string {
	addr := s.transport.remoteAddr()
	if addr == nil {
		return ""
	}
	if tcp, ok := addr.(*net.TCPAddr); ok {
		return tcp.IP.String()
	}
	return addr.String()
}

// Send queues application data for delivery, appending IAC GA when the
// session hasn't suppressed it (the suppress_ga capability defaults true,
// stays true when the client confirms SGA, and flips false only if the
// client later turns SGA off). WebSocket sessions never
// append GA: there's no Telnet stream to prompt.
func (s *Session) Send(data []byte) {
	if s.kind == KindTelnet && !s.caps.SuppressGA {
		out := make([]byte, 0, len(data)+2)
		out = append(out, data...)
		out = append(out, IAC, GA)
		s.outbox.push(OutboundMessage{Data: out})
		return
	}
	s.outbox.push(OutboundMessage{Data: data})
}

// WriteNegotiation queues a two-byte Telnet negotiation command.
func (s *Session) WriteNegotiation(opcode byte, code OptionCode) {
	s.outbox.push(OutboundMessage{Data: encodeNegotiation(opcode, code)})
}

// WriteSubnegotiation queues an IAC SB ... IAC SE command. activateCompression
// marks the MCCP2 start message (IAC SB MCCP2 IAC SE): the writer begins
// deflating every byte strictly after this message.
func (s *Session) WriteSubnegotiation(code OptionCode, payload []byte, activateCompression bool) {
	s.outbox.push(OutboundMessage{Data: encodeSubnegotiation(code, payload), ActivateCompression: activateCompression})
}

// DeactivateOutboundCompression tells the writer to drop its deflate stream
// once it reaches this point in the queue, per MCCP2's disable rule.
func (s *Session) DeactivateOutboundCompression() {
	s.outbox.push(OutboundMessage{DeactivateCompression: true})
}

// ActivateInboundDecompression switches inbound parsing over to a zlib
// stream seeded with whatever raw bytes are already buffered-but-unparsed,
// per MCCP3's activation rule. A no-op if already active.
func (s *Session) ActivateInboundDecompression() {
	if s.inflate != nil {
		return
	}
	s.inflate = newInboundDecompressor(s.inboundBuf)
	s.inboundBuf = nil
}

// NotifyUpdate fires the on-update hook.
func (s *Session) NotifyUpdate() {
	s.logger.Debug("capabilities updated", "capabilities", s.Capabilities())
	s.hooks.fireUpdate(s)
}

// NotifyOOB fires the on-oob hook with an opaque GMCP/MSDP payload.
func (s *Session) NotifyOOB(pkg string, payload []byte) {
	s.hooks.fireOOB(s, OOBMessage{Package: pkg, Payload: payload})
}

// Close begins a clean shutdown: flush any pending compression, send a
// half-close, and let the reader's resulting EOF drive teardown. Safe to
// call from hooks running on the coordinator goroutine; not safe to call
// concurrently from another goroutine.
func (s *Session) Close() {
	if s.closeOnce {
		return
	}
	s.closeOnce = true
	close(s.closeCh)
}

// fatalf logs an error and tears the session down immediately. Used for
// conditions treated as unrecoverable for the connection (malformed
// subnegotiation payload an option handler can't parse, a write failure, a
// decompression failure).
func (s *Session) fatalf(format string, args ...any) {
	err := fmt.Errorf(format, args...)
	s.logger.Error("session fault", "err", err)
	select {
	case s.disconnectCh <- err:
	default:
	}
}

// recoverHook isolates a panicking embedder callback so it can't take the
// session (or the listener's accept loop) down with it.
func (s *Session) recoverHook(name string) {
	if r := recover(); r != nil {
		s.logger.Error("hook panicked", "hook", name, "panic", r)
	}
}

// DrainSpecial clears one extra handshake-barrier stage an option declared
// via SpecialPending and re-checks readiness. TTYPE's three
// SEND rounds are the motivating case: each round's arrival drains one stage.
func (s *Session) DrainSpecial(stage int) {
	s.barrier.drainSpecial(stage)
	s.checkReady()
}

// SpecialStage builds a handshake-barrier stage identifier that can't
// collide with another option's stages: the option code occupies the high
// bits, the option-local sub-stage the low bits.
func SpecialStage(code OptionCode, sub int) int {
	return int(code)<<8 | sub
}

// checkReady fires on-ready exactly once, either because the barrier
// drained or because the grace timer in run() elapsed first.
func (s *Session) checkReady() {
	if s.barrier.ready() {
		s.markReady()
	}
}

func (s *Session) markReady() {
	if s.ready {
		return
	}
	s.ready = true
	s.barrier.fired = true
	s.logger.Info("session ready")
	s.hooks.fireReady(s)
}

// run is the session's coordinator: the single goroutine that owns
// Capabilities, the option registry, and the handshake barrier. It starts
// the reader and writer goroutines (the only two that perform blocking I/O)
// and otherwise only ever suspends inside this one select loop.
func (s *Session) run() {
	s.logger.Info("session connected", "kind", s.kind, "remote", s.transport.remoteAddr())
	s.hooks.fireConnect(s)

	go s.readLoop()
	go s.writeLoop()

	if s.kind == KindTelnet {
		s.options.startNegotiations(s)
		s.checkReady()
	} else {
		// WebSocket sessions skip Telnet negotiation entirely.
		s.markReady()
	}

	keepalive := time.NewTicker(s.keepaliveInterval)
	defer keepalive.Stop()
	grace := time.NewTimer(s.graceTimeout)
	defer grace.Stop()

	var teardownErr error
loop:
	for {
		select {
		case raw := <-s.inboundCh:
			s.handleInbound(raw)
		case err := <-s.disconnectCh:
			teardownErr = err
			break loop
		case <-keepalive.C:
			if s.kind == KindTelnet && s.caps.Keepalive {
				s.outbox.push(OutboundMessage{Data: []byte{IAC, NOP}})
			}
		case <-grace.C:
			s.markReady()
		case <-s.closeCh:
			s.outbox.push(OutboundMessage{HalfClose: true})
		}
	}

	close(s.stopCh)
	s.teardown(teardownErr)
}

func (s *Session) teardown(cause error) {
	if s.inflate != nil {
		s.inflate.close()
	}
	_ = s.transport.close()
	if cause != nil {
		s.logger.Info("session closed", "reason", cause)
	} else {
		s.logger.Info("session closed")
	}
	if s.manager != nil {
		s.manager.removeSession(s.name)
	}
	s.hooks.fireDisconnect(s)
}

// handleInbound runs one read's worth of bytes through MCCP3 decompression
// (if active), the Telnet byte parser, negotiation/subnegotiation dispatch,
// and the line extractor, or — for WebSocket — treats the whole read as one
// already-delimited inbound command.
//
// Events are parsed and dispatched one at a time rather than in a single
// batch: a subnegotiation can activate MCCP3 mid-read (options/mccp3.go's
// Subnegotiate), and every byte still sitting in inboundBuf at that point is
// ciphertext, not plaintext Telnet. Batch-parsing the whole buffer up front
// would hand those bytes to the Telnet parser before the decompressor
// existed to claim them.
func (s *Session) handleInbound(raw []byte) {
	if s.kind == KindWebSocket {
		s.hooks.fireCommand(s, string(raw))
		return
	}

	if s.inflate != nil {
		s.inflate.feed(raw)
		out, err := s.inflate.drain()
		if err != nil {
			s.fatalf("mccp3: %w", err)
			return
		}
		raw = out
	}

	s.inboundBuf = append(s.inboundBuf, raw...)

	for {
		ev, rest, ok := parseOne(s.inboundBuf)
		if !ok {
			break
		}
		s.inboundBuf = rest

		if !ev.isCmd {
			s.cmdBuf = append(s.cmdBuf, ev.data...)
			continue
		}

		wasInflating := s.inflate != nil
		s.handleCommand(ev.cmd)
		if !wasInflating && s.inflate != nil {
			// MCCP3 just activated: ActivateInboundDecompression seeded the
			// decompressor with whatever was left in inboundBuf and cleared
			// it. Pull whatever plaintext it's already produced from that
			// seed and keep parsing it as Telnet; anything not yet ready
			// surfaces on a later read's feed/drain instead.
			out, err := s.inflate.drain()
			if err != nil {
				s.fatalf("mccp3: %w", err)
				return
			}
			s.inboundBuf = out
		}
	}

	lines, rest := extractLines(s.cmdBuf)
	s.cmdBuf = rest
	for _, line := range lines {
		s.hooks.fireCommand(s, line)
	}
}

func (s *Session) handleCommand(c Command) {
	switch {
	case c.OpCode == SB:
		s.dispatchSubnegotiation(c)
	case c.IsNegotiation():
		s.dispatchNegotiation(c)
	default:
		// GA, NOP, EOR, and any other bare command: no session-visible effect.
	}
}

func (s *Session) dispatchSubnegotiation(c Command) {
	if s.options == nil {
		return
	}
	h, ok := s.options.get(c.Option)
	if !ok {
		return
	}
	s.logger.Debug("subnegotiation received", "option", h.Name(), "bytes", len(c.Subnegotiation))
	if err := h.Subnegotiate(s, c.Subnegotiation); err != nil {
		s.fatalf("option %s subnegotiate: %w", h.Name(), err)
	}
}

// readLoop is the one goroutine allowed to call transport.read, which
// blocks on the underlying socket.
func (s *Session) readLoop() {
	for {
		data, err := s.transport.read()
		if len(data) > 0 {
			select {
			case s.inboundCh <- data:
			case <-s.stopCh:
				return
			}
		}
		if err != nil {
			select {
			case s.disconnectCh <- wrapReadErr(err):
			default:
			}
			return
		}
	}
}

// writeLoop is the one goroutine allowed to call transport.write, applying
// MCCP2 compression transparently once activated.
func (s *Session) writeLoop() {
	for {
		var msg OutboundMessage
		select {
		case msg = <-s.outbox.dequeue():
		case <-s.stopCh:
			return
		}

		if msg.HalfClose {
			if s.deflate != nil {
				if final, err := s.deflate.finish(); err == nil {
					_ = s.transport.write(final)
				}
			}
			_ = s.transport.halfClose()
			continue
		}

		payload := msg.Data
		if s.deflate != nil && len(payload) > 0 {
			out, err := s.deflate.compress(payload)
			if err != nil {
				select {
				case s.disconnectCh <- fmt.Errorf("mccp2: %w", err):
				default:
				}
				return
			}
			payload = out
		}

		if len(payload) > 0 {
			if err := s.transport.write(payload); err != nil {
				select {
				case s.disconnectCh <- fmt.Errorf("write: %w", err):
				default:
				}
				return
			}
		}

		if msg.ActivateCompression && s.deflate == nil {
			c, err := newOutboundCompressor()
			if err != nil {
				select {
				case s.disconnectCh <- err:
				default:
				}
				return
			}
			s.deflate = c
		}
		if msg.DeactivateCompression {
			s.deflate = nil
		}
	}
}

func wrapReadErr(err error) error {
	return fmt.Errorf("read: %w", err)
}
