package mudgate

import "fmt"

// OptionFactory constructs a fresh, session-owned OptionHandler instance.
// Handlers carry per-session negotiation state, so a factory (not a shared
// instance) is registered with each session.
type OptionFactory func(s *Session) OptionHandler

// Perspective is one side's view of an option: "we will do it" (local) or
// "they will do it" (remote).
type Perspective struct {
	Enabled     bool
	Negotiating bool
	Asked       bool
}

// BaseOption supplies the Local/Remote perspective storage and default
// no-op hooks that concrete options embed. No atomics are needed: only the
// session's coordinator goroutine ever touches option state.
type BaseOption struct {
	local  Perspective
	remote Perspective
}

func (b *BaseOption) Local() *Perspective  { return &b.local }
func (b *BaseOption) Remote() *Perspective { return &b.remote }

// Default hook implementations: most options only need a subset of these.
func (b *BaseOption) SupportLocal() bool                  { return false }
func (b *BaseOption) SupportRemote() bool                 { return false }
func (b *BaseOption) EnableLocal(*Session) error          { return nil }
func (b *BaseOption) DisableLocal(*Session) error         { return nil }
func (b *BaseOption) EnableRemote(*Session) error         { return nil }
func (b *BaseOption) DisableRemote(*Session) error        { return nil }
func (b *BaseOption) Subnegotiate(*Session, []byte) error { return nil }
func (b *BaseOption) SpecialPending() []int               { return nil }
func (b *BaseOption) StartWill() bool                     { return false }
func (b *BaseOption) StartDo() bool                       { return false }

// OptionHandler is the per-option state machine driving one option's
// WILL/WONT/DO/DONT handshake. SupportLocal/SupportRemote declare which
// negotiation directions this option answers affirmatively to;
// StartWill/StartDo declare whether the
// session should originate a WILL or DO at session start; SpecialPending
// declares extra handshake-barrier stages beyond the local/remote pair
// (TTYPE's three SEND rounds).
type OptionHandler interface {
	Code() OptionCode
	Name() string

	SupportLocal() bool
	SupportRemote() bool
	StartWill() bool
	StartDo() bool
	SpecialPending() []int

	Local() *Perspective
	Remote() *Perspective

	EnableLocal(s *Session) error
	DisableLocal(s *Session) error
	EnableRemote(s *Session) error
	DisableRemote(s *Session) error

	Subnegotiate(s *Session, payload []byte) error
}

// registry maps option codes to the session-owned handler instances built
// from the registered factories.
type registry struct {
	handlers map[OptionCode]OptionHandler
}

func newRegistry(s *Session, factories []OptionFactory) (*registry, error) {
	r := &registry{handlers: make(map[OptionCode]OptionHandler, len(factories))}
	for _, factory := range factories {
		h := factory(s)
		code := h.Code()
		if _, exists := r.handlers[code]; exists {
			return nil, fmt.Errorf("%w: code %d claimed by both %s and %s", ErrOptionCollision, code, r.handlers[code].Name(), h.Name())
		}
		r.handlers[code] = h
	}
	return r, nil
}

func (r *registry) get(code OptionCode) (OptionHandler, bool) {
	h, ok := r.handlers[code]
	return h, ok
}

// startNegotiations enqueues the initial WILL/DO offers declared by each
// handler and populates the handshake barrier.
func (r *registry) startNegotiations(s *Session) {
	for code, h := range r.handlers {
		if h.StartWill() {
			s.logger.Debug("offering option", "option", h.Name(), "code", code, "direction", "will")
			s.WriteNegotiation(WILL, code)
			h.Local().Negotiating = true
			h.Local().Asked = true
			s.barrier.addLocal(code)
		}
		if h.StartDo() {
			s.logger.Debug("offering option", "option", h.Name(), "code", code, "direction", "do")
			s.WriteNegotiation(DO, code)
			h.Remote().Negotiating = true
			h.Remote().Asked = true
			s.barrier.addRemote(code)
		}
		if special := h.SpecialPending(); len(special) > 0 {
			s.barrier.addSpecial(special...)
		}
	}
}

// dispatchNegotiation runs the per-option WILL/WONT/DO/DONT handshake table.
// It is the single place that table is implemented; every option handler
// only supplies the static declarations and the enable/disable/subnegotiate
// hooks.
func (s *Session) dispatchNegotiation(c Command) {
	h, ok := s.options.get(c.Option)
	if !ok {
		// No handler: refuse WILL/DO with the opposite command (WILL->DONT,
		// DO->WONT). A peer-initiated WONT/DONT for an option we never
		// negotiated needs no reply.
		if c.IsAffirmative() {
			reply := c.refuse()
			s.WriteNegotiation(reply.OpCode, reply.Option)
		}
		return
	}

	switch c.OpCode {
	case WILL:
		s.dispatchEnable(h, h.Remote(), h.SupportRemote(), DO, DONT, c.Option, h.EnableRemote, s.barrier.drainRemote)
	case DO:
		s.dispatchEnable(h, h.Local(), h.SupportLocal(), WILL, WONT, c.Option, h.EnableLocal, s.barrier.drainLocal)
	case WONT:
		s.dispatchDisable(h, h.Remote(), h.DisableRemote, c.Option, s.barrier.drainRemote)
	case DONT:
		s.dispatchDisable(h, h.Local(), h.DisableLocal, c.Option, s.barrier.drainLocal)
	}
}

func (s *Session) dispatchEnable(h OptionHandler, p *Perspective, supported bool, ackOp, refuseOp byte, code OptionCode, enable func(*Session) error, drain func(OptionCode)) {
	if !supported {
		s.WriteNegotiation(refuseOp, code)
		return
	}
	if p.Enabled {
		return // already on, ignore
	}

	wasNegotiating := p.Negotiating
	p.Negotiating = false
	p.Enabled = true

	if !wasNegotiating {
		// Peer-initiated: we must reply.
		s.WriteNegotiation(ackOp, code)
	}

	if err := enable(s); err != nil {
		s.fatalf("option %s enable: %v", h.Name(), err)
		return
	}
	s.logger.Debug("option enabled", "option", h.Name(), "code", code)
	drain(code)
	s.checkReady()
}

func (s *Session) dispatchDisable(h OptionHandler, p *Perspective, disable func(*Session) error, code OptionCode, drain func(OptionCode)) {
	if p.Enabled {
		p.Enabled = false
		p.Negotiating = false
		if err := disable(s); err != nil {
			s.fatalf("option disable: %v", err)
			return
		}
		s.logger.Debug("option disabled", "option", h.Name(), "code", code)
		drain(code)
		s.checkReady()
		return
	}

	if p.Negotiating {
		// Our ask was refused.
		p.Negotiating = false
		drain(code)
		s.checkReady()
	}
}
