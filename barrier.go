package mudgate

import "time"

// GraceTimeout is the grace period after which readiness fires regardless of
// residual pending handshake entries.
const GraceTimeout = 300 * time.Millisecond

// barrier tracks outstanding handshake expectations across three sets:
// local options we've asked the peer to let us enable, remote options we've
// asked the peer to enable, and extra multi-round stages an option declares
// for itself (TTYPE's SEND rounds). It is only ever touched from the
// session's coordinator goroutine, so plain maps suffice — no locking.
type barrier struct {
	local   map[OptionCode]struct{}
	remote  map[OptionCode]struct{}
	special map[int]struct{}

	fired bool
}

func newBarrier() *barrier {
	return &barrier{
		local:   make(map[OptionCode]struct{}),
		remote:  make(map[OptionCode]struct{}),
		special: make(map[int]struct{}),
	}
}

func (b *barrier) addLocal(codes ...OptionCode) {
	for _, c := range codes {
		b.local[c] = struct{}{}
	}
}

func (b *barrier) addRemote(codes ...OptionCode) {
	for _, c := range codes {
		b.remote[c] = struct{}{}
	}
}

func (b *barrier) addSpecial(stages ...int) {
	for _, s := range stages {
		b.special[s] = struct{}{}
	}
}

func (b *barrier) drainLocal(code OptionCode)  { delete(b.local, code) }
func (b *barrier) drainRemote(code OptionCode) { delete(b.remote, code) }
func (b *barrier) drainSpecial(stage int)      { delete(b.special, stage) }

// hasRemaining reports whether any expectation is still outstanding.
func (b *barrier) hasRemaining() bool {
	return len(b.local) > 0 || len(b.remote) > 0 || len(b.special) > 0
}

// ready reports whether readiness should fire: not already fired, and
// nothing outstanding. Callers also fire unconditionally when the grace
// timer elapses (see Session.run).
func (b *barrier) ready() bool {
	return !b.fired && !b.hasRemaining()
}
