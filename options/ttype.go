package options

import (
	"strconv"
	"strings"

	"github.com/duskgate/mudgate"
)

const (
	ttypeIS   byte = 0
	ttypeSEND byte = 1
)

const (
	ttypeStage0 = iota // NAME[ VERSION]
	ttypeStage1        // terminal-capabilities token
	ttypeStage2        // MTTS<digits> bitmask
)

type ttype struct {
	mudgate.BaseOption
	round int
	last  string
}

// xterm256Allowlist names client families known to support 256 colors from
// their stage-0 identity string alone, before any MTTS bitmask arrives.
var xterm256Allowlist = []string{
	"ATLANTIS", "CMUD", "KILDCLIENT", "MUDLET", "MUSHCLIENT",
	"PUTTY", "BEIP", "POTATO", "TINYFUGUE",
}

// TTYPE drives the three-round TERMINAL-TYPE negotiation: the client's first
// response is "NAME[ VERSION]", the second is a terminal-capabilities token
// (used here to sniff 256-color support from a -256COLOR/XTERM suffix), and
// the third is the "MTTS<n>" capability bitmask. If a round's payload
// repeats the previous round's, the client doesn't support extended TTYPE
// and every remaining stage drains immediately.
func TTYPE() mudgate.OptionFactory {
	return func(s *mudgate.Session) mudgate.OptionHandler {
		return &ttype{}
	}
}

func (o *ttype) Code() mudgate.OptionCode { return mudgate.OptTTYPE }
func (o *ttype) Name() string             { return "TERMINAL-TYPE" }

func (o *ttype) SupportLocal() bool  { return false }
func (o *ttype) SupportRemote() bool { return true }
func (o *ttype) StartDo() bool       { return true }

func (o *ttype) SpecialPending() []int {
	return []int{
		mudgate.SpecialStage(mudgate.OptTTYPE, ttypeStage0),
		mudgate.SpecialStage(mudgate.OptTTYPE, ttypeStage1),
		mudgate.SpecialStage(mudgate.OptTTYPE, ttypeStage2),
	}
}

func (o *ttype) EnableRemote(s *mudgate.Session) error {
	s.Capabilities().MTTS = true
	s.WriteSubnegotiation(mudgate.OptTTYPE, []byte{ttypeSEND}, false)
	return nil
}

func (o *ttype) Subnegotiate(s *mudgate.Session, payload []byte) error {
	if len(payload) < 1 || payload[0] != ttypeIS {
		return nil
	}
	value := string(payload[1:])
	upper := strings.ToUpper(value)
	caps := s.Capabilities()

	if o.round > 0 && upper == o.last {
		// Client doesn't support extended TTYPE: stop asking.
		o.drainFrom(s, o.round)
		return nil
	}
	o.last = upper

	switch o.round {
	case 0:
		caps.TerminalType = upper
		name, version, _ := strings.Cut(upper, " ")
		caps.ClientName = name
		caps.ClientVersion = version
		caps.ANSI = true
		if strings.HasPrefix(name, "XTERM") || strings.HasSuffix(name, "-256COLOR") || contains(xterm256Allowlist, name) {
			caps.Xterm256 = true
		}
		switch {
		case strings.HasPrefix(name, "MUDLET"):
			caps.ForceEndline = false
		case strings.HasPrefix(name, "TINTIN++"):
			caps.ForceEndline = true
		}
		s.DrainSpecial(mudgate.SpecialStage(mudgate.OptTTYPE, ttypeStage0))
		o.round = 1
		s.WriteSubnegotiation(mudgate.OptTTYPE, []byte{ttypeSEND}, false)

	case 1:
		caps.TerminalType = upper
		if strings.HasSuffix(upper, "-256COLOR") || (strings.HasSuffix(upper, "XTERM") && !strings.Contains(upper, "-COLOR")) {
			caps.Xterm256 = true
		}
		s.DrainSpecial(mudgate.SpecialStage(mudgate.OptTTYPE, ttypeStage1))
		o.round = 2
		s.WriteSubnegotiation(mudgate.OptTTYPE, []byte{ttypeSEND}, false)

	case 2:
		caps.TTYPE = true
		if bits, ok := parseMTTS(upper); ok {
			caps.ApplyMTTS(bits)
		}
		s.DrainSpecial(mudgate.SpecialStage(mudgate.OptTTYPE, ttypeStage2))
		o.round = 3
	}

	s.NotifyUpdate()
	return nil
}

// drainFrom clears every remaining special stage from round onward, for a
// client that repeats itself instead of cycling through TTYPE rounds.
func (o *ttype) drainFrom(s *mudgate.Session, round int) {
	for stage := round; stage <= ttypeStage2; stage++ {
		s.DrainSpecial(mudgate.SpecialStage(mudgate.OptTTYPE, stage))
	}
	o.round = 3
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// parseMTTS extracts the integer bitmask from an upper-cased "MTTS<n>" value.
func parseMTTS(value string) (int, bool) {
	const prefix = "MTTS"
	if !strings.HasPrefix(value, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(value[len(prefix):]))
	if err != nil {
		return 0, false
	}
	return n, true
}
