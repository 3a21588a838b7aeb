package options

import "github.com/duskgate/mudgate"

type mccp3 struct {
	mudgate.BaseOption
}

// MCCP3 (client-to-server compression) is opt-in: including this factory in
// a session's option list is what offers WILL MCCP3 at all (reserved, unlike
// MCCP2 which every session offers). Negotiation runs the same direction as
// MCCP2 (server offers WILL, client confirms DO), but activation is the
// client's to trigger: once the client sends its own SB MCCP3 IAC SE,
// mudgate switches inbound parsing over to a zlib stream seeded with
// whatever raw bytes are already buffered but not yet parsed.
func MCCP3() mudgate.OptionFactory {
	return func(s *mudgate.Session) mudgate.OptionHandler {
		return &mccp3{}
	}
}

func (o *mccp3) Code() mudgate.OptionCode { return mudgate.OptMCCP3 }
func (o *mccp3) Name() string             { return "MCCP3" }

func (o *mccp3) SupportLocal() bool { return true }
func (o *mccp3) StartWill() bool    { return true }

func (o *mccp3) EnableLocal(s *mudgate.Session) error {
	s.Capabilities().MCCP3 = true
	return nil
}

func (o *mccp3) DisableLocal(s *mudgate.Session) error {
	s.Capabilities().MCCP3 = false
	return nil
}

func (o *mccp3) Subnegotiate(s *mudgate.Session, _ []byte) error {
	s.ActivateInboundDecompression()
	return nil
}
