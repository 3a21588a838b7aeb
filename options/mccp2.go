package options

import "github.com/duskgate/mudgate"

type mccp2 struct {
	mudgate.BaseOption
}

// MCCP2 (server-to-client compression) offers WILL at session start. Once
// the client accepts, the confirming SB MCCP2 IAC SE is sent uncompressed
// and every byte after it is zlib-deflated — mudgate's writer
// goroutine handles that transition via the ActivateCompression flag on the
// outbound message carrying this subnegotiation.
func MCCP2() mudgate.OptionFactory {
	return func(s *mudgate.Session) mudgate.OptionHandler {
		return &mccp2{}
	}
}

func (o *mccp2) Code() mudgate.OptionCode { return mudgate.OptMCCP2 }
func (o *mccp2) Name() string             { return "MCCP2" }

func (o *mccp2) SupportLocal() bool { return true }
func (o *mccp2) StartWill() bool    { return true }

func (o *mccp2) EnableLocal(s *mudgate.Session) error {
	s.Capabilities().MCCP2 = true
	s.WriteSubnegotiation(mudgate.OptMCCP2, nil, true)
	return nil
}

func (o *mccp2) DisableLocal(s *mudgate.Session) error {
	s.Capabilities().MCCP2 = false
	s.DeactivateOutboundCompression()
	return nil
}
