package options

import "github.com/duskgate/mudgate"

type naws struct {
	mudgate.BaseOption
}

// NAWS reads the client's terminal dimensions from a 4-byte payload:
// width high/low, then height high/low.
func NAWS() mudgate.OptionFactory {
	return func(s *mudgate.Session) mudgate.OptionHandler {
		return &naws{}
	}
}

func (o *naws) Code() mudgate.OptionCode { return mudgate.OptNAWS }
func (o *naws) Name() string             { return "NAWS" }

func (o *naws) SupportLocal() bool  { return false }
func (o *naws) SupportRemote() bool { return true }
func (o *naws) StartDo() bool       { return true }

func (o *naws) EnableRemote(s *mudgate.Session) error {
	s.Capabilities().NAWS = true
	return nil
}

func (o *naws) Subnegotiate(s *mudgate.Session, payload []byte) error {
	if len(payload) < 4 {
		return nil
	}
	width := int(payload[0])<<8 | int(payload[1])
	height := int(payload[2])<<8 | int(payload[3])

	caps := s.Capabilities()
	if caps.Width == width && caps.Height == height {
		return nil
	}
	caps.Width = width
	caps.Height = height
	s.NotifyUpdate()
	return nil
}
