package options

import "github.com/duskgate/mudgate"

type mnes struct {
	mudgate.BaseOption
}

// MNES (MUD New-Environ Standard) is reserved: the handshake agrees to it so
// it doesn't get refused, but this gateway doesn't yet query any variables
// over it. TODO: wire VAR/VALUE subnegotiation once an embedder needs it.
func MNES() mudgate.OptionFactory {
	return func(s *mudgate.Session) mudgate.OptionHandler {
		return &mnes{}
	}
}

func (o *mnes) Code() mudgate.OptionCode { return mudgate.OptMNES }
func (o *mnes) Name() string             { return "MNES" }

func (o *mnes) SupportLocal() bool  { return false }
func (o *mnes) SupportRemote() bool { return true }

func (o *mnes) EnableRemote(s *mudgate.Session) error {
	s.Capabilities().MNES = true
	return nil
}
