package options

import "github.com/duskgate/mudgate"

type msdp struct {
	mudgate.BaseOption
}

// MSDP delivers each subnegotiation payload to the embedder untouched: its
// VAR/VAL structure is nested and has no leading package token the way GMCP
// does, so mudgate passes the whole TLV body through under the fixed
// package name "MSDP" rather than guessing at a split point.
func MSDP() mudgate.OptionFactory {
	return func(s *mudgate.Session) mudgate.OptionHandler {
		return &msdp{}
	}
}

func (o *msdp) Code() mudgate.OptionCode { return mudgate.OptMSDP }
func (o *msdp) Name() string             { return "MSDP" }

func (o *msdp) SupportRemote() bool { return true }
func (o *msdp) StartDo() bool       { return true }

func (o *msdp) EnableRemote(s *mudgate.Session) error {
	s.Capabilities().MSDP = true
	return nil
}

func (o *msdp) Subnegotiate(s *mudgate.Session, payload []byte) error {
	s.NotifyOOB("MSDP", payload)
	return nil
}
