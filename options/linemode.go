package options

import "github.com/duskgate/mudgate"

type linemode struct {
	mudgate.BaseOption
}

// Linemode only ever runs in character-at-a-time mode for this gateway: it
// declares remote support so a client offering WILL LINEMODE doesn't get
// refused (a DO LINEMODE asking us to run it is refused with WONT), but
// never solicits or honors the client's mode-mask subnegotiation; full
// line-editing delegation is out of scope.
func Linemode() mudgate.OptionFactory {
	return func(s *mudgate.Session) mudgate.OptionHandler {
		return &linemode{}
	}
}

func (o *linemode) Code() mudgate.OptionCode { return mudgate.OptLinemode }
func (o *linemode) Name() string             { return "LINEMODE" }

func (o *linemode) SupportLocal() bool  { return false }
func (o *linemode) SupportRemote() bool { return true }

func (o *linemode) EnableRemote(s *mudgate.Session) error {
	s.Capabilities().Linemode = true
	return nil
}

func (o *linemode) DisableRemote(s *mudgate.Session) error {
	s.Capabilities().Linemode = false
	return nil
}
