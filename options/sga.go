// Package options supplies the concrete Telnet option handlers mudgate's
// registry dispatches against, one file per option.
package options

import "github.com/duskgate/mudgate"

type suppressGA struct {
	mudgate.BaseOption
}

// SGA offers WILL SUPPRESS-GO-AHEAD at session start. Capabilities.SuppressGA
// already defaults to true; this option only flips it to false when the
// client turns SGA off (DONT) after it was enabled, so IAC GA resumes
// marking prompts. A refusal of the initial offer leaves the default true.
func SGA() mudgate.OptionFactory {
	return func(s *mudgate.Session) mudgate.OptionHandler {
		return &suppressGA{}
	}
}

func (o *suppressGA) Code() mudgate.OptionCode { return mudgate.OptSGA }
func (o *suppressGA) Name() string             { return "SUPPRESS-GO-AHEAD" }

func (o *suppressGA) SupportLocal() bool  { return true }
func (o *suppressGA) SupportRemote() bool { return false }
func (o *suppressGA) StartWill() bool     { return true }

func (o *suppressGA) EnableLocal(s *mudgate.Session) error {
	s.Capabilities().SuppressGA = true
	s.NotifyUpdate()
	return nil
}

func (o *suppressGA) DisableLocal(s *mudgate.Session) error {
	s.Capabilities().SuppressGA = false
	s.NotifyUpdate()
	return nil
}
