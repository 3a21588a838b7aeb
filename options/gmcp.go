package options

import (
	"bytes"

	"github.com/duskgate/mudgate"
)

type gmcp struct {
	mudgate.BaseOption
}

// GMCP delivers each subnegotiation payload to the embedder untouched apart
// from splitting off the leading "Package.Sub" token GMCP always prefixes
// the JSON body with: mudgate extracts that token as
// OOBMessage.Package but never parses the JSON itself.
func GMCP() mudgate.OptionFactory {
	return func(s *mudgate.Session) mudgate.OptionHandler {
		return &gmcp{}
	}
}

func (o *gmcp) Code() mudgate.OptionCode { return mudgate.OptGMCP }
func (o *gmcp) Name() string             { return "GMCP" }

func (o *gmcp) SupportLocal() bool  { return true }
func (o *gmcp) SupportRemote() bool { return true }
func (o *gmcp) StartWill() bool     { return true }
func (o *gmcp) StartDo() bool       { return true }

func (o *gmcp) EnableLocal(s *mudgate.Session) error {
	s.Capabilities().GMCP = true
	return nil
}

func (o *gmcp) EnableRemote(s *mudgate.Session) error {
	s.Capabilities().GMCP = true
	return nil
}

func (o *gmcp) Subnegotiate(s *mudgate.Session, payload []byte) error {
	pkg, body := payload, []byte(nil)
	if idx := bytes.IndexByte(payload, ' '); idx >= 0 {
		pkg, body = payload[:idx], payload[idx+1:]
	}
	s.NotifyOOB(string(pkg), body)
	return nil
}
