package options

import "github.com/duskgate/mudgate"

const (
	msspVar byte = 1
	msspVal byte = 2
)

type mssp struct {
	mudgate.BaseOption
	fields map[string]string
}

// MSSP advertises server metadata (player count, uptime, codebase name, ...)
// once the client accepts WILL MSSP. fields is serialized as repeated
// VAR <name> VAL <value> pairs using the literal delimiter bytes 0x01/0x02;
// encodeMSSP writes those bytes directly rather than through any integer
// conversion.
func MSSP(fields map[string]string) mudgate.OptionFactory {
	return func(s *mudgate.Session) mudgate.OptionHandler {
		return &mssp{fields: fields}
	}
}

func (o *mssp) Code() mudgate.OptionCode { return mudgate.OptMSSP }
func (o *mssp) Name() string             { return "MSSP" }

func (o *mssp) SupportLocal() bool { return true }
func (o *mssp) StartWill() bool    { return true }

func (o *mssp) EnableLocal(s *mudgate.Session) error {
	s.Capabilities().MSSP = true
	s.WriteSubnegotiation(mudgate.OptMSSP, encodeMSSP(o.fields), false)
	return nil
}

func encodeMSSP(fields map[string]string) []byte {
	var out []byte
	for k, v := range fields {
		out = append(out, msspVar)
		out = append(out, k...)
		out = append(out, msspVal)
		out = append(out, v...)
	}
	return out
}
