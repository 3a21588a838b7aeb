package options

import "github.com/duskgate/mudgate"

// Default returns the standard MUD option set every Telnet session offers:
// SGA, TTYPE, NAWS, LINEMODE, MNES, MCCP2, GMCP, and MSDP. MCCP3 and MSSP
// carry per-deployment state (compression is opt-in, MSSP needs server
// metadata) so they're left for the caller to add explicitly.
func Default() []mudgate.OptionFactory {
	return []mudgate.OptionFactory{
		SGA(),
		TTYPE(),
		NAWS(),
		Linemode(),
		MNES(),
		MCCP2(),
		GMCP(),
		MSDP(),
	}
}
