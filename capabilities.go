package mudgate

// Capabilities is the mutable record of features negotiated (or defaulted)
// for a session. It is owned exclusively by the session's coordinator
// goroutine; callbacks that need a stable view should use Snapshot.
type Capabilities struct {
	Width  int
	Height int

	ANSI            bool
	Xterm256        bool
	TrueColor       bool
	UTF8            bool
	VT100           bool
	OSCColorPalette bool
	MouseTracking   bool
	ScreenReader    bool
	Proxy           bool

	GMCP bool
	MSDP bool
	MSSP bool

	MCCP2 bool
	MCCP3 bool

	TTYPE        bool
	MTTS         bool
	NAWS         bool
	Linemode     bool
	ForceEndline bool
	SuppressGA   bool
	MNES         bool
	Keepalive    bool

	ClientName    string
	ClientVersion string
	TerminalType  string

	TLS bool
}

// NewCapabilities returns the conservative default every session starts
// with: an 80x24-ish 78x24 terminal, Go-Ahead suppressed by default, and
// terminal identity fields set to "UNKNOWN" until negotiation fills them in.
func NewCapabilities(tls bool) *Capabilities {
	return &Capabilities{
		Width:        78,
		Height:       24,
		SuppressGA:   true,
		ClientName:    "UNKNOWN",
		ClientVersion: "UNKNOWN",
		TerminalType:  "UNKNOWN",
		TLS:           tls,
	}
}

// Snapshot returns a copy safe to read outside the coordinator goroutine,
// e.g. from an on-update callback that escapes to another goroutine.
func (c *Capabilities) Snapshot() Capabilities {
	return *c
}

// mttsBits is the bitwise-OR table for TTYPE's third negotiation round.
// Each bit, when set in the client's MTTS value, flips the named
// capability on.
var mttsBits = []struct {
	bit   int
	apply func(c *Capabilities)
}{
	{128, func(c *Capabilities) { c.Proxy = true }},
	{64, func(c *Capabilities) { c.ScreenReader = true }},
	{32, func(c *Capabilities) { c.OSCColorPalette = true }},
	{16, func(c *Capabilities) { c.MouseTracking = true }},
	{8, func(c *Capabilities) { c.Xterm256 = true }},
	{4, func(c *Capabilities) { c.UTF8 = true }},
	{2, func(c *Capabilities) { c.VT100 = true }},
	{1, func(c *Capabilities) { c.ANSI = true }},
}

// ApplyMTTS ORs the MTTS bitmask into the capability set per the table above.
func (c *Capabilities) ApplyMTTS(bits int) {
	for _, entry := range mttsBits {
		if bits&entry.bit != 0 {
			entry.apply(c)
		}
	}
}
