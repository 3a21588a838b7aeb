package mudgate

import "errors"

// Registration errors — reported synchronously, before a listener is
// created.
var (
	ErrNameCollision       = errors.New("mudgate: listener name already registered")
	ErrUnknownInterface    = errors.New("mudgate: unknown interface alias")
	ErrInvalidPort         = errors.New("mudgate: port out of range")
	ErrUnsupportedProtocol = errors.New("mudgate: unsupported protocol")
	ErrUnknownTLSContext   = errors.New("mudgate: unknown TLS context name")
)

// ErrOptionCollision is returned by session construction (NewTelnetSession)
// when two option handlers claim the same wire code.
var ErrOptionCollision = errors.New("mudgate: option code already registered")
