package mudgate

// OOBMessage is one out-of-band payload delivered verbatim to the embedding
// application (GMCP/MSDP); mudgate never parses Package's contents.
type OOBMessage struct {
	Package string
	Payload []byte
}

// EventHooks are the embedding application's optional callbacks. Every hook
// is a plain function, invoked synchronously from the session's coordinator
// goroutine and isolated with recover() so a panicking hook never escalates
// past the session.
type EventHooks struct {
	// OnConnect fires once a session is established and announced to the manager.
	OnConnect func(s *Session)
	// OnReady fires exactly once, when the handshake barrier drains or the grace timer elapses.
	OnReady func(s *Session)
	// OnCommand fires once per inbound logical line.
	OnCommand func(s *Session, line string)
	// OnOOB fires once per inbound GMCP/MSDP message.
	OnOOB func(s *Session, msg OOBMessage)
	// OnUpdate fires whenever a capability changes.
	OnUpdate func(s *Session)
	// OnDisconnect fires exactly once, when the session ends.
	OnDisconnect func(s *Session)
}

func (h EventHooks) fireConnect(s *Session) {
	if h.OnConnect == nil {
		return
	}
	defer s.recoverHook("on-connect")
	h.OnConnect(s)
}

func (h EventHooks) fireReady(s *Session) {
	if h.OnReady == nil {
		return
	}
	defer s.recoverHook("on-ready")
	h.OnReady(s)
}

func (h EventHooks) fireCommand(s *Session, line string) {
	if h.OnCommand == nil {
		return
	}
	defer s.recoverHook("on-command")
	h.OnCommand(s, line)
}

func (h EventHooks) fireOOB(s *Session, msg OOBMessage) {
	if h.OnOOB == nil {
		return
	}
	defer s.recoverHook("on-oob")
	h.OnOOB(s, msg)
}

func (h EventHooks) fireUpdate(s *Session) {
	if h.OnUpdate == nil {
		return
	}
	defer s.recoverHook("on-update")
	h.OnUpdate(s)
}

func (h EventHooks) fireDisconnect(s *Session) {
	if h.OnDisconnect == nil {
		return
	}
	defer s.recoverHook("on-disconnect")
	h.OnDisconnect(s)
}
