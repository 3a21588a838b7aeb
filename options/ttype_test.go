package options

import (
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/duskgate/mudgate"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSession(t *testing.T, factories []mudgate.OptionFactory) (*mudgate.Session, net.Conn) {
	t.Helper()
	return newTestSessionWithHooks(t, factories, mudgate.EventHooks{})
}

func newTestSessionWithHooks(t *testing.T, factories []mudgate.OptionFactory, hooks mudgate.EventHooks) (*mudgate.Session, net.Conn) {
	t.Helper()
	serverConn, testConn := net.Pipe()
	s, err := mudgate.NewTelnetSession(serverConn, "test_session", mudgate.SessionConfig{
		Options: factories,
		Logger:  discardLogger(),
		Hooks:   hooks,
	})
	if err != nil {
		t.Fatalf("NewTelnetSession: %v", err)
	}
	go s.Run()
	t.Cleanup(func() { s.Close(); testConn.Close() })
	return s, testConn
}

// updateSignal returns a channel fed once per on-update hook firing
// (buffered and non-blocking, so a coordinator goroutine never stalls
// waiting on a test that isn't reading fast enough).
func updateSignal() (chan struct{}, func(*mudgate.Session)) {
	ch := make(chan struct{}, 8)
	return ch, func(*mudgate.Session) {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func readFull(t *testing.T, conn net.Conn, n int) []byte {
	t.Helper()
	buf := make([]byte, n)
	total := 0
	for total < n {
		k, err := conn.Read(buf[total:])
		total += k
		if err != nil {
			t.Fatalf("read: %v (got %d/%d bytes)", err, total, n)
		}
	}
	return buf
}

func TestTTYPEThreeRoundNegotiation(t *testing.T) {
	updates, onUpdate := updateSignal()
	s, testConn := newTestSessionWithHooks(t, []mudgate.OptionFactory{TTYPE()}, mudgate.EventHooks{OnUpdate: onUpdate})

	// Session offers DO TTYPE at start.
	readFull(t, testConn, 3)

	// Confirm DO TTYPE so the option actually enables, which triggers the
	// first SEND.
	testConn.Write([]byte{0xff, 0xfb, 24}) // IAC WILL TTYPE
	sb := readSubnegotiation(t, testConn)
	if len(sb) != 1 || sb[0] != 1 {
		t.Fatalf("expected SEND (1), got %v", sb)
	}

	// Round 0: client identity.
	writeSubnegotiation(testConn, 24, append([]byte{0}, []byte("MUDLET 4.0")...))
	waitUpdate(t, updates)
	sb = readSubnegotiation(t, testConn)
	if len(sb) != 1 || sb[0] != 1 {
		t.Fatalf("expected second SEND, got %v", sb)
	}

	caps := s.Capabilities().Snapshot()
	if caps.ClientName != "MUDLET" || caps.ClientVersion != "4.0" {
		t.Fatalf("unexpected client identity: %+v", caps)
	}
	if !caps.ANSI {
		t.Fatal("expected ANSI true unconditionally after stage 0")
	}
	if caps.ForceEndline {
		t.Fatal("MUDLET should clear ForceEndline")
	}

	// Round 1: capability token.
	writeSubnegotiation(testConn, 24, append([]byte{0}, []byte("XTERM-256COLOR")...))
	waitUpdate(t, updates)
	sb = readSubnegotiation(t, testConn)
	if len(sb) != 1 || sb[0] != 1 {
		t.Fatalf("expected third SEND, got %v", sb)
	}
	if !s.Capabilities().Xterm256 {
		t.Fatal("expected Xterm256 true after -256COLOR suffix")
	}

	// Round 2: MTTS bitmask (1 ANSI + 2 VT100 + 4 UTF8 = 7).
	writeSubnegotiation(testConn, 24, append([]byte{0}, []byte("MTTS 7")...))
	waitUpdate(t, updates)
	caps = s.Capabilities().Snapshot()
	if !caps.MTTS || !caps.VT100 || !caps.UTF8 {
		t.Fatalf("expected MTTS/VT100/UTF8 set, got %+v", caps)
	}
}

func TestTTYPERepeatedReplyDrainsRemainingRounds(t *testing.T) {
	ready := make(chan struct{})
	_, testConn := newTestSessionWithHooks(t, []mudgate.OptionFactory{TTYPE()}, mudgate.EventHooks{
		OnReady: func(*mudgate.Session) { close(ready) },
	})

	readFull(t, testConn, 3)              // DO TTYPE
	testConn.Write([]byte{0xff, 0xfb, 24}) // WILL TTYPE
	readSubnegotiation(t, testConn)        // first SEND

	writeSubnegotiation(testConn, 24, append([]byte{0}, []byte("DUMBCLIENT")...))
	readSubnegotiation(t, testConn) // second SEND

	// Client repeats the exact same reply: doesn't support extended
	// TTYPE, so every remaining barrier stage should drain at once
	// without the session waiting for two more rounds.
	writeSubnegotiation(testConn, 24, append([]byte{0}, []byte("DUMBCLIENT")...))

	select {
	case <-ready:
	case <-time.After(time.Second):
		t.Fatal("session never became ready after repeated TTYPE reply")
	}
}

func waitUpdate(t *testing.T, ch chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for capability update")
	}
}

func writeSubnegotiation(conn net.Conn, option byte, payload []byte) {
	out := []byte{0xff, 0xfa, option}
	out = append(out, payload...)
	out = append(out, 0xff, 0xf0)
	conn.Write(out)
}

// readSubnegotiation reads one IAC SB <option> ... IAC SE frame and
// returns the payload between option and the terminating IAC SE.
func readSubnegotiation(t *testing.T, conn net.Conn) []byte {
	t.Helper()
	header := readFull(t, conn, 3) // IAC SB <option>
	if header[0] != 0xff || header[1] != 0xfa {
		t.Fatalf("expected IAC SB, got %v", header)
	}
	var payload []byte
	for {
		b := readFull(t, conn, 1)
		if b[0] == 0xff {
			next := readFull(t, conn, 1)
			if next[0] == 0xf0 {
				return payload
			}
			payload = append(payload, b[0], next[0])
			continue
		}
		payload = append(payload, b[0])
	}
}
