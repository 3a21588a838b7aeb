package options

import (
	"testing"
	"time"

	"github.com/duskgate/mudgate"
)

// TestMCCP3ActivatesOnConfirmingSubnegotiationNotOnEnable exercises the
// activation-timing rule: enabling MCCP3 only flips the capability flag,
// decompression only switches on once the client sends its own confirming
// SB MCCP3 IAC SE. Bytes before that point must still parse as plain text.
func TestMCCP3ActivatesOnConfirmingSubnegotiationNotOnEnable(t *testing.T) {
	lines := make(chan string, 4)
	s, testConn := newTestSessionWithHooks(t, []mudgate.OptionFactory{MCCP3()}, mudgate.EventHooks{
		OnCommand: func(_ *mudgate.Session, line string) {
			select {
			case lines <- line:
			default:
			}
		},
	})

	offer := readFull(t, testConn, 3) // IAC WILL MCCP3
	want := []byte{mudgate.IAC, mudgate.WILL, byte(mudgate.OptMCCP3)}
	if string(offer) != string(want) {
		t.Fatalf("got %v, want %v", offer, want)
	}

	testConn.Write([]byte{mudgate.IAC, mudgate.DO, byte(mudgate.OptMCCP3)})

	// Plain, uncompressed text sent right after enabling: decompression
	// must not have switched on merely from enabling MCCP3.
	testConn.Write([]byte("hello\r\n"))

	select {
	case line := <-lines:
		if line != "hello" {
			t.Fatalf("got %q, want %q", line, "hello")
		}
	case <-time.After(time.Second):
		t.Fatal("plain-text command never arrived before MCCP3 activation")
	}

	// The coordinator processes inbound reads strictly in order, so by the
	// time the line above was delivered, the earlier DO MCCP3 enable had
	// already run in the same goroutine.
	if !s.Capabilities().MCCP3 {
		t.Fatal("expected MCCP3 capability true after enable")
	}

	// Now the client confirms MCCP3, activating inbound decompression. The
	// switch-over itself is not asserted here: decoding compressed bytes
	// after activation is covered by the root package's
	// mccp3_boundary_test.go and the decompressor's own tests.
	writeSubnegotiation(testConn, byte(mudgate.OptMCCP3), nil)
}
