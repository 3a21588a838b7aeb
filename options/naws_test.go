package options

import (
	"testing"
	"time"

	"github.com/duskgate/mudgate"
)

func TestNAWSDecodesBigEndianSize(t *testing.T) {
	updates, onUpdate := updateSignal()
	s, testConn := newTestSessionWithHooks(t, []mudgate.OptionFactory{NAWS()}, mudgate.EventHooks{OnUpdate: onUpdate})

	readFull(t, testConn, 3) // DO NAWS
	writeSubnegotiation(testConn, 31, []byte{0, 100, 0, 40})
	waitUpdate(t, updates)

	caps := s.Capabilities().Snapshot()
	if caps.Width != 100 || caps.Height != 40 {
		t.Fatalf("got %dx%d, want 100x40", caps.Width, caps.Height)
	}
}

func TestNAWSNoNotifyWhenUnchanged(t *testing.T) {
	updates, onUpdate := updateSignal()
	s, testConn := newTestSessionWithHooks(t, []mudgate.OptionFactory{NAWS()}, mudgate.EventHooks{OnUpdate: onUpdate})

	readFull(t, testConn, 3) // DO NAWS
	writeSubnegotiation(testConn, 31, []byte{0, 80, 0, 24})
	waitUpdate(t, updates)

	if s.Capabilities().Width != 80 || s.Capabilities().Height != 24 {
		t.Fatalf("unexpected initial size: %+v", s.Capabilities())
	}

	// Same size again: must not fire a second update.
	writeSubnegotiation(testConn, 31, []byte{0, 80, 0, 24})
	select {
	case <-updates:
		t.Fatal("expected no update for an unchanged NAWS size")
	case <-time.After(50 * time.Millisecond):
	}
}
