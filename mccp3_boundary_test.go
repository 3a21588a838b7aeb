package mudgate

import (
	"net"
	"testing"
	"time"
)

// fakeCompressOption mimics MCCP3's shape (WILL offered, DO confirms,
// decompression activated by the client's own subnegotiation) without
// depending on the options package, so the test can live alongside
// newOutboundCompressor in the same package.
type fakeCompressOption struct {
	BaseOption
	code OptionCode
}

func (o *fakeCompressOption) Code() OptionCode   { return o.code }
func (o *fakeCompressOption) Name() string       { return "FAKECOMP" }
func (o *fakeCompressOption) SupportLocal() bool { return true }
func (o *fakeCompressOption) StartWill() bool    { return true }

func (o *fakeCompressOption) EnableLocal(*Session) error { return nil }

func (o *fakeCompressOption) Subnegotiate(s *Session, _ []byte) error {
	s.ActivateInboundDecompression()
	return nil
}

// TestHandleInboundDecompressesBytesAfterActivationInSameRead is a
// regression test: the confirming activation subnegotiation and the first
// compressed bytes that follow it can arrive in the same read. Those
// trailing bytes must be handed to the freshly-installed decompressor
// instead of being mis-parsed as plaintext Telnet.
func TestHandleInboundDecompressesBytesAfterActivationInSameRead(t *testing.T) {
	fo := &fakeCompressOption{code: 202}
	lines := make(chan string, 4)
	serverConn, testConn := net.Pipe()
	cfg := SessionConfig{
		Options: []OptionFactory{func(*Session) OptionHandler { return fo }},
		Logger:  discardLogger(),
		Hooks: EventHooks{
			OnCommand: func(_ *Session, line string) {
				select {
				case lines <- line:
				default:
				}
			},
		},
	}
	s, err := NewTelnetSession(serverConn, "mccp3_boundary_test", cfg)
	if err != nil {
		t.Fatalf("NewTelnetSession: %v", err)
	}
	go s.Run()
	defer func() { s.Close(); testConn.Close() }()

	offer := make([]byte, 3)
	if _, err := readFull(testConn, offer); err != nil {
		t.Fatalf("read offer: %v", err)
	}
	testConn.Write([]byte{IAC, DO, 202})

	// Real zlib bytes, produced with the session's own outbound compressor
	// so the wire format matches exactly what a real compressing client
	// would send — hand-built fake compressed bytes would only prove the
	// test harness can fool itself.
	c, err := newOutboundCompressor()
	if err != nil {
		t.Fatalf("newOutboundCompressor: %v", err)
	}
	compressed, err := c.compress([]byte("world\r\n"))
	if err != nil {
		t.Fatalf("compress: %v", err)
	}

	frame := encodeSubnegotiation(202, nil)
	combined := append(append([]byte(nil), frame...), compressed...)
	testConn.Write(combined)

	select {
	case line := <-lines:
		if line != "world" {
			t.Fatalf("got %q, want %q", line, "world")
		}
	case <-time.After(time.Second):
		t.Fatal("compressed command sharing a read with the activation frame never arrived")
	}
}
