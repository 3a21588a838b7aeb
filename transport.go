package mudgate

import (
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// transport is the per-connection I/O surface a session drives. mudgate
// unifies Telnet and WebSocket behind one Session; transport is where that
// unification actually happens — the coordinator never knows which one it
// has. Telnet yields raw byte chunks that still need option/byte parsing;
// WebSocket yields one already-delimited message per read, so the session's
// read loop skips the Telnet byte parser entirely for it.
type transport interface {
	// read blocks for the next unit of inbound data: an arbitrary-sized
	// chunk of raw bytes for Telnet, or exactly one frame's payload for
	// WebSocket.
	read() ([]byte, error)
	// write sends a unit of outbound data as-is.
	write(data []byte) error
	// halfClose signals no more writes are coming, without yet closing the
	// read side.
	halfClose() error
	close() error
	remoteAddr() net.Addr
}

// telnetTransport is a thin net.Conn wrapper: all framing happens above it
// in the byte parser, reading directly off the wrapped net.Conn.
type telnetTransport struct {
	conn net.Conn
}

func newTelnetTransport(conn net.Conn) *telnetTransport {
	return &telnetTransport{conn: conn}
}

func (t *telnetTransport) read() ([]byte, error) {
	buf := make([]byte, 4096)
	n, err := t.conn.Read(buf)
	if n > 0 {
		return buf[:n], err
	}
	return nil, err
}

func (t *telnetTransport) write(data []byte) error {
	_, err := t.conn.Write(data)
	return err
}

// halfClose shuts down the write side only, letting the remote see EOF on
// its own read while we still drain whatever it sends back. A connection
// without CloseWrite (such as net.Pipe) is closed entirely instead.
func (t *telnetTransport) halfClose() error {
	if cw, ok := t.conn.(interface{ CloseWrite() error }); ok {
		return cw.CloseWrite()
	}
	return t.conn.Close()
}

func (t *telnetTransport) close() error         { return t.conn.Close() }
func (t *telnetTransport) remoteAddr() net.Addr { return t.conn.RemoteAddr() }

// websocketTransport frames every message as a single text frame via
// gobwas/ws + wsutil: each WebSocket message is one complete logical unit,
// with no Telnet byte-stream framing layered on top. The handshake itself
// (ws.Upgrade) happens before this wrapper is constructed, in the
// listener's accept loop.
type websocketTransport struct {
	conn  net.Conn
	state ws.State
}

func newWebsocketTransport(conn net.Conn) *websocketTransport {
	return &websocketTransport{conn: conn, state: ws.StateServerSide}
}

func (t *websocketTransport) read() ([]byte, error) {
	for {
		msg, err := wsutil.ReadClientData(t.conn)
		if err != nil {
			var closeErr wsutil.ClosedError
			if errors.As(err, &closeErr) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("websocket read: %w", err)
		}
		switch msg.OpCode {
		case ws.OpText, ws.OpBinary:
			return msg.Payload, nil
		case ws.OpClose:
			return nil, io.EOF
		default:
			// Ping/pong/continuation already handled by wsutil; keep reading.
			continue
		}
	}
}

func (t *websocketTransport) write(data []byte) error {
	return wsutil.WriteServerMessage(t.conn, ws.OpText, data)
}

func (t *websocketTransport) halfClose() error {
	return wsutil.WriteServerMessage(t.conn, ws.OpClose, ws.NewCloseFrameBody(ws.StatusNormalClosure, ""))
}

func (t *websocketTransport) close() error        { return t.conn.Close() }
func (t *websocketTransport) remoteAddr() net.Addr { return t.conn.RemoteAddr() }
