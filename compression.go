package mudgate

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
)

// outboundCompressor wraps a zlib writer for MCCP2.
// It is owned exclusively by the session's writer goroutine: the
// coordinator only ever tells the writer to activate or drop it via an
// OutboundMessage flag, never touches the stream directly.
type outboundCompressor struct {
	buf *bytes.Buffer
	w   *zlib.Writer
}

// newOutboundCompressor builds a zlib stream at the best-compression level
// (MCCP2 deflates level 9, flushed with SYNC_FLUSH after each write).
func newOutboundCompressor() (*outboundCompressor, error) {
	buf := &bytes.Buffer{}
	w, err := zlib.NewWriterLevel(buf, zlib.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("mccp2: init compressor: %w", err)
	}
	return &outboundCompressor{buf: buf, w: w}, nil
}

// compress deflates data and flushes with Z_SYNC_FLUSH: the
// remote must be able to decode everything written so far without waiting
// for more bytes.
func (c *outboundCompressor) compress(data []byte) ([]byte, error) {
	c.buf.Reset()
	if _, err := c.w.Write(data); err != nil {
		return nil, err
	}
	if err := c.w.Flush(); err != nil {
		return nil, err
	}
	out := make([]byte, c.buf.Len())
	copy(out, c.buf.Bytes())
	return out, nil
}

// finish flushes the stream with Z_FINISH ahead of a half-close.
func (c *outboundCompressor) finish() ([]byte, error) {
	c.buf.Reset()
	if err := c.w.Close(); err != nil {
		return nil, err
	}
	out := make([]byte, c.buf.Len())
	copy(out, c.buf.Bytes())
	return out, nil
}

// chunkReader adapts a channel of byte chunks to an io.Reader, letting
// zlib.Reader block (in its own goroutine) until more compressed bytes
// arrive instead of treating a momentary shortage as end-of-stream.
type chunkReader struct {
	chunks  <-chan []byte
	pending []byte
}

func (r *chunkReader) Read(p []byte) (int, error) {
	for len(r.pending) == 0 {
		chunk, ok := <-r.chunks
		if !ok {
			return 0, io.EOF
		}
		r.pending = chunk
	}
	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}

// inboundDecompressor wraps a zlib reader for MCCP3. It runs
// its own goroutine purely to shuttle compressed bytes in and plaintext
// bytes out over channels — it never touches session state, so it composes
// with the single-coordinator model the same way the reader/writer
// goroutines do.
type inboundDecompressor struct {
	in  chan []byte
	out chan []byte
	err chan error
}

// newInboundDecompressor seeds the stream with the bytes buffered-but-not-
// yet-parsed at activation time: any bytes already buffered but not yet
// parsed are passed through it before further parsing.
func newInboundDecompressor(seed []byte) *inboundDecompressor {
	d := &inboundDecompressor{
		in:  make(chan []byte, 64),
		out: make(chan []byte, 64),
		err: make(chan error, 1),
	}
	go d.run()
	if len(seed) > 0 {
		d.in <- seed
	}
	return d
}

func (d *inboundDecompressor) run() {
	zr, err := zlib.NewReader(&chunkReader{chunks: d.in})
	if err != nil {
		d.err <- fmt.Errorf("mccp3: init decompressor: %w", err)
		close(d.out)
		return
	}
	defer zr.Close()

	buf := make([]byte, 4096)
	for {
		n, err := zr.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			d.out <- chunk
		}
		if err != nil {
			if err != io.EOF {
				d.err <- fmt.Errorf("mccp3: decompress: %w", err)
			}
			close(d.out)
			return
		}
	}
}

// feed hands freshly-read inbound bytes to the decompressor.
func (d *inboundDecompressor) feed(data []byte) {
	if len(data) > 0 {
		d.in <- data
	}
}

// drain collects whatever plaintext has been produced so far without
// blocking, surfacing a fatal error if decompression failed.
func (d *inboundDecompressor) drain() ([]byte, error) {
	var result []byte
	for {
		select {
		case chunk, ok := <-d.out:
			if !ok {
				select {
				case err := <-d.err:
					return result, err
				default:
					return result, nil
				}
			}
			result = append(result, chunk...)
		default:
			return result, nil
		}
	}
}

func (d *inboundDecompressor) close() {
	close(d.in)
}
