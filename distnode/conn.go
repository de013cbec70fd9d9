// Package distnode implements the length-prefixed message framing
// used once a handshake has produced an authenticated channel.
package distnode

import (
	"context"
	"encoding/binary"
	"io"

	"github.com/nspcc-dev/erldist/distdial"
	"github.com/nspcc-dev/erldist/metrics"
)

// passThrough is the only supported leading byte of a non-keepalive
// frame; distribution-header framing is not implemented.
const passThrough = 0x70

// Conn frames control-message payloads over an authenticated
// transport: u32 length prefix, PASS_THROUGH marker, keepalive on a
// zero-length frame.
type Conn struct {
	r io.Reader
	w io.Writer
}

// New wraps rw for framed reads and writes.
func New(rw io.ReadWriter) *Conn {
	return &Conn{r: rw, w: rw}
}

// NewReadWriter wraps split read/write halves, for callers that send
// and receive concurrently on different goroutines.
func NewReadWriter(r io.Reader, w io.Writer) *Conn {
	return &Conn{r: r, w: w}
}

// Send writes payload as a single PASS_THROUGH frame. ctx is checked
// before the write begins; once a write starts it is not
// interruptible, matching the no-partial-frame-resumption rule.
func (c *Conn) Send(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)+1))
	if _, err := c.w.Write(header[:]); err != nil {
		return err
	}
	if _, err := c.w.Write([]byte{passThrough}); err != nil {
		return err
	}
	if len(payload) > 0 {
		if _, err := c.w.Write(payload); err != nil {
			return err
		}
	}
	metrics.FrameSent()
	return nil
}

// Keepalive writes a zero-length frame, the framing layer's idle
// heartbeat. The caller controls the timer.
func (c *Conn) Keepalive(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var header [4]byte
	if _, err := c.w.Write(header[:]); err != nil {
		return err
	}
	metrics.KeepaliveSent()
	return nil
}

// Recv reads frames until it finds a non-keepalive one, returning its
// payload with the PASS_THROUGH marker stripped. Keepalive frames
// (zero length) are consumed transparently.
func (c *Conn) Recv(ctx context.Context) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var header [4]byte
		if _, err := io.ReadFull(c.r, header[:]); err != nil {
			return nil, err
		}
		length := binary.BigEndian.Uint32(header[:])
		if length == 0 {
			continue
		}
		body := make([]byte, length)
		if _, err := io.ReadFull(c.r, body); err != nil {
			return nil, err
		}
		if body[0] != passThrough {
			return nil, distdial.NewProtocolError("unsupported frame leading byte", nil)
		}
		metrics.FrameReceived()
		return body[1:], nil
	}
}
