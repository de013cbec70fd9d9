package bytestream

import "encoding/binary"

// HandshakeWriter buffers a single handshake message in memory and, on
// Finish, prepends a 2-byte big-endian length before flushing it to the
// underlying connection.
type HandshakeWriter struct {
	conn *Conn
	buf  []byte
}

// HandshakeMessageWriter starts buffering a new handshake message.
func (c *Conn) HandshakeMessageWriter() *HandshakeWriter {
	return &HandshakeWriter{conn: c}
}

func (w *HandshakeWriter) WriteU8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *HandshakeWriter) WriteU16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *HandshakeWriter) WriteU32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *HandshakeWriter) WriteU64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *HandshakeWriter) WriteAll(b []byte) {
	w.buf = append(w.buf, b...)
}

// Finish prepends the 2-byte length and flushes the buffered message.
func (w *HandshakeWriter) Finish() error {
	if len(w.buf) > 0xFFFF {
		return ErrMessageTooLarge
	}
	if err := w.conn.WriteU16(uint16(len(w.buf))); err != nil {
		return err
	}
	if err := w.conn.WriteAll(w.buf); err != nil {
		return err
	}
	return w.conn.Flush()
}

// HandshakeReader is bound to a declared remaining-byte count read up
// front by the caller; every read decrements it, and a read that would
// overrun the declared size fails with ErrUnexpectedEOF.
type HandshakeReader struct {
	conn      *Conn
	remaining int
}

// HandshakeMessageReader reads the 2-byte length prefix and returns a
// reader bound to that many remaining bytes.
func (c *Conn) HandshakeMessageReader() (*HandshakeReader, error) {
	size, err := c.ReadU16()
	if err != nil {
		return nil, err
	}
	return &HandshakeReader{conn: c, remaining: int(size)}, nil
}

func (r *HandshakeReader) take(n int) error {
	if r.remaining < n {
		return ErrUnexpectedEOF
	}
	r.remaining -= n
	return nil
}

func (r *HandshakeReader) ReadU8() (uint8, error) {
	if err := r.take(1); err != nil {
		return 0, err
	}
	return r.conn.ReadU8()
}

func (r *HandshakeReader) ReadU16() (uint16, error) {
	if err := r.take(2); err != nil {
		return 0, err
	}
	return r.conn.ReadU16()
}

func (r *HandshakeReader) ReadU32() (uint32, error) {
	if err := r.take(4); err != nil {
		return 0, err
	}
	return r.conn.ReadU32()
}

func (r *HandshakeReader) ReadU64() (uint64, error) {
	if err := r.take(8); err != nil {
		return 0, err
	}
	return r.conn.ReadU64()
}

func (r *HandshakeReader) ReadExact(n int) ([]byte, error) {
	if err := r.take(n); err != nil {
		return nil, err
	}
	return r.conn.ReadExact(n)
}

// Remaining reports the number of undeclared bytes left in the frame.
func (r *HandshakeReader) Remaining() int {
	return r.remaining
}

// Finish drains and discards any residual bytes in the frame, tolerating
// minor-version extensions that append unknown trailing fields.
func (r *HandshakeReader) Finish() error {
	if r.remaining == 0 {
		return nil
	}
	_, err := r.conn.ReadExact(r.remaining)
	r.remaining = 0
	return err
}
