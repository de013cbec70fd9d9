package bytestream

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConnIntegerRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf)

	require.NoError(t, c.WriteU8(0xAB))
	require.NoError(t, c.WriteU16(0x1234))
	require.NoError(t, c.WriteU32(0x89ABCDEF))
	require.NoError(t, c.WriteU64(0x0102030405060708))

	v8, err := c.ReadU8()
	require.NoError(t, err)
	require.Equal(t, uint8(0xAB), v8)

	v16, err := c.ReadU16()
	require.NoError(t, err)
	require.Equal(t, uint16(0x1234), v16)

	v32, err := c.ReadU32()
	require.NoError(t, err)
	require.Equal(t, uint32(0x89ABCDEF), v32)

	v64, err := c.ReadU64()
	require.NoError(t, err)
	require.Equal(t, uint64(0x0102030405060708), v64)
}

func TestConnU16String(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf)

	require.NoError(t, c.WriteU16(5))
	require.NoError(t, c.WriteAll([]byte("hello")))

	s, err := c.ReadU16String()
	require.NoError(t, err)
	require.Equal(t, "hello", s)
}

func TestConnU16StringRejectsInvalidUTF8(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf)

	require.NoError(t, c.WriteU16(2))
	require.NoError(t, c.WriteAll([]byte{0xff, 0xfe}))

	_, err := c.ReadU16String()
	require.Error(t, err)
}

func TestHandshakeWriterRejectsOversizedMessage(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf)
	w := c.HandshakeMessageWriter()
	w.WriteAll(make([]byte, 0x10000))
	require.ErrorIs(t, w.Finish(), ErrMessageTooLarge)
}

func TestHandshakeRoundTripAndResidualDrain(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf)

	w := c.HandshakeMessageWriter()
	w.WriteU8('n')
	w.WriteU16(5)
	w.WriteU32(0xdeadbeef)
	w.WriteAll([]byte("extra-minor-version-field"))
	require.NoError(t, w.Finish())

	r, err := c.HandshakeMessageReader()
	require.NoError(t, err)

	tag, err := r.ReadU8()
	require.NoError(t, err)
	require.Equal(t, uint8('n'), tag)

	version, err := r.ReadU16()
	require.NoError(t, err)
	require.Equal(t, uint16(5), version)

	flags, err := r.ReadU32()
	require.NoError(t, err)
	require.Equal(t, uint32(0xdeadbeef), flags)

	// Residual "extra-minor-version-field" is never read directly; Finish
	// discards it without error.
	require.NoError(t, r.Finish())
}

func TestHandshakeReaderOverrunIsUnexpectedEOF(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf)

	w := c.HandshakeMessageWriter()
	w.WriteU8(1)
	require.NoError(t, w.Finish())

	r, err := c.HandshakeMessageReader()
	require.NoError(t, err)

	_, err = r.ReadU8()
	require.NoError(t, err)

	_, err = r.ReadU32()
	require.ErrorIs(t, err, ErrUnexpectedEOF)
}
