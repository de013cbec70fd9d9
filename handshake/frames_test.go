package handshake

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nspcc-dev/erldist/capability"
	"github.com/nspcc-dev/erldist/internal/bytestream"
	"github.com/nspcc-dev/erldist/nodename"
)

func TestNameFrameV5RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	c := bytestream.New(&buf)

	err := writeNameFrame(c, nameFrame{Version: 5, Flags: capability.Default(), Name: "alice@host"})
	require.NoError(t, err)

	got, err := readNameFrame(c, false)
	require.NoError(t, err)
	require.False(t, got.V6)
	require.Equal(t, uint16(5), got.Version)
	require.Equal(t, capability.Flags(capability.Default().Low32()), got.Flags)
	require.Equal(t, "alice@host", got.Name)
}

func TestNameFrameV6RoundTripWithChallenge(t *testing.T) {
	var buf bytes.Buffer
	c := bytestream.New(&buf)

	err := writeNameFrame(c, nameFrame{
		V6: true, Flags: capability.Default(), Creation: nodename.NewCreation(7),
		Challenge: 123, HasChallenge: true, Name: "bob@host",
	})
	require.NoError(t, err)

	got, err := readNameFrame(c, true)
	require.NoError(t, err)
	require.True(t, got.V6)
	require.Equal(t, nodename.NewCreation(7), got.Creation)
	require.True(t, got.HasChallenge)
	require.Equal(t, uint32(123), got.Challenge)
	require.Equal(t, "bob@host", got.Name)
}

func TestStatusRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	c := bytestream.New(&buf)
	require.NoError(t, writeStatus(c, "ok_simultaneous"))
	got, err := readStatus(c)
	require.NoError(t, err)
	require.Equal(t, "ok_simultaneous", got.Status)
}

func TestNamedStatusRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	c := bytestream.New(&buf)
	require.NoError(t, writeNamedStatus(c, "assigned@host", nodename.NewCreation(9)))
	got, err := readStatus(c)
	require.NoError(t, err)
	require.Equal(t, "named", got.Status)
	require.Equal(t, "assigned@host", got.Name)
	require.Equal(t, nodename.NewCreation(9), got.Creation)
}

func TestChallengeReplyRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	c := bytestream.New(&buf)
	d := digest(Cookie("secret"), 42)
	require.NoError(t, writeChallengeReply(c, challengeReply{Challenge: 99, Digest: d}))
	got, err := readChallengeReply(c)
	require.NoError(t, err)
	require.Equal(t, uint32(99), got.Challenge)
	require.Equal(t, d, got.Digest)
}

func TestChallengeAckRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	c := bytestream.New(&buf)
	d := digest(Cookie("secret"), 1)
	require.NoError(t, writeChallengeAck(c, d))
	got, err := readChallengeAck(c)
	require.NoError(t, err)
	require.Equal(t, d, got)
}

func TestComplementRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	c := bytestream.New(&buf)
	require.NoError(t, writeComplement(c, complementFrame{FlagsHigh32: 0xdead, Creation: nodename.NewCreation(5)}))
	got, err := readComplement(c)
	require.NoError(t, err)
	require.Equal(t, uint32(0xdead), got.FlagsHigh32)
	require.Equal(t, nodename.NewCreation(5), got.Creation)
}
