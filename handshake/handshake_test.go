package handshake

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nspcc-dev/erldist/capability"
	"github.com/nspcc-dev/erldist/distdial"
	"github.com/nspcc-dev/erldist/internal/bytestream"
	"github.com/nspcc-dev/erldist/nodename"
)

func mustName(t *testing.T, s string) nodename.Name {
	n, err := nodename.Parse(s)
	require.NoError(t, err)
	return n
}

func TestHandshakeRoundTripSuccess(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	clientLocal := nodename.Local{Name: mustName(t, "alice@host"), Flags: capability.Default(), Creation: nodename.NewCreation(1)}
	serverLocal := nodename.Local{Name: mustName(t, "bob@host"), Flags: capability.Default(), Creation: nodename.NewCreation(2)}

	type dialOut struct {
		res Result
		err error
	}
	resultCh := make(chan dialOut, 1)
	go func() {
		res, err := Dial(client, clientLocal, DialOptions{Cookie: Cookie("secret")})
		resultCh <- dialOut{res, err}
	}()

	serverRes, serverErr := Accept(server, serverLocal, AcceptOptions{Cookie: Cookie("secret")})
	require.NoError(t, serverErr)
	require.Equal(t, "alice@host", serverRes.Peer.Name.String())

	out := <-resultCh
	require.NoError(t, out.err)
	require.Equal(t, "bob@host", out.res.Peer.Name.String())
	require.Equal(t, capability.Default(), out.res.Flags)
}

func TestHandshakeAuthenticationFailure(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	clientLocal := nodename.Local{Name: mustName(t, "alice@host"), Flags: capability.Default()}
	serverLocal := nodename.Local{Name: mustName(t, "bob@host"), Flags: capability.Default()}

	type dialOut struct {
		res Result
		err error
	}
	resultCh := make(chan dialOut, 1)
	go func() {
		res, err := Dial(client, clientLocal, DialOptions{Cookie: Cookie("wrong")})
		resultCh <- dialOut{res, err}
	}()

	_, serverErr := Accept(server, serverLocal, AcceptOptions{Cookie: Cookie("right")})
	require.Error(t, serverErr)
	// Accept returned without writing the ack; closing its side of the
	// pipe is what the caller-closes-on-error contract requires, and it
	// is what unblocks the dialer's pending read.
	server.Close()

	out := <-resultCh
	require.Error(t, out.err)
}

func TestHandshakeMandatoryCapabilityMissing(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	clientLocal := nodename.Local{Name: mustName(t, "alice@host")}
	serverLocal := nodename.Local{Name: mustName(t, "bob@host")}

	type dialOut struct {
		res Result
		err error
	}
	resultCh := make(chan dialOut, 1)
	go func() {
		res, err := Dial(client, clientLocal, DialOptions{Cookie: Cookie("secret"), Flags: capability.Spawn})
		resultCh <- dialOut{res, err}
	}()

	_, serverErr := Accept(server, serverLocal, AcceptOptions{Cookie: Cookie("secret"), Flags: capability.Spawn})
	require.Error(t, serverErr)
	var capErr *distdial.CapabilityMissingError
	require.ErrorAs(t, serverErr, &capErr)

	out := <-resultCh
	require.Error(t, out.err)
	var refusedErr *distdial.RefusedError
	require.ErrorAs(t, out.err, &refusedErr)
	require.Equal(t, "not_allowed", refusedErr.Status)
}

// TestAcceptReadsComplementFromV5Peer drives the acceptor against a peer
// that sends a v5 send_name: its mandatory high-32 flag bits (V4_NC,
// MANDATORY_25_DIGEST) only arrive in the trailing complement frame, and
// the acceptor must read it before negotiating or the connection would
// always fail mandatory-capability negotiation against a v6-capable
// acceptor.
func TestAcceptReadsComplementFromV5Peer(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	serverLocal := nodename.Local{Name: mustName(t, "bob@host"), Flags: capability.Default(), Creation: nodename.NewCreation(2)}

	statusCh := make(chan string, 1)
	ackCh := make(chan [16]byte, 1)
	go func() {
		c := bytestream.New(client)
		require.NoError(t, writeNameFrame(c, nameFrame{
			V6: false, Version: 5, Flags: capability.Default(), Name: "alice@host",
		}))
		require.NoError(t, writeComplement(c, complementFrame{
			FlagsHigh32: capability.Default().High32(), Creation: nodename.NewCreation(99),
		}))

		status, err := readStatus(c)
		require.NoError(t, err)
		statusCh <- status.Status

		challengeFrame, err := readNameFrame(c, true)
		require.NoError(t, err)
		require.False(t, challengeFrame.V6)

		comp, err := readComplement(c)
		require.NoError(t, err)
		require.Equal(t, capability.Default().High32(), comp.FlagsHigh32)

		reply := digest(Cookie("secret"), challengeFrame.Challenge)
		require.NoError(t, writeChallengeReply(c, challengeReply{Challenge: 777, Digest: reply}))

		ack, err := readChallengeAck(c)
		require.NoError(t, err)
		ackCh <- ack
	}()

	result, err := Accept(server, serverLocal, AcceptOptions{Cookie: Cookie("secret"), Flags: capability.Default()})
	require.NoError(t, err)
	require.Equal(t, "alice@host", result.Peer.Name.String())
	require.Equal(t, capability.Default(), result.Flags)
	require.True(t, result.Peer.HasCreation)
	require.Equal(t, nodename.NewCreation(99), result.Peer.Creation)

	require.Equal(t, "ok", <-statusCh)
	require.Equal(t, digest(Cookie("secret"), 777), <-ackCh)
}

func TestResolveSimultaneousPicksLexicographicallyLesser(t *testing.T) {
	alice := mustName(t, "alice@host")
	bob := mustName(t, "bob@host")
	require.True(t, ResolveSimultaneous(alice, bob))
	require.False(t, ResolveSimultaneous(bob, alice))
}
