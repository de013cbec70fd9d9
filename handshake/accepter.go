package handshake

import (
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/nspcc-dev/erldist/capability"
	"github.com/nspcc-dev/erldist/distdial"
	"github.com/nspcc-dev/erldist/internal/bytestream"
	"github.com/nspcc-dev/erldist/metrics"
	"github.com/nspcc-dev/erldist/nodename"
)

// NameAssigner supplies a dynamic name and creation when the
// connecting side requests one via NAME_ME.
type NameAssigner func() (nodename.Name, nodename.Creation, error)

// AcceptOptions configures the server side of a handshake.
type AcceptOptions struct {
	Cookie   Cookie
	Versions VersionRange // zero value means DefaultVersions
	Flags    capability.Flags
	Log      *zap.Logger

	// Simultaneous, if non-nil, is consulted after the peer's name is
	// known and before send_status; returning false directs this
	// accept to yield status ok_simultaneous instead of ok, per the
	// simultaneous-connect tiebreak (the caller is expected to have
	// already decided, by comparing node names, which side keeps its
	// outgoing dial).
	Simultaneous func(peerName nodename.Name) (winner bool)

	// Assigner supplies a name when the peer requests NAME_ME. Nil
	// rejects dynamic-name requests with not_allowed.
	Assigner NameAssigner
}

// Accept drives the acceptor side of the handshake state machine:
// recv_name, send_status, send_challenge, recv_challenge_reply,
// send_challenge_ack. rw is taken under exclusive ownership for the
// duration of the call; on any error the caller must close it.
func Accept(rw io.ReadWriter, local nodename.Local, opts AcceptOptions) (result Result, err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveHandshake(metrics.RoleAccepter, classifyOutcome(err), time.Since(start).Seconds())
	}()

	versions := opts.Versions
	if versions == (VersionRange{}) {
		versions = DefaultVersions
	}
	flags := opts.Flags
	if flags == 0 {
		flags = capability.Default()
	}
	log := nopLogger(opts.Log)

	c := bytestream.New(rw)

	peerFrame, err := readNameFrame(c, false)
	if err != nil {
		return Result{}, distdial.NewProtocolError("recv_name", err)
	}

	peerVersion := peerFrame.Version
	if peerFrame.V6 {
		peerVersion = 6
	}
	if _, err := effectiveVersion(versions, VersionRange{Low: peerVersion, High: peerVersion}); err != nil {
		return Result{}, err
	}

	peerFlags := peerFrame.Flags
	peerCreation := peerFrame.Creation
	peerCreationKnown := peerFrame.V6
	if !peerFrame.V6 && versions.High >= 6 {
		// The peer sent a v5 send_name; its high flag bits, if any,
		// arrive in a trailing complement frame.
		comp, err := readComplement(c)
		if err != nil {
			return Result{}, distdial.NewProtocolError("recv_complement", err)
		}
		peerFlags = capability.FlagsFromParts(peerFlags.Low32(), comp.FlagsHigh32)
		peerCreation = comp.Creation
		peerCreationKnown = true
	}

	effective, err := negotiateFlags(flags, peerFlags)
	if err != nil {
		_ = writeStatus(c, "not_allowed")
		return Result{}, err
	}

	var peerName nodename.Name
	var assignedCreation nodename.Creation
	wantsDynamicName := peerFlags.Has(capability.NameMe) && peerFrame.Name == ""
	if wantsDynamicName {
		if opts.Assigner == nil {
			_ = writeStatus(c, "not_allowed")
			return Result{}, &distdial.RefusedError{Status: "not_allowed"}
		}
		peerName, assignedCreation, err = opts.Assigner()
		if err != nil {
			_ = writeStatus(c, "not_allowed")
			return Result{}, err
		}
	} else {
		peerName, err = nodename.Parse(peerFrame.Name)
		if err != nil {
			peerName, _ = nodename.New(peerFrame.Name, "")
		}
	}

	winner := true
	if opts.Simultaneous != nil {
		winner = opts.Simultaneous(peerName)
	}

	if wantsDynamicName {
		if err := writeNamedStatus(c, peerName.String(), assignedCreation); err != nil {
			return Result{}, distdial.NewProtocolError("send_status named", err)
		}
	} else {
		status := "ok"
		if !winner {
			status = "ok_simultaneous"
		}
		if err := writeStatus(c, status); err != nil {
			return Result{}, distdial.NewProtocolError("send_status", err)
		}
	}

	challenge, err := newChallenge()
	if err != nil {
		return Result{}, err
	}
	useV6 := versions.High >= 6 && peerFrame.V6
	send := nameFrame{
		V6:           useV6,
		Version:      versions.High,
		Flags:        flags,
		Creation:     local.Creation,
		Challenge:    challenge,
		HasChallenge: true,
		Name:         local.Name.String(),
	}
	if err := writeNameFrame(c, send); err != nil {
		return Result{}, distdial.NewProtocolError("send_challenge", err)
	}
	if !useV6 && flags.High32() != 0 {
		if err := writeComplement(c, complementFrame{FlagsHigh32: flags.High32(), Creation: local.Creation}); err != nil {
			return Result{}, distdial.NewProtocolError("send_complement", err)
		}
	}

	reply, err := readChallengeReply(c)
	if err != nil {
		return Result{}, distdial.NewProtocolError("recv_challenge_reply", err)
	}
	wantReply := digest(opts.Cookie, challenge)
	if reply.Digest != wantReply {
		return Result{}, &distdial.AuthenticationFailedError{}
	}

	ackDigest := digest(opts.Cookie, reply.Challenge)
	if err := writeChallengeAck(c, ackDigest); err != nil {
		return Result{}, distdial.NewProtocolError("send_challenge_ack", err)
	}

	log.Debug("handshake: accepted", zap.Stringer("peer", peerName), zap.Stringer("flags", effective))
	return Result{
		Peer: nodename.Peer{
			Name:        peerName,
			Flags:       effective,
			Creation:    peerCreation,
			HasCreation: peerCreationKnown,
		},
		Flags: effective,
	}, nil
}

// ResolveSimultaneous implements the node-name tiebreak: the
// alphabetically-lesser name keeps its role as client. It returns
// true when local is the winner (keeps dialing), false when peer
// wins (local must answer ok_simultaneous on its accepting side).
func ResolveSimultaneous(local, peer nodename.Name) bool {
	return local.String() < peer.String()
}
