package handshake

import (
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nspcc-dev/erldist/capability"
	"github.com/nspcc-dev/erldist/distdial"
	"github.com/nspcc-dev/erldist/internal/bytestream"
	"github.com/nspcc-dev/erldist/metrics"
	"github.com/nspcc-dev/erldist/nodename"
)

// DialOptions configures the client side of a handshake.
type DialOptions struct {
	Cookie   Cookie
	Versions VersionRange // zero value means DefaultVersions
	Flags    capability.Flags
	Log      *zap.Logger
}

// Dial drives the connector side of the handshake state machine:
// send_name, recv_status, recv_challenge, send_challenge_reply,
// recv_challenge_ack. rw is taken under exclusive ownership for the
// duration of the call; on any error the caller must close it.
func Dial(rw io.ReadWriter, local nodename.Local, opts DialOptions) (result Result, err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveHandshake(metrics.RoleDialer, classifyOutcome(err), time.Since(start).Seconds())
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
	dialID := uuid.New()
	log = log.With(zap.String("dial_id", dialID.String()))

	c := bytestream.New(rw)

	useV6 := versions.High >= 6
	send := nameFrame{
		V6:       useV6,
		Version:  versions.High,
		Flags:    flags,
		Creation: local.Creation,
		Name:     local.Name.String(),
	}
	if err := writeNameFrame(c, send); err != nil {
		return Result{}, distdial.NewProtocolError("send_name", err)
	}

	status, err := readStatus(c)
	if err != nil {
		return Result{}, distdial.NewProtocolError("recv_status", err)
	}
	log.Debug("handshake: recv_status", zap.String("status", status.Status))

	// assignedName is set only when we asked for a dynamic name
	// (NAME_ME) and the acceptor assigned us one.
	var assignedName nodename.Name
	switch status.Status {
	case "ok", "ok_simultaneous":
	case "named":
		assignedName, err = nodename.Parse(status.Name)
		if err != nil {
			return Result{}, err
		}
	case "nok", "not_allowed":
		return Result{}, &distdial.RefusedError{Status: status.Status}
	case "alive":
		// A prior connection with this name exists. This entry point
		// always declines the takeover; a caller that wants to take
		// over an existing session drives its own reply frame before
		// calling Dial again.
		if err := writeStatus(c, "false"); err != nil {
			return Result{}, distdial.NewProtocolError("alive reply", err)
		}
		return Result{}, &distdial.RefusedError{Status: "alive"}
	default:
		return Result{}, distdial.NewProtocolError("unknown status: "+status.Status, nil)
	}

	peerFrame, err := readNameFrame(c, true)
	if err != nil {
		return Result{}, distdial.NewProtocolError("recv_challenge", err)
	}
	if !peerFrame.HasChallenge {
		return Result{}, distdial.NewProtocolError("recv_challenge: missing challenge", nil)
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
	if !peerFrame.V6 && useV6 {
		// The peer replied in v5; its high flag bits, if any, arrive
		// in a trailing complement frame.
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
		return Result{}, err
	}

	ourChallenge, err := newChallenge()
	if err != nil {
		return Result{}, err
	}
	replyDigest := digest(opts.Cookie, peerFrame.Challenge)
	if err := writeChallengeReply(c, challengeReply{Challenge: ourChallenge, Digest: replyDigest}); err != nil {
		return Result{}, distdial.NewProtocolError("send_challenge_reply", err)
	}

	ack, err := readChallengeAck(c)
	if err != nil {
		return Result{}, distdial.NewProtocolError("recv_challenge_ack", err)
	}
	wantAck := digest(opts.Cookie, ourChallenge)
	if ack != wantAck {
		return Result{}, &distdial.AuthenticationFailedError{}
	}

	peerName, err := nodename.Parse(peerFrame.Name)
	if err != nil {
		// A peer on a version that omits the host part (rare, legacy
		// short names) still yields a usable identity keyed on the
		// raw wire name.
		peerName, _ = nodename.New(peerFrame.Name, "")
	}

	result = Result{
		Peer: nodename.Peer{
			Name:        peerName,
			Flags:       effective,
			Creation:    peerCreation,
			HasCreation: peerCreationKnown,
		},
		Flags: effective,
	}
	if assignedName.Name() != "" || assignedName.Host() != "" {
		result.AssignedName = assignedName
		log.Debug("handshake: assigned dynamic name", zap.Stringer("name", assignedName))
	}
	return result, nil
}
