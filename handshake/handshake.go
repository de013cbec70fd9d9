// Package handshake implements the challenge-response handshake that
// turns a raw transport into an authenticated distribution channel.
package handshake

import (
	"errors"

	"go.uber.org/zap"

	"github.com/nspcc-dev/erldist/capability"
	"github.com/nspcc-dev/erldist/distdial"
	"github.com/nspcc-dev/erldist/metrics"
	"github.com/nspcc-dev/erldist/nodename"
)

// VersionRange is the inclusive [Low, High] distribution-protocol
// version range a side is willing to speak.
type VersionRange struct {
	Low, High uint16
}

// DefaultVersions speaks both the legacy v5 and current v6 dialect.
var DefaultVersions = VersionRange{Low: 5, High: 6}

// Result is what a successful handshake, from either side, yields.
type Result struct {
	Peer  nodename.Peer
	Flags capability.Flags
	// AssignedName is set on the dialer's Result only when the local
	// side requested a dynamic name (NAME_ME) and the acceptor
	// assigned one; the caller adopts it as its own identity.
	AssignedName nodename.Name
}

// effectiveVersion returns the version both sides can speak, or an
// error if the ranges do not overlap.
func effectiveVersion(ours, peer VersionRange) (uint16, error) {
	v := ours.High
	if peer.High < v {
		v = peer.High
	}
	if v < ours.Low || v < peer.Low {
		return 0, &distdial.VersionUnsupportedError{
			OurLow: ours.Low, OurHigh: ours.High,
			PeerLow: peer.Low, PeerHigh: peer.High,
		}
	}
	return v, nil
}

// negotiateFlags intersects our and the peer's advertised flags and
// checks the mandatory subset survives.
func negotiateFlags(ours, peer capability.Flags) (capability.Flags, error) {
	effective := ours & peer
	if missing := effective.Missing(capability.Mandatory()); missing != 0 {
		return 0, &distdial.CapabilityMissingError{Missing: uint64(missing)}
	}
	return effective, nil
}

func nopLogger(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}

// classifyOutcome maps a handshake error to the metrics outcome label.
func classifyOutcome(err error) metrics.Outcome {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.As(err, new(*distdial.AuthenticationFailedError)):
		return metrics.OutcomeAuthFailed
	case errors.As(err, new(*distdial.RefusedError)), errors.As(err, new(*distdial.CapabilityMissingError)):
		return metrics.OutcomeNotAllowed
	default:
		return metrics.OutcomeProtocolError
	}
}
