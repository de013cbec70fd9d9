package handshake

import (
	"bytes"
	"encoding/binary"

	"github.com/nspcc-dev/erldist/capability"
	"github.com/nspcc-dev/erldist/distdial"
	"github.com/nspcc-dev/erldist/internal/bytestream"
	"github.com/nspcc-dev/erldist/nodename"
)

const (
	tagSendName     = 'n'
	tagSendName6    = 'N'
	tagStatus       = 's'
	tagChallengeRep = 'r'
	tagChallengeAck = 'a'
	tagComplement   = 'c'
)

// nameFrame is the wire shape shared by the initial send_name message
// and the challenge-bearing message the other side replies with; the
// two differ only in whether Challenge is present.
type nameFrame struct {
	V6        bool
	Version   uint16 // v5 only
	Flags     capability.Flags
	Creation  nodename.Creation // v6 only
	Challenge uint32
	HasChallenge bool
	Name      string
}

func writeNameFrame(c *bytestream.Conn, f nameFrame) error {
	w := c.HandshakeMessageWriter()
	if f.V6 {
		w.WriteU8(tagSendName6)
		w.WriteU64(uint64(f.Flags))
		w.WriteU32(f.Creation.Get())
		if f.HasChallenge {
			w.WriteU32(f.Challenge)
		}
		w.WriteU16(uint16(len(f.Name)))
		w.WriteAll([]byte(f.Name))
	} else {
		w.WriteU8(tagSendName)
		w.WriteU16(f.Version)
		w.WriteU32(f.Flags.Low32())
		if f.HasChallenge {
			w.WriteU32(f.Challenge)
		}
		w.WriteAll([]byte(f.Name))
	}
	return w.Finish()
}

func readNameFrame(c *bytestream.Conn, wantChallenge bool) (nameFrame, error) {
	r, err := c.HandshakeMessageReader()
	if err != nil {
		return nameFrame{}, err
	}
	tag, err := r.ReadU8()
	if err != nil {
		return nameFrame{}, err
	}

	var f nameFrame
	switch tag {
	case tagSendName6:
		f.V6 = true
		flagsRaw, err := r.ReadU64()
		if err != nil {
			return f, err
		}
		f.Flags = capability.Flags(flagsRaw)
		creation, err := r.ReadU32()
		if err != nil {
			return f, err
		}
		f.Creation = nodename.NewCreation(creation)
		if wantChallenge {
			ch, err := r.ReadU32()
			if err != nil {
				return f, err
			}
			f.Challenge = ch
			f.HasChallenge = true
		}
		nameLen, err := r.ReadU16()
		if err != nil {
			return f, err
		}
		nameBytes, err := r.ReadExact(int(nameLen))
		if err != nil {
			return f, err
		}
		f.Name = string(nameBytes)
	case tagSendName:
		version, err := r.ReadU16()
		if err != nil {
			return f, err
		}
		f.Version = version
		flagsLow, err := r.ReadU32()
		if err != nil {
			return f, err
		}
		f.Flags = capability.Flags(flagsLow)
		if wantChallenge {
			ch, err := r.ReadU32()
			if err != nil {
				return f, err
			}
			f.Challenge = ch
			f.HasChallenge = true
		}
		nameBytes, err := r.ReadExact(r.Remaining())
		if err != nil {
			return f, err
		}
		f.Name = string(nameBytes)
	default:
		return f, distdial.NewProtocolError("unexpected send_name tag", nil)
	}
	return f, r.Finish()
}

// statusResult is the decoded recv_status frame, including the
// optional trailing fields the `named:` status keyword carries.
type statusResult struct {
	Status   string
	Name     string
	Creation nodename.Creation
}

func writeStatus(c *bytestream.Conn, status string) error {
	w := c.HandshakeMessageWriter()
	w.WriteU8(tagStatus)
	w.WriteAll([]byte(status))
	return w.Finish()
}

func writeNamedStatus(c *bytestream.Conn, name string, creation nodename.Creation) error {
	w := c.HandshakeMessageWriter()
	w.WriteU8(tagStatus)
	w.WriteAll([]byte("named:"))
	w.WriteU16(uint16(len(name)))
	w.WriteAll([]byte(name))
	w.WriteU32(creation.Get())
	return w.Finish()
}

func readStatus(c *bytestream.Conn) (statusResult, error) {
	r, err := c.HandshakeMessageReader()
	if err != nil {
		return statusResult{}, err
	}
	tag, err := r.ReadU8()
	if err != nil {
		return statusResult{}, err
	}
	if tag != tagStatus {
		return statusResult{}, distdial.NewProtocolError("unexpected status tag", nil)
	}
	raw, err := r.ReadExact(r.Remaining())
	if err != nil {
		return statusResult{}, err
	}
	if err := r.Finish(); err != nil {
		return statusResult{}, err
	}

	const namedPrefix = "named:"
	if bytes.HasPrefix(raw, []byte(namedPrefix)) {
		rest := raw[len(namedPrefix):]
		if len(rest) < 2 {
			return statusResult{}, distdial.NewProtocolError("truncated named status", nil)
		}
		nameLen := int(binary.BigEndian.Uint16(rest[:2]))
		if len(rest) < 2+nameLen+4 {
			return statusResult{}, distdial.NewProtocolError("truncated named status", nil)
		}
		name := string(rest[2 : 2+nameLen])
		creation := binary.BigEndian.Uint32(rest[2+nameLen : 2+nameLen+4])
		return statusResult{Status: "named", Name: name, Creation: nodename.NewCreation(creation)}, nil
	}
	return statusResult{Status: string(raw)}, nil
}

type challengeReply struct {
	Challenge uint32
	Digest    [16]byte
}

func writeChallengeReply(c *bytestream.Conn, r challengeReply) error {
	w := c.HandshakeMessageWriter()
	w.WriteU8(tagChallengeRep)
	w.WriteU32(r.Challenge)
	w.WriteAll(r.Digest[:])
	return w.Finish()
}

func readChallengeReply(c *bytestream.Conn) (challengeReply, error) {
	r, err := c.HandshakeMessageReader()
	if err != nil {
		return challengeReply{}, err
	}
	tag, err := r.ReadU8()
	if err != nil {
		return challengeReply{}, err
	}
	if tag != tagChallengeRep {
		return challengeReply{}, distdial.NewProtocolError("unexpected challenge_reply tag", nil)
	}
	challenge, err := r.ReadU32()
	if err != nil {
		return challengeReply{}, err
	}
	digestBytes, err := r.ReadExact(16)
	if err != nil {
		return challengeReply{}, err
	}
	var rep challengeReply
	rep.Challenge = challenge
	copy(rep.Digest[:], digestBytes)
	return rep, r.Finish()
}

func writeChallengeAck(c *bytestream.Conn, d [16]byte) error {
	w := c.HandshakeMessageWriter()
	w.WriteU8(tagChallengeAck)
	w.WriteAll(d[:])
	return w.Finish()
}

func readChallengeAck(c *bytestream.Conn) ([16]byte, error) {
	var out [16]byte
	r, err := c.HandshakeMessageReader()
	if err != nil {
		return out, err
	}
	tag, err := r.ReadU8()
	if err != nil {
		return out, err
	}
	if tag != tagChallengeAck {
		return out, distdial.NewProtocolError("unexpected challenge_ack tag", nil)
	}
	b, err := r.ReadExact(16)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, r.Finish()
}

type complementFrame struct {
	FlagsHigh32 uint32
	Creation    nodename.Creation
}

func writeComplement(c *bytestream.Conn, f complementFrame) error {
	w := c.HandshakeMessageWriter()
	w.WriteU8(tagComplement)
	w.WriteU32(f.FlagsHigh32)
	w.WriteU32(f.Creation.Get())
	return w.Finish()
}

func readComplement(c *bytestream.Conn) (complementFrame, error) {
	r, err := c.HandshakeMessageReader()
	if err != nil {
		return complementFrame{}, err
	}
	tag, err := r.ReadU8()
	if err != nil {
		return complementFrame{}, err
	}
	if tag != tagComplement {
		return complementFrame{}, distdial.NewProtocolError("unexpected complement tag", nil)
	}
	high, err := r.ReadU32()
	if err != nil {
		return complementFrame{}, err
	}
	creation, err := r.ReadU32()
	if err != nil {
		return complementFrame{}, err
	}
	var f complementFrame
	f.FlagsHigh32 = high
	f.Creation = nodename.NewCreation(creation)
	return f, r.Finish()
}
