// Package nodename implements node-name parsing and the local/peer
// node descriptors exchanged during the handshake.
package nodename

import (
	"encoding/binary"
	"strings"

	"github.com/mr-tron/base58"
	"golang.org/x/text/unicode/norm"

	"github.com/nspcc-dev/erldist/capability"
	"github.com/nspcc-dev/erldist/distdial"
)

// maxLen is the maximum combined length of name + '@' + host.
const maxLen = 255

// Name is an immutable (name, host) pair whose rendered form is
// "name@host". The node name's UTF8_ATOMS capability promise only
// holds if both sides encode the same normalized form, so Parse
// NFC-normalizes both components before validating length.
type Name struct {
	name string
	host string
}

// Parse splits s on its single '@' separator. It fails if s does not
// contain exactly one '@', or if the combined length exceeds 255
// octets.
func Parse(s string) (Name, error) {
	idx := strings.IndexByte(s, '@')
	if idx < 0 {
		return Name{}, &distdial.NameInvalidError{Reason: "missing '@' separator"}
	}
	if strings.IndexByte(s[idx+1:], '@') >= 0 {
		return Name{}, &distdial.NameInvalidError{Reason: "more than one '@' separator"}
	}
	return New(s[:idx], s[idx+1:])
}

// New builds a Name from already-split components.
func New(name, host string) (Name, error) {
	name = norm.NFC.String(name)
	host = norm.NFC.String(host)
	if len(name)+1+len(host) > maxLen {
		return Name{}, &distdial.NameInvalidError{Reason: "name@host exceeds 255 octets"}
	}
	return Name{name: name, host: host}, nil
}

func (n Name) Name() string { return n.name }
func (n Name) Host() string { return n.host }

// Len is the wire length of the rendered "name@host" form.
func (n Name) Len() int { return len(n.name) + 1 + len(n.host) }

// String renders "name@host". format(parse(s)) == s for any s Parse
// accepted whose components are already in NFC form, since Parse
// splits on the single '@' and String rejoins with exactly one; for
// other input String returns the NFC-normalized form, not s itself.
func (n Name) String() string { return n.name + "@" + n.host }

// ShortID renders a short base58 tag combining the node name and a
// creation counter, for log lines that need to distinguish restarts
// of the same node without printing the full name@host.
func ShortID(n Name, c Creation) string {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], c.Get())
	return n.Name() + "-" + base58.Encode(buf[:])
}

// Creation is the 32-bit incarnation counter the PMD assigns at
// registration.
type Creation uint32

func NewCreation(v uint32) Creation { return Creation(v) }
func (c Creation) Get() uint32      { return uint32(c) }

// Type distinguishes normal Erlang nodes from hidden (C-)nodes, as
// carried in PMD NodeEntry records.
type Type uint8

const (
	TypeHidden Type = 72
	TypeNormal Type = 77
)

func (t Type) String() string {
	switch t {
	case TypeHidden:
		return "hidden"
	case TypeNormal:
		return "normal"
	default:
		return "unknown"
	}
}

// Local is the application-owned descriptor consumed by the handshake
// engine as the local side's identity.
type Local struct {
	Name     Name
	Flags    capability.Flags
	Creation Creation
}

// Peer is the descriptor produced by a successful handshake.
type Peer struct {
	Name     Name
	Flags    capability.Flags
	Creation Creation
	// HasCreation distinguishes "peer sent a creation" from zero,
	// since a dynamic-name handshake always supplies one but a
	// legacy v5 peer's creation may be absent from the handshake
	// itself (learned only via a prior PMD lookup).
	HasCreation bool
}
