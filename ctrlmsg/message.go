// Package ctrlmsg implements the control-message codec carried inside
// PASS_THROUGH frames: a tagged control tuple, optionally followed by
// a payload term.
package ctrlmsg

import (
	"fmt"
	"io"

	"github.com/nspcc-dev/erldist/distdial"
	"github.com/nspcc-dev/erldist/internal/etf"
)

// Control-message tags, per the distribution protocol's tagged-tuple
// dispatch. MonitorPExit is 21; an earlier draft of the reference
// implementation this codec is modeled on encoded it as 20
// (DemonitorP's tag) by mistake, which this codec does not reproduce.
const (
	TagLink         = 1
	TagSend         = 2
	TagExit         = 3
	TagUnlink       = 4
	TagNodeLink     = 5
	TagRegSend      = 6
	TagGroupLeader  = 7
	TagExit2        = 8
	TagSendTt       = 12
	TagExitTt       = 13
	TagRegSendTt    = 16
	TagExit2Tt      = 18
	TagMonitorP     = 19
	TagDemonitorP   = 20
	TagMonitorPExit = 21
)

// TermCodec abstracts the external term format so a caller could swap
// in an alternate encoder; the only implementation in this module is
// backed by internal/etf, since no example dependency implements ETF.
type TermCodec interface {
	Encode(w io.Writer, t etf.Term) error
	Decode(r io.Reader) (etf.Term, error)
}

type etfCodec struct{}

func (etfCodec) Encode(w io.Writer, t etf.Term) error { return etf.Encode(w, t) }
func (etfCodec) Decode(r io.Reader) (etf.Term, error) { return etf.Decode(r) }

// DefaultCodec is the internal/etf-backed TermCodec used when callers
// do not supply their own.
var DefaultCodec TermCodec = etfCodec{}

// ProcessRef is a destination that may be a pid or a registered name.
type ProcessRef struct {
	Pid     *etf.Pid
	Name    *etf.Atom
}

func refFromTerm(t etf.Term) (ProcessRef, error) {
	switch v := t.(type) {
	case etf.Pid:
		return ProcessRef{Pid: &v}, nil
	case etf.Atom:
		return ProcessRef{Name: &v}, nil
	default:
		return ProcessRef{}, fmt.Errorf("ctrlmsg: expected pid or atom, got %T", t)
	}
}

func (p ProcessRef) toTerm() etf.Term {
	if p.Pid != nil {
		return *p.Pid
	}
	if p.Name != nil {
		return *p.Name
	}
	return etf.Nil()
}

// Message is one decoded control message, plus any payload term the
// variant carries (SEND/REG_SEND/*_TT variants).
type Message struct {
	Control Control
	Payload etf.Term // nil for variants without a payload
}

// Control is the decoded control tuple.
type Control interface {
	Tag() uint8
	tuple() etf.Tuple
}

// EncodeMessage writes msg's control tuple and, if present, its
// payload term, each as an independent versioned ETF blob, matching
// how distnode frames expect the PASS_THROUGH body to be laid out.
func EncodeMessage(w io.Writer, codec TermCodec, msg Message) error {
	if codec == nil {
		codec = DefaultCodec
	}
	if err := codec.Encode(w, msg.Control.tuple()); err != nil {
		return err
	}
	if msg.Payload != nil {
		if err := codec.Encode(w, msg.Payload); err != nil {
			return err
		}
	}
	return nil
}

// DecodeMessage reads a control tuple and, for variants that carry
// one, a trailing payload term.
func DecodeMessage(r io.Reader, codec TermCodec) (Message, error) {
	if codec == nil {
		codec = DefaultCodec
	}
	term, err := codec.Decode(r)
	if err != nil {
		return Message{}, &distdial.DecodeError{Inner: err}
	}
	tup, ok := term.(etf.Tuple)
	if !ok || len(tup.Elements) == 0 {
		return Message{}, distdial.NewProtocolError("ctrlmsg: control term is not a non-empty tuple", nil)
	}
	tagTerm, ok := tup.Elements[0].(etf.Integer)
	if !ok {
		return Message{}, distdial.NewProtocolError("ctrlmsg: tag element is not an integer", nil)
	}

	control, hasPayload, err := decodeControl(uint8(tagTerm), tup)
	if err != nil {
		return Message{}, distdial.NewProtocolError("ctrlmsg: decode control tuple", err)
	}

	msg := Message{Control: control}
	if hasPayload {
		payload, err := codec.Decode(r)
		if err != nil {
			return Message{}, &distdial.DecodeError{Inner: err}
		}
		msg.Payload = payload
	}
	return msg, nil
}

func decodeControl(tag uint8, t etf.Tuple) (Control, bool, error) {
	switch tag {
	case TagLink:
		return decodeLink(t)
	case TagSend:
		return decodeSend(t)
	case TagExit:
		return decodeExit(t)
	case TagUnlink:
		return decodeUnlink(t)
	case TagNodeLink:
		return decodeNodeLink(t)
	case TagRegSend:
		return decodeRegSend(t)
	case TagGroupLeader:
		return decodeGroupLeader(t)
	case TagExit2:
		return decodeExit2(t)
	case TagSendTt:
		return decodeSendTt(t)
	case TagExitTt:
		return decodeExitTt(t)
	case TagRegSendTt:
		return decodeRegSendTt(t)
	case TagExit2Tt:
		return decodeExit2Tt(t)
	case TagMonitorP:
		return decodeMonitorP(t)
	case TagDemonitorP:
		return decodeDemonitorP(t)
	case TagMonitorPExit:
		return decodeMonitorPExit(t)
	default:
		return nil, false, fmt.Errorf("ctrlmsg: unknown control tag %d", tag)
	}
}

func requireArity(t etf.Tuple, n int) error {
	if len(t.Elements) != n {
		return fmt.Errorf("ctrlmsg: expected arity %d, got %d", n, len(t.Elements))
	}
	return nil
}

func asPid(t etf.Term) (etf.Pid, error) {
	p, ok := t.(etf.Pid)
	if !ok {
		return etf.Pid{}, fmt.Errorf("ctrlmsg: expected pid, got %T", t)
	}
	return p, nil
}

func asAtom(t etf.Term) (etf.Atom, error) {
	a, ok := t.(etf.Atom)
	if !ok {
		return "", fmt.Errorf("ctrlmsg: expected atom, got %T", t)
	}
	return a, nil
}

func asReference(t etf.Term) (etf.Reference, error) {
	r, ok := t.(etf.Reference)
	if !ok {
		return etf.Reference{}, fmt.Errorf("ctrlmsg: expected reference, got %T", t)
	}
	return r, nil
}

func mustTag(tag uint8, rest ...etf.Term) etf.Tuple {
	elements := make([]etf.Term, 0, len(rest)+1)
	elements = append(elements, etf.Integer(tag))
	elements = append(elements, rest...)
	return etf.Tuple{Elements: elements}
}
