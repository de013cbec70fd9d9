// Package etf implements the minimal subset of the Erlang External
// Term Format needed to carry control-message tuples and payloads:
// small/large integers, atoms, tuples, lists (including nil), pids and
// references. No third-party library in the reference corpus
// implements this format, so it is hand-rolled; everything else in
// this module defers to an ecosystem library where one applies.
package etf

import "fmt"

// versionTag prefixes every independently-decodable term, per the
// external term format.
const versionTag = 131

// Term is any value this codec can encode or decode.
type Term interface {
	isTerm()
}

// Integer is a signed integer term, encoded as SMALL_INTEGER_EXT when
// it fits in a byte and unsigned, INTEGER_EXT otherwise.
type Integer int32

func (Integer) isTerm() {}

// Atom is an UTF-8 atom, encoded as SMALL_ATOM_UTF8_EXT/ATOM_UTF8_EXT.
type Atom string

func (Atom) isTerm() {}

// Tuple is a fixed-arity sequence, encoded as SMALL_TUPLE_EXT or
// LARGE_TUPLE_EXT depending on arity.
type Tuple struct {
	Elements []Term
}

func (Tuple) isTerm() {}

// List is encoded as NIL_EXT when empty, LIST_EXT otherwise (proper
// list, nil tail). The control-message codec uses an empty List as
// the nil placeholder for historically reserved tuple slots.
type List struct {
	Elements []Term
}

func (List) isTerm() {}

// Nil is the empty list, used as a placeholder term.
func Nil() List { return List{} }

// Pid identifies a process, encoded as NEW_PID_EXT.
type Pid struct {
	Node     Atom
	ID       uint32
	Serial   uint32
	Creation uint32
}

func (Pid) isTerm() {}

// Reference identifies a monitor or similar handle, encoded as
// NEWER_REFERENCE_EXT.
type Reference struct {
	Node     Atom
	Creation uint32
	IDs      []uint32
}

func (Reference) isTerm() {}

// String renders a term for log lines and error messages; it is not
// a wire format.
func (p Pid) String() string {
	return fmt.Sprintf("<%s.%d.%d.%d>", p.Node, p.Creation, p.ID, p.Serial)
}

func (r Reference) String() string {
	return fmt.Sprintf("#Ref<%s.%d.%v>", r.Node, r.Creation, r.IDs)
}
