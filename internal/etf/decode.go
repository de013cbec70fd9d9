package etf

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Decode reads one version-tagged term.
func Decode(r io.Reader) (Term, error) {
	var v [1]byte
	if _, err := io.ReadFull(r, v[:]); err != nil {
		return nil, err
	}
	if v[0] != versionTag {
		return nil, fmt.Errorf("etf: decode: unexpected version byte %d", v[0])
	}
	return decodeTerm(r)
}

func decodeTerm(r io.Reader) (Term, error) {
	var tag [1]byte
	if _, err := io.ReadFull(r, tag[:]); err != nil {
		return nil, err
	}
	switch tag[0] {
	case tagSmallInteger:
		var b [1]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, err
		}
		return Integer(b[0]), nil
	case tagInteger:
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, err
		}
		return Integer(int32(binary.BigEndian.Uint32(b[:]))), nil
	case tagSmallAtomUTF8:
		var lenByte [1]byte
		if _, err := io.ReadFull(r, lenByte[:]); err != nil {
			return nil, err
		}
		data := make([]byte, lenByte[0])
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, err
		}
		return Atom(data), nil
	case tagAtomUTF8:
		var lenBytes [2]byte
		if _, err := io.ReadFull(r, lenBytes[:]); err != nil {
			return nil, err
		}
		data := make([]byte, binary.BigEndian.Uint16(lenBytes[:]))
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, err
		}
		return Atom(data), nil
	case tagSmallTuple:
		var n [1]byte
		if _, err := io.ReadFull(r, n[:]); err != nil {
			return nil, err
		}
		return decodeTupleElements(r, int(n[0]))
	case tagLargeTuple:
		var n [4]byte
		if _, err := io.ReadFull(r, n[:]); err != nil {
			return nil, err
		}
		return decodeTupleElements(r, int(binary.BigEndian.Uint32(n[:])))
	case tagNil:
		return List{}, nil
	case tagList:
		var n [4]byte
		if _, err := io.ReadFull(r, n[:]); err != nil {
			return nil, err
		}
		count := int(binary.BigEndian.Uint32(n[:]))
		elements := make([]Term, 0, count)
		for i := 0; i < count; i++ {
			el, err := decodeTerm(r)
			if err != nil {
				return nil, err
			}
			elements = append(elements, el)
		}
		// Discard the tail term (nil for a proper list).
		if _, err := decodeTerm(r); err != nil {
			return nil, err
		}
		return List{Elements: elements}, nil
	case tagNewPid:
		node, err := decodeAtomTerm(r)
		if err != nil {
			return nil, err
		}
		var buf [12]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, err
		}
		return Pid{
			Node:     node,
			ID:       binary.BigEndian.Uint32(buf[0:4]),
			Serial:   binary.BigEndian.Uint32(buf[4:8]),
			Creation: binary.BigEndian.Uint32(buf[8:12]),
		}, nil
	case tagNewerReference:
		var lenBytes [2]byte
		if _, err := io.ReadFull(r, lenBytes[:]); err != nil {
			return nil, err
		}
		count := int(binary.BigEndian.Uint16(lenBytes[:]))
		node, err := decodeAtomTerm(r)
		if err != nil {
			return nil, err
		}
		var creationBytes [4]byte
		if _, err := io.ReadFull(r, creationBytes[:]); err != nil {
			return nil, err
		}
		ids := make([]uint32, count)
		for i := range ids {
			var b [4]byte
			if _, err := io.ReadFull(r, b[:]); err != nil {
				return nil, err
			}
			ids[i] = binary.BigEndian.Uint32(b[:])
		}
		return Reference{Node: node, Creation: binary.BigEndian.Uint32(creationBytes[:]), IDs: ids}, nil
	default:
		return nil, fmt.Errorf("etf: decode: unsupported tag %d", tag[0])
	}
}

func decodeTupleElements(r io.Reader, n int) (Term, error) {
	elements := make([]Term, 0, n)
	for i := 0; i < n; i++ {
		el, err := decodeTerm(r)
		if err != nil {
			return nil, err
		}
		elements = append(elements, el)
	}
	return Tuple{Elements: elements}, nil
}

// decodeAtomTerm reads a nested atom term (expects an atom tag, not a
// version byte, since it is never top-level).
func decodeAtomTerm(r io.Reader) (Atom, error) {
	term, err := decodeTerm(r)
	if err != nil {
		return "", err
	}
	a, ok := term.(Atom)
	if !ok {
		return "", fmt.Errorf("etf: decode: expected atom, got %T", term)
	}
	return a, nil
}
