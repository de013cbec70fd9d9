package etf

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	tagSmallInteger     = 97
	tagInteger          = 98
	tagSmallTuple       = 104
	tagLargeTuple       = 105
	tagNil              = 106
	tagList             = 108
	tagSmallAtomUTF8    = 119
	tagAtomUTF8         = 118
	tagNewPid           = 88
	tagNewerReference   = 90
)

// Encode writes term as a version-tagged, independently-decodable
// external term format blob.
func Encode(w io.Writer, term Term) error {
	if _, err := w.Write([]byte{versionTag}); err != nil {
		return err
	}
	return encodeTerm(w, term)
}

func encodeTerm(w io.Writer, term Term) error {
	switch t := term.(type) {
	case Integer:
		return encodeInteger(w, t)
	case Atom:
		return encodeAtom(w, t)
	case Tuple:
		return encodeTuple(w, t)
	case List:
		return encodeList(w, t)
	case Pid:
		return encodePid(w, t)
	case Reference:
		return encodeReference(w, t)
	default:
		return fmt.Errorf("etf: encode: unsupported term type %T", term)
	}
}

func encodeInteger(w io.Writer, v Integer) error {
	if v >= 0 && v <= 255 {
		_, err := w.Write([]byte{tagSmallInteger, byte(v)})
		return err
	}
	var buf [5]byte
	buf[0] = tagInteger
	binary.BigEndian.PutUint32(buf[1:], uint32(v))
	_, err := w.Write(buf[:])
	return err
}

func encodeAtom(w io.Writer, a Atom) error {
	b := []byte(a)
	if len(b) <= 255 {
		if _, err := w.Write([]byte{tagSmallAtomUTF8, byte(len(b))}); err != nil {
			return err
		}
		_, err := w.Write(b)
		return err
	}
	var header [3]byte
	header[0] = tagAtomUTF8
	binary.BigEndian.PutUint16(header[1:], uint16(len(b)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func encodeTuple(w io.Writer, t Tuple) error {
	n := len(t.Elements)
	if n <= 255 {
		if _, err := w.Write([]byte{tagSmallTuple, byte(n)}); err != nil {
			return err
		}
	} else {
		var header [5]byte
		header[0] = tagLargeTuple
		binary.BigEndian.PutUint32(header[1:], uint32(n))
		if _, err := w.Write(header[:]); err != nil {
			return err
		}
	}
	for _, el := range t.Elements {
		if err := encodeTerm(w, el); err != nil {
			return err
		}
	}
	return nil
}

func encodeList(w io.Writer, l List) error {
	if len(l.Elements) == 0 {
		_, err := w.Write([]byte{tagNil})
		return err
	}
	var header [5]byte
	header[0] = tagList
	binary.BigEndian.PutUint32(header[1:], uint32(len(l.Elements)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	for _, el := range l.Elements {
		if err := encodeTerm(w, el); err != nil {
			return err
		}
	}
	_, err := w.Write([]byte{tagNil}) // proper list tail
	return err
}

func encodePid(w io.Writer, p Pid) error {
	if _, err := w.Write([]byte{tagNewPid}); err != nil {
		return err
	}
	if err := encodeAtom(w, p.Node); err != nil {
		return err
	}
	var buf [12]byte
	binary.BigEndian.PutUint32(buf[0:4], p.ID)
	binary.BigEndian.PutUint32(buf[4:8], p.Serial)
	binary.BigEndian.PutUint32(buf[8:12], p.Creation)
	_, err := w.Write(buf[:])
	return err
}

func encodeReference(w io.Writer, r Reference) error {
	var header [3]byte
	header[0] = tagNewerReference
	binary.BigEndian.PutUint16(header[1:], uint16(len(r.IDs)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	if err := encodeAtom(w, r.Node); err != nil {
		return err
	}
	var creation [4]byte
	binary.BigEndian.PutUint32(creation[:], r.Creation)
	if _, err := w.Write(creation[:]); err != nil {
		return err
	}
	for _, id := range r.IDs {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], id)
		if _, err := w.Write(b[:]); err != nil {
			return err
		}
	}
	return nil
}
