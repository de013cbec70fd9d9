package handshake

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/binary"
	"strconv"
)

// Cookie is the shared ASCII secret used to compute challenge digests.
// A distinct type rather than a bare string, so a cookie can never be
// passed where a node name is expected by accident.
type Cookie string

// digest computes MD5(cookie || decimal_ascii(challenge)), the
// construction both sides use to prove possession of the cookie
// without sending it.
func digest(cookie Cookie, challenge uint32) [16]byte {
	data := make([]byte, 0, len(cookie)+10)
	data = append(data, cookie...)
	data = strconv.AppendUint(data, uint64(challenge), 10)
	return md5.Sum(data)
}

// newChallenge draws a fresh random u32 challenge value.
func newChallenge() (uint32, error) {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}
