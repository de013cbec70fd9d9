// Package wiretest provides a small round-trip assertion helper for
// wire codec tests, mirroring the teacher's encode/decode test helper
// but generalized to this module's io.Reader/io.Writer based codecs.
package wiretest

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

// RoundTrip runs encode into a fresh buffer, decodes that buffer with
// decode, and asserts the decoded value equals want.
func RoundTrip(t *testing.T, want interface{}, encode func(w *bytes.Buffer) error, decode func(r *bytes.Buffer) (interface{}, error)) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, encode(&buf))
	got, err := decode(&buf)
	require.NoError(t, err)
	require.Equal(t, want, got)
}
