package capability

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMandatoryIsSubsetOfDefault(t *testing.T) {
	require.True(t, Default().Has(Mandatory()))
}

func TestHasAndMissing(t *testing.T) {
	f := ExtendedReferences | UTF8Atoms
	require.True(t, f.Has(ExtendedReferences))
	require.False(t, f.Has(Mandatory()))
	require.Equal(t, Mandatory()&^f, f.Missing(Mandatory()))
}

func TestLowHighSplitRoundTrip(t *testing.T) {
	f := Mandatory() | Spawn | NameMe
	rebuilt := FlagsFromParts(f.Low32(), f.High32())
	require.Equal(t, f, rebuilt)
}

func TestStringNamesKnownBits(t *testing.T) {
	s := ExtendedReferences.String()
	require.Equal(t, "EXTENDED_REFERENCES", s)
}

func TestStringReportsUnknownBits(t *testing.T) {
	f := Flags(1 << 50)
	require.Contains(t, f.String(), "UNKNOWN")
}
