package handshake

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDigestIsDeterministic(t *testing.T) {
	a := digest(Cookie("secret"), 42)
	b := digest(Cookie("secret"), 42)
	require.Equal(t, a, b)
}

func TestDigestDependsOnCookieAndChallenge(t *testing.T) {
	base := digest(Cookie("secret"), 42)
	require.NotEqual(t, base, digest(Cookie("other"), 42))
	require.NotEqual(t, base, digest(Cookie("secret"), 43))
}

func TestNewChallengeVaries(t *testing.T) {
	a, err := newChallenge()
	require.NoError(t, err)
	b, err := newChallenge()
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}
