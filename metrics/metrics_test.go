package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveHandshakeIncrementsCounter(t *testing.T) {
	before := testutil.ToFloat64(handshakeAttempts.WithLabelValues(string(RoleDialer), string(OutcomeSuccess)))
	ObserveHandshake(RoleDialer, OutcomeSuccess, 0.01)
	after := testutil.ToFloat64(handshakeAttempts.WithLabelValues(string(RoleDialer), string(OutcomeSuccess)))
	require.Equal(t, before+1, after)
}

func TestFrameAndKeepaliveCounters(t *testing.T) {
	beforeSent := testutil.ToFloat64(framesSent)
	beforeRecv := testutil.ToFloat64(framesReceived)
	beforeKeepalive := testutil.ToFloat64(keepalivesSent)

	FrameSent()
	FrameReceived()
	KeepaliveSent()

	require.Equal(t, beforeSent+1, testutil.ToFloat64(framesSent))
	require.Equal(t, beforeRecv+1, testutil.ToFloat64(framesReceived))
	require.Equal(t, beforeKeepalive+1, testutil.ToFloat64(keepalivesSent))
}
