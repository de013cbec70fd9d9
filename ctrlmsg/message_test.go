package ctrlmsg

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nspcc-dev/erldist/internal/etf"
)

func roundTripMessage(t *testing.T, msg Message) Message {
	var buf bytes.Buffer
	require.NoError(t, EncodeMessage(&buf, nil, msg))
	got, err := DecodeMessage(&buf, nil)
	require.NoError(t, err)
	return got
}

func examplePid(id uint32) etf.Pid {
	return etf.Pid{Node: "node@host", ID: id, Serial: 0, Creation: 1}
}

func TestLinkRoundTrip(t *testing.T) {
	msg := Message{Control: Link{From: examplePid(1), To: examplePid(2)}}
	got := roundTripMessage(t, msg)
	require.Equal(t, msg.Control, got.Control)
	require.Nil(t, got.Payload)
}

func TestSendRoundTripCarriesPayload(t *testing.T) {
	msg := Message{Control: Send{To: examplePid(1)}, Payload: etf.Atom("hello")}
	got := roundTripMessage(t, msg)
	require.Equal(t, msg.Control, got.Control)
	require.Equal(t, etf.Atom("hello"), got.Payload)
}

func TestRegSendRoundTrip(t *testing.T) {
	msg := Message{Control: RegSend{From: examplePid(1), ToName: "server"}, Payload: etf.Integer(42)}
	got := roundTripMessage(t, msg)
	require.Equal(t, msg.Control, got.Control)
	require.Equal(t, etf.Integer(42), got.Payload)
}

func TestExitRoundTrip(t *testing.T) {
	msg := Message{Control: Exit{From: examplePid(1), To: examplePid(2), Reason: etf.Atom("normal")}}
	got := roundTripMessage(t, msg)
	require.Equal(t, msg.Control, got.Control)
}

func TestNodeLinkRoundTrip(t *testing.T) {
	msg := Message{Control: NodeLink{}}
	got := roundTripMessage(t, msg)
	require.Equal(t, NodeLink{}, got.Control)
}

func TestMonitorPRoundTripWithPidTarget(t *testing.T) {
	ref := etf.Reference{Node: "node@host", Creation: 1, IDs: []uint32{7}}
	pid := examplePid(9)
	msg := Message{Control: MonitorP{From: examplePid(1), To: ProcessRef{Pid: &pid}, Ref: ref}}
	got := roundTripMessage(t, msg)
	gotMp, ok := got.Control.(MonitorP)
	require.True(t, ok)
	require.Equal(t, ref, gotMp.Ref)
	require.NotNil(t, gotMp.To.Pid)
	require.Equal(t, pid, *gotMp.To.Pid)
}

func TestMonitorPRoundTripWithNameTarget(t *testing.T) {
	ref := etf.Reference{Node: "node@host", Creation: 1, IDs: []uint32{7}}
	name := etf.Atom("server")
	msg := Message{Control: MonitorP{From: examplePid(1), To: ProcessRef{Name: &name}, Ref: ref}}
	got := roundTripMessage(t, msg)
	gotMp, ok := got.Control.(MonitorP)
	require.True(t, ok)
	require.NotNil(t, gotMp.To.Name)
	require.Equal(t, name, *gotMp.To.Name)
}

func TestMonitorPExitUsesOwnTagNotDemonitorTag(t *testing.T) {
	msg := MonitorPExit{From: examplePid(1), To: examplePid(2), Ref: etf.Reference{Node: "n@h", Creation: 1}, Reason: etf.Atom("normal")}
	tag := uint8(msg.tuple().Elements[0].(etf.Integer))
	require.Equal(t, uint8(TagMonitorPExit), tag)
	require.NotEqual(t, uint8(TagDemonitorP), tag)
}

func TestDecodeMessageRejectsUnknownTag(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, etf.Encode(&buf, etf.Tuple{Elements: []etf.Term{etf.Integer(99)}}))
	_, err := DecodeMessage(&buf, nil)
	require.Error(t, err)
}
