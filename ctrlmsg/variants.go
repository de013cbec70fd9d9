package ctrlmsg

import "github.com/nspcc-dev/erldist/internal/etf"

// Link is (1, from, to).
type Link struct {
	From, To etf.Pid
}

func (Link) Tag() uint8 { return TagLink }
func (m Link) tuple() etf.Tuple {
	return mustTag(TagLink, m.From, m.To)
}
func decodeLink(t etf.Tuple) (Control, bool, error) {
	if err := requireArity(t, 3); err != nil {
		return nil, false, err
	}
	from, err := asPid(t.Elements[1])
	if err != nil {
		return nil, false, err
	}
	to, err := asPid(t.Elements[2])
	if err != nil {
		return nil, false, err
	}
	return Link{From: from, To: to}, false, nil
}

// Send is (2, [], to_pid), payload carries the message.
type Send struct {
	To etf.Pid
}

func (Send) Tag() uint8 { return TagSend }
func (m Send) tuple() etf.Tuple {
	return mustTag(TagSend, etf.Nil(), m.To)
}
func decodeSend(t etf.Tuple) (Control, bool, error) {
	if err := requireArity(t, 3); err != nil {
		return nil, false, err
	}
	to, err := asPid(t.Elements[2])
	if err != nil {
		return nil, false, err
	}
	return Send{To: to}, true, nil
}

// Exit is (3, from, to, reason).
type Exit struct {
	From, To etf.Pid
	Reason   etf.Term
}

func (Exit) Tag() uint8 { return TagExit }
func (m Exit) tuple() etf.Tuple {
	return mustTag(TagExit, m.From, m.To, m.Reason)
}
func decodeExit(t etf.Tuple) (Control, bool, error) {
	if err := requireArity(t, 4); err != nil {
		return nil, false, err
	}
	from, err := asPid(t.Elements[1])
	if err != nil {
		return nil, false, err
	}
	to, err := asPid(t.Elements[2])
	if err != nil {
		return nil, false, err
	}
	return Exit{From: from, To: to, Reason: t.Elements[3]}, false, nil
}

// Unlink is (4, from, to).
type Unlink struct {
	From, To etf.Pid
}

func (Unlink) Tag() uint8 { return TagUnlink }
func (m Unlink) tuple() etf.Tuple {
	return mustTag(TagUnlink, m.From, m.To)
}
func decodeUnlink(t etf.Tuple) (Control, bool, error) {
	if err := requireArity(t, 3); err != nil {
		return nil, false, err
	}
	from, err := asPid(t.Elements[1])
	if err != nil {
		return nil, false, err
	}
	to, err := asPid(t.Elements[2])
	if err != nil {
		return nil, false, err
	}
	return Unlink{From: from, To: to}, false, nil
}

// NodeLink is (5,), a bare keepalive-style link notification.
type NodeLink struct{}

func (NodeLink) Tag() uint8         { return TagNodeLink }
func (NodeLink) tuple() etf.Tuple   { return mustTag(TagNodeLink) }
func decodeNodeLink(t etf.Tuple) (Control, bool, error) {
	if err := requireArity(t, 1); err != nil {
		return nil, false, err
	}
	return NodeLink{}, false, nil
}

// RegSend is (6, from, [], to_name), payload carries the message.
type RegSend struct {
	From   etf.Pid
	ToName etf.Atom
}

func (RegSend) Tag() uint8 { return TagRegSend }
func (m RegSend) tuple() etf.Tuple {
	return mustTag(TagRegSend, m.From, etf.Nil(), m.ToName)
}
func decodeRegSend(t etf.Tuple) (Control, bool, error) {
	if err := requireArity(t, 4); err != nil {
		return nil, false, err
	}
	from, err := asPid(t.Elements[1])
	if err != nil {
		return nil, false, err
	}
	name, err := asAtom(t.Elements[3])
	if err != nil {
		return nil, false, err
	}
	return RegSend{From: from, ToName: name}, true, nil
}

// GroupLeader is (7, from, to).
type GroupLeader struct {
	From, To etf.Pid
}

func (GroupLeader) Tag() uint8 { return TagGroupLeader }
func (m GroupLeader) tuple() etf.Tuple {
	return mustTag(TagGroupLeader, m.From, m.To)
}
func decodeGroupLeader(t etf.Tuple) (Control, bool, error) {
	if err := requireArity(t, 3); err != nil {
		return nil, false, err
	}
	from, err := asPid(t.Elements[1])
	if err != nil {
		return nil, false, err
	}
	to, err := asPid(t.Elements[2])
	if err != nil {
		return nil, false, err
	}
	return GroupLeader{From: from, To: to}, false, nil
}

// Exit2 is (8, from, to, reason).
type Exit2 struct {
	From, To etf.Pid
	Reason   etf.Term
}

func (Exit2) Tag() uint8 { return TagExit2 }
func (m Exit2) tuple() etf.Tuple {
	return mustTag(TagExit2, m.From, m.To, m.Reason)
}
func decodeExit2(t etf.Tuple) (Control, bool, error) {
	if err := requireArity(t, 4); err != nil {
		return nil, false, err
	}
	from, err := asPid(t.Elements[1])
	if err != nil {
		return nil, false, err
	}
	to, err := asPid(t.Elements[2])
	if err != nil {
		return nil, false, err
	}
	return Exit2{From: from, To: to, Reason: t.Elements[3]}, false, nil
}

// SendTt is (12, [], to_pid, token), payload carries the message.
type SendTt struct {
	To         etf.Pid
	TraceToken etf.Term
}

func (SendTt) Tag() uint8 { return TagSendTt }
func (m SendTt) tuple() etf.Tuple {
	return mustTag(TagSendTt, etf.Nil(), m.To, m.TraceToken)
}
func decodeSendTt(t etf.Tuple) (Control, bool, error) {
	if err := requireArity(t, 4); err != nil {
		return nil, false, err
	}
	to, err := asPid(t.Elements[2])
	if err != nil {
		return nil, false, err
	}
	return SendTt{To: to, TraceToken: t.Elements[3]}, true, nil
}

// ExitTt is (13, from, to, token, reason).
type ExitTt struct {
	From, To   etf.Pid
	TraceToken etf.Term
	Reason     etf.Term
}

func (ExitTt) Tag() uint8 { return TagExitTt }
func (m ExitTt) tuple() etf.Tuple {
	return mustTag(TagExitTt, m.From, m.To, m.TraceToken, m.Reason)
}
func decodeExitTt(t etf.Tuple) (Control, bool, error) {
	if err := requireArity(t, 5); err != nil {
		return nil, false, err
	}
	from, err := asPid(t.Elements[1])
	if err != nil {
		return nil, false, err
	}
	to, err := asPid(t.Elements[2])
	if err != nil {
		return nil, false, err
	}
	return ExitTt{From: from, To: to, TraceToken: t.Elements[3], Reason: t.Elements[4]}, false, nil
}

// RegSendTt is (16, from, [], to_name, token), payload carries the message.
type RegSendTt struct {
	From       etf.Pid
	ToName     etf.Atom
	TraceToken etf.Term
}

func (RegSendTt) Tag() uint8 { return TagRegSendTt }
func (m RegSendTt) tuple() etf.Tuple {
	return mustTag(TagRegSendTt, m.From, etf.Nil(), m.ToName, m.TraceToken)
}
func decodeRegSendTt(t etf.Tuple) (Control, bool, error) {
	if err := requireArity(t, 5); err != nil {
		return nil, false, err
	}
	from, err := asPid(t.Elements[1])
	if err != nil {
		return nil, false, err
	}
	name, err := asAtom(t.Elements[3])
	if err != nil {
		return nil, false, err
	}
	return RegSendTt{From: from, ToName: name, TraceToken: t.Elements[4]}, true, nil
}

// Exit2Tt is (18, from, to, token, reason).
type Exit2Tt struct {
	From, To   etf.Pid
	TraceToken etf.Term
	Reason     etf.Term
}

func (Exit2Tt) Tag() uint8 { return TagExit2Tt }
func (m Exit2Tt) tuple() etf.Tuple {
	return mustTag(TagExit2Tt, m.From, m.To, m.TraceToken, m.Reason)
}
func decodeExit2Tt(t etf.Tuple) (Control, bool, error) {
	if err := requireArity(t, 5); err != nil {
		return nil, false, err
	}
	from, err := asPid(t.Elements[1])
	if err != nil {
		return nil, false, err
	}
	to, err := asPid(t.Elements[2])
	if err != nil {
		return nil, false, err
	}
	return Exit2Tt{From: from, To: to, TraceToken: t.Elements[3], Reason: t.Elements[4]}, false, nil
}

// MonitorP is (19, from, to_proc, ref).
type MonitorP struct {
	From  etf.Pid
	To    ProcessRef
	Ref   etf.Reference
}

func (MonitorP) Tag() uint8 { return TagMonitorP }
func (m MonitorP) tuple() etf.Tuple {
	return mustTag(TagMonitorP, m.From, m.To.toTerm(), m.Ref)
}
func decodeMonitorP(t etf.Tuple) (Control, bool, error) {
	if err := requireArity(t, 4); err != nil {
		return nil, false, err
	}
	from, err := asPid(t.Elements[1])
	if err != nil {
		return nil, false, err
	}
	to, err := refFromTerm(t.Elements[2])
	if err != nil {
		return nil, false, err
	}
	ref, err := asReference(t.Elements[3])
	if err != nil {
		return nil, false, err
	}
	return MonitorP{From: from, To: to, Ref: ref}, false, nil
}

// DemonitorP is (20, from, to_proc, ref).
type DemonitorP struct {
	From etf.Pid
	To   ProcessRef
	Ref  etf.Reference
}

func (DemonitorP) Tag() uint8 { return TagDemonitorP }
func (m DemonitorP) tuple() etf.Tuple {
	return mustTag(TagDemonitorP, m.From, m.To.toTerm(), m.Ref)
}
func decodeDemonitorP(t etf.Tuple) (Control, bool, error) {
	if err := requireArity(t, 4); err != nil {
		return nil, false, err
	}
	from, err := asPid(t.Elements[1])
	if err != nil {
		return nil, false, err
	}
	to, err := refFromTerm(t.Elements[2])
	if err != nil {
		return nil, false, err
	}
	ref, err := asReference(t.Elements[3])
	if err != nil {
		return nil, false, err
	}
	return DemonitorP{From: from, To: to, Ref: ref}, false, nil
}

// MonitorPExit is (21, from, to_pid, ref, reason).
type MonitorPExit struct {
	From, To etf.Pid
	Ref      etf.Reference
	Reason   etf.Term
}

func (MonitorPExit) Tag() uint8 { return TagMonitorPExit }
func (m MonitorPExit) tuple() etf.Tuple {
	return mustTag(TagMonitorPExit, m.From, m.To, m.Ref, m.Reason)
}
func decodeMonitorPExit(t etf.Tuple) (Control, bool, error) {
	if err := requireArity(t, 5); err != nil {
		return nil, false, err
	}
	from, err := asPid(t.Elements[1])
	if err != nil {
		return nil, false, err
	}
	to, err := asPid(t.Elements[2])
	if err != nil {
		return nil, false, err
	}
	ref, err := asReference(t.Elements[3])
	if err != nil {
		return nil, false, err
	}
	return MonitorPExit{From: from, To: to, Ref: ref, Reason: t.Elements[4]}, false, nil
}
