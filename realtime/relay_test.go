package realtime

import (
	"encoding/json"
	"testing"
)

// fakeConn 记录收到的广播,saturated 时模拟发送缓冲满
type fakeConn struct {
	received  [][]byte
	saturated bool
}

func (c *fakeConn) Deliver(payload []byte) bool {
	if c.saturated {
		return false
	}
	c.received = append(c.received, payload)
	return true
}

func (c *fakeConn) lastMessage(t *testing.T) *Message {
	t.Helper()
	if len(c.received) == 0 {
		t.Fatal("Expected at least one delivered message")
	}
	msg := &Message{}
	if err := json.Unmarshal(c.received[len(c.received)-1], msg); err != nil {
		t.Fatalf("Failed to unmarshal delivered message: %v", err)
	}
	return msg
}

func telemetryFor(matchID string) *TelemetryEvent {
	return &TelemetryEvent{
		MatchID:   matchID,
		PlayerID:  "player-9",
		Timestamp: 1700000000000,
		Metrics: Metrics{
			Position:  Position{X: 10, Y: 20},
			Speed:     5.5,
			HeartRate: 150,
		},
	}
}

func TestMembersOfTracksJoinsAndLeaves(t *testing.T) {
	hub := NewHub()
	a := hub.Register(&fakeConn{})
	b := hub.Register(&fakeConn{})

	hub.Join("match-42", a)
	hub.Join("match-42", b)

	if members := hub.MembersOf("match-42"); len(members) != 2 {
		t.Errorf("Expected 2 members, got %v", members)
	}

	hub.Leave("match-42", a)

	members := hub.MembersOf("match-42")
	if len(members) != 1 || members[0] != b {
		t.Errorf("Expected only %s after leave, got %v", b, members)
	}
	if rooms := hub.JoinedRooms(a); len(rooms) != 0 {
		t.Errorf("Expected no joined rooms for %s, got %v", a, rooms)
	}
}

func TestJoinTwiceEqualsJoinOnce(t *testing.T) {
	hub := NewHub()
	d := hub.Register(&fakeConn{})

	hub.Join("match-42", d)
	hub.Join("match-42", d)

	if members := hub.MembersOf("match-42"); len(members) != 1 {
		t.Errorf("Expected D exactly once, got %v", members)
	}
	if rooms := hub.JoinedRooms(d); len(rooms) != 1 {
		t.Errorf("Expected exactly one joined room, got %v", rooms)
	}
}

func TestJoinUnknownConnectionIsIgnored(t *testing.T) {
	hub := NewHub()

	hub.Join("match-42", "never-registered")

	if members := hub.MembersOf("match-42"); len(members) != 0 {
		t.Errorf("Expected no members for unregistered conn, got %v", members)
	}
}

func TestUnregisterRemovesFromEveryRoom(t *testing.T) {
	hub := NewHub()
	a := hub.Register(&fakeConn{})
	b := hub.Register(&fakeConn{})

	hub.Join("match-42", a)
	hub.Join("match-99", a)
	hub.Join("match-42", b)

	hub.Unregister(a)

	if members := hub.MembersOf("match-42"); len(members) != 1 || members[0] != b {
		t.Errorf("Expected only %s in match-42, got %v", b, members)
	}
	if members := hub.MembersOf("match-99"); len(members) != 0 {
		t.Errorf("Expected match-99 empty after disconnect, got %v", members)
	}
	if rooms := hub.JoinedRooms(a); len(rooms) != 0 {
		t.Errorf("Expected unknown id to have no rooms, got %v", rooms)
	}

	// 重复注销是无害的空操作
	hub.Unregister(a)
}

func TestTelemetryConfinedToRoom(t *testing.T) {
	hub := NewHub()
	connA := &fakeConn{}
	connB := &fakeConn{}
	connC := &fakeConn{}
	a := hub.Register(connA)
	b := hub.Register(connB)
	c := hub.Register(connC)

	hub.Join("match-42", a)
	hub.Join("match-42", b)
	hub.Join("match-99", c)

	hub.RelayTelemetry(telemetryFor("match-42"))

	msg := connB.lastMessage(t)
	if msg.Type != MsgTelemetryBroadcast {
		t.Errorf("Expected type %s, got %s", MsgTelemetryBroadcast, msg.Type)
	}
	event := &TelemetryEvent{}
	if err := json.Unmarshal(msg.Data, event); err != nil {
		t.Fatalf("Failed to unmarshal telemetry payload: %v", err)
	}
	if event.MatchID != "match-42" || event.PlayerID != "player-9" {
		t.Errorf("Telemetry payload mangled: %+v", event)
	}

	if len(connC.received) != 0 {
		t.Errorf("Expected no cross-room leakage to match-99, got %d messages", len(connC.received))
	}
}

// 观察到的行为:广播覆盖整个房间,发起连接不被排除,
// producer 同时作为展示端会收到自己的回显,这里按原样保留
func TestBroadcastEchoesBackToOriginator(t *testing.T) {
	hub := NewHub()
	producer := &fakeConn{}
	viewer := &fakeConn{}
	p := hub.Register(producer)
	v := hub.Register(viewer)

	hub.Join("match-42", p)
	hub.Join("match-42", v)

	hub.RelayTelemetry(telemetryFor("match-42"))

	if len(producer.received) != 1 {
		t.Errorf("Expected originator to receive its own echo, got %d messages", len(producer.received))
	}
	if len(viewer.received) != 1 {
		t.Errorf("Expected viewer to receive broadcast, got %d messages", len(viewer.received))
	}
}

// 观察到的行为:加入房间和中继事件都不做授权检查,
// 任何连接都可以订阅任意比赛,这里按原样保留
func TestJoinAndRelayRequireNoAuthorization(t *testing.T) {
	hub := NewHub()
	stranger := &fakeConn{}
	id := hub.Register(stranger)

	// 未经任何凭证校验就能加入任意比赛房间
	hub.Join("someone-elses-match", id)
	if members := hub.MembersOf("someone-elses-match"); len(members) != 1 {
		t.Fatalf("Expected join without authorization to succeed, got %v", members)
	}

	// 也能为该比赛中继事件
	hub.RelayTelemetry(telemetryFor("someone-elses-match"))
	if len(stranger.received) != 1 {
		t.Errorf("Expected relay without authorization to deliver, got %d messages", len(stranger.received))
	}
}

func TestMissingMatchIDNeverDelivered(t *testing.T) {
	hub := NewHub()
	connA := &fakeConn{}
	a := hub.Register(connA)
	hub.Join("match-42", a)

	hub.RelayTelemetry(telemetryFor(""))
	hub.RelayTelemetry(nil)
	hub.RelayInsight(&InsightEvent{Type: InsightTactical, Message: "no match id"})

	if len(connA.received) != 0 {
		t.Errorf("Expected malformed events to be dropped, got %d deliveries", len(connA.received))
	}
}

func TestInsightFanout(t *testing.T) {
	hub := NewHub()
	connB := &fakeConn{}
	b := hub.Register(connB)
	hub.Join("match-42", b)

	hub.RelayInsight(&InsightEvent{
		MatchID:  "match-42",
		Type:     InsightTactical,
		Priority: 4,
		Message:  "test",
	})

	msg := connB.lastMessage(t)
	if msg.Type != MsgInsightBroadcast {
		t.Errorf("Expected type %s, got %s", MsgInsightBroadcast, msg.Type)
	}
	event := &InsightEvent{}
	if err := json.Unmarshal(msg.Data, event); err != nil {
		t.Fatalf("Failed to unmarshal insight payload: %v", err)
	}
	if event.Type != InsightTactical || event.Priority != 4 || event.Message != "test" {
		t.Errorf("Insight payload mangled: %+v", event)
	}
}

func TestSlowMemberDoesNotAffectOthers(t *testing.T) {
	hub := NewHub()
	slow := &fakeConn{saturated: true}
	healthy := &fakeConn{}
	s := hub.Register(slow)
	h := hub.Register(healthy)

	hub.Join("match-42", s)
	hub.Join("match-42", h)

	hub.RelayTelemetry(telemetryFor("match-42"))

	if len(healthy.received) != 1 {
		t.Errorf("Expected healthy member to receive broadcast despite slow peer, got %d", len(healthy.received))
	}
	if len(slow.received) != 0 {
		t.Errorf("Expected saturated member to receive nothing, got %d", len(slow.received))
	}

	// 丢弃不导致摘除,连接仍然是房间成员
	if members := hub.MembersOf("match-42"); len(members) != 2 {
		t.Errorf("Expected both members to remain, got %v", members)
	}
}

func TestScenarioDisconnectThenInsight(t *testing.T) {
	hub := NewHub()
	connA := &fakeConn{}
	connB := &fakeConn{}
	a := hub.Register(connA)
	b := hub.Register(connB)

	hub.Join("match-42", a)
	hub.Join("match-42", b)

	// A断开
	hub.Unregister(a)

	members := hub.MembersOf("match-42")
	if len(members) != 1 || members[0] != b {
		t.Fatalf("Expected only B after A disconnect, got %v", members)
	}

	// B发出的洞察只会投递给仍在房间的成员
	hub.RelayInsight(&InsightEvent{MatchID: "match-42", Type: InsightTactical, Priority: 4, Message: "test"})

	if len(connB.received) != 1 {
		t.Errorf("Expected B to receive insight, got %d", len(connB.received))
	}
	if len(connA.received) != 0 {
		t.Errorf("Expected disconnected A to receive nothing, got %d", len(connA.received))
	}
}
