package realtime

import "testing"

func TestRouterJoinCreatesRoom(t *testing.T) {
	router := NewRouter()

	router.join("match-1", "conn-a")

	members := router.membersOf("match-1")
	if len(members) != 1 || members[0] != "conn-a" {
		t.Errorf("Expected members [conn-a], got %v", members)
	}
	if router.roomCount() != 1 {
		t.Errorf("Expected 1 room, got %d", router.roomCount())
	}
}

func TestRouterJoinIsIdempotent(t *testing.T) {
	router := NewRouter()

	router.join("match-1", "conn-a")
	router.join("match-1", "conn-a")

	members := router.membersOf("match-1")
	if len(members) != 1 {
		t.Errorf("Expected conn-a exactly once, got %v", members)
	}
}

func TestRouterLeaveDropsEmptyRoom(t *testing.T) {
	router := NewRouter()

	router.join("match-1", "conn-a")
	router.join("match-1", "conn-b")
	router.leave("match-1", "conn-a")

	if router.roomCount() != 1 {
		t.Errorf("Expected room to survive with one member, got %d rooms", router.roomCount())
	}

	router.leave("match-1", "conn-b")

	if router.roomCount() != 0 {
		t.Errorf("Expected empty room to be dropped, got %d rooms", router.roomCount())
	}
	if members := router.membersOf("match-1"); len(members) != 0 {
		t.Errorf("Expected empty member list after room dropped, got %v", members)
	}
}

func TestRouterLeaveUnknownRoomIsNoop(t *testing.T) {
	router := NewRouter()

	// 不应该panic也不应该报错
	router.leave("no-such-match", "conn-a")

	if members := router.membersOf("no-such-match"); len(members) != 0 {
		t.Errorf("Expected empty member list for unknown room, got %v", members)
	}
}
