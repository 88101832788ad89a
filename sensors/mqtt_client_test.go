package sensors

import (
	"errors"
	"testing"

	"coachsight-service/database"
	"coachsight-service/realtime"
)

type captureSink struct {
	events []*realtime.TelemetryEvent
}

func (s *captureSink) RelayTelemetry(event *realtime.TelemetryEvent) {
	s.events = append(s.events, event)
}

type staticResolver struct {
	players map[string]*database.Player
	err     error
	lookups int
}

func (r *staticResolver) FindByDeviceID(deviceID string) (*database.Player, error) {
	r.lookups++
	if r.err != nil {
		return nil, r.err
	}
	return r.players[deviceID], nil
}

func TestDeviceIDFromTopic(t *testing.T) {
	cases := []struct {
		topic string
		want  string
	}{
		{"devices/tracker-01/telemetry", "tracker-01"},
		{"devices/tracker-01/status", ""},
		{"sensors/tracker-01/telemetry", ""},
		{"devices/tracker-01", ""},
		{"devices/a/b/telemetry", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := deviceIDFromTopic(c.topic); got != c.want {
			t.Errorf("deviceIDFromTopic(%q) = %q, want %q", c.topic, got, c.want)
		}
	}
}

func TestProcessSampleResolvesPlayer(t *testing.T) {
	sink := &captureSink{}
	resolver := &staticResolver{players: map[string]*database.Player{
		"tracker-01": {ID: 9},
	}}
	client := NewMQTTClient("tcp://localhost:1883", "", "", nil, sink, nil, resolver)

	payload := []byte(`{"matchId":"12","timestamp":1700000000000,"metrics":{"heartRate":150}}`)
	client.processSample("devices/tracker-01/telemetry", payload)

	if len(sink.events) != 1 {
		t.Fatalf("Expected 1 relayed event, got %d", len(sink.events))
	}
	event := sink.events[0]
	if event.MatchID != "12" {
		t.Errorf("Expected matchId 12, got %s", event.MatchID)
	}
	if event.PlayerID != "9" {
		t.Errorf("Expected playerId 9, got %s", event.PlayerID)
	}
	if event.Metrics.HeartRate != 150 {
		t.Errorf("Expected heartRate 150, got %v", event.Metrics.HeartRate)
	}
}

func TestProcessSampleCachesDeviceLookup(t *testing.T) {
	sink := &captureSink{}
	resolver := &staticResolver{players: map[string]*database.Player{
		"tracker-01": {ID: 9},
	}}
	client := NewMQTTClient("tcp://localhost:1883", "", "", nil, sink, nil, resolver)

	payload := []byte(`{"matchId":"12","timestamp":1,"metrics":{}}`)
	client.processSample("devices/tracker-01/telemetry", payload)
	client.processSample("devices/tracker-01/telemetry", payload)

	if resolver.lookups != 1 {
		t.Errorf("Expected 1 resolver lookup, got %d", resolver.lookups)
	}
	if len(sink.events) != 2 {
		t.Errorf("Expected 2 relayed events, got %d", len(sink.events))
	}
}

func TestProcessSampleDropsBadInput(t *testing.T) {
	sink := &captureSink{}
	resolver := &staticResolver{players: map[string]*database.Player{
		"tracker-01": {ID: 9},
	}}
	client := NewMQTTClient("tcp://localhost:1883", "", "", nil, sink, nil, resolver)

	// bad topic shape
	client.processSample("devices/status", []byte(`{"matchId":"12"}`))
	// malformed JSON
	client.processSample("devices/tracker-01/telemetry", []byte(`not json`))
	// missing matchId
	client.processSample("devices/tracker-01/telemetry", []byte(`{"timestamp":1,"metrics":{}}`))
	// device with no player binding
	client.processSample("devices/tracker-99/telemetry", []byte(`{"matchId":"12","timestamp":1,"metrics":{}}`))

	if len(sink.events) != 0 {
		t.Errorf("Expected all samples to be dropped, got %d events", len(sink.events))
	}
}

func TestProcessSampleResolverErrorIsNotCached(t *testing.T) {
	sink := &captureSink{}
	resolver := &staticResolver{err: errors.New("db down")}
	client := NewMQTTClient("tcp://localhost:1883", "", "", nil, sink, nil, resolver)

	payload := []byte(`{"matchId":"12","timestamp":1,"metrics":{}}`)
	client.processSample("devices/tracker-01/telemetry", payload)

	// once the DB recovers the same device resolves again
	resolver.err = nil
	resolver.players = map[string]*database.Player{"tracker-01": {ID: 9}}
	client.processSample("devices/tracker-01/telemetry", payload)

	if len(sink.events) != 1 {
		t.Errorf("Expected 1 relayed event after recovery, got %d", len(sink.events))
	}
	if resolver.lookups != 2 {
		t.Errorf("Expected 2 resolver lookups, got %d", resolver.lookups)
	}
}
