package services

import (
	"testing"
	"time"

	"coachsight-service/realtime"
)

type captureBroadcaster struct {
	insights []*realtime.InsightEvent
}

func (c *captureBroadcaster) RelayInsight(event *realtime.InsightEvent) {
	c.insights = append(c.insights, event)
}

func sample(matchID, playerID string, hr, workRate, speed, x float64) *realtime.TelemetryEvent {
	return &realtime.TelemetryEvent{
		MatchID:   matchID,
		PlayerID:  playerID,
		Timestamp: 1700000000000,
		Metrics: realtime.Metrics{
			Position:  realtime.Position{X: x, Y: 0},
			Speed:     speed,
			HeartRate: hr,
			WorkRate:  workRate,
		},
	}
}

func TestSustainedHighHeartRateFiresPhysicalInsight(t *testing.T) {
	capture := &captureBroadcaster{}
	engine := NewInsightEngine(capture, nil)

	for i := 0; i < highHeartRateSamples; i++ {
		engine.Observe(sample("match-1", "7", 192, 80, 5, float64(i*10)))
	}

	if len(capture.insights) != 1 {
		t.Fatalf("Expected exactly 1 insight, got %d", len(capture.insights))
	}
	insight := capture.insights[0]
	if insight.Type != realtime.InsightPhysical {
		t.Errorf("Expected physical insight, got %s", insight.Type)
	}
	if insight.MatchID != "match-1" {
		t.Errorf("Expected matchId match-1, got %s", insight.MatchID)
	}
	if len(insight.RelatedPlayers) != 1 || insight.RelatedPlayers[0] != "7" {
		t.Errorf("Expected related player 7, got %v", insight.RelatedPlayers)
	}
}

func TestInsightCooldownSuppressesRepeats(t *testing.T) {
	capture := &captureBroadcaster{}
	engine := NewInsightEngine(capture, nil)

	now := time.Now()
	engine.now = func() time.Time { return now }

	// 连续高心率采样远超窗口长度,冷却期内只应触发一次
	for i := 0; i < highHeartRateSamples*4; i++ {
		engine.Observe(sample("match-1", "7", 192, 80, 5, float64(i*10)))
	}
	if len(capture.insights) != 1 {
		t.Fatalf("Expected cooldown to suppress repeats, got %d insights", len(capture.insights))
	}

	// 冷却期过后可以再次触发
	engine.now = func() time.Time { return now.Add(insightCooldown + time.Second) }
	for i := 0; i < highHeartRateSamples; i++ {
		engine.Observe(sample("match-1", "7", 192, 80, 5, float64(i*10)))
	}
	if len(capture.insights) != 2 {
		t.Errorf("Expected second insight after cooldown, got %d", len(capture.insights))
	}
}

func TestWorkRateCollapseSuggestsSubstitution(t *testing.T) {
	capture := &captureBroadcaster{}
	engine := NewInsightEngine(capture, nil)

	// 开场基线
	for i := 0; i < workRateWindow; i++ {
		engine.Observe(sample("match-1", "10", 120, 100, 5, float64(i*10)))
	}
	// 强度坍塌
	for i := 0; i < workRateWindow; i++ {
		engine.Observe(sample("match-1", "10", 120, 30, 5, float64(100+i*10)))
	}

	if len(capture.insights) != 1 {
		t.Fatalf("Expected exactly 1 insight, got %d", len(capture.insights))
	}
	if capture.insights[0].Type != realtime.InsightSubstitution {
		t.Errorf("Expected substitution insight, got %s", capture.insights[0].Type)
	}
}

func TestStaticPlayerFiresTacticalInsight(t *testing.T) {
	capture := &captureBroadcaster{}
	engine := NewInsightEngine(capture, nil)

	for i := 0; i < idleSamples+2; i++ {
		engine.Observe(sample("match-1", "4", 120, 100, 0.2, 50))
	}

	if len(capture.insights) != 1 {
		t.Fatalf("Expected exactly 1 insight, got %d", len(capture.insights))
	}
	if capture.insights[0].Type != realtime.InsightTactical {
		t.Errorf("Expected tactical insight, got %s", capture.insights[0].Type)
	}
}

func TestObserveIgnoresEventsWithoutIdentity(t *testing.T) {
	capture := &captureBroadcaster{}
	engine := NewInsightEngine(capture, nil)

	for i := 0; i < highHeartRateSamples; i++ {
		engine.Observe(sample("", "7", 192, 80, 5, float64(i*10)))
		engine.Observe(sample("match-1", "", 192, 80, 5, float64(i*10)))
		engine.Observe(nil)
	}

	if len(capture.insights) != 0 {
		t.Errorf("Expected no insights for unidentifiable events, got %d", len(capture.insights))
	}
}

func TestPlayersTrackedPerMatch(t *testing.T) {
	capture := &captureBroadcaster{}
	engine := NewInsightEngine(capture, nil)

	// 同一球员ID在不同比赛里的状态互不影响
	for i := 0; i < highHeartRateSamples-1; i++ {
		engine.Observe(sample("match-1", "7", 192, 80, 5, float64(i*10)))
	}
	for i := 0; i < highHeartRateSamples-1; i++ {
		engine.Observe(sample("match-2", "7", 192, 80, 5, float64(i*10)))
	}

	if len(capture.insights) != 0 {
		t.Errorf("Expected no insight before either match reaches the window, got %d", len(capture.insights))
	}
}
