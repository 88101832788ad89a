package services

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"coachsight-service/logger"
	"coachsight-service/realtime"
)

// InsightBroadcaster 洞察输出接口,由 realtime.Hub 实现,测试时可替换
type InsightBroadcaster interface {
	RelayInsight(event *realtime.InsightEvent)
}

// 阈值都是演示用的经验常数,不追求分析上的严谨
const (
	highHeartRateBPM     = 185.0
	highHeartRateSamples = 6
	workRateWindow       = 5
	workRateCollapse     = 0.5 // 近期均值低于基线的这个比例时报警
	idleSamples          = 8
	idleDistanceLimit    = 2.0
	idleSpeedLimit       = 1.0
	insightCooldown      = 2 * time.Minute
)

// playerState 单个球员在单场比赛中的滚动状态
type playerState struct {
	heartRates []float64
	workRates  []float64
	baseline   float64 // 前几次采样的 workRate 均值
	samples    int
	lastPos    realtime.Position
	idleCount  int
	lastFired  map[string]time.Time // 洞察类型 -> 上次触发时间
}

// InsightEngine 监听遥测流并产生教练洞察
// Observe 在中继调用点同步执行,内部加锁,可被多个网关并发调用
type InsightEngine struct {
	mu          sync.Mutex
	broadcaster InsightBroadcaster
	store       *InsightStore // 可以为 nil (不持久化)
	players     map[string]*playerState
	now         func() time.Time
}

// NewInsightEngine 创建洞察引擎
func NewInsightEngine(broadcaster InsightBroadcaster, store *InsightStore) *InsightEngine {
	return &InsightEngine{
		broadcaster: broadcaster,
		store:       store,
		players:     make(map[string]*playerState),
		now:         time.Now,
	}
}

// Observe 处理一次遥测采样,必要时产生洞察
func (e *InsightEngine) Observe(event *realtime.TelemetryEvent) {
	if event == nil || event.MatchID == "" || event.PlayerID == "" {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	key := event.MatchID + "/" + event.PlayerID
	state, ok := e.players[key]
	if !ok {
		state = &playerState{lastFired: make(map[string]time.Time)}
		e.players[key] = state
	}

	state.samples++
	e.trackHeartRate(state, event)
	e.trackWorkRate(state, event)
	e.trackMovement(state, event)
}

// trackHeartRate 连续高心率检测
func (e *InsightEngine) trackHeartRate(state *playerState, event *realtime.TelemetryEvent) {
	state.heartRates = appendWindow(state.heartRates, event.Metrics.HeartRate, highHeartRateSamples)
	if len(state.heartRates) < highHeartRateSamples {
		return
	}
	for _, hr := range state.heartRates {
		if hr <= highHeartRateBPM {
			return
		}
	}

	e.fire(state, event, realtime.InsightPhysical, 4,
		fmt.Sprintf("Player %s sustained heart rate above %.0f bpm", event.PlayerID, highHeartRateBPM),
		map[string]interface{}{"heartRate": event.Metrics.HeartRate})
}

// trackWorkRate 跑动强度相对开场基线的坍塌检测
func (e *InsightEngine) trackWorkRate(state *playerState, event *realtime.TelemetryEvent) {
	state.workRates = appendWindow(state.workRates, event.Metrics.WorkRate, workRateWindow)

	// 前 workRateWindow 次采样作为基线
	if state.samples == workRateWindow {
		state.baseline = average(state.workRates)
		return
	}
	if state.baseline <= 0 || state.samples < workRateWindow*2 || len(state.workRates) < workRateWindow {
		return
	}

	recent := average(state.workRates)
	if recent < state.baseline*workRateCollapse {
		e.fire(state, event, realtime.InsightSubstitution, 4,
			fmt.Sprintf("Player %s work rate dropped to %.0f%% of baseline, consider substitution",
				event.PlayerID, recent/state.baseline*100),
			map[string]interface{}{"workRate": recent, "baseline": state.baseline})
	}
}

// trackMovement 长时间低速驻留检测
func (e *InsightEngine) trackMovement(state *playerState, event *realtime.TelemetryEvent) {
	pos := event.Metrics.Position
	dx := pos.X - state.lastPos.X
	dy := pos.Y - state.lastPos.Y

	if state.samples > 1 && dx*dx+dy*dy < idleDistanceLimit*idleDistanceLimit && event.Metrics.Speed < idleSpeedLimit {
		state.idleCount++
	} else {
		state.idleCount = 0
	}
	state.lastPos = pos

	if state.idleCount >= idleSamples {
		state.idleCount = 0
		e.fire(state, event, realtime.InsightTactical, 2,
			fmt.Sprintf("Player %s has been static, check positioning", event.PlayerID),
			map[string]interface{}{"position": pos})
	}
}

// fire 发出一条洞察,受同类型冷却时间约束
func (e *InsightEngine) fire(state *playerState, event *realtime.TelemetryEvent, insightType string, priority int, message string, data map[string]interface{}) {
	now := e.now()
	if last, ok := state.lastFired[insightType]; ok && now.Sub(last) < insightCooldown {
		return
	}
	state.lastFired[insightType] = now

	insight := &realtime.InsightEvent{
		MatchID:        event.MatchID,
		Timestamp:      now.UnixMilli(),
		Type:           insightType,
		Priority:       priority,
		Message:        message,
		RelatedPlayers: []string{event.PlayerID},
		Data:           data,
	}
	e.broadcaster.RelayInsight(insight)

	if e.store != nil {
		e.persist(insight)
	}
}

// persist 尽力持久化,失败只记日志
func (e *InsightEngine) persist(insight *realtime.InsightEvent) {
	matchID, err := strconv.ParseInt(insight.MatchID, 10, 64)
	if err != nil {
		return // 非数据库比赛ID(如演示房间),跳过持久化
	}

	relatedPlayers, _ := json.Marshal(insight.RelatedPlayers)
	data, _ := json.Marshal(insight.Data)
	if _, err := e.store.Save(matchID, insight.Timestamp, insight.Type, insight.Priority, insight.Message, relatedPlayers, data); err != nil {
		logger.Errorf("[InsightEngine] Failed to persist insight: %v", err)
	}
}

func appendWindow(window []float64, value float64, size int) []float64 {
	window = append(window, value)
	if len(window) > size {
		window = window[len(window)-size:]
	}
	return window
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
