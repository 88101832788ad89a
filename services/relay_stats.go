package services

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"coachsight-service/logger"
)

// HubStats 房间/连接计数来源,由 realtime.Hub 实现
type HubStats interface {
	Stats() (rooms, conns int)
}

// RelayStatsTracker 中继吞吐统计,按固定间隔汇报一次
type RelayStatsTracker struct {
	mu           sync.Mutex
	counts       map[string]int
	totalCount   int
	lastReported time.Time
	hub          HubStats
	notifier     *OpsNotifier
	interval     time.Duration
	done         chan bool
}

// NewRelayStatsTracker 创建统计追踪器
func NewRelayStatsTracker(hub HubStats, notifier *OpsNotifier, interval time.Duration) *RelayStatsTracker {
	return &RelayStatsTracker{
		counts:       make(map[string]int),
		lastReported: time.Now(),
		hub:          hub,
		notifier:     notifier,
		interval:     interval,
		done:         make(chan bool),
	}
}

// Record 记录一次中继事件 (kind 如 telemetry/insight/dropped)
func (t *RelayStatsTracker) Record(kind string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.counts[kind]++
	t.totalCount++
}

// Counts 返回当前计数的副本
func (t *RelayStatsTracker) Counts() map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()

	copied := make(map[string]int, len(t.counts))
	for k, v := range t.counts {
		copied[k] = v
	}
	return copied
}

// StartPeriodicReport 按间隔输出统计并重置计数,阻塞运行,应在独立协程中调用
func (t *RelayStatsTracker) StartPeriodicReport() {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			t.report()
		}
	}
}

// Stop 停止定期报告
func (t *RelayStatsTracker) Stop() {
	close(t.done)
}

// report 输出一次统计并重置
func (t *RelayStatsTracker) report() {
	t.mu.Lock()
	counts := t.counts
	total := t.totalCount
	elapsed := time.Since(t.lastReported)
	t.counts = make(map[string]int)
	t.totalCount = 0
	t.lastReported = time.Now()
	t.mu.Unlock()

	rooms, conns := t.hub.Stats()
	logger.Printf("[RelayStats] rooms=%d conns=%d relayed=%d in last %.0f min", rooms, conns, total, elapsed.Minutes())

	if total == 0 || t.notifier == nil {
		return
	}

	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	text := fmt.Sprintf("📊 Relay stats (last %.0f min): %d events, %d rooms, %d connections", elapsed.Minutes(), total, rooms, conns)
	for _, k := range kinds {
		text += fmt.Sprintf("\n  %s: %d", k, counts[k])
	}

	// 异步发送,不阻塞报告循环
	go func() {
		if err := t.notifier.SendText(text); err != nil {
			logger.Errorf("[RelayStats] Failed to send notification: %v", err)
		}
	}()
}
