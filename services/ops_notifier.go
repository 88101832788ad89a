package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"coachsight-service/logger"
)

// OpsNotifier 运维 webhook 通知器 (Slack/飞书等兼容 {"text": ...} 的机器人)
// webhook 为空时静默禁用,所有调用都是空操作
type OpsNotifier struct {
	webhookURL string
	client     *http.Client
	enabled    bool
}

// NewOpsNotifier 创建通知器
func NewOpsNotifier(webhookURL string) *OpsNotifier {
	enabled := webhookURL != ""
	if enabled {
		logger.Println("[OpsNotifier] Initialized with webhook")
	} else {
		logger.Println("[OpsNotifier] Disabled (no webhook URL)")
	}

	return &OpsNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		enabled:    enabled,
	}
}

// SendText 发送纯文本通知
func (n *OpsNotifier) SendText(text string) error {
	if !n.enabled {
		return nil
	}

	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return err
	}

	resp, err := n.client.Post(n.webhookURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// NotifyServiceStart 服务启动通知
func (n *OpsNotifier) NotifyServiceStart(environment string) error {
	return n.SendText(fmt.Sprintf("🟢 CoachSight service started (env: %s)", environment))
}

// NotifyServiceStop 服务停止通知
func (n *OpsNotifier) NotifyServiceStop() error {
	return n.SendText("🔴 CoachSight service stopped")
}

// NotifyError 组件错误通知
func (n *OpsNotifier) NotifyError(component, message string) error {
	return n.SendText(fmt.Sprintf("❌ [%s] %s", component, message))
}
