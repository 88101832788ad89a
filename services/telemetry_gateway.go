package services

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/streadway/amqp"

	"coachsight-service/config"
	"coachsight-service/logger"
	"coachsight-service/realtime"
)

// TelemetryRelay 遥测输出接口,由 realtime.Hub 实现,避免对传输层的依赖
type TelemetryRelay interface {
	RelayTelemetry(event *realtime.TelemetryEvent)
}

// TelemetryGateway 消费传感器供应商的 AMQP 遥测队列,
// 把合法的采样注入对应比赛的实时房间
// 网关只是房间的又一个 producer,不做任何授权检查
type TelemetryGateway struct {
	config  *config.Config
	relay   TelemetryRelay
	engine  *InsightEngine // 可以为 nil
	conn    *amqp.Connection
	channel *amqp.Channel
	done    chan bool
}

// NewTelemetryGateway 创建传感器网关
func NewTelemetryGateway(cfg *config.Config, relay TelemetryRelay, engine *InsightEngine) *TelemetryGateway {
	return &TelemetryGateway{
		config: cfg,
		relay:  relay,
		engine: engine,
		done:   make(chan bool),
	}
}

// Start 连接并开始消费,连接断开时指数退避自动重连
func (g *TelemetryGateway) Start() error {
	msgs, err := g.connectAndConsume()
	if err != nil {
		return fmt.Errorf("initial connection failed: %w", err)
	}

	go g.monitorConnection()
	go g.handleMessages(msgs)

	logger.Printf("[SensorGateway] Consuming queue %s", g.config.SensorQueue)
	return nil
}

// Stop 停止网关
func (g *TelemetryGateway) Stop() {
	close(g.done)
	if g.channel != nil {
		g.channel.Close()
	}
	if g.conn != nil {
		g.conn.Close()
	}
	logger.Println("[SensorGateway] Stopped")
}

// connectAndConsume 建立连接/通道/队列并返回投递通道
func (g *TelemetryGateway) connectAndConsume() (<-chan amqp.Delivery, error) {
	amqpConfig := amqp.Config{
		Heartbeat: 60 * time.Second,
		Locale:    "en_US",
	}
	// 供应商环境多为自签名证书,默认跳过校验,可用 SENSOR_TLS_VERIFY 打开
	if strings.HasPrefix(g.config.SensorAMQPURL, "amqps://") {
		amqpConfig.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: !g.config.SensorTLSVerify,
		}
	}

	conn, err := amqp.DialConfig(g.config.SensorAMQPURL, amqpConfig)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}
	g.conn = conn
	logger.Println("[SensorGateway] Connected to AMQP server")

	channel, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}
	g.channel = channel

	if err := channel.Qos(100, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	queue, err := channel.QueueDeclare(
		g.config.SensorQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	msgs, err := channel.Consume(
		queue.Name,
		"",    // consumer tag
		true,  // auto-ack (尽力投递,不做重试)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	return msgs, nil
}

// monitorConnection 监控连接关闭事件并指数退避重连
func (g *TelemetryGateway) monitorConnection() {
	delay := 1 * time.Second
	maxDelay := 60 * time.Second

	for {
		closed := make(chan *amqp.Error, 1)
		g.conn.NotifyClose(closed)

		select {
		case <-g.done:
			return
		case err := <-closed:
			if err != nil {
				logger.Errorf("[SensorGateway] Connection lost: %v", err)
			}
		}

		for {
			select {
			case <-g.done:
				return
			case <-time.After(delay):
			}

			logger.Printf("[SensorGateway] Reconnecting (delay was %v)...", delay)
			msgs, err := g.connectAndConsume()
			if err == nil {
				go g.handleMessages(msgs)
				delay = 1 * time.Second
				logger.Println("[SensorGateway] Reconnected")
				break
			}

			logger.Errorf("[SensorGateway] Reconnect failed: %v", err)
			delay *= 2
			if delay > maxDelay {
				delay = maxDelay
			}
		}
	}
}

// handleMessages 消费队列消息直到通道关闭
func (g *TelemetryGateway) handleMessages(msgs <-chan amqp.Delivery) {
	for msg := range msgs {
		g.processMessage(msg.Body)
	}
}

// processMessage 解析并注入一条遥测,坏消息只丢弃记日志
func (g *TelemetryGateway) processMessage(body []byte) {
	event := &realtime.TelemetryEvent{}
	if err := json.Unmarshal(body, event); err != nil {
		logger.Errorf("[SensorGateway] Malformed telemetry payload: %v", err)
		return
	}
	if event.MatchID == "" {
		logger.Println("[SensorGateway] Dropping telemetry without matchId")
		return
	}

	g.relay.RelayTelemetry(event)
	if g.engine != nil {
		g.engine.Observe(event)
	}
}
