package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coachsight-service/config"
	"coachsight-service/database"
	"coachsight-service/realtime"
	"coachsight-service/sensors"
	"coachsight-service/services"
	"coachsight-service/web"
)

func main() {
	log.Println("Starting CoachSight Service...")

	// 加载配置
	cfg := config.Load()

	// 连接数据库
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// 运行数据库迁移
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	log.Println("Database connected and migrated")

	// 创建运维通知器
	notifier := services.NewOpsNotifier(cfg.OpsWebhook)
	if err := notifier.NotifyServiceStart(cfg.Environment); err != nil {
		log.Printf("Failed to send startup notification: %v", err)
	}

	// 创建实时中继
	hub := realtime.NewHub()

	// 创建洞察引擎
	var engine *services.InsightEngine
	if cfg.InsightEngineEnabled {
		engine = services.NewInsightEngine(hub, services.NewInsightStore(db))
		log.Println("Insight engine enabled")
	} else {
		log.Println("Insight engine disabled")
	}

	// 创建中继统计追踪器
	statsTracker := services.NewRelayStatsTracker(hub, notifier, time.Duration(cfg.StatsReportMinutes)*time.Minute)
	go statsTracker.StartPeriodicReport()

	// 启动传感器网关 (可选)
	var gateway *services.TelemetryGateway
	if cfg.SensorAMQPURL != "" {
		gateway = services.NewTelemetryGateway(cfg, hub, engine)
		if err := gateway.Start(); err != nil {
			log.Printf("Sensor gateway failed to start: %v", err)
			notifier.NotifyError("Sensor Gateway", err.Error())
		} else {
			log.Println("Sensor gateway started")
		}
	} else {
		log.Println("Sensor gateway disabled (no SENSOR_AMQP_URL)")
	}

	// 启动穿戴设备 MQTT 客户端 (可选)
	var deviceClient *sensors.MQTTClient
	if cfg.DeviceMQTTBroker != "" {
		playerStore := services.NewPlayerStore(db)
		var observer sensors.TelemetryObserver
		if engine != nil {
			observer = engine
		}
		deviceClient = sensors.NewMQTTClient(cfg.DeviceMQTTBroker, cfg.DeviceMQTTUsername, cfg.DeviceMQTTPassword,
			cfg.DeviceTopics, hub, observer, playerStore)
		if err := deviceClient.Connect(); err != nil {
			log.Printf("Device MQTT client failed to connect: %v", err)
			notifier.NotifyError("Device MQTT", err.Error())
		} else {
			log.Println("Device MQTT client connected")
		}
	} else {
		log.Println("Device MQTT client disabled (no DEVICE_MQTT_BROKER)")
	}

	// 启动Web服务器
	server := web.NewServer(cfg, db, hub, engine, statsTracker)
	go func() {
		if err := server.Start(); err != nil {
			log.Printf("Web server stopped: %v", err)
		}
	}()

	log.Printf("Web server started on port %s", cfg.Port)
	log.Println("Service is running. Press Ctrl+C to stop.")

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down service...")

	// 清理资源
	if gateway != nil {
		gateway.Stop()
	}
	if deviceClient != nil {
		deviceClient.Disconnect()
	}
	statsTracker.Stop()
	server.Stop()

	if err := notifier.NotifyServiceStop(); err != nil {
		log.Printf("Failed to send shutdown notification: %v", err)
	}

	log.Println("Service stopped")
}
