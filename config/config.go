package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

type Config struct {
	// 服务器配置
	Port        string
	Environment string

	// 数据库配置
	DatabaseURL string

	// 认证配置
	JWTSecret   string
	TokenExpiry time.Duration

	// 传感器网关配置 (AMQP)
	SensorAMQPURL   string
	SensorQueue     string
	SensorTLSVerify bool

	// 穿戴设备配置 (MQTT)
	DeviceMQTTBroker   string
	DeviceMQTTUsername string
	DeviceMQTTPassword string
	DeviceTopics       []string

	// 洞察引擎配置
	InsightEngineEnabled bool

	// 运维通知 webhook
	OpsWebhook string

	// 中继统计报告间隔(分钟)
	StatsReportMinutes int
}

func Load() *Config {
	return &Config{
		// 服务器配置
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// 数据库配置
		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/coachsight?sslmode=disable"),

		// 认证配置
		JWTSecret:   getEnv("JWT_SECRET", "dev-secret-change-me"),
		TokenExpiry: time.Duration(getEnvInt("TOKEN_EXPIRY_HOURS", 24)) * time.Hour,

		// 传感器网关配置 (为空时不启动)
		SensorAMQPURL:   getEnv("SENSOR_AMQP_URL", ""),
		SensorQueue:     getEnv("SENSOR_QUEUE", "telemetry"),
		SensorTLSVerify: getEnv("SENSOR_TLS_VERIFY", "false") == "true",

		// 穿戴设备配置 (broker 为空时不启动)
		DeviceMQTTBroker:   getEnv("DEVICE_MQTT_BROKER", ""),
		DeviceMQTTUsername: getEnv("DEVICE_MQTT_USERNAME", ""),
		DeviceMQTTPassword: getEnv("DEVICE_MQTT_PASSWORD", ""),
		DeviceTopics:       getDeviceTopics(),

		// 洞察引擎配置
		InsightEngineEnabled: getEnv("INSIGHT_ENGINE", "true") == "true",

		// 运维通知
		OpsWebhook: getEnv("OPS_WEBHOOK", ""),

		// 统计报告间隔
		StatsReportMinutes: getEnvInt("STATS_REPORT_MINUTES", 5),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var result int
	fmt.Sscanf(value, "%d", &result)
	if result == 0 {
		return defaultValue
	}
	return result
}

func getDeviceTopics() []string {
	topics := getEnv("DEVICE_TOPICS", "devices/+/telemetry")
	return strings.Split(topics, ",")
}
