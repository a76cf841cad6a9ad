package config

import (
	"time"

	"github.com/spf13/viper"

	pkgconfig "github.com/covechat/cove/pkg/config"
	"github.com/covechat/cove/pkg/log"
)

type Config struct {
	Server    ServerConfig
	WebSocket WebSocketConfig
	Redis     RedisConfig
	Store     StoreConfig
	Presence  PresenceConfig
	History   HistoryConfig
	Auth      AuthConfig
	Archive   ArchiveConfig
	Log       log.Config
}

type ServerConfig struct {
	Host string
	Port int
}

type WebSocketConfig struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// StoreConfig selects the shared-state backend. "redis" is the normal
// multi-instance deployment; "memory" runs a single instance without
// external dependencies.
type StoreConfig struct {
	Driver string
}

type PresenceConfig struct {
	Window        time.Duration `mapstructure:"window"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type HistoryConfig struct {
	RoomReplay         int `mapstructure:"room_replay"`
	ConversationReplay int `mapstructure:"conversation_replay"`
	RoomLogMax         int `mapstructure:"room_log_max"`
	ConversationLogMax int `mapstructure:"conversation_log_max"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

type ArchiveConfig struct {
	Enabled bool
	Brokers string
	Topic   string
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.max_message_size", 4096)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("store.driver", "redis")
	v.SetDefault("presence.window", "5m")
	v.SetDefault("presence.sweep_interval", "60s")
	v.SetDefault("history.room_replay", 20)
	v.SetDefault("history.conversation_replay", 50)
	v.SetDefault("history.room_log_max", 500)
	v.SetDefault("history.conversation_log_max", 500)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "cove")
	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.brokers", "localhost:9092")
	v.SetDefault("archive.topic", "chat-archive")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("log.service_name", "cove")

	// Override from environment
	v.BindEnv("server.port", "PORT")
	v.BindEnv("redis.address", "REDIS_ADDRESS")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("store.driver", "STORE_DRIVER")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("archive.enabled", "ARCHIVE_ENABLED")
	v.BindEnv("archive.brokers", "KAFKA_BROKERS")
	v.BindEnv("archive.topic", "ARCHIVE_TOPIC")
	v.BindEnv("log.level", "LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Parse durations
	cfg.WebSocket.PingInterval = parseDuration(v, "websocket.ping_interval", 30*time.Second)
	cfg.WebSocket.PongWait = parseDuration(v, "websocket.pong_wait", 60*time.Second)
	cfg.WebSocket.WriteWait = parseDuration(v, "websocket.write_wait", 10*time.Second)
	cfg.Presence.Window = parseDuration(v, "presence.window", 5*time.Minute)
	cfg.Presence.SweepInterval = parseDuration(v, "presence.sweep_interval", 60*time.Second)

	return &cfg, nil
}

func parseDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	str := v.GetString(key)
	d, err := time.ParseDuration(str)
	if err != nil {
		return defaultVal
	}
	return d
}
