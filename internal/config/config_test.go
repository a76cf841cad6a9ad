package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server.port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Presence.Window != 5*time.Minute {
		t.Errorf("presence.window = %v, want 5m", cfg.Presence.Window)
	}
	if cfg.Presence.SweepInterval != 60*time.Second {
		t.Errorf("presence.sweep_interval = %v, want 60s", cfg.Presence.SweepInterval)
	}
	if cfg.History.RoomReplay != 20 {
		t.Errorf("history.room_replay = %d, want 20", cfg.History.RoomReplay)
	}
	if cfg.History.ConversationReplay != 50 {
		t.Errorf("history.conversation_replay = %d, want 50", cfg.History.ConversationReplay)
	}
	if cfg.Store.Driver != "redis" {
		t.Errorf("store.driver = %q, want redis", cfg.Store.Driver)
	}
	if cfg.WebSocket.PongWait != 60*time.Second {
		t.Errorf("websocket.pong_wait = %v, want 60s", cfg.WebSocket.PongWait)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("REDIS_ADDRESS", "redis:6380")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("server.port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Store.Driver != "memory" {
		t.Errorf("store.driver = %q, want memory", cfg.Store.Driver)
	}
	if cfg.Redis.Address != "redis:6380" {
		t.Errorf("redis.address = %q, want redis:6380", cfg.Redis.Address)
	}
}
