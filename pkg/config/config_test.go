package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		App:        AppConfig{Name: "test", Environment: "development"},
		Server:     ServerConfig{Port: 8080},
		Database:   DatabaseConfig{Host: "localhost", DBName: "checkin"},
		JWT:        JWTConfig{Secret: "secret"},
		CheckIn:    CheckInConfig{WindowBefore: 3 * time.Hour, WindowAfter: 4 * time.Hour},
		Validation: ValidationConfig{StockThreshold: 10},
	}
}

func TestLoad_WithDefaults(t *testing.T) {
	for _, v := range []string{
		"APP_NAME", "APP_ENVIRONMENT", "SERVER_PORT", "DATABASE_HOST",
		"CHECKIN_WINDOW_BEFORE", "CHECKIN_WINDOW_AFTER", "VALIDATION_STOCK_THRESHOLD",
		"KAFKA_BROKERS", "JWT_SECRET",
	} {
		os.Unsetenv(v)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.App.Name != "checkin-service" {
		t.Errorf("App.Name = %q, want %q", cfg.App.Name, "checkin-service")
	}
	if cfg.Server.Port != 8084 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8084)
	}
	if cfg.CheckIn.WindowBefore != 3*time.Hour {
		t.Errorf("CheckIn.WindowBefore = %v, want %v", cfg.CheckIn.WindowBefore, 3*time.Hour)
	}
	if cfg.CheckIn.WindowAfter != 4*time.Hour {
		t.Errorf("CheckIn.WindowAfter = %v, want %v", cfg.CheckIn.WindowAfter, 4*time.Hour)
	}
	if cfg.Validation.StockThreshold != 10 {
		t.Errorf("Validation.StockThreshold = %d, want %d", cfg.Validation.StockThreshold, 10)
	}
	if cfg.Database.QueryTimeout != 5*time.Second {
		t.Errorf("Database.QueryTimeout = %v, want %v", cfg.Database.QueryTimeout, 5*time.Second)
	}
	if len(cfg.Kafka.Brokers) != 1 || cfg.Kafka.Brokers[0] != "localhost:9092" {
		t.Errorf("Kafka.Brokers = %v, want [localhost:9092]", cfg.Kafka.Brokers)
	}
	if cfg.CheckIn.StreamHeartbeat != 15*time.Second {
		t.Errorf("CheckIn.StreamHeartbeat = %v, want %v", cfg.CheckIn.StreamHeartbeat, 15*time.Second)
	}
	if cfg.RateLimit.ScansPerSecond != 10 || cfg.RateLimit.Burst != 20 {
		t.Errorf("RateLimit = %+v, want {10 20}", cfg.RateLimit)
	}
}

func TestLoad_WithEnvOverride(t *testing.T) {
	t.Setenv("APP_NAME", "scanner-api")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CHECKIN_WINDOW_BEFORE", "90m")
	t.Setenv("VALIDATION_STOCK_THRESHOLD", "25")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.App.Name != "scanner-api" {
		t.Errorf("App.Name = %q, want %q", cfg.App.Name, "scanner-api")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.CheckIn.WindowBefore != 90*time.Minute {
		t.Errorf("CheckIn.WindowBefore = %v, want %v", cfg.CheckIn.WindowBefore, 90*time.Minute)
	}
	if cfg.Validation.StockThreshold != 25 {
		t.Errorf("Validation.StockThreshold = %d, want %d", cfg.Validation.StockThreshold, 25)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "kafka-2:9092" {
		t.Errorf("Kafka.Brokers = %v, want two trimmed brokers", cfg.Kafka.Brokers)
	}
}

func TestLoadWithPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	content := "APP_NAME=from-file\nCHECKIN_WINDOW_AFTER=2h\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := LoadWithPath(path)
	if err != nil {
		t.Fatalf("LoadWithPath() failed: %v", err)
	}
	if cfg.App.Name != "from-file" {
		t.Errorf("App.Name = %q, want %q", cfg.App.Name, "from-file")
	}
	if cfg.CheckIn.WindowAfter != 2*time.Hour {
		t.Errorf("CheckIn.WindowAfter = %v, want %v", cfg.CheckIn.WindowAfter, 2*time.Hour)
	}
}

func TestLoadWithPath_MissingFile(t *testing.T) {
	if _, err := LoadWithPath(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "testuser",
		Password: "testpass",
		DBName:   "testdb",
		SSLMode:  "disable",
	}

	expected := "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=disable"
	if dsn := cfg.DSN(); dsn != expected {
		t.Errorf("DSN() = %q, want %q", dsn, expected)
	}
}

func TestRedisConfig_Addr(t *testing.T) {
	cfg := RedisConfig{Host: "redis.example.com", Port: 6380}

	if addr := cfg.Addr(); addr != "redis.example.com:6380" {
		t.Errorf("Addr() = %q, want %q", addr, "redis.example.com:6380")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid config", func(c *Config) {}, false},
		{"missing app name", func(c *Config) { c.App.Name = "" }, true},
		{"invalid port", func(c *Config) { c.Server.Port = -1 }, true},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, true},
		{"missing database host", func(c *Config) { c.Database.Host = "" }, true},
		{"missing JWT secret", func(c *Config) { c.JWT.Secret = "" }, true},
		{"default JWT secret in production", func(c *Config) {
			c.App.Environment = "production"
			c.JWT.Secret = "your-secret-key-change-in-production"
		}, true},
		{"negative window", func(c *Config) { c.CheckIn.WindowBefore = -time.Minute }, true},
		{"negative stock threshold", func(c *Config) { c.Validation.StockThreshold = -1 }, true},
		{"kafka enabled without brokers", func(c *Config) { c.Kafka.Enabled = true }, true},
		{"negative rate limit", func(c *Config) { c.RateLimit.Burst = -1 }, true},
		{"zero stock threshold allowed", func(c *Config) { c.Validation.StockThreshold = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Environment(t *testing.T) {
	cfg := &Config{App: AppConfig{Environment: "production"}}
	if !cfg.IsProduction() || cfg.IsDevelopment() {
		t.Error("expected production environment")
	}

	cfg.App.Environment = "development"
	if cfg.IsProduction() || !cfg.IsDevelopment() {
		t.Error("expected development environment")
	}
}
