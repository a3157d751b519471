package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const validJWTSecret = "test-secret-key-at-least-32-chars!"

// validHash is a syntactically valid argon2id PHC string.
const validHash = "$argon2id$v=19$m=65536,t=3,p=2$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaGhhc2hoYXNoaGFzaGhhc2g"

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
service:
  instance_id: "bosves-test"
database:
  path: "/tmp/test.db"
api:
  port: 9090
security:
  jwt:
    secret: "`+validJWTSecret+`"
  dev_tokens: true
  clients:
    - id: "weighbridge-2"
      secret_hash: "`+validHash+`"
      role: "operator"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Service.InstanceID != "bosves-test" {
		t.Errorf("Service.InstanceID = %q, want %q", cfg.Service.InstanceID, "bosves-test")
	}
	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}
	if cfg.Address() != "0.0.0.0:9090" {
		t.Errorf("Address() = %q, want %q", cfg.Address(), "0.0.0.0:9090")
	}
	if !cfg.Security.DevTokens {
		t.Error("Security.DevTokens = false, want true")
	}
	if cfg.Database.BusyTimeout != 5 {
		t.Errorf("default BusyTimeout lost: got %d", cfg.Database.BusyTimeout)
	}

	client, ok := cfg.Client("weighbridge-2")
	if !ok || client.Role != RoleOperator {
		t.Errorf("Client(weighbridge-2) = %+v, %v", client, ok)
	}
	if _, ok := cfg.Client("unknown"); ok {
		t.Error("Client(unknown) should not be found")
	}
}

func TestLoad_NoFile(t *testing.T) {
	t.Setenv("BOSVES_JWT_SECRET", validJWTSecret)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if cfg.Service.Name != "bosves" {
		t.Errorf("Service.Name = %q, want bosves", cfg.Service.Name)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/config.yaml"); err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "invalid: [yaml: content")
	if _, err := Load(path); err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
database:
  path: "/from/file.db"
security:
  jwt:
    secret: "`+validJWTSecret+`"
`)

	t.Setenv("BOSVES_DATABASE_PATH", "/from/env.db")
	t.Setenv("BOSVES_API_PORT", "9443")
	t.Setenv("BOSVES_MQTT_ENABLED", "true")
	t.Setenv("BOSVES_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/from/env.db" {
		t.Errorf("Database.Path = %q, want env value", cfg.Database.Path)
	}
	if cfg.API.Port != 9443 {
		t.Errorf("API.Port = %d, want 9443", cfg.API.Port)
	}
	if !cfg.MQTT.Enabled {
		t.Error("MQTT.Enabled = false, want true")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoad_BadEnvValue(t *testing.T) {
	t.Setenv("BOSVES_JWT_SECRET", validJWTSecret)
	t.Setenv("BOSVES_API_PORT", "eighty")

	_, err := Load("")
	if err == nil || !strings.Contains(err.Error(), "BOSVES_API_PORT") {
		t.Errorf("Load() error = %v, want BOSVES_API_PORT parse error", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Security.JWT.Secret = validJWTSecret
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing jwt secret", mutate: func(c *Config) { c.Security.JWT.Secret = "" }, wantErr: "security.jwt.secret is required"},
		{name: "short jwt secret", mutate: func(c *Config) { c.Security.JWT.Secret = "short" }, wantErr: "at least 32 characters"},
		{name: "empty database path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: "database.path"},
		{name: "bad qos", mutate: func(c *Config) { c.MQTT.QoS = 3 }, wantErr: "mqtt.qos"},
		{name: "port zero", mutate: func(c *Config) { c.API.Port = 0 }, wantErr: "api.port"},
		{name: "port too high", mutate: func(c *Config) { c.API.Port = 70000 }, wantErr: "api.port"},
		{name: "tls without files", mutate: func(c *Config) { c.API.TLS.Enabled = true }, wantErr: "api.tls"},
		{name: "influx without url", mutate: func(c *Config) { c.InfluxDB.Enabled = true }, wantErr: "influxdb.url"},
		{name: "zero ttl", mutate: func(c *Config) { c.Security.JWT.AccessTokenTTL = 0 }, wantErr: "access_token_ttl"},
		{
			name: "client with plain secret",
			mutate: func(c *Config) {
				c.Security.Clients = []ClientConfig{{ID: "a", SecretHash: "hunter2", Role: RoleReader}}
			},
			wantErr: "argon2id",
		},
		{
			name: "client with unknown role",
			mutate: func(c *Config) {
				c.Security.Clients = []ClientConfig{{ID: "a", SecretHash: validHash, Role: "admin"}}
			},
			wantErr: "role",
		},
		{
			name: "duplicate client",
			mutate: func(c *Config) {
				c.Security.Clients = []ClientConfig{
					{ID: "a", SecretHash: validHash, Role: RoleReader},
					{ID: "a", SecretHash: validHash, Role: RoleOperator},
				}
			},
			wantErr: "duplicated",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Durations(t *testing.T) {
	cfg := Default()

	if got := cfg.GetReadTimeout(); got != 30*time.Second {
		t.Errorf("GetReadTimeout() = %v, want 30s", got)
	}
	if got := cfg.GetWriteTimeout(); got != 30*time.Second {
		t.Errorf("GetWriteTimeout() = %v, want 30s", got)
	}
	if got := cfg.GetIdleTimeout(); got != 60*time.Second {
		t.Errorf("GetIdleTimeout() = %v, want 60s", got)
	}
	if got := cfg.GetAccessTokenTTL(); got != time.Hour {
		t.Errorf("GetAccessTokenTTL() = %v, want 1h", got)
	}
}

func TestLoad_ShippedConfig(t *testing.T) {
	t.Setenv(EnvPrefix+"JWT_SECRET", validJWTSecret)

	cfg, err := Load(filepath.Join("..", "..", "..", "configs", "config.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MQTT.Enabled || cfg.InfluxDB.Enabled {
		t.Error("optional integrations should ship disabled")
	}
	if cfg.Security.DevTokens {
		t.Error("dev tokens must ship disabled")
	}
	if cfg.Security.JWT.Secret != validJWTSecret {
		t.Error("secret should come from the environment")
	}
}
