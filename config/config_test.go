package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
		errMsg  string
		check   func(*testing.T, *Config)
	}{
		{
			name: "default configuration",
			envVars: map[string]string{
				"WEBHOOK_SHARED_KEY": "whsec",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "development", cfg.Environment)
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 8000, cfg.Server.Port)
				assert.Equal(t, []string{"auth_token", "session"}, cfg.Gate.CookieNames)
				assert.Equal(t, "/", cfg.Gate.RootPath)
				assert.Equal(t, "/dashboard", cfg.Gate.ProtectedEntry)
				assert.Equal(t, "signature", cfg.Webhook.SignatureParam)
				assert.Equal(t, int64(1<<20), cfg.Webhook.MaxBodyBytes)
				assert.Equal(t, 10*time.Second, cfg.Webhook.EventTimeout)
				assert.Nil(t, cfg.Database)
			},
		},
		{
			name:    "missing webhook shared key is fatal",
			envVars: map[string]string{},
			wantErr: true,
			errMsg:  "webhook shared key is required",
		},
		{
			name: "blank webhook shared key is fatal",
			envVars: map[string]string{
				"WEBHOOK_SHARED_KEY": "   ",
			},
			wantErr: true,
			errMsg:  "webhook shared key is required",
		},
		{
			name: "gate overrides",
			envVars: map[string]string{
				"WEBHOOK_SHARED_KEY":   "whsec",
				"GATE_SESSION_COOKIES": "token, ,refresh",
				"GATE_PROTECTED_ENTRY": "/borrower/home",
				"GATE_PUBLIC_PREFIXES": "/legal/,/pricing",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, []string{"token", "refresh"}, cfg.Gate.CookieNames)
				assert.Equal(t, "/borrower/home", cfg.Gate.ProtectedEntry)
				assert.Equal(t, []string{"/legal/", "/pricing"}, cfg.Gate.PublicPrefixes)
			},
		},
		{
			name: "protected entry equal to root is rejected",
			envVars: map[string]string{
				"WEBHOOK_SHARED_KEY":   "whsec",
				"GATE_PROTECTED_ENTRY": "/",
			},
			wantErr: true,
			errMsg:  "must differ from the root path",
		},
		{
			name: "relative protected entry is rejected",
			envVars: map[string]string{
				"WEBHOOK_SHARED_KEY":   "whsec",
				"GATE_PROTECTED_ENTRY": "dashboard",
			},
			wantErr: true,
			errMsg:  "must start with '/'",
		},
		{
			name: "invalid backend URL is rejected",
			envVars: map[string]string{
				"WEBHOOK_SHARED_KEY": "whsec",
				"BACKEND_BASE_URL":   "ftp://backend",
			},
			wantErr: true,
			errMsg:  "backend base URL",
		},
		{
			name: "production requires backend service secret",
			envVars: map[string]string{
				"ENVIRONMENT":        "production",
				"WEBHOOK_SHARED_KEY": "whsec",
			},
			wantErr: true,
			errMsg:  "service secret",
		},
		{
			name: "database and timeouts",
			envVars: map[string]string{
				"WEBHOOK_SHARED_KEY":    "whsec",
				"DATABASE_URL":          "postgres://edge:pw@db.internal:5433/edge?sslmode=disable",
				"DB_MAX_OPEN_CONNS":     "20",
				"WEBHOOK_EVENT_TIMEOUT": "3s",
				"SERVER_READ_TIMEOUT":   "45s",
			},
			check: func(t *testing.T, cfg *Config) {
				require.NotNil(t, cfg.Database)
				assert.Equal(t, 20, cfg.Database.MaxOpenConns)
				assert.Equal(t, "host=db.internal port=5433 database=edge", cfg.Database.LogString())
				assert.Equal(t, 3*time.Second, cfg.Webhook.EventTimeout)
				assert.Equal(t, 45*time.Second, cfg.Server.ReadTimeout)
			},
		},
		{
			name: "PORT env var takes precedence over SERVER_PORT",
			envVars: map[string]string{
				"WEBHOOK_SHARED_KEY": "whsec",
				"PORT":               "9443",
				"SERVER_PORT":        "9000",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9443, cfg.Server.Port)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear environment
			os.Clearenv()

			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}

			cfg, err := New(context.Background())

			if tt.wantErr {
				require.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)

			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		want        bool
	}{
		{"production", "production", true},
		{"prod", "prod", true},
		{"development", "development", false},
		{"staging", "staging", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Environment: tt.environment}
			assert.Equal(t, tt.want, cfg.IsProduction())
		})
	}
}

func TestServerConfig_Address(t *testing.T) {
	cfg := ServerConfig{Host: "127.0.0.1", Port: 8000}
	assert.Equal(t, "127.0.0.1:8000", cfg.Address())
}
