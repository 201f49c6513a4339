package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	t.Setenv("ADMIN_USERNAME", "santa")

	cfg, err := Parse()
	require.NoError(t, err)
	require.Equal(t, &Config{
		ListenAddr:    ":8080",
		StoreDriver:   DriverSQLite,
		DBPath:        "./data/wichtel.db",
		AdminUsername: "santa",
		LogLevel:      "info",
		Assign: AssignConfig{
			MaxAttempts: 10000,
			Timeout:     2 * time.Second,
		},
		Notify: NotifyConfig{
			Concurrency: 4,
			Timeout:     10 * time.Second,
		},
		PendingTimeout: 5 * time.Minute,
	}, cfg)
}

func TestParse_Overrides(t *testing.T) {
	t.Setenv("ADMIN_USERNAME", "@Santa")
	t.Setenv("STORE_DRIVER", "Badger")
	t.Setenv("DB_PATH", "/var/lib/wichtel")
	t.Setenv("ASSIGN_MAX_ATTEMPTS", "50")
	t.Setenv("ASSIGN_TIMEOUT", "500ms")
	t.Setenv("ASSIGN_FORBID_MUTUAL", "true")
	t.Setenv("NOTIFY_WEBHOOK_URL", "https://api.telegram.org/botX/sendMessage")
	t.Setenv("NOTIFY_CONCURRENCY", "8")
	t.Setenv("PENDING_TIMEOUT", "1m")

	cfg, err := Parse()
	require.NoError(t, err)
	require.Equal(t, DriverBadger, cfg.StoreDriver)
	require.Equal(t, "/var/lib/wichtel", cfg.DBPath)
	require.Equal(t, AssignConfig{MaxAttempts: 50, Timeout: 500 * time.Millisecond, ForbidMutual: true}, cfg.Assign)
	require.Equal(t, "https://api.telegram.org/botX/sendMessage", cfg.Notify.WebhookURL)
	require.Equal(t, 8, cfg.Notify.Concurrency)
	require.Equal(t, time.Minute, cfg.PendingTimeout)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing admin", map[string]string{"ADMIN_USERNAME": ""}},
		{"unknown driver", map[string]string{"STORE_DRIVER": "postgres"}},
		{"zero attempts", map[string]string{"ASSIGN_MAX_ATTEMPTS": "0"}},
		{"bad duration", map[string]string{"ASSIGN_TIMEOUT": "soon"}},
		{"negative pending timeout", map[string]string{"PENDING_TIMEOUT": "-1s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ADMIN_USERNAME", "santa")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Parse()
			require.Error(t, err)
		})
	}
}
