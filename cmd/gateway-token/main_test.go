package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/mmynk/wichtelbot/internal/auth"
)

func TestRun_MintsValidToken(t *testing.T) {
	var out bytes.Buffer
	if err := run([]string{"--id", "poller", "--secret", "s3cret", "--ttl", "1h"}, &out); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	jwtManager, _ := auth.NewJWTManager("s3cret", time.Hour)
	claims, err := jwtManager.Validate(strings.TrimSpace(out.String()))
	if err != nil {
		t.Fatalf("minted token does not validate: %v", err)
	}
	if claims.GatewayID != "poller" {
		t.Errorf("gateway id: expected 'poller', got '%s'", claims.GatewayID)
	}
}

func TestRun_SecretFromEnv(t *testing.T) {
	t.Setenv("GATEWAY_SECRET", "from-env")
	var out bytes.Buffer
	if err := run([]string{"--id", "poller"}, &out); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	jwtManager, _ := auth.NewJWTManager("from-env", 0)
	if _, err := jwtManager.Validate(strings.TrimSpace(out.String())); err != nil {
		t.Fatalf("minted token does not validate: %v", err)
	}
}

func TestRun_Errors(t *testing.T) {
	t.Setenv("GATEWAY_SECRET", "")
	tests := map[string][]string{
		"missing id":     {"--secret", "x"},
		"missing secret": {"--id", "poller"},
		"extra argument": {"--id", "poller", "--secret", "x", "extra"},
		"unknown flag":   {"--bogus"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			if err := run(args, &bytes.Buffer{}); err == nil {
				t.Error("expected error")
			}
		})
	}
}
