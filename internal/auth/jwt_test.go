package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m, err := NewJWTManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewJWTManager failed: %v", err)
	}

	token, err := m.Generate("telegram-poller")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.GatewayID != "telegram-poller" {
		t.Errorf("gateway id: expected 'telegram-poller', got '%s'", claims.GatewayID)
	}
	if claims.ExpiresAt == nil {
		t.Error("expected an expiry")
	}
}

func TestJWTManager_NoExpiry(t *testing.T) {
	m, _ := NewJWTManager("test-secret", 0)
	token, err := m.Generate("poller")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	m.now = func() time.Time { return time.Now().Add(10 * 365 * 24 * time.Hour) }
	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.ExpiresAt != nil {
		t.Errorf("expected no expiry, got %v", claims.ExpiresAt)
	}
}

func TestJWTManager_Rejects(t *testing.T) {
	m, _ := NewJWTManager("test-secret", time.Minute)
	other, _ := NewJWTManager("other-secret", time.Minute)

	valid, err := m.Generate("poller")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	foreign, _ := other.Generate("poller")

	expiredManager, _ := NewJWTManager("test-secret", time.Minute)
	expiredManager.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, _ := expiredManager.Generate("poller")

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		GatewayID:        "poller",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("signing none token failed: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong secret", foreign},
		{"expired", expired},
		{"alg none", none},
		{"tampered", valid + "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Validate(tt.token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestNewJWTManager_EmptySecret(t *testing.T) {
	if _, err := NewJWTManager("", time.Hour); !errors.Is(err, ErrEmptySecret) {
		t.Errorf("expected ErrEmptySecret, got %v", err)
	}
}
