package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestManager_RoundTrip(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	token, err := m.GenerateToken(42, "staff")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	id, role, err := m.ValidateToken(token)
	if err != nil || id != 42 || role != "staff" {
		t.Fatalf("validate: %d %q %v", id, role, err)
	}
}

func TestManager_Rejects(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	token, _ := m.GenerateToken(1, "customer")

	other := NewManager("other-secret", time.Hour)
	if _, _, err := other.ValidateToken(token); err != ErrInvalidToken {
		t.Fatalf("wrong secret accepted: %v", err)
	}

	expired := NewManager("test-secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _ := expired.GenerateToken(1, "customer")
	if _, _, err := m.ValidateToken(old); err != ErrInvalidToken {
		t.Fatalf("expired token accepted: %v", err)
	}

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, _, err := m.ValidateToken(none); err != ErrInvalidToken {
		t.Fatalf("unsigned token accepted: %v", err)
	}

	if _, _, err := m.ValidateToken("garbage"); err != ErrInvalidToken {
		t.Fatalf("garbage accepted: %v", err)
	}
}
