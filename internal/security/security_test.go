package security

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"certifyeasy/internal/models"
)

func TestCSRFToken(t *testing.T) {
	g := NewCSRFGenerator("secret")

	token, err := g.GenerateToken("session-1")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	tampered := token[:len(token)-1] + "A"
	if tampered == token {
		tampered = token[:len(token)-1] + "B"
	}

	again, _ := g.GenerateToken("session-1")
	if token != again {
		t.Error("tokens for the same session should match")
	}

	tests := []struct {
		name      string
		sessionID string
		token     string
		want      bool
	}{
		{name: "valid", sessionID: "session-1", token: token, want: true},
		{name: "other session", sessionID: "session-2", token: token, want: false},
		{name: "empty token", sessionID: "session-1", token: "", want: false},
		{name: "empty session", sessionID: "", token: token, want: false},
		{name: "tampered", sessionID: "session-1", token: tampered, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.ValidateToken(tt.sessionID, tt.token); got != tt.want {
				t.Errorf("ValidateToken() = %v, want %v", got, tt.want)
			}
		})
	}

	if NewCSRFGenerator("other").ValidateToken("session-1", token) {
		t.Error("token should not validate under a different secret")
	}
	if _, err := g.GenerateToken(""); err == nil {
		t.Error("GenerateToken(\"\") should fail")
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "hunter22" {
		t.Fatal("HashPassword() returned the plain password")
	}

	tests := []struct {
		name     string
		hash     string
		password string
		want     bool
	}{
		{name: "match", hash: hash, password: "hunter22", want: true},
		{name: "mismatch", hash: hash, password: "hunter23", want: false},
		{name: "oauth account", hash: "", password: "", want: false},
		{name: "garbage hash", hash: "not-a-hash", password: "hunter22", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckPassword(tt.hash, tt.password); got != tt.want {
				t.Errorf("CheckPassword() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Error("fourth request should be limited")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("other clients should not be limited")
	}

	rl.prune(time.Now().Add(3 * time.Minute))
	if len(rl.visitors) != 0 {
		t.Errorf("prune left %d visitors", len(rl.visitors))
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		trustProxy bool
		want       string
	}{
		{name: "remote addr", remoteAddr: "192.0.2.1:1234", want: "192.0.2.1"},
		{name: "forwarded for chain", remoteAddr: "10.0.0.1:80", headers: map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"}, trustProxy: true, want: "203.0.113.5"},
		{name: "real ip", remoteAddr: "10.0.0.1:80", headers: map[string]string{"X-Real-IP": "198.51.100.7"}, trustProxy: true, want: "198.51.100.7"},
		{name: "forwarded for ignored without proxy", remoteAddr: "192.0.2.1:1234", headers: map[string]string{"X-Forwarded-For": "203.0.113.5"}, want: "192.0.2.1"},
		{name: "real ip ignored without proxy", remoteAddr: "192.0.2.1:1234", headers: map[string]string{"X-Real-IP": "198.51.100.7"}, want: "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := GetClientIP(r, tt.trustProxy); got != tt.want {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimiterIgnoresRotatedForwardedFor(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)

	allowed := 0
	for i := 0; i < 5; i++ {
		r := httptest.NewRequest("POST", "/api/login", nil)
		r.RemoteAddr = "192.0.2.1:1234"
		r.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
		if rl.Allow(rl.ClientIP(r)) {
			allowed++
		}
	}
	if allowed != 2 {
		t.Errorf("allowed %d requests with rotating X-Forwarded-For, want 2", allowed)
	}

	rl.SetTrustProxy(true)
	r := httptest.NewRequest("POST", "/api/login", nil)
	r.RemoteAddr = "192.0.2.1:1234"
	r.Header.Set("X-Forwarded-For", "203.0.113.99")
	if got := rl.ClientIP(r); got != "203.0.113.99" {
		t.Errorf("ClientIP() behind trusted proxy = %q", got)
	}
}

func TestSessionCookies(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	expires := time.Now().Add(time.Hour)

	c := CreateSessionCookie(r, "session_id", "abc", expires)
	if !c.HttpOnly || c.Secure || c.Value != "abc" {
		t.Errorf("unexpected cookie %+v", c)
	}

	r.TLS = &tls.ConnectionState{}
	if !CreateSessionCookie(r, "session_id", "abc", expires).Secure {
		t.Error("cookie over TLS should be Secure")
	}

	proxied := httptest.NewRequest("GET", "/", nil)
	proxied.Header.Set("X-Forwarded-Proto", "https")
	if !IsSecureRequest(proxied) {
		t.Error("X-Forwarded-Proto https should count as secure")
	}

	del := CreateDeleteCookie(proxied, "session_id")
	if del.MaxAge != -1 || !del.Secure {
		t.Errorf("unexpected delete cookie %+v", del)
	}

	if GenerateSessionID() == GenerateSessionID() {
		t.Error("session IDs should be unique")
	}
	if len(GenerateSecret()) != 64 {
		t.Error("GenerateSecret() should return 32 hex-encoded bytes")
	}
}

func TestQuestionSigner(t *testing.T) {
	signer := NewQuestionSigner("secret", time.Hour)
	inst := models.QuestionInstance{
		SessionID:  "s-1",
		UserID:     42,
		Exam:       "CIA",
		Part:       "2",
		Subject:    "Engagements",
		Question:   "What comes first?",
		Answer:     "Planning",
		RetryCount: 1,
	}

	token, err := signer.Sign(inst)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	got, err := signer.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if got != inst {
		t.Errorf("Verify() = %+v, want %+v", got, inst)
	}

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewQuestionSigner("other", time.Hour).Verify(token)
		if !errors.Is(err, ErrInvalidQuestionToken) {
			t.Errorf("Verify() error = %v, want ErrInvalidQuestionToken", err)
		}
	})

	t.Run("tampered", func(t *testing.T) {
		_, err := signer.Verify(token + "x")
		if !errors.Is(err, ErrInvalidQuestionToken) {
			t.Errorf("Verify() error = %v, want ErrInvalidQuestionToken", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		late := NewQuestionSigner("secret", time.Hour)
		late.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := late.Verify(token)
		if !errors.Is(err, ErrInvalidQuestionToken) {
			t.Errorf("Verify() error = %v, want ErrInvalidQuestionToken", err)
		}
	})
}
