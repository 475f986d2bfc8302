package auth

import (
	"testing"
	"time"
)

func TestSession_Expired(t *testing.T) {
	now := time.Now()
	s := Session{ExpiresAt: now.Add(time.Hour)}
	if s.Expired(now) {
		t.Fatalf("did not expect expiry an hour early")
	}
	if !s.Expired(now.Add(2 * time.Hour)) {
		t.Fatalf("expected expiry after ExpiresAt")
	}
	if (Session{}).Expired(now) {
		t.Fatalf("zero expiry means no expiry")
	}
}

func TestSession_TTL(t *testing.T) {
	now := time.Now()
	s := Session{ExpiresAt: now.Add(time.Minute)}
	if got := s.TTL(now); got != time.Minute {
		t.Fatalf("unexpected ttl: %v", got)
	}
	if got := s.TTL(now.Add(2 * time.Minute)); got != 0 {
		t.Fatalf("expired session should have zero ttl, got %v", got)
	}
}
