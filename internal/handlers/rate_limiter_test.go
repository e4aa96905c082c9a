package handlers

import (
	"testing"
	"time"
)

func TestContactThrottleWindow(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	throttle := NewContactThrottle(2, time.Minute, func() time.Time { return now })

	for i := 0; i < 2; i++ {
		if ok, _ := throttle.Allow("203.0.113.5"); !ok {
			t.Fatalf("call %d should pass", i+1)
		}
	}
	now = now.Add(15 * time.Second)
	ok, wait := throttle.Allow("203.0.113.5")
	if ok {
		t.Fatalf("third call inside the window should be rejected")
	}
	if wait != 45*time.Second {
		t.Fatalf("wait = %v, want 45s", wait)
	}
	if ok, _ := throttle.Allow("198.51.100.7"); !ok {
		t.Fatalf("other senders have their own budget")
	}

	now = now.Add(45 * time.Second)
	if ok, _ := throttle.Allow("203.0.113.5"); !ok {
		t.Fatalf("budget should reset once the window ends")
	}
}

func TestContactThrottleSenderKeys(t *testing.T) {
	throttle := NewContactThrottle(1, time.Minute, nil)
	if ok, _ := throttle.Allow(""); !ok {
		t.Fatalf("first anonymous call should pass")
	}
	if ok, _ := throttle.Allow("  "); ok {
		t.Fatalf("blank addresses should share the anonymous budget")
	}

	if ok, _ := throttle.Allow("2001:db8:1:2::a"); !ok {
		t.Fatalf("first IPv6 call should pass")
	}
	if ok, _ := throttle.Allow("2001:db8:1:2:ffff::b"); ok {
		t.Fatalf("addresses in the same /64 should share a budget")
	}
	if ok, _ := throttle.Allow("2001:db8:1:3::a"); !ok {
		t.Fatalf("a different /64 should have its own budget")
	}

	if ok, _ := throttle.Allow("192.0.2.1:5000"); !ok {
		t.Fatalf("first IPv4 call should pass")
	}
	if ok, _ := throttle.Allow("::ffff:192.0.2.1"); ok {
		t.Fatalf("port and IPv4-mapped forms should share the IPv4 budget")
	}
}

func TestContactThrottleDisabled(t *testing.T) {
	throttle := NewContactThrottle(0, time.Minute, nil)
	if throttle != nil {
		t.Fatalf("zero limit should disable throttling")
	}
	if ok, wait := throttle.Allow("203.0.113.5"); !ok || wait != 0 {
		t.Fatalf("nil throttle must admit, got ok=%v wait=%v", ok, wait)
	}
}

func TestContactThrottleForgetsIdleSenders(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	throttle := NewContactThrottle(1, time.Minute, func() time.Time { return now })
	throttle.Allow("192.0.2.1")
	now = now.Add(2 * time.Minute)
	throttle.Allow("192.0.2.2")
	if _, ok := throttle.senders["192.0.2.1"]; ok {
		t.Fatalf("idle sender should be forgotten")
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	tests := []struct {
		wait time.Duration
		want string
	}{
		{time.Minute, "60"},
		{44*time.Second + time.Millisecond, "45"},
		{0, "1"},
	}
	for _, tc := range tests {
		if got := retryAfterSeconds(tc.wait); got != tc.want {
			t.Fatalf("retryAfterSeconds(%v) = %q, want %q", tc.wait, got, tc.want)
		}
	}
}
