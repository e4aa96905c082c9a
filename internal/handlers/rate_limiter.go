package handlers

import (
	"math"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"
)

const anonymousSender = "anonymous"

// ContactThrottle caps contact submissions per sender address within a fixed window.
// A nil *ContactThrottle admits every submission.
type ContactThrottle struct {
	limit  int
	window time.Duration
	clock  func() time.Time

	mu      sync.Mutex
	senders map[string]senderWindow
}

type senderWindow struct {
	sent    int
	resetAt time.Time
}

// NewContactThrottle admits limit submissions per sender in each window. A
// non-positive limit or window disables throttling and returns nil.
func NewContactThrottle(limit int, window time.Duration, clock func() time.Time) *ContactThrottle {
	if limit <= 0 || window <= 0 {
		return nil
	}
	if clock == nil {
		clock = time.Now
	}
	return &ContactThrottle{
		limit:   limit,
		window:  window,
		clock:   clock,
		senders: make(map[string]senderWindow),
	}
}

// Allow records a submission from addr. When the sender has used its budget it
// returns false and how long until the window resets.
func (t *ContactThrottle) Allow(addr string) (bool, time.Duration) {
	if t == nil {
		return true, 0
	}
	sender := senderKey(addr)
	now := t.clock()
	t.mu.Lock()
	defer t.mu.Unlock()

	win, ok := t.senders[sender]
	if !ok || !now.Before(win.resetAt) {
		t.senders[sender] = senderWindow{sent: 1, resetAt: now.Add(t.window)}
		t.forgetIdleLocked(now)
		return true, 0
	}
	if win.sent >= t.limit {
		return false, win.resetAt.Sub(now)
	}
	win.sent++
	t.senders[sender] = win
	return true, 0
}

func (t *ContactThrottle) forgetIdleLocked(now time.Time) {
	for sender, win := range t.senders {
		if !now.Before(win.resetAt) {
			delete(t.senders, sender)
		}
	}
}

// senderKey groups IPv6 senders by their /64 so rotating interface IDs share a budget.
func senderKey(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return anonymousSender
	}
	ip, err := netip.ParseAddr(addr)
	if err != nil {
		if ap, perr := netip.ParseAddrPort(addr); perr == nil {
			ip = ap.Addr()
		} else {
			return strings.ToLower(addr)
		}
	}
	ip = ip.Unmap()
	if ip.Is6() {
		if prefix, err := ip.Prefix(64); err == nil {
			return prefix.String()
		}
	}
	return ip.String()
}

// retryAfterSeconds renders wait as a Retry-After value, rounded up to a whole second.
func retryAfterSeconds(wait time.Duration) string {
	secs := int(math.Ceil(wait.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
