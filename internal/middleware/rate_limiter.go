package middleware

import (
	"sync"
	"time"
)

// RateLimiter implements a simple in-memory windowed rate limiter keyed by
// user and by chat.
type RateLimiter struct {
	userLimits map[int64]*windowLimit
	chatLimits map[int64]*windowLimit
	mu         sync.Mutex

	userMaxRequests int
	chatMaxRequests int
	window          time.Duration
}

type windowLimit struct {
	requests  int
	resetTime time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(userMaxRequests, chatMaxRequests int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		userLimits:      make(map[int64]*windowLimit),
		chatLimits:      make(map[int64]*windowLimit),
		userMaxRequests: userMaxRequests,
		chatMaxRequests: chatMaxRequests,
		window:          window,
	}

	// Start cleanup goroutine
	go rl.cleanup()

	return rl
}

// Allow checks both the user and the chat limit, counting this request.
func (rl *RateLimiter) Allow(userID, chatID int64) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	userOK := allow(rl.userLimits, userID, rl.userMaxRequests, rl.window, now)
	chatOK := allow(rl.chatLimits, chatID, rl.chatMaxRequests, rl.window, now)
	return userOK && chatOK
}

func allow(limits map[int64]*windowLimit, key int64, max int, window time.Duration, now time.Time) bool {
	limit, exists := limits[key]
	if !exists || now.After(limit.resetTime) {
		limits[key] = &windowLimit{
			requests:  1,
			resetTime: now.Add(window),
		}
		return true
	}

	if limit.requests >= max {
		return false
	}

	limit.requests++
	return true
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for key, limit := range rl.userLimits {
			if now.After(limit.resetTime) {
				delete(rl.userLimits, key)
			}
		}
		for key, limit := range rl.chatLimits {
			if now.After(limit.resetTime) {
				delete(rl.chatLimits, key)
			}
		}
		rl.mu.Unlock()
	}
}
