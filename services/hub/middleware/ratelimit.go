// Copyright (C) 2025 NIA Insight Group (dev@niainsight.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/niahq/excellence-hub/services/hub/observability"
)

// limiterIdleTTL is how long an idle per-key limiter survives before
// the sweep removes it.
const limiterIdleTTL = 10 * time.Minute

type keyedLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter tracks one token bucket per user and process. Only the
// expensive write routes consult it; reads are never throttled.
type RateLimiter struct {
	mu       sync.Mutex
	keys     map[string]*keyedLimiter
	limit    rate.Limit
	burst    int
	lastSwep time.Time
	now      func() time.Time
}

// NewRateLimiter builds a limiter allowing perMinute requests per
// user-and-process key. The burst equals the per-minute budget so a
// quiet user can spend a full minute's allowance at once.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute < 1 {
		perMinute = 1
	}
	return &RateLimiter{
		keys:  make(map[string]*keyedLimiter),
		limit: rate.Limit(float64(perMinute) / 60.0),
		burst: perMinute,
		now:   time.Now,
	}
}

// Allow reports whether the caller may proceed, consuming one token
// from the bucket for userID on processID. Routes with no process in
// their path pass an empty processID and share one bucket per user.
func (rl *RateLimiter) Allow(userID, processID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.sweepLocked(now)

	key := userID + "|" + processID
	kl, ok := rl.keys[key]
	if !ok {
		kl = &keyedLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.keys[key] = kl
	}
	kl.lastSeen = now
	return kl.limiter.AllowN(now, 1)
}

// sweepLocked drops limiters idle past the TTL, at most once per TTL.
func (rl *RateLimiter) sweepLocked(now time.Time) {
	if now.Sub(rl.lastSwep) < limiterIdleTTL {
		return
	}
	rl.lastSwep = now
	for id, kl := range rl.keys {
		if now.Sub(kl.lastSeen) > limiterIdleTTL {
			delete(rl.keys, id)
		}
	}
}

// RateLimit rejects requests over the per-user-per-process budget with
// 429. Attach it to individual expensive routes, after Auth so the
// identity is available; unauthenticated requests pass through
// untouched for Auth to reject.
func RateLimit(rl *RateLimiter, metrics *observability.HubMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := GetIdentity(c)
		if !ok {
			c.Next()
			return
		}
		if !rl.Allow(id.User.ID, c.Param("processId")) {
			metrics.RecordRateLimited()
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
