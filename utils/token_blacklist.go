package utils

import (
	"context"
	"sync"
	"time"
)

// blacklistEntry keeps expiration metadata for a revoked token.
type blacklistEntry struct {
	expiresAt time.Time
}

var (
	blacklist   = map[string]blacklistEntry{}
	blacklistMu sync.RWMutex
)

// BlacklistToken marks a token id (jti) as revoked until the token's natural
// expiration, supporting logout semantics. Prefers Redis so revocation is
// shared across instances; falls back to in-memory when Redis is unavailable.
func BlacklistToken(jti string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := rc.Set(ctx, "jwt:blacklist:"+jti, "1", ttl).Err(); err == nil {
			return
		}
	}
	blacklistMu.Lock()
	blacklist[jti] = blacklistEntry{expiresAt: expiresAt}
	blacklistMu.Unlock()
}

// IsTokenBlacklisted checks if a token id was revoked before natural expiration.
func IsTokenBlacklisted(jti string) bool {
	blacklistMu.RLock()
	entry, ok := blacklist[jti]
	blacklistMu.RUnlock()
	if ok {
		if time.Now().Before(entry.expiresAt) {
			return true
		}
		blacklistMu.Lock()
		delete(blacklist, jti)
		blacklistMu.Unlock()
	}

	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		n, err := rc.Exists(ctx, "jwt:blacklist:"+jti).Result()
		if err == nil {
			return n > 0
		}
	}
	// On Redis error fail open; the in-memory fallback above already covered
	// revocations performed by this instance.
	return false
}
