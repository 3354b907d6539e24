package auth

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const snapshotKey = "auth:snapshot"

// SnapshotStore is the persisted-identity surface the manager consumes:
// Initialize hydrates from Load before re-validating, and the sign-in and
// sign-out paths keep the record current. *SnapshotCache satisfies it.
type SnapshotStore interface {
	Save(ctx context.Context, user *AuthUser)
	Load(ctx context.Context) (*AuthUser, bool)
	Clear(ctx context.Context)
}

// SnapshotCache persists a single `{user}` record across process restarts.
// It is advisory only: Initialize always re-validates against the backend
// instead of trusting the cached identity. All methods tolerate a nil
// receiver and a lost Redis connection by doing nothing.
type SnapshotCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSnapshotCache wraps the shared Redis client; returns nil when the
// client is unavailable so callers can pass the result straight through.
func NewSnapshotCache(rdb *redis.Client) *SnapshotCache {
	if rdb == nil {
		return nil
	}
	return &SnapshotCache{rdb: rdb, ttl: 30 * 24 * time.Hour}
}

type snapshotRecord struct {
	User *AuthUser `json:"user"`
}

// Save stores the identity snapshot, replacing any previous record.
func (s *SnapshotCache) Save(ctx context.Context, user *AuthUser) {
	if s == nil || user == nil {
		return
	}
	payload, err := json.Marshal(snapshotRecord{User: user})
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, snapshotKey, payload, s.ttl).Err(); err != nil {
		log.Printf("auth: snapshot save failed: %v", err)
	}
}

// Load returns the cached identity, if any.
func (s *SnapshotCache) Load(ctx context.Context) (*AuthUser, bool) {
	if s == nil {
		return nil, false
	}
	raw, err := s.rdb.Get(ctx, snapshotKey).Bytes()
	if err != nil {
		return nil, false
	}
	var rec snapshotRecord
	if err := json.Unmarshal(raw, &rec); err != nil || rec.User == nil {
		return nil, false
	}
	return rec.User, true
}

// Clear removes the snapshot after sign-out or a failed re-validation.
func (s *SnapshotCache) Clear(ctx context.Context) {
	if s == nil {
		return
	}
	if err := s.rdb.Del(ctx, snapshotKey).Err(); err != nil {
		log.Printf("auth: snapshot clear failed: %v", err)
	}
}
