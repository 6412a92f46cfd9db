package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/marzelet/intern-registry/internal/core/domain"
)

const mirrorKey = "profiles:mirror"

// ProfileMirror holds a copy of every acknowledged profile in a single Redis
// hash, field = profile key. It serves reads only while MongoDB is down.
type ProfileMirror struct {
	client *redis.Client
}

// NewProfileMirror creates a ProfileMirror wrapping the given Redis client.
func NewProfileMirror(client *redis.Client) *ProfileMirror {
	return &ProfileMirror{client: client}
}

// Put stores p under its owner key, replacing any previous copy.
func (m *ProfileMirror) Put(ctx context.Context, p *domain.Profile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	return storeErr("mirror put", m.client.HSet(ctx, mirrorKey, string(p.OwnerKey), raw).Err())
}

// Get returns domain.ErrProfileNotFound when the mirror has no copy.
func (m *ProfileMirror) Get(ctx context.Context, key domain.ProfileKey) (*domain.Profile, error) {
	raw, err := m.client.HGet(ctx, mirrorKey, string(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrProfileNotFound
	}
	if err != nil {
		return nil, storeErr("mirror get", err)
	}

	var p domain.Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &p, nil
}

// All returns every mirrored profile, most recently submitted first.
// Entries that fail to decode are skipped.
func (m *ProfileMirror) All(ctx context.Context) ([]domain.Profile, error) {
	entries, err := m.client.HGetAll(ctx, mirrorKey).Result()
	if err != nil {
		return nil, storeErr("mirror all", err)
	}

	profiles := make([]domain.Profile, 0, len(entries))
	for _, raw := range entries {
		var p domain.Profile
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			continue
		}
		profiles = append(profiles, p)
	}
	sort.SliceStable(profiles, func(i, j int) bool {
		if profiles[i].SubmittedAt.Equal(profiles[j].SubmittedAt) {
			return profiles[i].ID > profiles[j].ID
		}
		return profiles[i].SubmittedAt.After(profiles[j].SubmittedAt)
	})
	return profiles, nil
}
