package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marzelet/intern-registry/internal/core/domain"
)

// DraftStore keeps one in-progress form per profile key.
// Key format: draft:<profile_key>
type DraftStore struct {
	client *redis.Client
}

// NewDraftStore creates a DraftStore wrapping the given Redis client.
func NewDraftStore(client *redis.Client) *DraftStore {
	return &DraftStore{client: client}
}

// Load returns (nil, nil) when no draft is stored for key.
func (st *DraftStore) Load(ctx context.Context, key domain.ProfileKey) (*domain.Draft, error) {
	raw, err := st.client.Get(ctx, draftKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("load draft", err)
	}

	var d domain.Draft
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	return &d, nil
}

// Save replaces the draft and refreshes its expiry.
func (st *DraftStore) Save(ctx context.Context, d *domain.Draft, ttl time.Duration) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	return storeErr("save draft", st.client.Set(ctx, draftKey(d.OwnerKey), raw, ttl).Err())
}

func (st *DraftStore) Delete(ctx context.Context, key domain.ProfileKey) error {
	return storeErr("delete draft", st.client.Del(ctx, draftKey(key)).Err())
}

func draftKey(key domain.ProfileKey) string {
	return "draft:" + string(key)
}
