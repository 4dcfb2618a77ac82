package redisclient

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"qrtag-service/internal/models"

	"github.com/go-redis/redis/v8"
)

//go:embed scripts/claim.lua
var claimScriptSrc string

//go:embed scripts/release.lua
var releaseScriptSrc string

type Client struct {
	rdb           *redis.Client
	claimScript   *redis.Script
	releaseScript *redis.Script
	tagCacheTTL   time.Duration
}

// NewClient creates a new Redis client with Lua scripts loaded
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:           rdb,
		claimScript:   redis.NewScript(claimScriptSrc),
		releaseScript: redis.NewScript(releaseScriptSrc),
		tagCacheTTL:   10 * time.Minute,
	}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks Redis connectivity
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// ClaimTagID reserves a custom tag id for owner while its creation fee is being paid.
// Re-claiming by the same owner refreshes the TTL; another owner is refused.
func (c *Client) ClaimTagID(ctx context.Context, customID, owner string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("tag-claim:%s", customID)

	result, err := c.claimScript.Run(ctx, c.rdb, []string{key}, owner, ttl.Milliseconds()).Result()
	if err != nil {
		return false, fmt.Errorf("claim script failed: %w", err)
	}

	claimed, ok := result.(int64)
	if !ok {
		return false, fmt.Errorf("unexpected script result type")
	}

	return claimed == 1, nil
}

// ReleaseTagID drops a claim held by owner
func (c *Client) ReleaseTagID(ctx context.Context, customID, owner string) error {
	key := fmt.Sprintf("tag-claim:%s", customID)

	if _, err := c.releaseScript.Run(ctx, c.rdb, []string{key}, owner).Result(); err != nil {
		return fmt.Errorf("release script failed: %w", err)
	}
	return nil
}

// GetPublicTag returns a cached public tag view, or nil on a cache miss
func (c *Client) GetPublicTag(ctx context.Context, customID string) (*models.PublicTag, error) {
	raw, err := c.rdb.Get(ctx, fmt.Sprintf("tag:%s", customID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var tag models.PublicTag
	if err := json.Unmarshal(raw, &tag); err != nil {
		return nil, fmt.Errorf("decode cached tag: %w", err)
	}
	return &tag, nil
}

// SetPublicTag caches a public tag view
func (c *Client) SetPublicTag(ctx context.Context, tag *models.PublicTag) error {
	raw, err := json.Marshal(tag)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, fmt.Sprintf("tag:%s", tag.CustomID), raw, c.tagCacheTTL).Err()
}

// InvalidatePublicTag removes a cached public tag view
func (c *Client) InvalidatePublicTag(ctx context.Context, customID string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("tag:%s", customID)).Err()
}
