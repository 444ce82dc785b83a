package presence

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/majiix/wtingest/ingest"
	redis "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by Redis.
const DefaultPrefix = "wtingest"

// RedisConfig configures the Redis announcer.
type RedisConfig struct {
	Addrs       []string
	Username    string
	Password    string
	Prefix      string
	DialTimeout time.Duration
	Logger      *slog.Logger
}

// redisClient is the subset of redis.UniversalClient used by Redis.
type redisClient interface {
	SAdd(ctx context.Context, key string, members ...any) *redis.IntCmd
	SRem(ctx context.Context, key string, members ...any) *redis.IntCmd
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
	Close() error
}

var _ ingest.Announcer = (*Redis)(nil)

// Redis keeps the set of live assets of every room in Redis.
//
// An announced asset is added to the set <prefix>:rooms:<room> and "+<asset>"
// is published on <prefix>:rooms:<room>:updates. Withdrawing removes the
// member and publishes "-<asset>".
type Redis struct {
	client redisClient
	prefix string
	logger *slog.Logger
}

// NewRedis connects to the Redis deployment at cfg.Addrs. A single address
// selects a plain client; several select a cluster client.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	addrs := make([]string, 0, len(cfg.Addrs))
	for _, addr := range cfg.Addrs {
		if trimmed := strings.TrimSpace(addr); trimmed != "" {
			addrs = append(addrs, trimmed)
		}
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("redis addr is required")
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:       addrs,
		Username:    strings.TrimSpace(cfg.Username),
		Password:    cfg.Password,
		DialTimeout: cfg.DialTimeout,
		MaxRetries:  2,
	})

	return newRedis(client, cfg.Prefix, cfg.Logger), nil
}

func newRedis(client redisClient, prefix string, logger *slog.Logger) *Redis {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Redis{
		client: client,
		prefix: prefix,
		logger: logger,
	}
}

func (r *Redis) roomKey(room string) string {
	return r.prefix + ":rooms:" + room
}

func (r *Redis) updatesChannel(room string) string {
	return r.roomKey(room) + ":updates"
}

// Announce adds the asset to its room and publishes the addition.
func (r *Redis) Announce(ctx context.Context, a ingest.Announcement) error {
	if err := r.client.SAdd(ctx, r.roomKey(a.Room), a.AssetID).Err(); err != nil {
		return fmt.Errorf("presence: add %s to room %s: %w", a.AssetID, a.Room, err)
	}
	if err := r.client.Publish(ctx, r.updatesChannel(a.Room), "+"+a.AssetID).Err(); err != nil {
		return fmt.Errorf("presence: publish %s to room %s: %w", a.AssetID, a.Room, err)
	}

	r.logger.Debug("announced asset",
		"session_id", a.SessionID,
		"room", a.Room,
		"asset_id", a.AssetID,
	)
	return nil
}

// Withdraw removes the asset from its room and publishes the removal.
func (r *Redis) Withdraw(ctx context.Context, a ingest.Announcement) error {
	if err := r.client.SRem(ctx, r.roomKey(a.Room), a.AssetID).Err(); err != nil {
		return fmt.Errorf("presence: remove %s from room %s: %w", a.AssetID, a.Room, err)
	}
	if err := r.client.Publish(ctx, r.updatesChannel(a.Room), "-"+a.AssetID).Err(); err != nil {
		return fmt.Errorf("presence: publish %s to room %s: %w", a.AssetID, a.Room, err)
	}

	r.logger.Debug("withdrew asset",
		"session_id", a.SessionID,
		"room", a.Room,
		"asset_id", a.AssetID,
	)
	return nil
}

// Close closes the Redis client.
func (r *Redis) Close() error {
	return r.client.Close()
}
