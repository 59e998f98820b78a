package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chainfolio/foliogate/internal/config"
	"github.com/chainfolio/foliogate/internal/model"
	"github.com/chainfolio/foliogate/internal/service"
	"github.com/redis/go-redis/v9"
)

type RedisClient struct {
	Client       *redis.Client
	snapshotTTL  time.Duration
	auditListKey string
	auditListMax int64
}

func NewRedisClient(cfg *config.Config) (*RedisClient, error) {
	if cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis address is empty")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ttl := time.Duration(cfg.Redis.SnapshotTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	listMax := int64(cfg.Redis.AuditListMax)
	if listMax <= 0 {
		listMax = 10000
	}

	return &RedisClient{
		Client:       rdb,
		snapshotTTL:  ttl,
		auditListKey: cfg.Redis.AuditListKey,
		auditListMax: listMax,
	}, nil
}

// Get implements service.SnapshotCache. A missing key is a cache miss,
// not an error.
func (r *RedisClient) Get(ctx context.Context, orgID string) (*service.Snapshot, error) {
	raw, err := r.Client.Get(ctx, snapshotKey(orgID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var snap service.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		// Corrupt entry: treat as a miss and let the caller overwrite it.
		return nil, nil
	}
	return &snap, nil
}

func (r *RedisClient) Set(ctx context.Context, orgID string, snap *service.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, snapshotKey(orgID), raw, r.snapshotTTL).Err()
}

func snapshotKey(orgID string) string {
	return fmt.Sprintf("snapshot:%s", orgID)
}

// PushAudit appends an audit record to a capped list, mirroring the
// Postgres sink for deployments that run Redis only.
func (r *RedisClient) PushAudit(ctx context.Context, entry *model.AuditLog) error {
	if entry == nil {
		return nil
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	pipe := r.Client.Pipeline()
	pipe.LPush(ctx, r.auditListKey, raw)
	pipe.LTrim(ctx, r.auditListKey, 0, r.auditListMax-1)
	_, err = pipe.Exec(ctx)
	return err
}
