package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/dataveil/dataveil/internal/config"
	"github.com/dataveil/dataveil/internal/scan"
)

// CachedProvider is a Redis read-through cache in front of another settings
// provider. Cache failures degrade to the backing provider; a corrupt entry
// is deleted and refetched.
type CachedProvider struct {
	backing scan.SettingsProvider
	client  *redis.Client
	cfg     config.SettingsCacheConfig
	logger  *zap.Logger
}

// NewCachedProvider connects to Redis and wraps the backing provider
func NewCachedProvider(backing scan.SettingsProvider, cfg config.SettingsCacheConfig, logger *zap.Logger) (*CachedProvider, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// Configure connection pool
	opts.PoolSize = cfg.MaxConnections
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Settings cache initialized successfully",
		zap.String("redis_url", maskRedisURL(cfg.RedisURL)),
		zap.Int("max_connections", cfg.MaxConnections),
		zap.Duration("ttl", cfg.TTL))

	return &CachedProvider{
		backing: backing,
		client:  client,
		cfg:     cfg,
		logger:  logger,
	}, nil
}

// Settings returns the cached settings for an identity, falling back to the
// backing provider and populating the cache on a miss.
func (p *CachedProvider) Settings(ctx context.Context, identity string) (*scan.Settings, error) {
	key := p.key(identity)

	cached, err := p.client.Get(ctx, key).Result()
	if err == nil {
		var settings scan.Settings
		if err := json.Unmarshal([]byte(cached), &settings); err == nil {
			p.logger.Debug("Settings cache hit", zap.String("identity", identity))
			return &settings, nil
		}
		p.logger.Warn("Deleting corrupt settings cache entry",
			zap.String("identity", identity))
		p.client.Del(ctx, key)
	} else if err != redis.Nil {
		p.logger.Warn("Settings cache lookup failed, using backing provider",
			zap.String("identity", identity),
			zap.Error(err))
	}

	settings, err := p.backing.Settings(ctx, identity)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(settings); err == nil {
		if err := p.client.Set(ctx, key, encoded, p.cfg.TTL).Err(); err != nil {
			p.logger.Warn("Failed to populate settings cache",
				zap.String("identity", identity),
				zap.Error(err))
		}
	}
	return settings, nil
}

// Invalidate drops an identity's cached settings
func (p *CachedProvider) Invalidate(ctx context.Context, identity string) error {
	return p.client.Del(ctx, p.key(identity)).Err()
}

// Close releases the Redis connection pool
func (p *CachedProvider) Close() error {
	return p.client.Close()
}

func (p *CachedProvider) key(identity string) string {
	return p.cfg.KeyPrefix + ":settings:" + identity
}

// maskRedisURL masks sensitive information in Redis URL for logging
func maskRedisURL(url string) string {
	if strings.Contains(url, "@") {
		parts := strings.Split(url, "@")
		if len(parts) >= 2 {
			userPart := parts[0]
			if strings.Contains(userPart, ":") {
				userParts := strings.Split(userPart, ":")
				if len(userParts) >= 2 {
					userParts[len(userParts)-1] = "***"
					parts[0] = strings.Join(userParts, ":")
				}
			}
			return strings.Join(parts, "@")
		}
	}
	return url
}
