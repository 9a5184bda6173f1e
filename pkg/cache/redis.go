package cache

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/mitra-laporan-api/pkg/config"
)

const keyPrefix = "mitra"

// NewRedis returns a configured Redis client.
func NewRedis(cfg config.RedisConfig) (*redis.Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

// Key derives a cache key from a namespace and the request parameters that shape the query.
// Parts are path-escaped so values containing ':' or '*' cannot collide with other keys or
// widen an invalidation pattern.
func Key(namespace string, parts ...string) string {
	var b strings.Builder
	b.WriteString(keyPrefix)
	b.WriteByte(':')
	b.WriteString(namespace)
	for _, part := range parts {
		b.WriteByte(':')
		b.WriteString(escape(part))
	}
	return b.String()
}

// Pattern returns a SCAN pattern matching every key built by Key with the same leading parts.
func Pattern(namespace string, parts ...string) string {
	return Key(namespace, parts...) + "*"
}

func escape(part string) string {
	escaped := url.PathEscape(part)
	escaped = strings.ReplaceAll(escaped, ":", "%3A")
	escaped = strings.ReplaceAll(escaped, "*", "%2A")
	escaped = strings.ReplaceAll(escaped, "?", "%3F")
	escaped = strings.ReplaceAll(escaped, "[", "%5B")
	return strings.ReplaceAll(escaped, "]", "%5D")
}
