package storage

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/GriffinCanCode/worldbridge/internal/capability"
	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

// DefaultNamespace prefixes every key the bridge writes
const DefaultNamespace = "worldbridge:storage:"

const scanBatch = 256

var codec = sonic.ConfigStd

// Redis stores JSON-encoded values under a namespaced key
type Redis struct {
	client    redis.UniversalClient
	namespace string
}

// NewRedis connects to addr (host:port or a redis:// URL) and verifies the
// connection with a ping.
func NewRedis(ctx context.Context, addr, namespace string) (*Redis, error) {
	opts, err := parseRedisURL(addr)
	if err != nil {
		return nil, err
	}
	client := redis.NewUniversalClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisWithClient(client, namespace), nil
}

// NewRedisWithClient wraps an existing client
func NewRedisWithClient(client redis.UniversalClient, namespace string) *Redis {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Redis{client: client, namespace: namespace}
}

func (r *Redis) key(k string) string { return r.namespace + k }

func (r *Redis) Get(ctx context.Context, key string) (any, error) {
	b, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, capability.ErrNotFound
		}
		return nil, err
	}
	var v any
	if err := codec.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return v, nil
}

func (r *Redis) Set(ctx context.Context, key string, value any) error {
	b, err := codec.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return r.client.Set(ctx, r.key(key), b, 0).Err()
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

// ListKeys scans the namespace and returns keys without the prefix, sorted
func (r *Redis) ListKeys(ctx context.Context) ([]string, error) {
	keys := []string{}
	iter := r.client.Scan(ctx, 0, r.namespace+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), r.namespace))
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

// Close releases the client
func (r *Redis) Close() error {
	return r.client.Close()
}

// parseRedisURL accepts host:port, redis://, rediss:// and the sentinel
// variants.
func parseRedisURL(addr string) (*redis.UniversalOptions, error) {
	if !strings.Contains(addr, "://") {
		return &redis.UniversalOptions{Addrs: []string{addr}}, nil
	}

	u, err := url.Parse(addr)
	if err != nil {
		return nil, err
	}

	opts := &redis.UniversalOptions{Addrs: strings.Split(u.Host, ",")}
	if u.User != nil {
		opts.Username = u.User.Username()
		if pw, ok := u.User.Password(); ok {
			opts.Password = pw
		}
	}

	q := u.Query()
	dbFrom := func(s string) error {
		if s == "" {
			return nil
		}
		db, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("redis: invalid db: %v", err)
		}
		opts.DB = db
		return nil
	}

	switch u.Scheme {
	case "redis", "rediss":
		path := strings.TrimPrefix(u.Path, "/")
		if path == "" {
			path = q.Get("db")
		}
		if err := dbFrom(path); err != nil {
			return nil, err
		}
	case "redis-sentinel", "rediss-sentinel":
		opts.MasterName = strings.TrimPrefix(u.Path, "/")
		if err := dbFrom(q.Get("db")); err != nil {
			return nil, err
		}
		opts.SentinelUsername = q.Get("sentinel_username")
		opts.SentinelPassword = q.Get("sentinel_password")
	default:
		return nil, fmt.Errorf("redis: invalid URL scheme: %s", u.Scheme)
	}

	if strings.HasPrefix(u.Scheme, "rediss") {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return opts, nil
}

var (
	_ capability.Storage = (*Redis)(nil)
	_ capability.Storage = (*Memory)(nil)
)
