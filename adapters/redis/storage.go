package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lingokit/core"
	"lingokit/engine"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection configuration
type Config struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// KeyPrefix namespaces every key so one Redis can serve several
	// deployments.
	KeyPrefix string
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		KeyPrefix:    "lingokit",
	}
}

// Store implements the engine.Storage interface using Redis as the backend.
// Data structure:
// - {prefix}:points:{user} -> JSON blob of the point record
// - {prefix}:version:{user} -> int64 write version, advanced by the CAS script
// - {prefix}:users -> set of user ids with a record
type Store struct {
	client *redis.Client
	prefix string
}

// New creates a new Redis-backed storage with the provided configuration
func New(config Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return newStore(client, config.KeyPrefix), nil
}

// NewWithClient creates a Store using an existing Redis client (useful for testing)
func NewWithClient(client *redis.Client) *Store {
	return newStore(client, DefaultConfig().KeyPrefix)
}

func newStore(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultConfig().KeyPrefix
	}
	return &Store{client: client, prefix: prefix}
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) recordKey(user core.UserID) string {
	return fmt.Sprintf("%s:points:%s", s.prefix, user)
}

func (s *Store) versionKey(user core.UserID) string {
	return fmt.Sprintf("%s:version:%s", s.prefix, user)
}

func (s *Store) usersKey() string {
	return fmt.Sprintf("%s:users", s.prefix)
}

// Lua script for the conditional write: the record is replaced only when the
// stored version still equals the caller's expected version. Returns the new
// version, or -1 when the write loses the race.
var putScript = redis.NewScript(`
	local current = tonumber(redis.call('GET', KEYS[1]) or '0')
	local expected = tonumber(ARGV[1])
	if current ~= expected then
		return -1
	end
	redis.call('SET', KEYS[1], expected + 1)
	redis.call('SET', KEYS[2], ARGV[2])
	redis.call('SADD', KEYS[3], ARGV[3])
	return expected + 1
`)

// Get retrieves the record and its version in one round trip. A user with no
// record yields version 0.
func (s *Store) Get(ctx context.Context, user core.UserID) (core.PointRecord, uint64, error) {
	vals, err := s.client.MGet(ctx, s.versionKey(user), s.recordKey(user)).Result()
	if err != nil {
		return core.PointRecord{}, 0, fmt.Errorf("failed to read record: %w", err)
	}
	if vals[0] == nil || vals[1] == nil {
		return core.PointRecord{}, 0, nil
	}

	var version uint64
	if _, err := fmt.Sscanf(vals[0].(string), "%d", &version); err != nil {
		return core.PointRecord{}, 0, fmt.Errorf("corrupt version for %s: %w", user, err)
	}
	var rec core.PointRecord
	if err := json.Unmarshal([]byte(vals[1].(string)), &rec); err != nil {
		return core.PointRecord{}, 0, fmt.Errorf("corrupt record for %s: %w", user, err)
	}
	if rec.Badges == nil {
		rec.Badges = map[core.Badge]struct{}{}
	}
	return rec, version, nil
}

// Put writes the record under the version check.
func (s *Store) Put(ctx context.Context, user core.UserID, rec core.PointRecord, expected uint64) (uint64, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return 0, fmt.Errorf("failed to encode record: %w", err)
	}

	keys := []string{s.versionKey(user), s.recordKey(user), s.usersKey()}
	result, err := putScript.Run(ctx, s.client, keys, expected, payload, string(user)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to write record: %w", err)
	}
	version, ok := result.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected result type from Redis script: %T", result)
	}
	if version < 0 {
		return 0, fmt.Errorf("%w: expected version %d", core.ErrConflict, expected)
	}
	return uint64(version), nil
}

// List returns every stored record, driven by the users set.
func (s *Store) List(ctx context.Context) ([]core.PointRecord, error) {
	users, err := s.client.SMembers(ctx, s.usersKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	out := make([]core.PointRecord, 0, len(users))
	for _, u := range users {
		rec, version, err := s.Get(ctx, core.UserID(u))
		if err != nil {
			return nil, err
		}
		if version == 0 {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

var _ engine.Storage = (*Store)(nil)
