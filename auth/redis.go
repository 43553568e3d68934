package auth

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"controlroom/pkg/logging"
	"controlroom/pkg/models"
)

// snapshot is the durable form of the credential state.
type snapshot struct {
	Session    Session             `json:"session"`
	MachineKey string              `json:"machine_key,omitempty"`
	Profile    *models.UserProfile `json:"profile,omitempty"`
}

// redisCommands is the slice of the go-redis client the store uses.
type redisCommands interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisStore layers a durable fallback over a MemoryStore so a restarted
// session process survives the equivalent of a page reload. Reads always hit
// memory; writes go to memory first and are then persisted best-effort. A
// broken Redis degrades the store to memory-only with a warning, never an
// error surfaced to callers.
type RedisStore struct {
	mem    *MemoryStore
	client redisCommands
	key    string
	ttl    time.Duration
	logger logging.Logger
}

// RedisStoreConfig configures the durable credential fallback.
type RedisStoreConfig struct {
	Addr     string
	Password string
	// SessionKey namespaces one session's snapshot, typically derived from a
	// browser session cookie.
	SessionKey string
	// TTL bounds how long an orphaned snapshot lingers. Default: 24h.
	TTL    time.Duration
	Logger logging.Logger
}

// NewRedisStore creates a credential store backed by memory with a Redis
// snapshot for restart survival.
func NewRedisStore(cfg RedisStoreConfig) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
	})
	return newRedisStore(client, cfg)
}

func newRedisStore(client redisCommands, cfg RedisStoreConfig) *RedisStore {
	if cfg.TTL == 0 {
		cfg.TTL = 24 * time.Hour
	}
	return &RedisStore{
		mem:    NewMemoryStore(),
		client: client,
		key:    "controlroom:credentials:" + cfg.SessionKey,
		ttl:    cfg.TTL,
		logger: cfg.Logger,
	}
}

// Restore loads the persisted snapshot into memory. A missing snapshot is
// not an error; the store simply starts logged out.
func (s *RedisStore) Restore(ctx context.Context) error {
	raw, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}
	var snap snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return err
	}
	s.mem.SetSession(snap.Session)
	s.mem.SetMachineKey(snap.MachineKey)
	s.mem.SetProfile(snap.Profile)
	return nil
}

func (s *RedisStore) Token() string                { return s.mem.Token() }
func (s *RedisStore) RefreshToken() string         { return s.mem.RefreshToken() }
func (s *RedisStore) MachineKey() string           { return s.mem.MachineKey() }
func (s *RedisStore) Profile() *models.UserProfile { return s.mem.Profile() }

func (s *RedisStore) SetSession(sess Session) {
	s.mem.SetSession(sess)
	s.persist()
}

func (s *RedisStore) SetProfile(p *models.UserProfile) {
	s.mem.SetProfile(p)
	s.persist()
}

func (s *RedisStore) SetMachineKey(key string) {
	s.mem.SetMachineKey(key)
	s.persist()
}

func (s *RedisStore) Clear() {
	s.mem.Clear()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.client.Del(ctx, s.key).Err(); err != nil && s.logger != nil {
		s.logger.WithError(err).Warn("Failed to clear persisted credentials")
	}
}

func (s *RedisStore) persist() {
	snap := snapshot{
		Session:    Session{Token: s.mem.Token(), RefreshToken: s.mem.RefreshToken()},
		MachineKey: s.mem.MachineKey(),
		Profile:    s.mem.Profile(),
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		if s.logger != nil {
			s.logger.WithError(err).Warn("Failed to encode credential snapshot")
		}
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.client.Set(ctx, s.key, raw, s.ttl).Err(); err != nil && s.logger != nil {
		s.logger.WithError(err).Warn("Failed to persist credential snapshot")
	}
}
