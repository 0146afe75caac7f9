package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/ksuid"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is one logged-in device. It lives until logout, account
// deletion or its TTL, whichever comes first.
type Session struct {
	ID        string
	UserID    uint
	IP        string
	Device    string
	CreatedAt time.Time
}

// RedisStore keeps sessions as hashes under session:<id>, plus a per-user
// index set under user_sessions:<user id>
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(redisURL string) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

// NewRedisStoreFromClient wraps an existing client
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func sessionKey(id string) string {
	return "session:" + id
}

func userKey(userID uint) string {
	return fmt.Sprintf("user_sessions:%d", userID)
}

// Create registers a new session for userID that expires after ttl
func (s *RedisStore) Create(ctx context.Context, userID uint, ip, device string, ttl time.Duration) (*Session, error) {
	sess := &Session{
		ID:        ksuid.New().String(),
		UserID:    userID,
		IP:        ip,
		Device:    device,
		CreatedAt: time.Now().UTC(),
	}

	key := sessionKey(sess.ID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"user_id":    strconv.FormatUint(uint64(userID), 10),
		"ip":         ip,
		"device":     device,
		"created_at": strconv.FormatInt(sess.CreatedAt.Unix(), 10),
	})
	pipe.Expire(ctx, key, ttl)
	pipe.SAdd(ctx, userKey(userID), sess.ID)
	pipe.Expire(ctx, userKey(userID), ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	return sess, nil
}

// Get returns the live session with the given id or ErrSessionNotFound
func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}

	fields, err := s.client.HGetAll(ctx, sessionKey(id)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, ErrSessionNotFound
	}

	uid, err := strconv.ParseUint(fields["user_id"], 10, 64)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	created, _ := strconv.ParseInt(fields["created_at"], 10, 64)

	return &Session{
		ID:        id,
		UserID:    uint(uid),
		IP:        fields["ip"],
		Device:    fields["device"],
		CreatedAt: time.Unix(created, 0).UTC(),
	}, nil
}

// Revoke ends one session. Revoking an unknown session is not an error.
func (s *RedisStore) Revoke(ctx context.Context, id string) error {
	sess, err := s.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil
		}
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKey(id))
	pipe.SRem(ctx, userKey(sess.UserID), id)
	_, err = pipe.Exec(ctx)
	return err
}

// RevokeAll ends every session of userID and returns how many were live
func (s *RedisStore) RevokeAll(ctx context.Context, userID uint) (int, error) {
	ids, err := s.client.SMembers(ctx, userKey(userID)).Result()
	if err != nil {
		return 0, err
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, sessionKey(id))
	}

	live := 0
	if len(keys) > 0 {
		n, err := s.client.Del(ctx, keys...).Result()
		if err != nil {
			return 0, err
		}
		live = int(n)
	}

	if err := s.client.Del(ctx, userKey(userID)).Err(); err != nil {
		return live, err
	}
	return live, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
