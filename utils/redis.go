package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"taskflow/models"
)

// ErrSessionNotFound is returned for unknown or expired session tokens.
var ErrSessionNotFound = errors.New("session not found")

const redisTimeout = 5 * time.Second

func sessionKey(token string) string { return "session:" + token }

func userSessionsKey(userID string) string { return "user_sessions:" + userID }

// OpenRedisPool initializes a Redis connection pool
func OpenRedisPool(ctx context.Context, dsn string) (*redis.Client, error) {
	opt, err := redis.ParseURL(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis DSN: %w", err)
	}

	opt.PoolSize = 100
	opt.MinIdleConns = 2
	opt.DialTimeout = 5 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// StoreSession saves a session in Redis
func StoreSession(ctx context.Context, client *redis.Client, session models.Session, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	sessionMap := map[string]any{
		"user_id":       session.UserID,
		"created_at":    session.CreatedAt,
		"expires_at":    session.ExpiresAt,
		"last_activity": session.LastActivity,
		"user_agent":    session.UserAgent,
		"ip_address":    session.IPAddress,
	}

	key := sessionKey(session.SessionToken)
	pipe := client.TxPipeline()
	pipe.HSet(ctx, key, sessionMap)
	pipe.Expire(ctx, key, ttl)
	pipe.SAdd(ctx, userSessionsKey(session.UserID), key)
	pipe.Expire(ctx, userSessionsKey(session.UserID), ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// GetSession retrieves session details from Redis
func GetSession(ctx context.Context, client *redis.Client, sessionToken string) (*models.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	data, err := client.HGetAll(ctx, sessionKey(sessionToken)).Result()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrSessionNotFound
	}

	return &models.Session{
		SessionToken: sessionToken,
		UserID:       data["user_id"],
		CreatedAt:    data["created_at"],
		ExpiresAt:    data["expires_at"],
		LastActivity: data["last_activity"],
		UserAgent:    data["user_agent"],
		IPAddress:    data["ip_address"],
	}, nil
}

// DeleteSession removes a single session and its reference in the user index
func DeleteSession(ctx context.Context, client *redis.Client, sessionToken string) error {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	key := sessionKey(sessionToken)
	userID, err := client.HGet(ctx, key, "user_id").Result()
	if errors.Is(err, redis.Nil) {
		return client.Del(ctx, key).Err()
	}
	if err != nil {
		return err
	}

	if err := client.SRem(ctx, userSessionsKey(userID), key).Err(); err != nil {
		return err
	}
	return client.Del(ctx, key).Err()
}

// touchSession only writes to a session hash that still exists, so a key that
// expired since it was read is not recreated without a TTL.
var touchSession = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	return redis.call("HSET", KEYS[1], "last_activity", ARGV[1])
end
return 0
`)

// UpdateLastActivityRedis updates the last activity timestamp of a live session
func UpdateLastActivityRedis(ctx context.Context, client *redis.Client, sessionToken string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	return touchSession.Run(ctx, client, []string{sessionKey(sessionToken)}, at.UTC().Format(time.RFC3339)).Err()
}

// DeleteAllUserSessions removes all sessions associated with a specific user
func DeleteAllUserSessions(ctx context.Context, client *redis.Client, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	sessionKeys, err := client.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil {
		return err
	}

	if len(sessionKeys) > 0 {
		if err := client.Del(ctx, sessionKeys...).Err(); err != nil {
			return err
		}
	}

	return client.Del(ctx, userSessionsKey(userID)).Err()
}

func GetUserIDFromST(ctx context.Context, client *redis.Client, sessionToken string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	uID, err := client.HGet(ctx, sessionKey(sessionToken), "user_id").Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrSessionNotFound
	}
	return uID, err
}
