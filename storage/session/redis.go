package sessionstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/darasa/core/session"
)

const redisKeyPrefix = "sess"

type redisRegistry struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Registry = (*redisRegistry)(nil)

// NewRedisRegistry keeps sessions in redis with a TTL matching the token
// expiration so abandoned sessions expire on their own.
func NewRedisRegistry(client *redis.Client, ttl time.Duration) Registry {
	return &redisRegistry{client: client, ttl: ttl}
}

func (reg *redisRegistry) key(id string) string {
	return redisKeyPrefix + ":" + id
}

func (reg *redisRegistry) Save(ctx context.Context, id string, sess *session.Session) error {
	rec, err := snapshot(sess)
	if err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}
	if err = reg.client.Set(ctx, reg.key(id), data, reg.ttl).Err(); err != nil {
		return errors.Wrap(err, "saving session")
	}
	return nil
}

func (reg *redisRegistry) Get(ctx context.Context, id string) (*session.Session, error) {
	data, err := reg.client.Get(ctx, reg.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "getting session")
	}
	var rec record
	if err = json.Unmarshal(data, &rec); err != nil {
		return nil, errors.Wrap(err, "decoding session")
	}
	return restore(rec)
}

func (reg *redisRegistry) Delete(ctx context.Context, id string) error {
	if err := reg.client.Del(ctx, reg.key(id)).Err(); err != nil {
		return errors.Wrap(err, "deleting session")
	}
	return nil
}
