package leaderboard

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	rdb *redis.Client
	key string
}

// NewRedisStore key 约定：
//
//	string: {prefix}pokerPlayerStats -> JSON document
func NewRedisStore(rdb *redis.Client, prefix string) Store {
	return &redisStore{rdb: rdb, key: prefix + StatsKey}
}

func (r *redisStore) Load(ctx context.Context) (Document, error) {
	data, err := r.rdb.Get(ctx, r.key).Bytes()
	if err == redis.Nil {
		return NewDocument(), nil
	}
	if err != nil {
		return NewDocument(), fmt.Errorf("redis get %s: %w", r.key, err)
	}
	return DecodeDocument(data)
}

func (r *redisStore) Save(ctx context.Context, doc Document) error {
	data, err := EncodeDocument(doc)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, r.key, data, 0).Err()
}
