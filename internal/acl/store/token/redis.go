package token

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tokenscope/internal/acl/models"
	"tokenscope/pkg/platform/sentinel"
)

const (
	tokenKeyPrefix = "acl:token:"
	tokenIndexKey  = "acl:tokens"
)

// RedisStore keeps each token as a JSON document under acl:token:<accessor>
// and tracks accessor IDs in the acl:tokens set. Writes touch both keys in a
// MULTI/EXEC transaction.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// redisRecord carries the secret hash, which the public JSON form omits.
type redisRecord struct {
	models.Token
	SecretHash string `json:"secret_hash"`
}

func tokenKey(accessorID string) string {
	return tokenKeyPrefix + accessorID
}

func (s *RedisStore) Create(ctx context.Context, t *models.Token) error {
	if t == nil {
		return fmt.Errorf("token is required")
	}
	data, err := json.Marshal(redisRecord{Token: *t, SecretHash: t.SecretHash})
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}

	var setCmd *redis.BoolCmd
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		setCmd = pipe.SetNX(ctx, tokenKey(t.AccessorID), data, 0)
		pipe.SAdd(ctx, tokenIndexKey, t.AccessorID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("create token: %w", err)
	}
	if !setCmd.Val() {
		return fmt.Errorf("accessor %s: %w", t.AccessorID, sentinel.ErrAlreadyUsed)
	}
	return nil
}

func (s *RedisStore) FindByAccessorID(ctx context.Context, accessorID string) (*models.Token, error) {
	data, err := s.client.Get(ctx, tokenKey(accessorID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find token: %w", err)
	}
	return decodeRecord(data)
}

func (s *RedisStore) List(ctx context.Context, filter models.ListFilter) ([]*models.Token, error) {
	ids, err := s.client.SMembers(ctx, tokenIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list token index: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = tokenKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}

	tokens := make([]*models.Token, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// index entry without a document; skipped until the next delete
			continue
		}
		t, err := decodeRecord([]byte(raw))
		if err != nil {
			return nil, err
		}
		if filter.Matches(t) {
			tokens = append(tokens, t)
		}
	}
	return tokens, nil
}

func (s *RedisStore) Delete(ctx context.Context, accessorID string) error {
	var delCmd *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		delCmd = pipe.Del(ctx, tokenKey(accessorID))
		pipe.SRem(ctx, tokenIndexKey, accessorID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	if delCmd.Val() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *RedisStore) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	tokens, err := s.List(ctx, models.ListFilter{})
	if err != nil {
		return 0, err
	}
	var expired []string
	for _, t := range tokens {
		if t.IsExpired(now) {
			expired = append(expired, t.AccessorID)
		}
	}
	if len(expired) == 0 {
		return 0, nil
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range expired {
			pipe.Del(ctx, tokenKey(id))
			pipe.SRem(ctx, tokenIndexKey, id)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("purge expired tokens: %w", err)
	}
	return len(expired), nil
}

func decodeRecord(data []byte) (*models.Token, error) {
	var rec redisRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	t := rec.Token
	t.SecretHash = rec.SecretHash
	return &t, nil
}
