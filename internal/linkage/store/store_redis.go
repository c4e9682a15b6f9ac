package store

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	"linkage/internal/linkage/models"
	"linkage/internal/linkage/service"
	"linkage/pkg/platform/sentinel"
)

var _ service.Store = (*RedisStore)(nil)

const (
	recordKeyPrefix    = "linkage:record:"
	compositeKeyPrefix = "linkage:ck:"

	// maxWatchRetries bounds optimistic retries when a concurrent writer
	// touches the same record between WATCH and EXEC.
	maxWatchRetries = 5
)

// RedisStore persists each record as JSON and maintains a set per composite
// key. Save and Delete run under WATCH so a record and its index entry
// always change together.
type RedisStore struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed identity store.
func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Save(ctx context.Context, record *models.PersonIdentity) error {
	if record.LinkageKey.IsZero() {
		record.LinkageKey = NewLinkageKey()
	}
	return s.write(ctx, record, false)
}

func (s *RedisStore) Update(ctx context.Context, record *models.PersonIdentity) error {
	return s.write(ctx, record, true)
}

// write stores record and moves its composite index entry. With mustExist
// the transaction aborts with sentinel.ErrNotFound if the key is gone.
func (s *RedisStore) write(ctx context.Context, record *models.PersonIdentity, mustExist bool) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal person identity: %w", err)
	}
	key := recordKey(record.LinkageKey)
	newIndex := compositeIndexKey(record.CompositeKey())

	return s.withWatch(ctx, key, func(tx *redis.Tx) error {
		previous, err := loadRecord(ctx, tx, key)
		if err != nil && (mustExist || !errors.Is(err, sentinel.ErrNotFound)) {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if previous != nil {
				if oldIndex := compositeIndexKey(previous.CompositeKey()); oldIndex != newIndex {
					pipe.SRem(ctx, oldIndex, record.LinkageKey.String())
				}
			}
			pipe.Set(ctx, key, payload, 0)
			pipe.SAdd(ctx, newIndex, record.LinkageKey.String())
			return nil
		})
		return err
	})
}

func (s *RedisStore) FindByID(ctx context.Context, key models.LinkageKey) (*models.PersonIdentity, error) {
	return loadRecord(ctx, s.client, recordKey(key))
}

func (s *RedisStore) Delete(ctx context.Context, record *models.PersonIdentity) error {
	key := recordKey(record.LinkageKey)
	return s.withWatch(ctx, key, func(tx *redis.Tx) error {
		current, err := loadRecord(ctx, tx, key)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.SRem(ctx, compositeIndexKey(current.CompositeKey()), current.LinkageKey.String())
			return nil
		})
		return err
	})
}

// FindByCompositeKey reads the index set and returns the member with the
// smallest linkage key whose record still matches.
func (s *RedisStore) FindByCompositeKey(ctx context.Context, key models.CompositeKey) (*models.PersonIdentity, error) {
	members, err := s.client.SMembers(ctx, compositeIndexKey(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("read composite index: %w", err)
	}
	sort.Strings(members)
	for _, member := range members {
		record, err := loadRecord(ctx, s.client, recordKey(models.LinkageKey(member)))
		if errors.Is(err, sentinel.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if record.CompositeKey().Matches(key) {
			return record, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// Ping reports Redis reachability for health checks.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) withWatch(ctx context.Context, key string, fn func(tx *redis.Tx) error) error {
	for attempt := 0; attempt < maxWatchRetries; attempt++ {
		err := s.client.Watch(ctx, fn, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return fmt.Errorf("redis transaction: %w", err)
		}
		return err
	}
	return fmt.Errorf("redis transaction on %s: %w", key, sentinel.ErrConflict)
}

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func loadRecord(ctx context.Context, c getter, key string) (*models.PersonIdentity, error) {
	raw, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get person identity: %w", err)
	}
	var record models.PersonIdentity
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("unmarshal person identity: %w", err)
	}
	return &record, nil
}

func recordKey(key models.LinkageKey) string {
	return recordKeyPrefix + key.String()
}

// compositeIndexKey encodes the tuple so that absence and every digest value
// map to distinct, separator-free segments.
func compositeIndexKey(key models.CompositeKey) string {
	members := key.Members()
	parts := make([]string, len(members))
	for i, member := range members {
		if member == nil {
			parts[i] = "~"
			continue
		}
		parts[i] = "=" + base64.RawURLEncoding.EncodeToString([]byte(*member))
	}
	return compositeKeyPrefix + strings.Join(parts, ":")
}
