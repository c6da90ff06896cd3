package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/wricardo/multiplayer-chess/game/engine"
	"github.com/wricardo/multiplayer-chess/game/multiplayer"
	"github.com/wricardo/multiplayer-chess/game/service"
)

var _ service.GameStore = (*RedisStore)(nil)

const (
	defaultRedisPrefix = "chess"
	maxTxRetries       = 16
)

// RedisStore keeps game snapshots in Redis so several server processes can
// share games. Updates use WATCH on the game key, so concurrent writers to
// the same game retry instead of overwriting each other.
type RedisStore struct {
	rdb    redis.UniversalClient
	oracle engine.Oracle
	prefix string
}

// NewRedisStore wraps an existing client. Keys are namespaced by prefix.
func NewRedisStore(rdb redis.UniversalClient, oracle engine.Oracle, prefix string) *RedisStore {
	if strings.TrimSpace(prefix) == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{rdb: rdb, oracle: oracle, prefix: prefix}
}

// DialRedis parses a redis:// URL and checks the server is reachable.
func DialRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// Add stores g and appends its id to the ordered index.
func (s *RedisStore) Add(ctx context.Context, g *multiplayer.Game) error {
	if g == nil || g.ID() == "" {
		return multiplayer.WrapError(multiplayer.CodeInvalidArgument, "game with an id is required", nil)
	}
	raw, err := json.Marshal(g.Snapshot())
	if err != nil {
		return fmt.Errorf("marshal game %s: %w", g.ID(), err)
	}

	key := s.gameKey(g.ID())
	return s.retry(ctx, key, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return multiplayer.WrapError(multiplayer.CodeDuplicateID, fmt.Sprintf("game %s already exists", g.ID()), nil)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, 0)
			pipe.RPush(ctx, s.indexKey(), g.ID())
			return nil
		})
		return err
	})
}

// Get loads and replays the game.
func (s *RedisStore) Get(ctx context.Context, id string) (*multiplayer.Game, error) {
	raw, err := s.rdb.Get(ctx, s.gameKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get game %s: %w", id, err)
	}
	return s.decode(raw)
}

// List returns all games in creation order.
func (s *RedisStore) List(ctx context.Context) ([]*multiplayer.Game, error) {
	ids, err := s.rdb.LRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list game ids: %w", err)
	}
	if len(ids) == 0 {
		return []*multiplayer.Game{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.gameKey(id)
	}
	values, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load games: %w", err)
	}

	result := make([]*multiplayer.Game, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		g, err := s.decode([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("decode game %s: %w", ids[i], err)
		}
		result = append(result, g)
	}
	return result, nil
}

// Update runs fn inside a WATCH transaction on the game key. fn may run
// more than once when another writer wins the race.
func (s *RedisStore) Update(ctx context.Context, id string, fn func(*multiplayer.Game) error) (*multiplayer.Game, error) {
	key := s.gameKey(id)
	var updated *multiplayer.Game

	err := s.retry(ctx, key, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return notFound(id)
		}
		if err != nil {
			return err
		}
		g, err := s.decode(raw)
		if err != nil {
			return err
		}
		if err := fn(g); err != nil {
			return err
		}
		out, err := json.Marshal(g.Snapshot())
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			return nil
		})
		if err == nil {
			updated = g
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated.Clone(), nil
}

func (s *RedisStore) retry(ctx context.Context, key string, txf func(*redis.Tx) error) error {
	for i := 0; i < maxTxRetries; i++ {
		err := s.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("transaction on %s failed after %d attempts: %w", key, maxTxRetries, redis.TxFailedErr)
}

func (s *RedisStore) decode(raw []byte) (*multiplayer.Game, error) {
	var snapshot multiplayer.Snapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return multiplayer.Restore(snapshot, s.oracle)
}

func (s *RedisStore) gameKey(id string) string { return s.prefix + ":game:" + id }

func (s *RedisStore) indexKey() string { return s.prefix + ":games" }
