// Package redis implements a game store backend for a redis server.
// Each game is stored as json.  Changes are made in transactions that fail if the game changed after it was read.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jacobpatterson1549/number-race/db"
	"github.com/jacobpatterson1549/number-race/game"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "number-race:"
	// maxJoinAttempts limits how many times a join is retried when other players join the same game.
	maxJoinAttempts = 16
)

type (
	// Backend is a game store backend that uses a redis client.
	Backend struct {
		client *redis.Client
		// prefix is the start of every key.
		prefix string
		db.Config
	}

	// getter is a client or transaction that can get the value of a key.
	getter interface {
		Get(ctx context.Context, key string) *redis.StringCmd
	}
)

// NewBackend creates a backend for the redis server at the url, such as "redis://localhost:6379/0".
func NewBackend(cfg db.Config, url string) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("creating redis backend: validation: %w", err)
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	b := Backend{
		client: redis.NewClient(opts),
		prefix: keyPrefix,
		Config: cfg,
	}
	return &b, nil
}

// gameKey is the key of the json of a game.
func (b *Backend) gameKey(id game.ID) string {
	return b.prefix + "game:" + string(id)
}

// waitingKey is the key of the sorted set of waiting game ids, scored by the time the games were created.
func (b *Backend) waitingKey() string {
	return b.prefix + "waiting"
}

// Create adds the game, failing if a game with the same id exists.
// A waiting game is added to the waiting games in the same transaction.
func (b *Backend) Create(ctx context.Context, g game.Game) error {
	key := b.gameKey(g.ID)
	waiting := g.Status == game.Waiting
	if err := b.WithTimeout(ctx, func(ctx context.Context) error {
		data, err := json.Marshal(g)
		if err != nil {
			return err
		}
		return b.client.Watch(ctx, func(tx *redis.Tx) error {
			n, err := tx.Exists(ctx, key).Result()
			switch {
			case err != nil:
				return err
			case n != 0:
				return fmt.Errorf("game %v already exists", g.ID)
			}
			if waiting {
				// commands in a transaction are not rolled back, so the zadd must not fail after the set
				t, err := tx.Type(ctx, b.waitingKey()).Result()
				switch {
				case err != nil:
					return err
				case t != "zset" && t != "none":
					return fmt.Errorf("waiting games key holds a %v", t)
				}
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, data, 0)
				if waiting {
					z := redis.Z{
						Score:  float64(g.Created),
						Member: string(g.ID),
					}
					pipe.ZAdd(ctx, b.waitingKey(), z)
				}
				return nil
			})
			return err
		}, key)
	}); err != nil {
		return fmt.Errorf("creating game: %w", err)
	}
	return nil
}

// Join adds the player to the oldest waiting game.
// If another player joins the game first, the next oldest waiting game is tried.
// When other players keep winning, game.ErrNoWaitingGame is returned so a new game is created instead.
func (b *Backend) Join(ctx context.Context, playerID string) (*game.Game, error) {
	var g2 *game.Game
	if err := b.WithTimeout(ctx, func(ctx context.Context) error {
		for i := 0; i < maxJoinAttempts; i++ {
			ids, err := b.client.ZRange(ctx, b.waitingKey(), 0, 0).Result()
			switch {
			case err != nil:
				return err
			case len(ids) == 0:
				return game.ErrNoWaitingGame
			}
			id := game.ID(ids[0])
			g2, err = b.join(ctx, id, playerID)
			switch {
			case err == nil:
				return nil
			case errors.Is(err, redis.TxFailedErr):
				continue
			default:
				return err
			}
		}
		return fmt.Errorf("other players joined games %d times: %w", maxJoinAttempts, game.ErrNoWaitingGame)
	}); err != nil {
		return nil, fmt.Errorf("joining game: %w", err)
	}
	return g2, nil
}

// join adds the player to the waiting game, removing it from the waiting games.
// A game that is not waiting is also removed from the waiting games and redis.TxFailedErr is returned so the join is retried.
func (b *Backend) join(ctx context.Context, id game.ID, playerID string) (*game.Game, error) {
	key := b.gameKey(id)
	var g2 *game.Game
	err := b.client.Watch(ctx, func(tx *redis.Tx) error {
		g, err := b.get(ctx, tx, id)
		if err != nil && !errors.Is(err, game.ErrNotFound) {
			return err
		}
		if err == nil {
			g2, err = g.Join(playerID)
		}
		if err != nil {
			if _, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.ZRem(ctx, b.waitingKey(), string(id))
				return nil
			}); err != nil {
				return err
			}
			return redis.TxFailedErr
		}
		data, err := json.Marshal(g2)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			pipe.ZRem(ctx, b.waitingKey(), string(id))
			return nil
		})
		return err
	}, key)
	if err != nil {
		return nil, err
	}
	return g2, nil
}

// Read gets the game.
func (b *Backend) Read(ctx context.Context, id game.ID) (*game.Game, error) {
	var g *game.Game
	if err := b.WithTimeout(ctx, func(ctx context.Context) error {
		var err error
		g, err = b.get(ctx, b.client, id)
		return err
	}); err != nil {
		return nil, fmt.Errorf("reading game: %w", err)
	}
	return g, nil
}

// Claim updates the game only if the number is the current target of the playing game.
// The transaction fails if the game changed after it was read, which only happens when the other player claimed the number first.
func (b *Backend) Claim(ctx context.Context, id game.ID, number int, role game.Role) (*game.Game, error) {
	key := b.gameKey(id)
	var g2 *game.Game
	if err := b.WithTimeout(ctx, func(ctx context.Context) error {
		return b.client.Watch(ctx, func(tx *redis.Tx) error {
			g, err := b.get(ctx, tx, id)
			if err != nil {
				return err
			}
			if g2, err = g.Claim(number, role); err != nil {
				return err
			}
			data, err := json.Marshal(g2)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, data, 0)
				return nil
			})
			return err
		}, key)
	}); err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			err = fmt.Errorf("%v: %w", err, game.ErrStaleClaim)
		}
		return nil, fmt.Errorf("claiming number: %w", err)
	}
	return g2, nil
}

// Close closes the connection to the server.
func (b *Backend) Close() error {
	return b.client.Close()
}

// get reads the game with the client, which may be in a transaction.
func (b *Backend) get(ctx context.Context, c getter, id game.ID) (*game.Game, error) {
	data, err := c.Get(ctx, b.gameKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, game.ErrNotFound
		}
		return nil, err
	}
	var g game.Game
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("decoding game %v: %w", id, err)
	}
	if g.TakenBy == nil {
		g.TakenBy = make(map[int]game.Role)
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("corrupt game %v: %w", id, err)
	}
	return &g, nil
}
