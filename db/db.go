// Package db contains what the game backends that store games in databases share.
package db

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jacobpatterson1549/number-race/game"
)

// Config contains common properties to create databases.
type Config struct {
	// QueryPeriod is the amount of time that any database action can take before it should timeout.
	QueryPeriod time.Duration
}

// Validate ensures the configuration has no errors.
func (cfg Config) Validate() error {
	if cfg.QueryPeriod <= 0 {
		return fmt.Errorf("positive query period required")
	}
	return nil
}

// WithTimeout runs the function with a context that is cancelled after the query period.
func (cfg Config) WithTimeout(ctx context.Context, f func(ctx context.Context) error) error {
	ctx, cancelFunc := context.WithTimeout(ctx, cfg.QueryPeriod)
	defer cancelFunc()
	return f(ctx)
}

// EncodeTakenBy converts the numbers of the taken by map to strings for databases that only allow string keys.
func EncodeTakenBy(takenBy map[int]game.Role) map[string]game.Role {
	m := make(map[string]game.Role, len(takenBy))
	for n, r := range takenBy {
		m[strconv.Itoa(n)] = r
	}
	return m
}

// DecodeTakenBy converts the keys of the encoded taken by map back to numbers.
// A nil map is decoded to an empty map.
func DecodeTakenBy(m map[string]game.Role) (map[int]game.Role, error) {
	takenBy := make(map[int]game.Role, len(m))
	for k, r := range m {
		n, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("parsing taken number %q: %w", k, err)
		}
		if !r.Valid() {
			return nil, fmt.Errorf("number %d taken by invalid role %q", n, r)
		}
		takenBy[n] = r
	}
	return takenBy, nil
}
