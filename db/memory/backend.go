// Package memory stores games in the memory of a single server.
// Games are lost when the server stops.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/jacobpatterson1549/number-race/game"
)

// Backend is a game store backend that keeps copies of the games in a map.
type Backend struct {
	mu    sync.Mutex
	games map[game.ID]*game.Game
	// waiting is the ids of the games waiting for a second player, in order of creation.
	waiting []game.ID
}

// NewBackend creates an empty backend.
func NewBackend() *Backend {
	b := Backend{
		games: make(map[game.ID]*game.Game),
	}
	return &b
}

// Create adds a copy of the game.
func (b *Backend) Create(ctx context.Context, g game.Game) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.games[g.ID]; ok {
		return fmt.Errorf("game %v already exists", g.ID)
	}
	b.games[g.ID] = g.Copy()
	if g.Status == game.Waiting {
		b.waiting = append(b.waiting, g.ID)
	}
	return nil
}

// Join adds the player to the oldest waiting game.
func (b *Backend) Join(ctx context.Context, playerID string) (*game.Game, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	oldest := -1
	for i, id := range b.waiting {
		if oldest < 0 || b.games[id].Created < b.games[b.waiting[oldest]].Created {
			oldest = i
		}
	}
	if oldest < 0 {
		return nil, game.ErrNoWaitingGame
	}
	id := b.waiting[oldest]
	g, err := b.games[id].Join(playerID)
	if err != nil {
		return nil, err
	}
	b.waiting = append(b.waiting[:oldest], b.waiting[oldest+1:]...)
	b.games[id] = g
	return g.Copy(), nil
}

// Read gets a copy of the game.
func (b *Backend) Read(ctx context.Context, id game.ID) (*game.Game, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	g, ok := b.games[id]
	if !ok {
		return nil, game.ErrNotFound
	}
	return g.Copy(), nil
}

// Claim gives the number to the role if it is the target of the game.
func (b *Backend) Claim(ctx context.Context, id game.ID, number int, role game.Role) (*game.Game, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	g, ok := b.games[id]
	if !ok {
		return nil, game.ErrNotFound
	}
	g2, err := g.Claim(number, role)
	if err != nil {
		return nil, err
	}
	b.games[id] = g2
	return g2.Copy(), nil
}
