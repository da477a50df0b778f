package store

import (
	"context"

	"github.com/jacobpatterson1549/number-race/game"
)

type mockBackend struct {
	createFunc func(ctx context.Context, g game.Game) error
	joinFunc   func(ctx context.Context, playerID string) (*game.Game, error)
	readFunc   func(ctx context.Context, id game.ID) (*game.Game, error)
	claimFunc  func(ctx context.Context, id game.ID, number int, role game.Role) (*game.Game, error)
}

func (m mockBackend) Create(ctx context.Context, g game.Game) error {
	return m.createFunc(ctx, g)
}

func (m mockBackend) Join(ctx context.Context, playerID string) (*game.Game, error) {
	return m.joinFunc(ctx, playerID)
}

func (m mockBackend) Read(ctx context.Context, id game.ID) (*game.Game, error) {
	return m.readFunc(ctx, id)
}

func (m mockBackend) Claim(ctx context.Context, id game.ID, number int, role game.Role) (*game.Game, error) {
	return m.claimFunc(ctx, id, number, role)
}
