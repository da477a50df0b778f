package server

import (
	"context"
	"net/http"

	"github.com/jacobpatterson1549/number-race/game"
	"github.com/jacobpatterson1549/number-race/game/store"
)

type mockStore struct {
	joinOrCreateFunc func(ctx context.Context, playerID string) (*store.JoinResult, error)
	getGameFunc      func(ctx context.Context, id game.ID) (*game.Game, error)
	claimFunc        func(ctx context.Context, id game.ID, playerID string, number int) (*game.Game, error)
}

func (m mockStore) JoinOrCreate(ctx context.Context, playerID string) (*store.JoinResult, error) {
	return m.joinOrCreateFunc(ctx, playerID)
}

func (m mockStore) GetGame(ctx context.Context, id game.ID) (*game.Game, error) {
	return m.getGameFunc(ctx, id)
}

func (m mockStore) Claim(ctx context.Context, id game.ID, playerID string, number int) (*game.Game, error) {
	return m.claimFunc(ctx, id, playerID, number)
}

type mockTokenizer struct {
	CreateFunc func(playerID string, gameID game.ID) (string, error)
	ReadFunc   func(tokenString string) (string, game.ID, error)
}

func (m mockTokenizer) Create(playerID string, gameID game.ID) (string, error) {
	return m.CreateFunc(playerID, gameID)
}

func (m mockTokenizer) Read(tokenString string) (string, game.ID, error) {
	return m.ReadFunc(tokenString)
}

type mockWatcher func(ctx context.Context, w http.ResponseWriter, r *http.Request, g game.Game) error

func (m mockWatcher) Watch(ctx context.Context, w http.ResponseWriter, r *http.Request, g game.Game) error {
	return m(ctx, w, r, g)
}

type mockPasswordChecker func(hashedPassword []byte, password string) (bool, error)

func (m mockPasswordChecker) IsCorrect(hashedPassword []byte, password string) (bool, error) {
	return m(hashedPassword, password)
}
