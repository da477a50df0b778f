// Package store contains the Game Store, which is the only thing that changes games.
// All changes are made with the atomic operations of a Backend so that many servers can share the same games.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jacobpatterson1549/number-race/game"
	"github.com/jacobpatterson1549/number-race/server/log"
)

type (
	// Store creates games, pairs players into them, and lets players claim numbers.
	Store struct {
		log     log.Logger
		backend Backend
		Config
	}

	// Config contains the functions and options used to create games.
	Config struct {
		// Debug is a flag that causes the store to log when games are created, joined, and finished.
		Debug bool
		// IDFunc creates a new unique game id.
		IDFunc func() game.ID
		// TimeFunc is a function which should supply the current time since the unix epoch.
		TimeFunc func() int64
		// LayoutFunc creates the positions of the numbers on the board of a new game.
		LayoutFunc func() []game.Position
	}

	// Backend persists games.  Join and Claim must be atomic, even when the backend is shared by many stores.
	Backend interface {
		// Create adds the new game.
		Create(ctx context.Context, g game.Game) error
		// Join adds the player to a game that is waiting for a second player, returning game.ErrNoWaitingGame if there are none.
		Join(ctx context.Context, playerID string) (*game.Game, error)
		// Read gets the game, returning game.ErrNotFound if it does not exist.
		Read(ctx context.Context, id game.ID) (*game.Game, error)
		// Claim advances the target past the number if and only if the number is the current target of the playing game.
		// It returns game.ErrStaleClaim if no game was changed.
		Claim(ctx context.Context, id game.ID, number int, role game.Role) (*game.Game, error)
	}

	// JoinResult is the outcome of a player joining a game.
	JoinResult struct {
		// Game is the game the player is in.
		Game game.Game
		// Role is how the player is identified in the game.
		Role game.Role
		// Message describes whether or not the game was joined or created.
		Message string
	}
)

const (
	joinedMessage  = "Joined existing game"
	createdMessage = "Created new game. Waiting for player 2..."
)

// NewStore creates a Store on the backend.
func (cfg Config) NewStore(log log.Logger, backend Backend) (*Store, error) {
	if err := cfg.validate(log, backend); err != nil {
		return nil, fmt.Errorf("creating game store: validation: %w", err)
	}
	s := Store{
		log:     log,
		backend: backend,
		Config:  cfg,
	}
	return &s, nil
}

// validate ensures the configuration has no errors.
func (cfg Config) validate(log log.Logger, backend Backend) error {
	switch {
	case log == nil:
		return fmt.Errorf("log required")
	case backend == nil:
		return fmt.Errorf("backend required")
	case cfg.IDFunc == nil:
		return fmt.Errorf("id func required")
	case cfg.TimeFunc == nil:
		return fmt.Errorf("time func required")
	case cfg.LayoutFunc == nil:
		return fmt.Errorf("layout func required")
	}
	return nil
}

// JoinOrCreate adds the player to the oldest waiting game as player 2.
// If no game was waiting, a new game is created with the player as player 1.
func (s *Store) JoinOrCreate(ctx context.Context, playerID string) (*JoinResult, error) {
	if len(playerID) == 0 {
		return nil, fmt.Errorf("player id required")
	}
	g, err := s.backend.Join(ctx, playerID)
	switch {
	case err == nil:
		if s.Debug {
			s.log.Printf("player %q joined game %v", playerID, g.ID)
		}
		r := JoinResult{
			Game:    *g,
			Role:    game.Player2,
			Message: joinedMessage,
		}
		return &r, nil
	case !errors.Is(err, game.ErrNoWaitingGame):
		return nil, fmt.Errorf("joining waiting game: %w", err)
	}
	id := s.IDFunc()
	created := s.TimeFunc()
	positions := s.LayoutFunc()
	g = game.New(id, playerID, positions, created)
	if err := s.backend.Create(ctx, *g); err != nil {
		return nil, fmt.Errorf("creating game: %w", err)
	}
	if s.Debug {
		s.log.Printf("player %q created game %v", playerID, g.ID)
	}
	r := JoinResult{
		Game:    *g,
		Role:    game.Player1,
		Message: createdMessage,
	}
	return &r, nil
}

// GetGame reads the game.
func (s *Store) GetGame(ctx context.Context, id game.ID) (*game.Game, error) {
	g, err := s.backend.Read(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reading game %v: %w", id, err)
	}
	return g, nil
}

// Claim gives the number to the player if it is the current target of the game.
// The game is read to check the player and number before the claim is committed with a single conditional write.
// If the other player claimed the number between the read and the write, game.ErrStaleClaim is returned.
func (s *Store) Claim(ctx context.Context, id game.ID, playerID string, number int) (*game.Game, error) {
	g, err := s.backend.Read(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reading game %v to claim %d: %w", id, number, err)
	}
	role, err := g.Check(playerID, number)
	if err != nil {
		return nil, err
	}
	g2, err := s.backend.Claim(ctx, id, number, role)
	if err != nil {
		return nil, fmt.Errorf("claiming %d for %v in game %v: %w", number, role, id, err)
	}
	if s.Debug && g2.Status == game.Finished {
		s.log.Printf("game %v finished: p1: %d, p2: %d", g2.ID, g2.P1Score, g2.P2Score)
	}
	return g2, nil
}
