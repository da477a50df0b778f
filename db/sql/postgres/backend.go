// Package postgres implements a game store backend for Postgres servers.
// The backend calls stored functions that are created by the setup files.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jacobpatterson1549/number-race/db/sql"
	"github.com/jacobpatterson1549/number-race/game"
)

type (
	// Backend manages games on a Postgres SQL Database.
	Backend struct {
		Database
	}

	// Database contains methods to create, read, update, and delete data.
	Database interface {
		// Setup initializes the database by reading the files.
		Setup(ctx context.Context, files []io.Reader) error
		// Query reads a row from the database.
		Query(ctx context.Context, q sql.Query, dest ...interface{}) error
		// Exec makes a change to existing data, creating/modifying/removing it.
		Exec(ctx context.Context, queries ...sql.Query) error
	}
)

// Create adds the game.
func (b *Backend) Create(ctx context.Context, g game.Game) error {
	args, err := sql.GameArgs(g)
	if err != nil {
		return err
	}
	q := sql.NewExecFunction("game_create", args...)
	if err := b.Database.Exec(ctx, q); err != nil {
		return fmt.Errorf("creating game: %w", err)
	}
	return nil
}

// Join adds the player to the oldest waiting game in a single update.
func (b *Backend) Join(ctx context.Context, playerID string) (*game.Game, error) {
	q := sql.NewQueryFunction("game_join", sql.GameColumns, playerID)
	g, err := b.queryGame(ctx, q, game.ErrNoWaitingGame)
	if err != nil {
		return nil, fmt.Errorf("joining game: %w", err)
	}
	return g, nil
}

// Read gets the game.
func (b *Backend) Read(ctx context.Context, id game.ID) (*game.Game, error) {
	q := sql.NewQueryFunction("game_read", sql.GameColumns, string(id))
	g, err := b.queryGame(ctx, q, game.ErrNotFound)
	if err != nil {
		return nil, fmt.Errorf("reading game: %w", err)
	}
	return g, nil
}

// Claim updates the game only if the number is the current target of the playing game.
func (b *Backend) Claim(ctx context.Context, id game.ID, number int, role game.Role) (*game.Game, error) {
	status := game.StatusAfterClaim(number)
	q := sql.NewQueryFunction("game_claim", sql.GameColumns, string(id), number, string(role), string(status))
	g, err := b.queryGame(ctx, q, game.ErrStaleClaim)
	if err != nil {
		return nil, fmt.Errorf("claiming number: %w", err)
	}
	return g, nil
}

// queryGame scans the game that the query returns, returning noRowsErr if the query has no rows.
func (b *Backend) queryGame(ctx context.Context, q sql.Query, noRowsErr error) (*game.Game, error) {
	var r sql.GameRow
	if err := b.Database.Query(ctx, q, r.Dest()...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, noRowsErr
		}
		return nil, err
	}
	return r.Game()
}
