// Package sqlite implements a game store backend for a SQLite database file.
// SQLite has no stored functions, so each change is a single statement.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jacobpatterson1549/number-race/db"
	"github.com/jacobpatterson1549/number-race/db/sql"
	"github.com/jacobpatterson1549/number-race/game"
	_ "modernc.org/sqlite" // register "sqlite" database driver from package init() function
)

// DriverName is the name of the database/sql driver for SQLite.
const DriverName = "sqlite"

type (
	// Backend manages games in a SQLite database.
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

var (
	cols         = strings.Join(sql.GameColumns, ", ")
	createCmd    = "INSERT INTO games (" + cols + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
	readCmd      = "SELECT " + cols + " FROM games WHERE id = ?"
	joinCmd      = "UPDATE games SET player2_id = ?1, status = 'playing' WHERE id = (SELECT id FROM games WHERE status = 'waiting' AND player2_id IS NULL ORDER BY created, rowid LIMIT 1) RETURNING " + cols
	claimCmd     = "UPDATE games SET current_target = current_target + 1, taken_by = json_set(taken_by, ?3, ?4), p1_score = p1_score + CASE WHEN ?4 = 'p1' THEN 1 ELSE 0 END, p2_score = p2_score + CASE WHEN ?4 = 'p2' THEN 1 ELSE 0 END, status = ?5 WHERE id = ?1 AND current_target = ?2 AND status = 'playing' RETURNING " + cols
	pragmaParams = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
)

// DatabaseConfig creates the configuration to open the database file at the path.
// Only one connection is opened because SQLite allows one writer at a time.
func DatabaseConfig(path string, cfg db.Config) sql.DatabaseConfig {
	dsn := "file:" + path + "?" + pragmaParams
	dbCfg := sql.DatabaseConfig{
		DriverName:   DriverName,
		DatabaseURL:  dsn,
		MaxOpenConns: 1,
		Config:       cfg,
	}
	return dbCfg
}

// Create adds the game.
func (b *Backend) Create(ctx context.Context, g game.Game) error {
	args, err := sql.GameArgs(g)
	if err != nil {
		return err
	}
	q := sql.NewStatement(createCmd, args...)
	if err := b.Database.Exec(ctx, q); err != nil {
		return fmt.Errorf("creating game: %w", err)
	}
	return nil
}

// Join adds the player to the oldest waiting game in a single update.
func (b *Backend) Join(ctx context.Context, playerID string) (*game.Game, error) {
	q := sql.NewStatement(joinCmd, playerID)
	g, err := b.queryGame(ctx, q, game.ErrNoWaitingGame)
	if err != nil {
		return nil, fmt.Errorf("joining game: %w", err)
	}
	return g, nil
}

// Read gets the game.
func (b *Backend) Read(ctx context.Context, id game.ID) (*game.Game, error) {
	q := sql.NewStatement(readCmd, string(id))
	g, err := b.queryGame(ctx, q, game.ErrNotFound)
	if err != nil {
		return nil, fmt.Errorf("reading game: %w", err)
	}
	return g, nil
}

// Claim updates the game only if the number is the current target of the playing game.
func (b *Backend) Claim(ctx context.Context, id game.ID, number int, role game.Role) (*game.Game, error) {
	path := fmt.Sprintf(`$."%d"`, number)
	status := game.StatusAfterClaim(number)
	q := sql.NewStatement(claimCmd, string(id), number, path, string(role), string(status))
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
	g, err := r.Game()
	if err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("corrupt game %v: %w", g.ID, err)
	}
	return g, nil
}
