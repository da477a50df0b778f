package sql

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jacobpatterson1549/number-race/game"
)

// GameColumns are the columns of a game row, in the order they are scanned by a GameRow.
// The positions and taken_by columns are json text.
var GameColumns = []string{
	"id",
	"status",
	"player1_id",
	"player2_id",
	"current_target",
	"positions",
	"taken_by",
	"p1_score",
	"p2_score",
	"created",
}

// GameRow is the destination for a scanned game.
type GameRow struct {
	id            string
	status        string
	player1ID     string
	player2ID     sql.NullString
	currentTarget int
	positions     []byte
	takenBy       []byte
	p1Score       int
	p2Score       int
	created       int64
}

// Dest is the scan destination for the GameColumns.
func (r *GameRow) Dest() []interface{} {
	return []interface{}{
		&r.id,
		&r.status,
		&r.player1ID,
		&r.player2ID,
		&r.currentTarget,
		&r.positions,
		&r.takenBy,
		&r.p1Score,
		&r.p2Score,
		&r.created,
	}
}

// Game converts the scanned row to a game.
func (r GameRow) Game() (*game.Game, error) {
	g := game.Game{
		ID:            game.ID(r.id),
		Status:        game.Status(r.status),
		Player1ID:     r.player1ID,
		Player2ID:     r.player2ID.String,
		CurrentTarget: r.currentTarget,
		P1Score:       r.p1Score,
		P2Score:       r.p2Score,
		Created:       r.created,
	}
	if err := json.Unmarshal(r.positions, &g.Positions); err != nil {
		return nil, fmt.Errorf("reading positions of game %v: %w", g.ID, err)
	}
	if err := json.Unmarshal(r.takenBy, &g.TakenBy); err != nil {
		return nil, fmt.Errorf("reading taken numbers of game %v: %w", g.ID, err)
	}
	if g.TakenBy == nil {
		g.TakenBy = make(map[int]game.Role)
	}
	return &g, nil
}

// GameArgs are the values of the GameColumns for the game.
func GameArgs(g game.Game) ([]interface{}, error) {
	positions, err := json.Marshal(g.Positions)
	if err != nil {
		return nil, fmt.Errorf("writing positions of game %v: %w", g.ID, err)
	}
	takenBy := g.TakenBy
	if takenBy == nil {
		takenBy = make(map[int]game.Role)
	}
	takenByJSON, err := json.Marshal(takenBy)
	if err != nil {
		return nil, fmt.Errorf("writing taken numbers of game %v: %w", g.ID, err)
	}
	var player2ID sql.NullString
	if len(g.Player2ID) != 0 {
		player2ID = sql.NullString{String: g.Player2ID, Valid: true}
	}
	args := []interface{}{
		string(g.ID),
		string(g.Status),
		g.Player1ID,
		player2ID,
		g.CurrentTarget,
		string(positions),
		string(takenByJSON),
		g.P1Score,
		g.P2Score,
		g.Created,
	}
	return args, nil
}
