// Package game contains the state of a number race between two players and the rules to change it.
package game

import (
	"fmt"
)

const (
	// FirstNumber is the first target of every game.
	FirstNumber = 1
	// LastNumber is the last number on the board.  Claiming it finishes the game.
	LastNumber = 99
)

type (
	// ID is the id of a game.
	ID string

	// Game is the shared state of a race between two players to claim the numbers on the board in order.
	Game struct {
		// ID is assigned when the game is created and never changes.
		ID ID `json:"id"`
		// Status only moves forward: waiting, playing, then finished.
		Status Status `json:"status"`
		// Player1ID identifies the player who created the game.
		Player1ID string `json:"player1Id"`
		// Player2ID identifies the player who joined the game.  It is empty while the game is waiting.
		Player2ID string `json:"player2Id,omitempty"`
		// CurrentTarget is the only number that can be claimed.  It is LastNumber+1 when the game is finished.
		CurrentTarget int `json:"currentTarget"`
		// Positions is the layout of the board, shared by both players.
		Positions []Position `json:"positions"`
		// TakenBy records which player claimed each number.
		TakenBy map[int]Role `json:"takenBy"`
		// P1Score is the amount of numbers claimed by player 1.
		P1Score int `json:"p1Score"`
		// P2Score is the amount of numbers claimed by player 2.
		P2Score int `json:"p2Score"`
		// Created is the game's creation time in seconds since the unix epoch.
		Created int64 `json:"created"`
	}
)

// New creates a game that is waiting for a second player.
func New(id ID, playerID string, positions []Position, created int64) *Game {
	g := Game{
		ID:            id,
		Status:        Waiting,
		Player1ID:     playerID,
		CurrentTarget: FirstNumber,
		Positions:     positions,
		TakenBy:       make(map[int]Role),
		Created:       created,
	}
	return &g
}

// RoleOf determines the role of the player in the game.
// When the same player is both players, the player is treated as player 1.
func (g Game) RoleOf(playerID string) (Role, bool) {
	switch {
	case len(playerID) == 0:
		return "", false
	case playerID == g.Player1ID:
		return Player1, true
	case playerID == g.Player2ID:
		return Player2, true
	}
	return "", false
}

// Check determines the role the player would claim the number with.
// The errors are checked in order: the status, the participant, and the number.
// Claims of numbers that were taken before the game finished are stale, not invalid, so the loser of the last number is told it was too slow.
func (g Game) Check(playerID string, number int) (Role, error) {
	takenBeforeFinish := g.Status == Finished && number < g.CurrentTarget
	if g.Status != Playing && !takenBeforeFinish {
		return "", fmt.Errorf("game %v is %v: %w", g.ID, g.Status, ErrInvalidState)
	}
	role, ok := g.RoleOf(playerID)
	if !ok {
		return "", fmt.Errorf("player %q is not in game %v: %w", playerID, g.ID, ErrNotParticipant)
	}
	if number != g.CurrentTarget {
		return "", fmt.Errorf("claiming %d when the target is %d: %w", number, g.CurrentTarget, ErrStaleClaim)
	}
	return role, nil
}

// Join creates a copy of the waiting game with the second player added.
func (g Game) Join(playerID string) (*Game, error) {
	if g.Status != Waiting || len(g.Player2ID) != 0 {
		return nil, fmt.Errorf("joining game %v that is %v: %w", g.ID, g.Status, ErrInvalidState)
	}
	g2 := g.Copy()
	g2.Player2ID = playerID
	g2.Status = Playing
	return g2, nil
}

// Claim creates a copy of the game where the number is claimed by the role.
// The number must be the current target of a game that is playing.
func (g Game) Claim(number int, role Role) (*Game, error) {
	switch {
	case g.Status != Playing, number != g.CurrentTarget:
		return nil, fmt.Errorf("claiming %d on game %v with target %d: %w", number, g.ID, g.CurrentTarget, ErrStaleClaim)
	case !role.Valid():
		return nil, fmt.Errorf("invalid role: %q", role)
	}
	g2 := g.Copy()
	g2.TakenBy[number] = role
	g2.CurrentTarget = number + 1
	switch role {
	case Player1:
		g2.P1Score++
	case Player2:
		g2.P2Score++
	}
	g2.Status = StatusAfterClaim(number)
	return g2, nil
}

// StatusAfterClaim is the status of a playing game after the number is claimed.
func StatusAfterClaim(number int) Status {
	if number >= LastNumber {
		return Finished
	}
	return Playing
}

// Copy creates a deep copy of the game.
func (g Game) Copy() *Game {
	positions := make([]Position, len(g.Positions))
	copy(positions, g.Positions)
	takenBy := make(map[int]Role, len(g.TakenBy))
	for n, r := range g.TakenBy {
		takenBy[n] = r
	}
	g.Positions = positions
	g.TakenBy = takenBy
	return &g
}

// Validate checks the invariants of the game.
func (g Game) Validate() error {
	switch {
	case len(g.ID) == 0:
		return fmt.Errorf("id required")
	case !g.Status.Valid():
		return fmt.Errorf("invalid status: %q", g.Status)
	case len(g.Player1ID) == 0:
		return fmt.Errorf("player 1 required")
	case g.CurrentTarget < FirstNumber || g.CurrentTarget > LastNumber+1:
		return fmt.Errorf("target %d out of range", g.CurrentTarget)
	case g.P1Score < 0 || g.P2Score < 0:
		return fmt.Errorf("negative score: p1: %d, p2: %d", g.P1Score, g.P2Score)
	case g.P1Score+g.P2Score != g.CurrentTarget-1:
		return fmt.Errorf("scores %d+%d do not add up to %d claimed numbers", g.P1Score, g.P2Score, g.CurrentTarget-1)
	case len(g.TakenBy) != g.CurrentTarget-1:
		return fmt.Errorf("%d numbers taken, wanted %d", len(g.TakenBy), g.CurrentTarget-1)
	case (g.Status == Finished) != (g.CurrentTarget > LastNumber):
		return fmt.Errorf("status %v with target %d", g.Status, g.CurrentTarget)
	case g.Status == Waiting && len(g.Player2ID) != 0:
		return fmt.Errorf("waiting game has player 2")
	case g.Status != Waiting && len(g.Player2ID) == 0:
		return fmt.Errorf("%v game has no player 2", g.Status)
	}
	var p1Count, p2Count int
	for n := FirstNumber; n < g.CurrentTarget; n++ {
		switch g.TakenBy[n] {
		case Player1:
			p1Count++
		case Player2:
			p2Count++
		default:
			return fmt.Errorf("number %d not taken by a player: %q", n, g.TakenBy[n])
		}
	}
	if p1Count != g.P1Score || p2Count != g.P2Score {
		return fmt.Errorf("scores p1: %d, p2: %d do not match taken numbers p1: %d, p2: %d", g.P1Score, g.P2Score, p1Count, p2Count)
	}
	if err := validatePositions(g.Positions); err != nil {
		return fmt.Errorf("invalid positions: %w", err)
	}
	return nil
}
