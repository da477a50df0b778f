package game

import "errors"

var (
	// ErrNotFound is returned when the game does not exist.
	ErrNotFound = errors.New("game not found")
	// ErrInvalidState is returned when a game is not in the status needed for the operation,
	// such as claiming a number in a game that is waiting or finished.
	ErrInvalidState = errors.New("game is not in playing state")
	// ErrNotParticipant is returned when a player tries to change a game they are not in.
	ErrNotParticipant = errors.New("player not in this game")
	// ErrStaleClaim is returned when the number is not the target, usually because the other player claimed it first.
	ErrStaleClaim = errors.New("too slow! number already taken")
	// ErrNoWaitingGame is returned by backends when there is no game to join.
	ErrNoWaitingGame = errors.New("no waiting game")
)
