package game

// Status is the state of the game.
type Status string

const (
	// Waiting is the status of a game that has one player and is waiting for another to join.
	Waiting Status = "waiting"
	// Playing is the status of a game that has two players racing to claim numbers.
	Playing Status = "playing"
	// Finished is the status of a game where all the numbers have been claimed.
	Finished Status = "finished"
)

// String returns the display value for the status.
func (s Status) String() string {
	switch s {
	case Waiting, Playing, Finished:
		return string(s)
	}
	return "?"
}

// Valid determines if the status is known.
func (s Status) Valid() bool {
	return s.String() != "?"
}
