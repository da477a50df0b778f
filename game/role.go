package game

// Role is the identity of a participant within a single game.
type Role string

const (
	// Player1 is the role of the player that created the game.
	Player1 Role = "p1"
	// Player2 is the role of the player that joined the game.
	Player2 Role = "p2"
)

// Valid determines if the role is one of the two players.
func (r Role) Valid() bool {
	return r == Player1 || r == Player2
}
