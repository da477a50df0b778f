package game

import "fmt"

// Layout bounds of the board, in percent of the display area.
// The top of the board is reserved for the header that shows the target and scores.
const (
	minX = 5
	maxX = 95
	minY = 10
	maxY = 95
)

// Position is where a number is shown on the board.
type Position struct {
	// Value is the number on the board.
	Value int `json:"value"`
	// X is the horizontal coordinate of the number, in percent of the width of the board.
	X int `json:"x"`
	// Y is the vertical coordinate of the number, in percent of the height of the board.
	Y int `json:"y"`
}

// RandomLayout places each number from FirstNumber to LastNumber at a random position.
// The intn func should return a random integer in [0,n), such as rand.Intn.
// Positions are ordered by value.
func RandomLayout(intn func(n int) int) []Position {
	positions := make([]Position, 0, LastNumber)
	for v := FirstNumber; v <= LastNumber; v++ {
		p := Position{
			Value: v,
			X:     minX + intn(maxX-minX),
			Y:     minY + intn(maxY-minY),
		}
		positions = append(positions, p)
	}
	return positions
}

// validatePositions ensures each number on the board has exactly one position, in order.
func validatePositions(positions []Position) error {
	if want, got := LastNumber-FirstNumber+1, len(positions); want != got {
		return fmt.Errorf("wanted %d positions, got %d", want, got)
	}
	for i, p := range positions {
		switch {
		case p.Value != FirstNumber+i:
			return fmt.Errorf("position %d has value %d", i, p.Value)
		case p.X < minX || p.X >= maxX:
			return fmt.Errorf("x coordinate of %d out of range: %d", p.Value, p.X)
		case p.Y < minY || p.Y >= maxY:
			return fmt.Errorf("y coordinate of %d out of range: %d", p.Value, p.Y)
		}
	}
	return nil
}
