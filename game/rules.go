package game

import "fmt"

// Rules gets the rules for the game.
func Rules() []string {
	return []string{
		"Join a game to be paired with the next player who is waiting, or wait for another player to join.",
		fmt.Sprintf("The numbers %d to %d are scattered across the board.  Both players see the same board.", FirstNumber, LastNumber),
		fmt.Sprintf("Click the numbers in order, starting with %d.  The number to click next is shown at the top of the board.", FirstNumber),
		"The first player to click the target number gets a point.  If the other player clicked it first, find the next number.",
		fmt.Sprintf("The game is over after %d is clicked.  The player with the most points wins.", LastNumber),
	}
}
