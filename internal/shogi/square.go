// Package shogi implements shogi board representation using bitboards.
package shogi

import "fmt"

// Square represents a square on the shogi board (0-80).
// Index = rank*9 + file, where file 0 is file "1" (the right edge from
// Black's side) and rank 0 is rank "a" (the top). Black moves toward rank a.
type Square uint8

// NoSquare marks an invalid square (also the "from" of a drop).
const NoSquare Square = 81

// SquareCount is the number of squares on the board.
const SquareCount = 81

// NewSquare creates a square from file and rank (0-indexed).
func NewSquare(file, rank int) Square {
	return Square(rank*9 + file)
}

// File returns the file of the square (0-8, where 0 is file "1").
func (sq Square) File() int {
	return int(sq) % 9
}

// Rank returns the rank of the square (0-8, where 0 is rank "a").
func (sq Square) Rank() int {
	return int(sq) / 9
}

// IsValid returns true if the square is a valid board square (0-80).
func (sq Square) IsValid() bool {
	return sq < SquareCount
}

// Flip returns the square rotated 180 degrees (the same square seen from
// the other player's side).
func (sq Square) Flip() Square {
	return Square(80) - sq
}

// RelativeRank returns the rank from the given color's perspective.
// For Black rank 0 is rank a (the far side); for White rank 0 is rank i.
func (sq Square) RelativeRank(c Color) int {
	if c == Black {
		return sq.Rank()
	}
	return 8 - sq.Rank()
}

// String returns the USI notation for the square (e.g. "7g").
func (sq Square) String() string {
	if !sq.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%d%c", sq.File()+1, 'a'+sq.Rank())
}

// ParseSquare parses USI square notation (e.g. "7g") into a Square.
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return NoSquare, fmt.Errorf("invalid square: %s", s)
	}

	file := int(s[0] - '1')
	rank := int(s[1] - 'a')

	if file < 0 || file > 8 || rank < 0 || rank > 8 {
		return NoSquare, fmt.Errorf("invalid square: %s", s)
	}

	return NewSquare(file, rank), nil
}
