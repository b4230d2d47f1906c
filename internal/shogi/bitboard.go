package shogi

import (
	"math/bits"
	"strings"
)

// Bitboard represents the 81 squares of the board as a pair of 64-bit words.
// Squares 0-63 live in lo, squares 64-80 in the low 17 bits of hi.
type Bitboard struct {
	lo, hi uint64
}

const hiMask = (uint64(1) << 17) - 1

// EmptyBB is the empty bitboard.
var EmptyBB = Bitboard{}

// FullBB has every board square set.
var FullBB = Bitboard{lo: ^uint64(0), hi: hiMask}

// SquareBB returns a bitboard with only the given square set.
func SquareBB(sq Square) Bitboard {
	if sq < 64 {
		return Bitboard{lo: 1 << sq}
	}
	return Bitboard{hi: 1 << (sq - 64)}
}

// And returns the intersection of two bitboards.
func (b Bitboard) And(o Bitboard) Bitboard {
	return Bitboard{b.lo & o.lo, b.hi & o.hi}
}

// Or returns the union of two bitboards.
func (b Bitboard) Or(o Bitboard) Bitboard {
	return Bitboard{b.lo | o.lo, b.hi | o.hi}
}

// Xor returns the symmetric difference of two bitboards.
func (b Bitboard) Xor(o Bitboard) Bitboard {
	return Bitboard{b.lo ^ o.lo, b.hi ^ o.hi}
}

// AndNot returns the squares of b not in o.
func (b Bitboard) AndNot(o Bitboard) Bitboard {
	return Bitboard{b.lo &^ o.lo, b.hi &^ o.hi}
}

// Not returns the complement within the 81 board squares.
func (b Bitboard) Not() Bitboard {
	return Bitboard{^b.lo, ^b.hi & hiMask}
}

// Set returns the bitboard with the given square set.
func (b Bitboard) Set(sq Square) Bitboard {
	return b.Or(SquareBB(sq))
}

// Clear returns the bitboard with the given square cleared.
func (b Bitboard) Clear(sq Square) Bitboard {
	return b.AndNot(SquareBB(sq))
}

// IsSet returns true if the square's bit is set.
func (b Bitboard) IsSet(sq Square) bool {
	if sq < 64 {
		return b.lo&(1<<sq) != 0
	}
	return b.hi&(1<<(sq-64)) != 0
}

// Any returns true if any bit is set.
func (b Bitboard) Any() bool {
	return b.lo != 0 || b.hi != 0
}

// IsEmpty returns true if no bits are set.
func (b Bitboard) IsEmpty() bool {
	return b.lo == 0 && b.hi == 0
}

// PopCount returns the number of set bits.
func (b Bitboard) PopCount() int {
	return bits.OnesCount64(b.lo) + bits.OnesCount64(b.hi)
}

// LSB returns the lowest set square index.
func (b Bitboard) LSB() Square {
	if b.lo != 0 {
		return Square(bits.TrailingZeros64(b.lo))
	}
	if b.hi != 0 {
		return Square(64 + bits.TrailingZeros64(b.hi))
	}
	return NoSquare
}

// MSB returns the highest set square index.
func (b Bitboard) MSB() Square {
	if b.hi != 0 {
		return Square(64 + 63 - bits.LeadingZeros64(b.hi))
	}
	if b.lo != 0 {
		return Square(63 - bits.LeadingZeros64(b.lo))
	}
	return NoSquare
}

// PopLSB removes and returns the lowest set square.
func (b *Bitboard) PopLSB() Square {
	if b.lo != 0 {
		sq := Square(bits.TrailingZeros64(b.lo))
		b.lo &= b.lo - 1
		return sq
	}
	if b.hi != 0 {
		sq := Square(64 + bits.TrailingZeros64(b.hi))
		b.hi &= b.hi - 1
		return sq
	}
	return NoSquare
}

// ForEach calls the function for each set square.
func (b Bitboard) ForEach(f func(Square)) {
	for b.Any() {
		f(b.PopLSB())
	}
}

// File, rank and zone masks, filled in by init below.
var (
	FileBB [9]Bitboard
	RankBB [9]Bitboard

	// PromoZoneBB is the three-rank promotion zone of each color.
	PromoZoneBB [2]Bitboard

	// lastRankBB is the rank a pawn or lance of the color can never
	// occupy; lastTwoRanksBB the same for a knight.
	lastRankBB     [2]Bitboard
	lastTwoRanksBB [2]Bitboard
)

func init() {
	for sq := Square(0); sq < SquareCount; sq++ {
		FileBB[sq.File()] = FileBB[sq.File()].Set(sq)
		RankBB[sq.Rank()] = RankBB[sq.Rank()].Set(sq)
	}

	PromoZoneBB[Black] = RankBB[0].Or(RankBB[1]).Or(RankBB[2])
	PromoZoneBB[White] = RankBB[6].Or(RankBB[7]).Or(RankBB[8])

	lastRankBB[Black] = RankBB[0]
	lastRankBB[White] = RankBB[8]
	lastTwoRanksBB[Black] = RankBB[0].Or(RankBB[1])
	lastTwoRanksBB[White] = RankBB[7].Or(RankBB[8])
}

// String returns a visual representation of the bitboard.
func (b Bitboard) String() string {
	var sb strings.Builder
	for rank := 0; rank < 9; rank++ {
		for file := 8; file >= 0; file-- {
			if b.IsSet(NewSquare(file, rank)) {
				sb.WriteString("1 ")
			} else {
				sb.WriteString(". ")
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
