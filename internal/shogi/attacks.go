package shogi

// Ray directions, ordered so the first four run toward lower square
// indices (blocker found with MSB) and the rest toward higher ones
// (blocker found with LSB).
const (
	dirN = iota // toward rank a
	dirE
	dirNE
	dirNW
	dirS
	dirW
	dirSE
	dirSW
	dirCount
)

var dirDelta = [dirCount][2]int{ // {df, dr}
	dirN:  {0, -1},
	dirE:  {-1, 0},
	dirNE: {-1, -1},
	dirNW: {1, -1},
	dirS:  {0, 1},
	dirW:  {1, 0},
	dirSE: {-1, 1},
	dirSW: {1, 1},
}

// Pre-computed attack tables for step-moving pieces.
var (
	pawnAttacks   [2][SquareCount]Bitboard
	knightAttacks [2][SquareCount]Bitboard
	silverAttacks [2][SquareCount]Bitboard
	goldAttacks   [2][SquareCount]Bitboard
	kingAttacks   [SquareCount]Bitboard

	rayBB     [dirCount][SquareCount]Bitboard
	betweenBB [SquareCount][SquareCount]Bitboard
	lineBB    [SquareCount][SquareCount]Bitboard
)

func init() {
	initStepAttacks()
	initRays()
	initLines()
}

// stepTargets builds a bitboard of in-bounds steps from sq.
func stepTargets(sq Square, steps [][2]int) Bitboard {
	bb := EmptyBB
	f, r := sq.File(), sq.Rank()
	for _, s := range steps {
		nf, nr := f+s[0], r+s[1]
		if nf >= 0 && nf <= 8 && nr >= 0 && nr <= 8 {
			bb = bb.Set(NewSquare(nf, nr))
		}
	}
	return bb
}

func initStepAttacks() {
	// Steps are given for Black; White mirrors the rank delta.
	pawnSteps := [][2]int{{0, -1}}
	knightSteps := [][2]int{{-1, -2}, {1, -2}}
	silverSteps := [][2]int{{0, -1}, {-1, -1}, {1, -1}, {-1, 1}, {1, 1}}
	goldSteps := [][2]int{{0, -1}, {-1, -1}, {1, -1}, {-1, 0}, {1, 0}, {0, 1}}
	kingSteps := [][2]int{
		{0, -1}, {-1, -1}, {1, -1}, {-1, 0}, {1, 0}, {0, 1}, {-1, 1}, {1, 1},
	}

	mirror := func(steps [][2]int) [][2]int {
		out := make([][2]int, len(steps))
		for i, s := range steps {
			out[i] = [2]int{s[0], -s[1]}
		}
		return out
	}

	for sq := Square(0); sq < SquareCount; sq++ {
		pawnAttacks[Black][sq] = stepTargets(sq, pawnSteps)
		pawnAttacks[White][sq] = stepTargets(sq, mirror(pawnSteps))
		knightAttacks[Black][sq] = stepTargets(sq, knightSteps)
		knightAttacks[White][sq] = stepTargets(sq, mirror(knightSteps))
		silverAttacks[Black][sq] = stepTargets(sq, silverSteps)
		silverAttacks[White][sq] = stepTargets(sq, mirror(silverSteps))
		goldAttacks[Black][sq] = stepTargets(sq, goldSteps)
		goldAttacks[White][sq] = stepTargets(sq, mirror(goldSteps))
		kingAttacks[sq] = stepTargets(sq, kingSteps)
	}
}

func initRays() {
	for dir := 0; dir < dirCount; dir++ {
		df, dr := dirDelta[dir][0], dirDelta[dir][1]
		for sq := Square(0); sq < SquareCount; sq++ {
			bb := EmptyBB
			f, r := sq.File()+df, sq.Rank()+dr
			for f >= 0 && f <= 8 && r >= 0 && r <= 8 {
				bb = bb.Set(NewSquare(f, r))
				f += df
				r += dr
			}
			rayBB[dir][sq] = bb
		}
	}
}

func initLines() {
	for dir := 0; dir < dirCount; dir++ {
		for sq := Square(0); sq < SquareCount; sq++ {
			ray := rayBB[dir][sq]
			rest := ray
			for rest.Any() {
				to := rest.PopLSB()
				betweenBB[sq][to] = ray.AndNot(rayBB[dir][to]).Clear(to)
				lineBB[sq][to] = rayBB[dir][sq].Or(rayBB[oppositeDir(dir)][sq]).Set(sq)
			}
		}
	}
}

func oppositeDir(dir int) int {
	if dir < dirS {
		return dir + dirS
	}
	return dir - dirS
}

// slidingAttacks returns the squares reachable from sq along dir, up to
// and including the first occupied square.
func slidingAttacks(dir int, sq Square, occ Bitboard) Bitboard {
	ray := rayBB[dir][sq]
	blockers := ray.And(occ)
	if blockers.IsEmpty() {
		return ray
	}
	var first Square
	if dir < dirS {
		first = blockers.MSB()
	} else {
		first = blockers.LSB()
	}
	return ray.AndNot(rayBB[dir][first])
}

// PawnAttacks returns the pawn attack bitboard for a square and color.
func PawnAttacks(c Color, sq Square) Bitboard {
	return pawnAttacks[c][sq]
}

// KnightAttacks returns the knight attack bitboard for a square and color.
func KnightAttacks(c Color, sq Square) Bitboard {
	return knightAttacks[c][sq]
}

// SilverAttacks returns the silver attack bitboard for a square and color.
func SilverAttacks(c Color, sq Square) Bitboard {
	return silverAttacks[c][sq]
}

// GoldAttacks returns the gold attack bitboard for a square and color.
// Promoted pawns, lances, knights and silvers all move this way.
func GoldAttacks(c Color, sq Square) Bitboard {
	return goldAttacks[c][sq]
}

// KingAttacks returns the king attack bitboard for a square.
func KingAttacks(sq Square) Bitboard {
	return kingAttacks[sq]
}

// LanceAttacks returns the lance attack bitboard with the given occupancy.
func LanceAttacks(c Color, sq Square, occ Bitboard) Bitboard {
	if c == Black {
		return slidingAttacks(dirN, sq, occ)
	}
	return slidingAttacks(dirS, sq, occ)
}

// BishopAttacks returns the bishop attack bitboard with the given occupancy.
func BishopAttacks(sq Square, occ Bitboard) Bitboard {
	return slidingAttacks(dirNE, sq, occ).
		Or(slidingAttacks(dirNW, sq, occ)).
		Or(slidingAttacks(dirSE, sq, occ)).
		Or(slidingAttacks(dirSW, sq, occ))
}

// RookAttacks returns the rook attack bitboard with the given occupancy.
func RookAttacks(sq Square, occ Bitboard) Bitboard {
	return slidingAttacks(dirN, sq, occ).
		Or(slidingAttacks(dirS, sq, occ)).
		Or(slidingAttacks(dirE, sq, occ)).
		Or(slidingAttacks(dirW, sq, occ))
}

// HorseAttacks returns the promoted-bishop attack bitboard.
func HorseAttacks(sq Square, occ Bitboard) Bitboard {
	return BishopAttacks(sq, occ).Or(kingAttacks[sq])
}

// DragonAttacks returns the promoted-rook attack bitboard.
func DragonAttacks(sq Square, occ Bitboard) Bitboard {
	return RookAttacks(sq, occ).Or(kingAttacks[sq])
}

// AttacksFrom returns the attack bitboard of a piece of the given kind
// and color standing on sq. Dispatch is a flat switch on the kind so move
// generation stays branch-predictable and allocation-free.
func AttacksFrom(pt PieceType, c Color, sq Square, occ Bitboard) Bitboard {
	switch pt {
	case Pawn:
		return pawnAttacks[c][sq]
	case Lance:
		return LanceAttacks(c, sq, occ)
	case Knight:
		return knightAttacks[c][sq]
	case Silver:
		return silverAttacks[c][sq]
	case Gold, ProPawn, ProLance, ProKnight, ProSilver:
		return goldAttacks[c][sq]
	case Bishop:
		return BishopAttacks(sq, occ)
	case Rook:
		return RookAttacks(sq, occ)
	case Horse:
		return HorseAttacks(sq, occ)
	case Dragon:
		return DragonAttacks(sq, occ)
	case King:
		return kingAttacks[sq]
	}
	return EmptyBB
}

// Between returns the squares strictly between two squares, or empty if
// they do not share a rank, file or diagonal.
func Between(sq1, sq2 Square) Bitboard {
	return betweenBB[sq1][sq2]
}

// Aligned returns true if sq3 lies on the line through sq1 and sq2.
func Aligned(sq1, sq2, sq3 Square) bool {
	return lineBB[sq1][sq2].IsSet(sq3)
}
