package shogi

// Zobrist keys for incremental position hashing. Hand counts are hashed
// by indexing a key per (color, kind, count) so adding or removing a
// piece in hand is two XORs.
var (
	zobristPiece [2][PieceTypeCount][SquareCount]uint64
	zobristHand  [2][HandPieceCount][19]uint64
	zobristSide  uint64
)

// xorshift64star is deterministic so hashes are stable across runs,
// which keeps persisted analysis entries valid.
type xorshift64star struct{ state uint64 }

func (r *xorshift64star) next() uint64 {
	r.state ^= r.state >> 12
	r.state ^= r.state << 25
	r.state ^= r.state >> 27
	return r.state * 0x2545F4914F6CDD1D
}

func init() {
	rng := xorshift64star{state: 0x9E3779B97F4A7C15}
	for c := 0; c < 2; c++ {
		for pt := 0; pt < PieceTypeCount; pt++ {
			for sq := 0; sq < int(SquareCount); sq++ {
				zobristPiece[c][pt][sq] = rng.next()
			}
		}
	}
	for c := 0; c < 2; c++ {
		for pt := 0; pt < HandPieceCount; pt++ {
			// Count 0 hashes to zero so an empty hand is a no-op.
			for n := 1; n < 19; n++ {
				zobristHand[c][pt][n] = rng.next()
			}
		}
	}
	zobristSide = rng.next()
}

func pieceKey(pc Piece, sq Square) uint64 {
	return zobristPiece[pc.Color()][pc.Type()][sq]
}

func handKey(c Color, pt PieceType, count int) uint64 {
	return zobristHand[c][pt][count]
}
