package eval

import "github.com/hailam/shogiplay/internal/shogi"

// tempo is a small bonus for having the move.
const tempo = 20

// mirrorPiece swaps the color of a colored piece.
func mirrorPiece(pc shogi.Piece) shogi.Piece {
	return shogi.NewPiece(pc.Type(), pc.Color().Other())
}

// Evaluate scores the position from the side to move's point of view.
// The score is the material balance, hands included, plus the KP table
// summed once per king: every piece contributes relative to the black
// king directly and relative to the white king through the mirror.
func Evaluate(p *shogi.Position, w *Weights) int {
	kb := p.KingSq[shogi.Black]
	kw := p.KingSq[shogi.White].Flip()

	var kp int
	for rest := p.All; rest.Any(); {
		sq := rest.PopLSB()
		pc := p.PieceOn(sq)
		kp += int(w.KP[kb][pc][sq])
		kp -= int(w.KP[kw][mirrorPiece(pc)][sq.Flip()])
	}

	score := p.Material + kp
	if p.SideToMove == shogi.White {
		score = -score
	}
	return score + tempo
}
