package shogi

import "testing"

func mustParse(t *testing.T, sfen string) *Position {
	t.Helper()
	pos, err := ParseSFEN(sfen)
	if err != nil {
		t.Fatalf("ParseSFEN(%q): %v", sfen, err)
	}
	return pos
}

func TestCheckmate(t *testing.T) {
	// White king cornered on 1a, checked by a gold on 1b that the black
	// king on 1c defends. Every escape square is covered by the gold.
	pos := mustParse(t, "8k/8G/8K/9/9/9/9/9/9 w - 1")

	t.Log("Checkers:", pos.Checkers)
	t.Log("InCheck:", pos.InCheck())

	var ml MoveList
	pos.GenerateMoves(&ml)
	for i := 0; i < ml.Count; i++ {
		t.Log("  Move:", ml.Moves[i])
	}

	if !pos.IsCheckmate() {
		t.Error("expected checkmate")
	}
}

func TestNotCheckmateKingCaptures(t *testing.T) {
	// Same shape without the defending king nearby: the checking gold
	// is loose, so the white king just takes it.
	pos := mustParse(t, "8k/8G/9/8K/9/9/9/9/9 w - 1")

	if !pos.InCheck() {
		t.Fatal("expected check")
	}
	if pos.IsCheckmate() {
		t.Error("king can capture the gold, not checkmate")
	}

	var ml MoveList
	pos.GenerateMoves(&ml)
	capture, err := pos.ParseUSIMove("1a1b")
	if err != nil {
		t.Fatal(err)
	}
	if !ml.Contains(capture) {
		t.Error("capture of the checking gold not generated")
	}
}

func TestStalemateNoMoves(t *testing.T) {
	// Black has only a cornered king and a pawn blocked by it. The
	// white rook on 2i covers both escape squares without checking.
	pos := mustParse(t, "8K/8P/9/9/k8/9/9/9/7r1 b - 1")

	if pos.InCheck() {
		t.Fatal("position should not be check")
	}
	if pos.HasLegalMoves() {
		var ml MoveList
		pos.GenerateMoves(&ml)
		for i := 0; i < ml.Count; i++ {
			t.Log("  unexpected move:", ml.Moves[i])
		}
		t.Fatal("expected no legal moves")
	}
	if !pos.IsStalemate() {
		t.Error("expected stalemate")
	}
}

func TestPawnDropMateForbidden(t *testing.T) {
	// P*1b would mate the white king outright: its own lance and pawn
	// block 2a and 2b, and the black king defends the dropped pawn.
	// The drop must not be generated. A gold drop mating the same way
	// is fine.
	pos := mustParse(t, "7lk/7p1/8K/9/9/9/9/9/9 b P 1")

	var ml MoveList
	pos.GenerateMoves(&ml)
	drop := NewDropMove(Pawn, NewSquare(0, 1))
	if ml.Contains(drop) {
		t.Errorf("pawn drop mate %s generated", drop)
	}

	pos = mustParse(t, "7lk/7p1/8K/9/9/9/9/9/9 b G 1")
	pos.GenerateMoves(&ml)
	goldDrop := NewDropMove(Gold, NewSquare(0, 1))
	if !ml.Contains(goldDrop) {
		t.Fatalf("gold drop %s not generated", goldDrop)
	}
	undo := pos.MakeMove(goldDrop)
	if !pos.IsCheckmate() {
		t.Error("gold drop should mate")
	}
	pos.UnmakeMove(goldDrop, undo)
}

func TestPawnDropCheckAllowed(t *testing.T) {
	// A pawn drop that merely checks is legal when the king can run.
	pos := mustParse(t, "8k/9/8K/9/9/9/9/9/9 b P 1")

	var ml MoveList
	pos.GenerateMoves(&ml)
	drop := NewDropMove(Pawn, NewSquare(0, 1))
	if !ml.Contains(drop) {
		t.Errorf("checking pawn drop %s not generated", drop)
	}
}

func TestParseUSIMoveRejectsIllegal(t *testing.T) {
	pos := NewPosition()

	if _, err := pos.ParseUSIMove("7g7f"); err != nil {
		t.Fatalf("legal move rejected: %v", err)
	}

	// Well-formed notation, illegal moves.
	if _, err := pos.ParseUSIMove("3c3d"); err == nil {
		t.Error("opponent's pawn push accepted with Black to move")
	}
	if _, err := pos.ParseUSIMove("P*5e"); err == nil {
		t.Error("pawn drop from an empty hand accepted")
	}
	if _, err := pos.ParseUSIMove("5i5a"); err == nil {
		t.Error("king teleport accepted")
	}
}

func TestNifu(t *testing.T) {
	// One unpromoted pawn per file already: no pawn drop anywhere.
	pos := mustParse(t, "9/9/9/9/9/9/PPPPPPPPP/9/K7k b P 1")

	var ml MoveList
	pos.GenerateMoves(&ml)
	for i := 0; i < ml.Count; i++ {
		m := ml.Moves[i]
		if m.IsDrop() && m.Piece() == Pawn {
			t.Errorf("two-pawn drop generated: %s", m)
		}
	}
}

func TestDeadPieceDrops(t *testing.T) {
	pos := mustParse(t, "9/9/9/9/9/9/9/9/K7k b LN 1")

	var ml MoveList
	pos.GenerateMoves(&ml)
	for i := 0; i < ml.Count; i++ {
		m := ml.Moves[i]
		if !m.IsDrop() {
			continue
		}
		r := m.To().Rank()
		switch m.Piece() {
		case Lance:
			if r == 0 {
				t.Errorf("lance dropped on last rank: %s", m)
			}
		case Knight:
			if r <= 1 {
				t.Errorf("knight dropped on last two ranks: %s", m)
			}
		}
	}
}

func TestForcedPromotion(t *testing.T) {
	// A pawn stepping onto the last rank must promote.
	pos := mustParse(t, "9/P8/9/9/9/9/9/9/K7k b - 1")

	var ml MoveList
	pos.GenerateMoves(&ml)
	promo, err := pos.ParseUSIMove("9b9a+")
	if err != nil {
		t.Fatal(err)
	}
	if !ml.Contains(promo) {
		t.Error("forced promotion not generated")
	}
	plain := NewMove(NewSquare(8, 1), NewSquare(8, 0), Pawn, false)
	if ml.Contains(plain) {
		t.Error("unpromoted pawn move to last rank generated")
	}
}

func TestOptionalPromotion(t *testing.T) {
	// A silver entering the zone may promote or stay.
	pos := mustParse(t, "9/9/9/S8/9/9/9/9/K7k b - 1")

	var ml MoveList
	pos.GenerateMoves(&ml)
	to := NewSquare(8, 2)
	from := NewSquare(8, 3)
	if !ml.Contains(NewMove(from, to, Silver, true)) {
		t.Error("promotion option not generated")
	}
	if !ml.Contains(NewMove(from, to, Silver, false)) {
		t.Error("non-promotion option not generated")
	}
}

func TestPinnedPieceMoves(t *testing.T) {
	// The black silver on 5e is pinned to its king on 5a by the white
	// rook on 5i and may only slide along the file.
	pos := mustParse(t, "4K3k/9/9/9/4S4/9/9/9/4r4 b - 1")

	if !pos.Pinned.IsSet(NewSquare(4, 4)) {
		t.Fatal("silver should be pinned")
	}

	var ml MoveList
	pos.GenerateMoves(&ml)
	for i := 0; i < ml.Count; i++ {
		m := ml.Moves[i]
		if m.IsDrop() || m.From() != NewSquare(4, 4) {
			continue
		}
		if m.To().File() != 4 {
			t.Errorf("pinned silver left the file: %s", m)
		}
	}
}

func TestDeclareWin(t *testing.T) {
	pos := mustParse(t, "B2G1K1R1/GGSSNNLLP/9/9/9/9/9/9/4k4 b RB2P 1")
	if !pos.CanDeclareWin() {
		points, invaders := pos.declarationPoints(Black)
		t.Errorf("declaration refused: %d points, %d invaders", points, invaders)
	}

	// Same material but the king still outside the camp.
	pos = mustParse(t, "B2G2R2/GGSSNNLLP/9/4K4/9/9/9/9/4k4 b RB2P 1")
	if pos.CanDeclareWin() {
		t.Error("declaration allowed with king outside the camp")
	}
}
