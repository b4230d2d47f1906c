package shogi

import "testing"

// TestMakeUnmakeRoundTrip walks every move two plies deep and checks
// that unmake restores the position bit for bit.
func TestMakeUnmakeRoundTrip(t *testing.T) {
	pos := NewPosition()
	var walk func(depth int)
	walk = func(depth int) {
		if depth == 0 {
			return
		}
		before := *pos
		beforeSFEN := pos.SFEN()

		var ml MoveList
		pos.GenerateMoves(&ml)
		for i := 0; i < ml.Count; i++ {
			m := ml.Moves[i]
			undo := pos.MakeMove(m)
			if err := pos.Validate(); err != nil {
				t.Fatalf("after %s: %v", m, err)
			}
			walk(depth - 1)
			pos.UnmakeMove(m, undo)

			if pos.Hash != before.Hash {
				t.Fatalf("hash not restored after %s", m)
			}
			if pos.Material != before.Material {
				t.Fatalf("material not restored after %s", m)
			}
			if pos.Hands != before.Hands {
				t.Fatalf("hands not restored after %s", m)
			}
			if pos.All != before.All || pos.Board != before.Board {
				t.Fatalf("board not restored after %s", m)
			}
			if got := pos.SFEN(); got != beforeSFEN {
				t.Fatalf("sfen changed after %s: %s", m, got)
			}
		}
	}
	walk(2)
}

// TestHashIncrementalMatchesRecompute plays a short opening and checks
// the incremental hash and material against a from-scratch rebuild.
func TestHashIncrementalMatchesRecompute(t *testing.T) {
	pos := NewPosition()
	for _, s := range []string{"7g7f", "3c3d", "8h2b+", "3a2b"} {
		m, err := pos.ParseUSIMove(s)
		if err != nil {
			t.Fatal(err)
		}
		pos.MakeMove(m)

		fresh, err := ParseSFEN(pos.SFEN())
		if err != nil {
			t.Fatal(err)
		}
		if fresh.Hash != pos.Hash {
			t.Errorf("after %s: incremental hash %x, recomputed %x", s, pos.Hash, fresh.Hash)
		}
		if fresh.Material != pos.Material {
			t.Errorf("after %s: incremental material %d, recomputed %d", s, pos.Material, fresh.Material)
		}
	}

	// The bishop trade must have put a bishop in each hand.
	if !pos.Hands[Black].Has(Bishop) {
		t.Error("black should hold a bishop")
	}
}

func TestRepetitionDetected(t *testing.T) {
	pos := NewPosition()
	for _, s := range []string{"5i5h", "5a5b", "5h5i", "5b5a"} {
		m, err := pos.ParseUSIMove(s)
		if err != nil {
			t.Fatal(err)
		}
		if pos.IsRepetition() {
			t.Fatalf("repetition flagged early, before %s", s)
		}
		pos.MakeMove(m)
	}
	if !pos.IsRepetition() {
		t.Error("fourfold shuffle not flagged as repetition")
	}
}

func TestNullMove(t *testing.T) {
	pos := NewPosition()
	hash := pos.Hash

	undo := pos.MakeNullMove()
	if pos.SideToMove != White {
		t.Error("null move did not flip side")
	}
	if pos.Hash == hash {
		t.Error("null move did not change hash")
	}
	pos.UnmakeNullMove(undo)
	if pos.Hash != hash || pos.SideToMove != Black {
		t.Error("null move not undone")
	}
}

func TestClone(t *testing.T) {
	pos := NewPosition()
	cl := pos.Clone()

	m, err := pos.ParseUSIMove("7g7f")
	if err != nil {
		t.Fatal(err)
	}
	pos.MakeMove(m)

	if cl.Hash == pos.Hash {
		t.Error("clone shares state with original")
	}
	if cl.SFEN() != StartSFEN {
		t.Errorf("clone changed: %s", cl.SFEN())
	}
}

func TestValidateRejectsBrokenPositions(t *testing.T) {
	// ParseSFEN validates, so none of these ever yield a Position.
	broken := []string{
		"9/9/9/8P/8P/9/9/9/K7k b - 1",      // two black pawns on one file
		"9/9/9/9/9/9/9/9/K8 b - 1",         // missing white king
		"K7k/9/9/9/9/9/9/9/8K b - 1",       // two black kings
		"4k4/9/9/9/4R4/9/9/9/4K4 b - 1",    // non-mover's king capturable
	}
	for _, sfen := range broken {
		if _, err := ParseSFEN(sfen); err == nil {
			t.Errorf("broken position parsed: %s", sfen)
		}
	}
}
