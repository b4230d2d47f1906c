package shogi

// GenerateMoves fills ml with every legal move in the position,
// including drops. When the side to move is in check only evasions are
// produced.
func (p *Position) GenerateMoves(ml *MoveList) {
	ml.Clear()
	if p.InCheck() {
		p.generateEvasions(ml, true)
		return
	}
	us := p.SideToMove
	p.generateBoardMoves(ml, p.Occupied[us].Not())
	p.generateDrops(ml, p.All.Not(), true)
}

// GenerateCaptures fills ml with legal captures only. Callers must
// handle the in-check case themselves.
func (p *Position) GenerateCaptures(ml *MoveList) {
	ml.Clear()
	p.generateBoardMoves(ml, p.Occupied[p.SideToMove.Other()])
}

// GenerateChecks fills ml with quiet moves and drops that directly
// check the enemy king. Discovered checks are not generated.
func (p *Position) GenerateChecks(ml *MoveList) {
	ml.Clear()
	us := p.SideToMove
	them := us.Other()
	ksq := p.KingSq[them]
	empty := p.All.Not()

	// A piece of ours on sq checks the enemy king exactly when sq lies
	// in the king's attack pattern of the same kind, mirrored.
	for pt := Pawn; pt < King; pt++ {
		checkSqs := AttacksFrom(pt, them, ksq, p.All).And(empty)
		if checkSqs.IsEmpty() {
			continue
		}
		for rest := p.Pieces[us][pt]; rest.Any(); {
			from := rest.PopLSB()
			atk := AttacksFrom(pt, us, from, p.All).And(checkSqs)
			if p.Pinned.IsSet(from) {
				atk = atk.And(lineBB[p.KingSq[us]][from])
			}
			p.addMoves(ml, from, pt, atk)
		}
		if p.Hands[us].Has(pt) {
			drops := checkSqs.And(p.dropTargets(pt))
			for drops.Any() {
				to := drops.PopLSB()
				if pt == Pawn && p.pawnDropMates(to) {
					continue
				}
				ml.Add(NewDropMove(pt, to))
			}
		}
	}
}

// HasLegalMoves reports whether any legal move exists.
func (p *Position) HasLegalMoves() bool {
	var ml MoveList
	p.GenerateMoves(&ml)
	return ml.Count > 0
}

// IsCheckmate reports whether the side to move is checkmated.
func (p *Position) IsCheckmate() bool {
	return p.InCheck() && !p.HasLegalMoves()
}

// IsStalemate reports whether the side to move has no legal move while
// not in check.
func (p *Position) IsStalemate() bool {
	return !p.InCheck() && !p.HasLegalMoves()
}

func (p *Position) generateBoardMoves(ml *MoveList, targets Bitboard) {
	us := p.SideToMove
	them := us.Other()
	ksq := p.KingSq[us]

	for pt := Pawn; pt < PieceTypeCount; pt++ {
		for rest := p.Pieces[us][pt]; rest.Any(); {
			from := rest.PopLSB()
			atk := AttacksFrom(pt, us, from, p.All).And(targets)
			if pt == King {
				occ := p.All.Clear(from)
				for atk.Any() {
					to := atk.PopLSB()
					if p.attackersTo(them, to, occ).IsEmpty() {
						ml.Add(NewMove(from, to, King, false))
					}
				}
				continue
			}
			if p.Pinned.IsSet(from) {
				atk = atk.And(lineBB[ksq][from])
			}
			p.addMoves(ml, from, pt, atk)
		}
	}
}

// addMoves expands an attack set into moves, handling optional and
// forced promotion.
func (p *Position) addMoves(ml *MoveList, from Square, pt PieceType, atk Bitboard) {
	us := p.SideToMove
	zone := PromoZoneBB[us]
	fromZone := zone.IsSet(from)
	for atk.Any() {
		to := atk.PopLSB()
		if pt.CanPromote() && (fromZone || zone.IsSet(to)) {
			ml.Add(NewMove(from, to, pt, true))
			if p.mustPromote(pt, to) {
				continue
			}
		}
		ml.Add(NewMove(from, to, pt, false))
	}
}

// mustPromote reports whether a piece of the given kind would be unable
// to ever move again from to, forcing promotion.
func (p *Position) mustPromote(pt PieceType, to Square) bool {
	us := p.SideToMove
	switch pt {
	case Pawn, Lance:
		return lastRankBB[us].IsSet(to)
	case Knight:
		return lastTwoRanksBB[us].IsSet(to)
	}
	return false
}

// dropTargets returns the squares a piece of kind pt may be dropped on,
// ignoring occupancy. The dead-piece ranks are excluded for pawns,
// lances and knights, and files holding an own unpromoted pawn are
// excluded for pawns.
func (p *Position) dropTargets(pt PieceType) Bitboard {
	us := p.SideToMove
	bb := FullBB
	switch pt {
	case Pawn:
		bb = bb.AndNot(lastRankBB[us])
		for f := 0; f < 9; f++ {
			if p.Pieces[us][Pawn].And(FileBB[f]).Any() {
				bb = bb.AndNot(FileBB[f])
			}
		}
	case Lance:
		bb = bb.AndNot(lastRankBB[us])
	case Knight:
		bb = bb.AndNot(lastTwoRanksBB[us])
	}
	return bb
}

func (p *Position) generateDrops(ml *MoveList, empty Bitboard, filterDropMate bool) {
	us := p.SideToMove
	h := p.Hands[us]
	for pt := PieceType(0); pt < HandPieceCount; pt++ {
		if !h.Has(pt) {
			continue
		}
		sqs := empty.And(p.dropTargets(pt))
		for sqs.Any() {
			to := sqs.PopLSB()
			if filterDropMate && pt == Pawn && p.pawnDropMates(to) {
				continue
			}
			ml.Add(NewDropMove(pt, to))
		}
	}
}

// pawnDropMates reports whether dropping a pawn on to, giving check,
// would checkmate the opponent. Such drops are illegal.
func (p *Position) pawnDropMates(to Square) bool {
	if !pawnAttacks[p.SideToMove][to].IsSet(p.KingSq[p.SideToMove.Other()]) {
		return false
	}
	m := NewDropMove(Pawn, to)
	undo := p.MakeMove(m)
	var ml MoveList
	p.generateEvasions(&ml, false)
	p.UnmakeMove(m, undo)
	return ml.Count == 0
}

// generateEvasions produces all legal responses to a check: king moves,
// captures of a lone checker, and interpositions on a slider's line.
// filterDropMate is off inside the pawn-drop mate probe to keep the
// probe from recursing.
func (p *Position) generateEvasions(ml *MoveList, filterDropMate bool) {
	us := p.SideToMove
	them := us.Other()
	ksq := p.KingSq[us]

	// King steps, tried against occupancy without the king so a slider
	// ray through it is not mistaken for a safe square.
	occ := p.All.Clear(ksq)
	steps := kingAttacks[ksq].AndNot(p.Occupied[us])
	for steps.Any() {
		to := steps.PopLSB()
		if p.attackersTo(them, to, occ).IsEmpty() {
			ml.Add(NewMove(ksq, to, King, false))
		}
	}

	if p.Checkers.PopCount() != 1 {
		return
	}
	csq := p.Checkers.LSB()
	between := Between(ksq, csq)

	// Non-king pieces may capture the checker or block the check.
	targets := between.Set(csq)
	for pt := Pawn; pt < King; pt++ {
		for rest := p.Pieces[us][pt]; rest.Any(); {
			from := rest.PopLSB()
			atk := AttacksFrom(pt, us, from, p.All).And(targets)
			if p.Pinned.IsSet(from) {
				atk = atk.And(lineBB[ksq][from])
			}
			p.addMoves(ml, from, pt, atk)
		}
	}

	// Drops can only block, never capture.
	if between.Any() {
		p.generateDrops(ml, between, filterDropMate)
	}
}
