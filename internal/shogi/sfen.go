package shogi

import (
	"fmt"
	"strconv"
	"strings"
)

// StartSFEN is the even-game starting position.
const StartSFEN = "lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b - 1"

// maxHandCount caps hand counts at the number of each piece in the
// game, indexed by PieceType.
var maxHandCount = [HandPieceCount]int{18, 4, 4, 4, 4, 2, 2}

// ParseSFEN parses an SFEN record into a Position.
func ParseSFEN(sfen string) (*Position, error) {
	fields := strings.Fields(strings.TrimSpace(sfen))
	if len(fields) < 3 {
		return nil, fmt.Errorf("sfen %q: want at least 3 fields, got %d", sfen, len(fields))
	}

	p := &Position{}
	for i := range p.Board {
		p.Board[i] = NoPiece
	}
	p.KingSq = [2]Square{NoSquare, NoSquare}

	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 9 {
		return nil, fmt.Errorf("sfen %q: want 9 ranks, got %d", sfen, len(ranks))
	}
	for rank, row := range ranks {
		file := 8
		promoted := false
		for i := 0; i < len(row); i++ {
			ch := row[i]
			switch {
			case ch == '+':
				promoted = true
				continue
			case ch >= '1' && ch <= '9':
				if promoted {
					return nil, fmt.Errorf("sfen %q: dangling '+' in rank %d", sfen, rank+1)
				}
				file -= int(ch - '0')
			default:
				if file < 0 {
					return nil, fmt.Errorf("sfen %q: rank %d overflows", sfen, rank+1)
				}
				c := Black
				if ch >= 'a' && ch <= 'z' {
					c = White
					ch -= 'a' - 'A'
				}
				pt := PieceTypeFromUSI(ch)
				if pt == NoPieceType {
					return nil, fmt.Errorf("sfen %q: bad piece %q", sfen, string(ch))
				}
				if promoted {
					pt = pt.Promote()
					if pt == NoPieceType {
						return nil, fmt.Errorf("sfen %q: %q cannot promote", sfen, string(ch))
					}
					promoted = false
				}
				p.putPiece(NewPiece(pt, c), NewSquare(file, rank))
				file--
			}
		}
		if file != -1 {
			return nil, fmt.Errorf("sfen %q: rank %d has %d files", sfen, rank+1, 8-file)
		}
	}

	switch fields[1] {
	case "b":
		p.SideToMove = Black
	case "w":
		p.SideToMove = White
	default:
		return nil, fmt.Errorf("sfen %q: bad side %q", sfen, fields[1])
	}

	if fields[2] != "-" {
		count := 0
		for i := 0; i < len(fields[2]); i++ {
			ch := fields[2][i]
			if ch >= '0' && ch <= '9' {
				count = count*10 + int(ch-'0')
				continue
			}
			c := Black
			if ch >= 'a' && ch <= 'z' {
				c = White
				ch -= 'a' - 'A'
			}
			pt := PieceTypeFromUSI(ch)
			if pt == NoPieceType || pt >= King {
				return nil, fmt.Errorf("sfen %q: bad hand piece %q", sfen, string(ch))
			}
			if count == 0 {
				count = 1
			}
			if count > maxHandCount[pt] {
				return nil, fmt.Errorf("sfen %q: %d in hand exceeds the %d %v in the game",
					sfen, count, maxHandCount[pt], pt)
			}
			for ; count > 0; count-- {
				p.Hands[c] = p.Hands[c].Add(pt)
			}
		}
	}

	p.MoveNumber = 1
	if len(fields) >= 4 {
		n, err := strconv.Atoi(fields[3])
		if err != nil || n < 1 {
			return nil, fmt.Errorf("sfen %q: bad move number %q", sfen, fields[3])
		}
		p.MoveNumber = n
	}

	if p.KingSq[Black] == NoSquare || p.KingSq[White] == NoSquare {
		return nil, fmt.Errorf("sfen %q: both kings required", sfen)
	}
	p.recompute()
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("sfen %q: %w", sfen, err)
	}
	return p, nil
}

// SFEN serializes the position back to SFEN.
func (p *Position) SFEN() string {
	var sb strings.Builder
	for rank := 0; rank < 9; rank++ {
		if rank > 0 {
			sb.WriteByte('/')
		}
		empty := 0
		for file := 8; file >= 0; file-- {
			pc := p.Board[NewSquare(file, rank)]
			if pc == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteString(pc.String())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
	}

	if p.SideToMove == Black {
		sb.WriteString(" b ")
	} else {
		sb.WriteString(" w ")
	}

	if p.Hands[Black].IsEmpty() && p.Hands[White].IsEmpty() {
		sb.WriteByte('-')
	} else {
		for c := Black; c <= White; c++ {
			for _, pt := range handOrder {
				n := p.Hands[c].Count(pt)
				if n == 0 {
					continue
				}
				if n > 1 {
					sb.WriteString(strconv.Itoa(n))
				}
				s := pt.USI()
				if c == White {
					s = strings.ToLower(s)
				}
				sb.WriteString(s)
			}
		}
	}

	sb.WriteString(" " + strconv.Itoa(p.MoveNumber))
	return sb.String()
}
