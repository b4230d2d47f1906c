// Package eval scores positions with material and king-relative
// piece-square tables.
package eval

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/hailam/shogiplay/internal/shogi"
)

// pieceCount covers every colored piece value a board square can hold.
const pieceCount = int(shogi.NoPiece)

// Weight file format constants
const (
	MagicNumber = 0x31504B53 // "SKP1" - shogi king-piece table format
	Version     = 1
)

// FileHeader is the header of the weight file.
type FileHeader struct {
	Magic   uint32
	Version uint32
}

// Weights holds the king-relative piece-square tables. KP[k][pc][sq] is
// the bonus, from Black's point of view, for a piece pc on sq while the
// black king stands on k. White is scored with the same table through
// the 180-degree mirror.
type Weights struct {
	KP [shogi.SquareCount][pieceCount][shogi.SquareCount]int16
}

// LoadWeights loads the tables from a binary file.
// File format:
//   - Header: Magic (4 bytes), Version (4 bytes)
//   - KP: 81 * 28 * 81 * int16, little endian
func LoadWeights(filename string) (*Weights, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open weights file: %w", err)
	}
	defer f.Close()
	return ReadWeights(f)
}

// ReadWeights reads the tables from r.
func ReadWeights(r io.Reader) (*Weights, error) {
	var header FileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if header.Magic != MagicNumber {
		return nil, fmt.Errorf("invalid magic number: expected %x, got %x", MagicNumber, header.Magic)
	}
	if header.Version != Version {
		return nil, fmt.Errorf("unsupported version: expected %d, got %d", Version, header.Version)
	}

	w := &Weights{}
	for k := 0; k < shogi.SquareCount; k++ {
		if err := binary.Read(r, binary.LittleEndian, &w.KP[k]); err != nil {
			return nil, fmt.Errorf("failed to read KP table at king %d: %w", k, err)
		}
	}
	return w, nil
}

// Save writes the tables in the binary file format.
func (w *Weights) Save(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create weights file: %w", err)
	}
	defer f.Close()

	header := FileHeader{Magic: MagicNumber, Version: Version}
	if err := binary.Write(f, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for k := 0; k < shogi.SquareCount; k++ {
		if err := binary.Write(f, binary.LittleEndian, &w.KP[k]); err != nil {
			return fmt.Errorf("failed to write KP table at king %d: %w", k, err)
		}
	}
	return nil
}

// DefaultWeights builds a usable table without a weight file: small
// bonuses for advancement, centralization and staying near the own
// king, scaled by piece kind.
func DefaultWeights() *Weights {
	w := &Weights{}
	for k := shogi.Square(0); k < shogi.SquareCount; k++ {
		for pc := 0; pc < pieceCount; pc++ {
			piece := shogi.Piece(pc)
			pt := piece.Type()
			for sq := shogi.Square(0); sq < shogi.SquareCount; sq++ {
				var v int
				if piece.Color() == shogi.Black {
					v = advanceBonus(pt, sq) + centerBonus(pt, sq) + shelterBonus(pt, k, sq)
				} else {
					v = -(advanceBonus(pt, sq.Flip()) + centerBonus(pt, sq.Flip()))
				}
				w.KP[k][pc][sq] = int16(v)
			}
		}
	}
	return w
}

// advanceBonus rewards pushing toward the enemy camp, most of all for
// pawns that are one step from promoting.
func advanceBonus(pt shogi.PieceType, sq shogi.Square) int {
	adv := 8 - sq.Rank()
	switch pt {
	case shogi.Pawn:
		return adv * 3
	case shogi.Lance, shogi.Knight:
		return adv
	case shogi.Silver, shogi.Gold:
		return adv * 2
	case shogi.King:
		return 0
	}
	return adv
}

// centerBonus nudges the big pieces toward the middle files.
func centerBonus(pt shogi.PieceType, sq shogi.Square) int {
	df := sq.File() - 4
	if df < 0 {
		df = -df
	}
	switch pt {
	case shogi.Bishop, shogi.Rook, shogi.Horse, shogi.Dragon:
		return (4 - df) * 2
	}
	return 0
}

// shelterBonus rewards generals that stay next to their own king.
func shelterBonus(pt shogi.PieceType, k, sq shogi.Square) int {
	if pt != shogi.Gold && pt != shogi.Silver {
		return 0
	}
	df := k.File() - sq.File()
	if df < 0 {
		df = -df
	}
	dr := k.Rank() - sq.Rank()
	if dr < 0 {
		dr = -dr
	}
	if df <= 1 && dr <= 1 {
		return 12
	}
	if df <= 2 && dr <= 2 {
		return 4
	}
	return 0
}
