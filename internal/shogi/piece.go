package shogi

// Color represents the color of a piece or player.
// Black (sente) moves first and moves toward rank a.
type Color uint8

const (
	Black Color = iota
	White
	NoColor Color = 2
)

// Other returns the opposite color.
func (c Color) Other() Color {
	return c ^ 1
}

// String returns the color name.
func (c Color) String() string {
	switch c {
	case Black:
		return "Black"
	case White:
		return "White"
	default:
		return "NoColor"
	}
}

// PieceType represents the type of a shogi piece, including promoted kinds.
type PieceType uint8

const (
	Pawn PieceType = iota
	Lance
	Knight
	Silver
	Gold
	Bishop
	Rook
	King
	ProPawn   // tokin, moves as gold
	ProLance  // moves as gold
	ProKnight // moves as gold
	ProSilver // moves as gold
	Horse     // promoted bishop
	Dragon    // promoted rook
	NoPieceType PieceType = 14
)

// PieceTypeCount is the number of distinct piece kinds.
const PieceTypeCount = 14

// HandPieceCount is the number of piece kinds that can be held in hand
// (Pawn through Rook; promoted pieces revert on capture, kings are never
// captured).
const HandPieceCount = 7

// promoteTable maps an unpromoted kind to its promoted kind.
var promoteTable = [PieceTypeCount]PieceType{
	Pawn:   ProPawn,
	Lance:  ProLance,
	Knight: ProKnight,
	Silver: ProSilver,
	Gold:   NoPieceType,
	Bishop: Horse,
	Rook:   Dragon,
	King:   NoPieceType,
}

// demoteTable maps a kind to what it becomes when captured into hand.
var demoteTable = [PieceTypeCount]PieceType{
	Pawn: Pawn, Lance: Lance, Knight: Knight, Silver: Silver,
	Gold: Gold, Bishop: Bishop, Rook: Rook, King: King,
	ProPawn: Pawn, ProLance: Lance, ProKnight: Knight, ProSilver: Silver,
	Horse: Bishop, Dragon: Rook,
}

// Promote returns the promoted kind, or NoPieceType if the kind
// cannot promote.
func (pt PieceType) Promote() PieceType {
	if pt >= PieceTypeCount {
		return NoPieceType
	}
	return promoteTable[pt]
}

// Demote returns the unpromoted kind a captured piece turns into in hand.
func (pt PieceType) Demote() PieceType {
	if pt >= PieceTypeCount {
		return NoPieceType
	}
	return demoteTable[pt]
}

// CanPromote returns true if the kind has a promoted form.
func (pt PieceType) CanPromote() bool {
	return pt < PieceTypeCount && promoteTable[pt] != NoPieceType
}

// IsPromoted returns true for promoted kinds.
func (pt PieceType) IsPromoted() bool {
	return pt >= ProPawn && pt <= Dragon
}

// MovesAsGold returns true for gold and the four gold-moving promotions.
func (pt PieceType) MovesAsGold() bool {
	return pt == Gold || (pt >= ProPawn && pt <= ProSilver)
}

// String returns a human-readable kind name.
func (pt PieceType) String() string {
	names := [...]string{
		"Pawn", "Lance", "Knight", "Silver", "Gold", "Bishop", "Rook", "King",
		"ProPawn", "ProLance", "ProKnight", "ProSilver", "Horse", "Dragon",
	}
	if pt >= PieceTypeCount {
		return "None"
	}
	return names[pt]
}

// usiChar is the single-letter USI/SFEN name of an unpromoted kind.
var usiChar = [8]byte{'P', 'L', 'N', 'S', 'G', 'B', 'R', 'K'}

// USI returns the SFEN spelling of the kind, uppercase ("+P" for tokin).
func (pt PieceType) USI() string {
	if pt >= PieceTypeCount {
		return "?"
	}
	if pt.IsPromoted() {
		return "+" + string(usiChar[pt.Demote()])
	}
	return string(usiChar[pt])
}

// PieceTypeFromUSI converts an SFEN letter (uppercase, without the "+"
// prefix) to an unpromoted PieceType.
func PieceTypeFromUSI(c byte) PieceType {
	switch c {
	case 'P':
		return Pawn
	case 'L':
		return Lance
	case 'N':
		return Knight
	case 'S':
		return Silver
	case 'G':
		return Gold
	case 'B':
		return Bishop
	case 'R':
		return Rook
	case 'K':
		return King
	default:
		return NoPieceType
	}
}

// Piece combines PieceType and Color into a single value.
// Encoded as: pieceType + color*14.
type Piece uint8

// NoPiece marks an empty square.
const NoPiece Piece = 28

// NewPiece creates a Piece from PieceType and Color.
func NewPiece(pt PieceType, c Color) Piece {
	if pt >= NoPieceType || c >= NoColor {
		return NoPiece
	}
	return Piece(pt) + Piece(c)*14
}

// Type returns the PieceType of the piece.
func (p Piece) Type() PieceType {
	if p >= NoPiece {
		return NoPieceType
	}
	return PieceType(p % 14)
}

// Color returns the Color of the piece.
func (p Piece) Color() Color {
	if p >= NoPiece {
		return NoColor
	}
	return Color(p / 14)
}

// String returns the SFEN spelling of the piece.
// Uppercase for Black, lowercase for White.
func (p Piece) String() string {
	if p >= NoPiece {
		return " "
	}
	s := p.Type().USI()
	if p.Color() == White {
		b := []byte(s)
		b[len(b)-1] += 'a' - 'A'
		return string(b)
	}
	return s
}

// PieceValue is the material value of each kind in centipawn-equivalent
// units. Kings carry no material value; mate handling lives in the search.
var PieceValue = [PieceTypeCount]int{
	Pawn:      90,
	Lance:     315,
	Knight:    405,
	Silver:    495,
	Gold:      540,
	Bishop:    855,
	Rook:      990,
	King:      0,
	ProPawn:   540,
	ProLance:  540,
	ProKnight: 540,
	ProSilver: 540,
	Horse:     945,
	Dragon:    1395,
}

// HandValue is the material value of a piece held in hand.
var HandValue = [HandPieceCount]int{
	Pawn:   90,
	Lance:  315,
	Knight: 405,
	Silver: 495,
	Gold:   540,
	Bishop: 855,
	Rook:   990,
}

// Hand is a side's reserve of captured pieces, packed into a uint32.
// Pawn count gets 5 bits, the rest get 3; the layout leaves a spare bit
// between fields so increments never carry across.
type Hand uint32

var handShift = [HandPieceCount]uint{0, 6, 10, 14, 18, 22, 26}
var handMask = [HandPieceCount]Hand{0x1F, 0x7, 0x7, 0x7, 0x7, 0x3, 0x3}

// Count returns the number of pieces of the given kind in hand.
func (h Hand) Count(pt PieceType) int {
	return int((h >> handShift[pt]) & handMask[pt])
}

// Has returns true if at least one piece of the kind is in hand.
func (h Hand) Has(pt PieceType) bool {
	return h.Count(pt) > 0
}

// IsEmpty returns true if the hand holds no pieces.
func (h Hand) IsEmpty() bool {
	return h == 0
}

// Add returns the hand with one more piece of the kind.
func (h Hand) Add(pt PieceType) Hand {
	return h + 1<<handShift[pt]
}

// Remove returns the hand with one fewer piece of the kind.
func (h Hand) Remove(pt PieceType) Hand {
	return h - 1<<handShift[pt]
}

// handOrder is the conventional SFEN ordering of hand pieces.
var handOrder = [HandPieceCount]PieceType{Rook, Bishop, Gold, Silver, Knight, Lance, Pawn}
