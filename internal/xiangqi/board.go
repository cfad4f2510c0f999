package xiangqi

import (
	"math/bits"
	"strconv"
	"strings"
	"unicode"
)

const (
	Rows       = 10
	Cols       = 9
	NumSquares = Rows * Cols

	// 河界：黑方 0..4，红方 5..9
	RiverRowBlack = 4
	RiverRowRed   = 5
)

// Square 是 row*Cols+col 形式的格子编号，row 0 为黑方底线。
type Square int8

const NoSquare Square = -1

func NewSquare(row, col int) Square {
	if !onBoard(row, col) {
		return NoSquare
	}
	return Square(row*Cols + col)
}

func (sq Square) Row() int { return int(sq) / Cols }
func (sq Square) Col() int { return int(sq) % Cols }

func (sq Square) Valid() bool { return sq >= 0 && sq < NumSquares }

func (sq Square) String() string {
	if !sq.Valid() {
		return "--"
	}
	return string(rune('a'+sq.Col())) + strconv.Itoa(sq.Row())
}

func onBoard(row, col int) bool {
	return row >= 0 && row < Rows && col >= 0 && col < Cols
}

// 九宫
func inPalace(side Side, row, col int) bool {
	if col < 3 || col > 5 {
		return false
	}
	if side == Black {
		return row >= 0 && row <= 2
	}
	if side == Red {
		return row >= 7 && row <= 9
	}
	return false
}

// 己方半场（相不能过河）
func onOwnHalf(side Side, row int) bool {
	if side == Black {
		return row <= RiverRowBlack
	}
	if side == Red {
		return row >= RiverRowRed
	}
	return false
}

// CrossedRiver 兵是否已过河
func CrossedRiver(side Side, row int) bool {
	return !onOwnHalf(side, row)
}

// 兵的前进方向：黑向下(+1)，红向上(-1)
func soldierDir(side Side) int {
	if side == Red {
		return -1
	}
	return +1
}

// SquareSet 是 90 个格子的位集
type SquareSet [2]uint64

func (s *SquareSet) Add(sq Square)    { s[sq>>6] |= 1 << (uint(sq) & 63) }
func (s *SquareSet) Remove(sq Square) { s[sq>>6] &^= 1 << (uint(sq) & 63) }

func (s *SquareSet) Set(sq Square, on bool) {
	if on {
		s.Add(sq)
	} else {
		s.Remove(sq)
	}
}

func (s SquareSet) Has(sq Square) bool {
	if !sq.Valid() {
		return false
	}
	return s[sq>>6]&(1<<(uint(sq)&63)) != 0
}

func (s SquareSet) Len() int   { return bits.OnesCount64(s[0]) + bits.OnesCount64(s[1]) }
func (s SquareSet) Empty() bool { return s[0] == 0 && s[1] == 0 }

// Squares 按编号从小到大列出
func (s SquareSet) Squares() []Square {
	out := make([]Square, 0, s.Len())
	for w := 0; w < 2; w++ {
		word := s[w]
		for word != 0 {
			b := bits.TrailingZeros64(word)
			out = append(out, Square(w*64+b))
			word &= word - 1
		}
	}
	return out
}

var letterToPieceType = map[rune]PieceType{
	'k': PieceGeneral,
	'a': PieceAdvisor,
	'b': PieceElephant,
	'e': PieceElephant,
	'n': PieceHorse,
	'h': PieceHorse,
	'r': PieceChariot,
	'c': PieceCannon,
	'p': PieceSoldier,
}

var pieceTypeToLetter = [numPieceTypes]rune{
	PieceGeneral:  'k',
	PieceAdvisor:  'a',
	PieceElephant: 'b',
	PieceHorse:    'n',
	PieceChariot:  'r',
	PieceCannon:   'c',
	PieceSoldier:  'p',
}

func pieceToChar(side Side, pt PieceType) rune {
	if pt <= PieceNone || pt >= numPieceTypes {
		return '.'
	}
	ch := pieceTypeToLetter[pt]
	if side == Red {
		return unicode.ToUpper(ch)
	}
	return ch
}

// 开局摆法，第一行是黑方底线
const initialBoardString = `rnbakabnr
.........
.c.....c.
p.p.p.p.p
.........
.........
P.P.P.P.P
.C.....C.
.........
RNBAKABNR`

func parseInitialBoard() *Position {
	p := NewPosition()
	lines := make([]string, 0, Rows)
	for _, line := range strings.Split(initialBoardString, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) != Rows {
		panic("initialBoardString 行数不为 10")
	}
	for r := 0; r < Rows; r++ {
		if len(lines[r]) != Cols {
			panic("initialBoardString 列数不为 9")
		}
		for c, ch := range lines[r] {
			if ch == '.' {
				continue
			}
			pt, ok := letterToPieceType[unicode.ToLower(ch)]
			if !ok {
				panic("unknown piece letter: " + string(ch))
			}
			side := Black
			if unicode.IsUpper(ch) {
				side = Red
			}
			if !p.Place(side, pt, NewSquare(r, c)) {
				panic("initial board: cannot place " + string(ch))
			}
		}
	}
	return p
}

// NewInitialPosition 标准开局，红先
func NewInitialPosition() *Position {
	p := parseInitialBoard()
	p.SideToMove = Red
	return p
}
