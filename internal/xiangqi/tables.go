package xiangqi

var (
	orthDirs = [4][2]int{{-1, 0}, {+1, 0}, {0, -1}, {0, +1}}
	diagDirs = [4][2]int{{-1, -1}, {-1, +1}, {+1, -1}, {+1, +1}}
)

// 马的 8 种“日”字：终点 + 马腿
var horseLegMoves = [8]struct {
	Dr, Dc int // 终点
	Br, Bc int // 马腿
}{
	{-2, -1, -1, 0},
	{-2, +1, -1, 0},
	{-1, -2, 0, -1},
	{-1, +2, 0, +1},
	{+1, -2, 0, -1},
	{+1, +2, 0, +1},
	{+2, -1, +1, 0},
	{+2, +1, +1, 0},
}

// jump 是一个固定落点和挡住它的格子（马腿 / 象眼）
type jump struct {
	to    Square
	block Square
}

var (
	horseJumps    [NumSquares][]jump
	elephantJumps [2][NumSquares][]jump

	// 非直线子力的静态落点（不看占位）
	footprint [numPieceTypes][2][NumSquares]SquareSet
)

func init() {
	initMoveTables()
}

func initMoveTables() {
	for _, side := range []Side{Red, Black} {
		for s := 0; s < NumSquares; s++ {
			sq := Square(s)
			row, col := sq.Row(), sq.Col()

			// 将：九宫内直走一格
			if inPalace(side, row, col) {
				for _, d := range orthDirs {
					r, c := row+d[0], col+d[1]
					if inPalace(side, r, c) {
						footprint[PieceGeneral][side][sq].Add(NewSquare(r, c))
					}
				}
				// 士：九宫内斜走一格
				for _, d := range diagDirs {
					r, c := row+d[0], col+d[1]
					if inPalace(side, r, c) {
						footprint[PieceAdvisor][side][sq].Add(NewSquare(r, c))
					}
				}
			}

			// 相：田字，不过河
			if onOwnHalf(side, row) {
				for _, d := range diagDirs {
					r, c := row+2*d[0], col+2*d[1]
					if !onBoard(r, c) || !onOwnHalf(side, r) {
						continue
					}
					to := NewSquare(r, c)
					elephantJumps[side][sq] = append(elephantJumps[side][sq], jump{
						to:    to,
						block: NewSquare(row+d[0], col+d[1]),
					})
					footprint[PieceElephant][side][sq].Add(to)
				}
			}

			// 马
			for _, m := range horseLegMoves {
				r, c := row+m.Dr, col+m.Dc
				if !onBoard(r, c) {
					continue
				}
				to := NewSquare(r, c)
				if side == Red {
					horseJumps[sq] = append(horseJumps[sq], jump{
						to:    to,
						block: NewSquare(row+m.Br, col+m.Bc),
					})
				}
				footprint[PieceHorse][side][sq].Add(to)
			}

			// 兵：过河前只能前进，过河后可左右，不能后退
			dir := soldierDir(side)
			if onBoard(row+dir, col) {
				footprint[PieceSoldier][side][sq].Add(NewSquare(row+dir, col))
			}
			if CrossedRiver(side, row) {
				for _, dc := range []int{-1, +1} {
					if onBoard(row, col+dc) {
						footprint[PieceSoldier][side][sq].Add(NewSquare(row, col+dc))
					}
				}
			}
		}
	}
}

// Footprint 返回非直线子力在空棋盘上的落点；车炮返回整行整列
func Footprint(side Side, pt PieceType, sq Square) SquareSet {
	if !sq.Valid() || (side != Red && side != Black) {
		return SquareSet{}
	}
	if pt.isRay() {
		var s SquareSet
		for c := 0; c < Cols; c++ {
			if c != sq.Col() {
				s.Add(NewSquare(sq.Row(), c))
			}
		}
		for r := 0; r < Rows; r++ {
			if r != sq.Row() {
				s.Add(NewSquare(r, sq.Col()))
			}
		}
		return s
	}
	if pt <= PieceNone || pt >= numPieceTypes {
		return SquareSet{}
	}
	return footprint[pt][side][sq]
}
