package engine

import "xiangqi/internal/xiangqi"

// 子力基础分（红黑通用）
var pieceValue = [...]int{
	xiangqi.PieceGeneral:  10000,
	xiangqi.PieceChariot:  900,
	xiangqi.PieceCannon:   450,
	xiangqi.PieceHorse:    300,
	xiangqi.PieceElephant: 150,
	xiangqi.PieceAdvisor:  120,
	xiangqi.PieceSoldier:  60,
}

// 兵的三档：未过河 / 过河 / 逼近九宫
const (
	soldierHome       = 60
	soldierCrossed    = 80
	soldierNearPalace = 100
)

// 以红方视角的基础位置表，黑方按行镜像
var basePositionTable = [xiangqi.Rows][xiangqi.Cols]int{
	{0, 0, 0, 0, 0, 0, 0, 0, 0},
	{0, 0, 0, 10, 20, 10, 0, 0, 0},
	{0, 0, 10, 20, 30, 20, 10, 0, 0},
	{0, 10, 20, 30, 40, 30, 20, 10, 0},
	{0, 20, 30, 40, 50, 40, 30, 20, 0},
	{0, 10, 20, 30, 40, 30, 20, 10, 0},
	{0, 0, 10, 20, 30, 20, 10, 0, 0},
	{0, 0, 0, 10, 20, 10, 0, 0, 0},
	{0, 0, 0, 0, 0, 0, 0, 0, 0},
	{0, 0, 0, 0, 0, 0, 0, 0, 0},
}

const generalPalaceScore = 20

// 每个兵种按比例缩放基础表（百分比）
var positionScale = [...]int{
	xiangqi.PieceChariot:  100,
	xiangqi.PieceCannon:   80,
	xiangqi.PieceHorse:    70,
	xiangqi.PieceElephant: 50,
	xiangqi.PieceAdvisor:  30,
	xiangqi.PieceSoldier:  60,
}

var positionTables [2][8][xiangqi.NumSquares]int

func init() {
	for _, side := range []xiangqi.Side{xiangqi.Red, xiangqi.Black} {
		for pt := xiangqi.PieceAdvisor; pt <= xiangqi.PieceSoldier; pt++ {
			for s := 0; s < xiangqi.NumSquares; s++ {
				sq := xiangqi.Square(s)
				row := sq.Row()
				if side == xiangqi.Black {
					row = xiangqi.Rows - 1 - row
				}
				positionTables[side][pt][sq] = basePositionTable[row][sq.Col()] * positionScale[pt] / 100
			}
		}
		// 将只在九宫里有位置分
		for s := 0; s < xiangqi.NumSquares; s++ {
			sq := xiangqi.Square(s)
			if sq.Col() >= 3 && sq.Col() <= 5 && (sq.Row() <= 2 || sq.Row() >= 7) {
				positionTables[side][xiangqi.PieceGeneral][sq] = generalPalaceScore
			}
		}
	}
}

// positionScore 某方某兵种在 sq 上的位置分
func positionScore(side xiangqi.Side, pt xiangqi.PieceType, sq xiangqi.Square) int {
	if (side != xiangqi.Red && side != xiangqi.Black) || !sq.Valid() || int(pt) >= len(positionTables[0]) {
		return 0
	}
	return positionTables[side][pt][sq]
}

// materialValue 带兵分档的子力分
func materialValue(side xiangqi.Side, pt xiangqi.PieceType, sq xiangqi.Square) int {
	if pt != xiangqi.PieceSoldier {
		if int(pt) >= len(pieceValue) {
			return 0
		}
		return pieceValue[pt]
	}
	row := sq.Row()
	if !xiangqi.CrossedRiver(side, row) {
		return soldierHome
	}
	if nearEnemyPalace(side, row) {
		return soldierNearPalace
	}
	return soldierCrossed
}

func nearEnemyPalace(side xiangqi.Side, row int) bool {
	if side == xiangqi.Red {
		return row <= 2
	}
	return row >= xiangqi.Rows-3
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
