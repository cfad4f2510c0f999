package xiangqi

import "sync"

var (
	zobristOnce sync.Once

	zobristPieces [2][numPieceTypes][NumSquares]uint64
	zobristSide   uint64
)

func initZobrist() {
	zobristOnce.Do(func() {
		seed := uint64(0x9E3779B97F4A7C15)
		next := func() uint64 {
			seed += 0x9E3779B97F4A7C15
			z := seed
			z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
			z = (z ^ (z >> 27)) * 0x94D049BB133111EB
			return z ^ (z >> 31)
		}

		for side := 0; side < 2; side++ {
			for pt := 1; pt < int(numPieceTypes); pt++ {
				for sq := 0; sq < NumSquares; sq++ {
					zobristPieces[side][pt][sq] = next()
				}
			}
		}
		zobristSide = next()
	})
}

func pieceHashKey(side Side, pt PieceType, sq Square) uint64 {
	initZobrist()
	if side != Red && side != Black {
		return 0
	}
	if pt <= PieceNone || pt >= numPieceTypes || !sq.Valid() {
		return 0
	}
	return zobristPieces[side][pt][sq]
}

// SideKey 搜索时把走子方混进哈希
func SideKey(side Side) uint64 {
	initZobrist()
	if side == Black {
		return zobristSide
	}
	return 0
}

// CalculateHash 全量计算盘面 Zobrist 哈希（不含走子方）
func (p *Position) CalculateHash() uint64 {
	var h uint64
	for sq := Square(0); sq < NumSquares; sq++ {
		pc := p.pieceAt(sq)
		if pc == nil {
			continue
		}
		h ^= pieceHashKey(pc.Side, pc.Type, sq)
	}
	return h
}
