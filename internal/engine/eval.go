package engine

import (
	"math"

	"xiangqi/internal/xiangqi"
)

// Evaluator 静态评估：正数红方好，负数黑方好。
// 实现可以在 pos 上做模拟走子，但返回前必须还原。
type Evaluator interface {
	Evaluate(pos *xiangqi.Position) (int, error)
}

// Weights 各项评估的系数
type Weights struct {
	Material     float64
	Position     float64
	Center       float64
	Mobility     float64
	KingSafety   float64
	Coordination float64
	PawnStruct   float64
}

var DefaultWeights = Weights{
	Material:     1.2,
	Position:     0.8,
	Center:       1.5,
	Mobility:     0.6,
	KingSafety:   2.0,
	Coordination: 0.4,
	PawnStruct:   0.5,
}

// 特殊加分，不乘系数
const (
	doubleChariotBonus    = 30
	cannonBehindPawnBonus = 15
	linkedPawnBonus       = 20
)

// 中心区域：3..6 行，3..5 列
const (
	centerRowLo, centerRowHi = 3, 6
	centerColLo, centerColHi = 3, 5
)

// StaticEvaluator 多因素加权评估
type StaticEvaluator struct {
	W Weights
}

func NewStaticEvaluator() *StaticEvaluator {
	return &StaticEvaluator{W: DefaultWeights}
}

type placed struct {
	sq xiangqi.Square
	pt xiangqi.PieceType
}

func collect(pos *xiangqi.Position, side xiangqi.Side) []placed {
	sqs := pos.Pieces(side)
	out := make([]placed, 0, len(sqs))
	for _, sq := range sqs {
		info, _ := pos.PieceAt(sq)
		out = append(out, placed{sq: sq, pt: info.Type})
	}
	return out
}

// Evaluate 红方减黑方，各项分别加权后求和
func (ev *StaticEvaluator) Evaluate(pos *xiangqi.Position) (int, error) {
	if !pos.GeneralExists(xiangqi.Red) || !pos.GeneralExists(xiangqi.Black) {
		return 0, xiangqi.ErrGeneralMissing
	}
	red := collect(pos, xiangqi.Red)
	black := collect(pos, xiangqi.Black)

	w := ev.W
	score := 0.0
	score += w.Material * float64(materialTerm(xiangqi.Red, red)-materialTerm(xiangqi.Black, black))
	score += w.Position * float64(positionTerm(xiangqi.Red, red)-positionTerm(xiangqi.Black, black))
	score += w.Center * float64(centerTerm(red)-centerTerm(black))
	score += w.Mobility * float64(mobilityTerm(pos))
	score += w.KingSafety * float64(kingSafetyTerm(pos, xiangqi.Red, red)-kingSafetyTerm(pos, xiangqi.Black, black))
	score += w.Coordination * float64(coordinationTerm(red)-coordinationTerm(black))
	score += w.PawnStruct * float64(pawnStructureTerm(xiangqi.Red, red)-pawnStructureTerm(xiangqi.Black, black))
	score += float64(specialTerm(xiangqi.Red, red) - specialTerm(xiangqi.Black, black))

	return int(math.Round(score)), nil
}

func materialTerm(side xiangqi.Side, ps []placed) int {
	s := 0
	for _, p := range ps {
		s += materialValue(side, p.pt, p.sq)
	}
	return s
}

func positionTerm(side xiangqi.Side, ps []placed) int {
	s := 0
	for _, p := range ps {
		s += positionScore(side, p.pt, p.sq)
	}
	return s
}

func centerTerm(ps []placed) int {
	n := 0
	for _, p := range ps {
		r, c := p.sq.Row(), p.sq.Col()
		if r >= centerRowLo && r <= centerRowHi && c >= centerColLo && c <= centerColHi {
			n++
		}
	}
	return n
}

// mobilityTerm 合法着法数之差，归一化到 [-100, 100]
func mobilityTerm(pos *xiangqi.Position) int {
	r := len(pos.LegalMoves(xiangqi.Red))
	b := len(pos.LegalMoves(xiangqi.Black))
	if r+b == 0 {
		return 0
	}
	return (r - b) * 100 / (r + b)
}

// kingSafetyTerm 身边（曼哈顿距离 ≤2）的守子减去正在攻击将位的子，将离开底线扣分
func kingSafetyTerm(pos *xiangqi.Position, side xiangqi.Side, ps []placed) int {
	g := pos.General(side)
	defend := 0
	for _, p := range ps {
		if p.pt == xiangqi.PieceGeneral {
			continue
		}
		if manhattan(p.sq, g) <= 2 {
			defend += pieceValue[p.pt]
		}
	}
	attack := 0
	for _, sq := range pos.Attackers(g, side.Opposite()) {
		if info, ok := pos.PieceAt(sq); ok {
			attack += pieceValue[info.Type]
		}
	}

	back := xiangqi.Rows - 1
	if side == xiangqi.Black {
		back = 0
	}
	advanced := abs(g.Row() - back)

	return defend/10 - attack/5 - 20*advanced
}

// coordinationTerm 己方非将子两两靠近（距离 ≤3）加分，越近越多
func coordinationTerm(ps []placed) int {
	s := 0
	for i := 0; i < len(ps); i++ {
		if ps[i].pt == xiangqi.PieceGeneral {
			continue
		}
		for j := i + 1; j < len(ps); j++ {
			if ps[j].pt == xiangqi.PieceGeneral {
				continue
			}
			if d := manhattan(ps[i].sq, ps[j].sq); d <= 3 {
				s += 4 - d
			}
		}
	}
	return s
}

// pawnStructureTerm 兵互保加分、同列叠兵扣分、过河加分
func pawnStructureTerm(side xiangqi.Side, ps []placed) int {
	var pawns []xiangqi.Square
	for _, p := range ps {
		if p.pt == xiangqi.PieceSoldier {
			pawns = append(pawns, p.sq)
		}
	}

	s := 0
	var perFile [xiangqi.Cols]int
	for _, a := range pawns {
		perFile[a.Col()]++
		if xiangqi.CrossedRiver(side, a.Row()) {
			s += 10
		}
		fp := xiangqi.Footprint(side, xiangqi.PieceSoldier, a)
		for _, b := range pawns {
			if b != a && fp.Has(b) {
				s += 10
			}
		}
	}
	for _, n := range perFile {
		if n > 1 {
			s -= 15 * (n - 1)
		}
	}
	return s
}

func specialTerm(side xiangqi.Side, ps []placed) int {
	s := 0
	chariots := 0
	var pawns, cannons []xiangqi.Square
	for _, p := range ps {
		switch p.pt {
		case xiangqi.PieceChariot:
			chariots++
		case xiangqi.PieceSoldier:
			pawns = append(pawns, p.sq)
		case xiangqi.PieceCannon:
			cannons = append(cannons, p.sq)
		}
	}
	if chariots >= 2 {
		s += doubleChariotBonus
	}

	// 炮在兵后：同列，兵在炮的前进方向上
	forward := -1
	if side == xiangqi.Black {
		forward = 1
	}
	for _, c := range cannons {
		for _, p := range pawns {
			if p.Col() == c.Col() && (p.Row()-c.Row())*forward > 0 {
				s += cannonBehindPawnBonus
				break
			}
		}
	}

	// 过河兵左右相连
	for i := 0; i < len(pawns); i++ {
		for j := i + 1; j < len(pawns); j++ {
			a, b := pawns[i], pawns[j]
			if a.Row() == b.Row() && abs(a.Col()-b.Col()) == 1 &&
				xiangqi.CrossedRiver(side, a.Row()) {
				s += linkedPawnBonus
			}
		}
	}
	return s
}

func manhattan(a, b xiangqi.Square) int {
	return abs(a.Row()-b.Row()) + abs(a.Col()-b.Col())
}
