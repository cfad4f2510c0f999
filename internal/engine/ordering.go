package engine

import (
	"sort"

	"xiangqi/internal/xiangqi"
)

// 排序分段：TT 着法 > 吃子（按被吃子价值）> 杀手 > 历史 + 位置分
const (
	orderTT      = 1 << 30
	orderCapture = 1 << 28
	orderKiller  = 1 << 26
)

type scoredMove struct {
	mv    xiangqi.Move
	score int
}

// orderMoves 原地排序
func (e *Engine) orderMoves(pos *xiangqi.Position, moves []xiangqi.Move, ply int, ttMove xiangqi.Move) {
	scored := make([]scoredMove, len(moves))
	for i, mv := range moves {
		scored[i] = scoredMove{mv: mv, score: e.moveScore(pos, mv, ply, ttMove)}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })
	for i := range scored {
		moves[i] = scored[i].mv
	}
}

func (e *Engine) moveScore(pos *xiangqi.Position, mv xiangqi.Move, ply int, ttMove xiangqi.Move) int {
	if mv == ttMove {
		return orderTT
	}
	if victim, ok := pos.PieceAt(mv.To); ok {
		return orderCapture + pieceValue[victim.Type]
	}
	if ply < maxPly {
		if mv == e.killers[ply][0] {
			return orderKiller + 1
		}
		if mv == e.killers[ply][1] {
			return orderKiller
		}
	}
	s := e.history[mv.From][mv.To]
	if pc, ok := pos.PieceAt(mv.From); ok {
		s += positionScore(pc.Side, pc.Type, mv.To)
	}
	return s
}

// orderCaptures 只按被吃子价值排（静态搜索用）
func orderCaptures(pos *xiangqi.Position, moves []xiangqi.Move) {
	val := func(mv xiangqi.Move) int {
		if v, ok := pos.PieceAt(mv.To); ok {
			return pieceValue[v.Type]
		}
		return 0
	}
	sort.SliceStable(moves, func(i, j int) bool { return val(moves[i]) > val(moves[j]) })
}

// recordCutoff 截断着法：不吃子的记为杀手，并按 depth² 累加历史分
func (e *Engine) recordCutoff(pos *xiangqi.Position, mv xiangqi.Move, depth, ply int) {
	if _, capture := pos.PieceAt(mv.To); capture {
		return
	}
	if ply < maxPly && e.killers[ply][0] != mv {
		e.killers[ply][1] = e.killers[ply][0]
		e.killers[ply][0] = mv
	}
	e.history[mv.From][mv.To] += depth * depth
	if e.history[mv.From][mv.To] > maxHistory {
		e.ageHistory()
	}
}

// ageHistory 历史分整体减半，防止压过杀手和吃子
func (e *Engine) ageHistory() {
	for i := range e.history {
		for j := range e.history[i] {
			e.history[i][j] /= 2
		}
	}
}
