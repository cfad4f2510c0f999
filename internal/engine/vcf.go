package engine

import (
	"sort"

	"xiangqi/internal/xiangqi"
)

const (
	vcfDepthCap         = 15
	vcfDefaultDepth     = 7
	vcfNodeBudgetBase   = 32000
	vcfNodeBudgetPerPly = 8000
)

const (
	vcfModeAttack uint64 = 0xA5A5A5A5A5A5A5A5
	vcfModeDefend uint64 = 0x5A5A5A5A5A5A5A5A
)

type vcfTTEntry struct {
	Depth  int
	Result bool
	Move   xiangqi.Move // 记录最佳走法用于排序
}

type vcfContext struct {
	tt         map[uint64]vcfTTEntry
	inPath     map[uint64]bool
	nodes      int
	nodeBudget int
}

// VCFResult 连将搜索结果
type VCFResult struct {
	CanWin bool
	Move   xiangqi.Move
	Plies  int // 杀棋最多需要的步数（双方合计）
	Nodes  int
}

// VCFSearch 寻找 side 一路将军到底的杀法。maxDepth 按双方合计步数算，
// 超出节点预算时放弃（CanWin=false）。pos 不会被修改。
func (e *Engine) VCFSearch(pos *xiangqi.Position, side xiangqi.Side, maxDepth int) VCFResult {
	if maxDepth <= 0 {
		maxDepth = vcfDefaultDepth
	}
	if maxDepth > vcfDepthCap {
		maxDepth = vcfDepthCap
	}
	if !pos.GeneralExists(xiangqi.Red) || !pos.GeneralExists(xiangqi.Black) {
		return VCFResult{Move: xiangqi.NoMove}
	}

	ctx := &vcfContext{
		tt:         make(map[uint64]vcfTTEntry, 1<<12),
		inPath:     make(map[uint64]bool, 64),
		nodeBudget: vcfNodeBudgetBase + maxDepth*vcfNodeBudgetPerPly,
	}
	work := pos.Clone()

	// 攻方走奇数步收尾：1, 3, 5 ...
	for d := 1; d <= maxDepth; d += 2 {
		if mv, ok := e.vcfRootSearch(work, side, d, ctx); ok {
			return VCFResult{CanWin: true, Move: mv, Plies: d, Nodes: ctx.nodes}
		}
		if ctx.nodes > ctx.nodeBudget {
			break
		}
	}
	return VCFResult{Move: xiangqi.NoMove, Nodes: ctx.nodes}
}

func (e *Engine) vcfRootSearch(pos *xiangqi.Position, side xiangqi.Side, depth int, ctx *vcfContext) (xiangqi.Move, bool) {
	moves := pos.LegalMoves(side)
	e.sortVCFMoves(pos, side, moves, ctx)

	opp := side.Opposite()
	for _, mv := range moves {
		u := pos.Simulate(mv)
		// 攻击方必须将军
		ok := pos.IsInCheck(opp) && !e.vcfDefenderCanEscape(pos, opp, depth-1, ctx)
		pos.Revert(mv, u)
		if ok {
			return mv, true
		}
	}
	return xiangqi.NoMove, false
}

// sortVCFMoves 启发式排序：置换表着法 > 吃子 > 车 > 炮 > 马 > 兵
func (e *Engine) sortVCFMoves(pos *xiangqi.Position, side xiangqi.Side, moves []xiangqi.Move, ctx *vcfContext) {
	ttMove := xiangqi.NoMove
	if entry, ok := ctx.tt[ttKey(pos, side)^vcfModeAttack]; ok {
		ttMove = entry.Move
	}

	score := func(mv xiangqi.Move) int {
		if mv == ttMove {
			return 1000
		}
		s := 0
		if target, ok := pos.PieceAt(mv.To); ok {
			s = 100 + pieceValue[target.Type]/10
		}
		pc, _ := pos.PieceAt(mv.From)
		switch pc.Type {
		case xiangqi.PieceChariot:
			s += 80
		case xiangqi.PieceCannon:
			s += 60
		case xiangqi.PieceHorse:
			s += 40
		case xiangqi.PieceSoldier:
			s += 20
		}
		return s
	}
	sort.SliceStable(moves, func(i, j int) bool { return score(moves[i]) > score(moves[j]) })
}

func (e *Engine) vcfAttackerCanForce(pos *xiangqi.Position, side xiangqi.Side, depth int, ctx *vcfContext) bool {
	if depth <= 0 {
		return false
	}
	if ctx.reachNodeBudget() {
		return false
	}
	key := ttKey(pos, side) ^ vcfModeAttack
	if ctx.inPath[key] {
		return false
	}
	if entry, ok := ctx.tt[key]; ok && entry.Depth >= depth {
		return entry.Result
	}
	ctx.inPath[key] = true
	defer delete(ctx.inPath, key)

	moves := pos.LegalMoves(side)
	e.sortVCFMoves(pos, side, moves, ctx)

	opp := side.Opposite()
	result := false
	bestMove := xiangqi.NoMove
	for _, mv := range moves {
		u := pos.Simulate(mv)
		ok := pos.IsInCheck(opp) && !e.vcfDefenderCanEscape(pos, opp, depth-1, ctx)
		pos.Revert(mv, u)
		if ok {
			result = true
			bestMove = mv
			break
		}
	}
	ctx.tt[key] = vcfTTEntry{Depth: depth, Result: result, Move: bestMove}
	return result
}

// vcfDefenderCanEscape side 正被将军；无着可走即被杀
func (e *Engine) vcfDefenderCanEscape(pos *xiangqi.Position, side xiangqi.Side, depth int, ctx *vcfContext) bool {
	moves := pos.LegalMoves(side)
	if len(moves) == 0 {
		return false
	}
	if depth <= 0 {
		return true
	}
	if ctx.reachNodeBudget() {
		return true
	}
	key := ttKey(pos, side) ^ vcfModeDefend
	if ctx.inPath[key] {
		return true
	}
	if entry, ok := ctx.tt[key]; ok && entry.Depth >= depth {
		return entry.Result
	}
	ctx.inPath[key] = true
	defer delete(ctx.inPath, key)

	opp := side.Opposite()
	result := false
	bestMove := xiangqi.NoMove
	for _, mv := range moves {
		u := pos.Simulate(mv)
		escaped := !e.vcfAttackerCanForce(pos, opp, depth-1, ctx)
		pos.Revert(mv, u)
		// 防守方只要找到一个不被连将杀的走法就算逃脱
		if escaped {
			result = true
			bestMove = mv
			break
		}
	}
	ctx.tt[key] = vcfTTEntry{Depth: depth, Result: result, Move: bestMove}
	return result
}

func (ctx *vcfContext) reachNodeBudget() bool {
	ctx.nodes++
	return ctx.nodes > ctx.nodeBudget
}
