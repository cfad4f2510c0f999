package engine

import (
	"time"

	"xiangqi/internal/xiangqi"
)

const (
	// 一个足够大的值，当成正负无穷
	scoreInf = 1_000_000_000

	// 被将死：mateScore - 距根步数
	mateScore = 1_000_000
	mateBound = mateScore - 10*maxPly

	// 缺将等畸形局面的哨兵分
	sentinelScore = 500_000
)

// 搜索配置
type SearchConfig struct {
	MaxDepth        int           // 最大搜索深度（ply），0 用默认值
	TimeLimit       time.Duration // 搜索时间上限（0 表示不限制），每层开始前检查
	QuiescenceDepth int           // 静态搜索最大层数，0 用默认值，负数关闭
	VCFDepth        int           // 连将杀预搜索步数（双方合计），0 关闭
}

// 搜索结果
type SearchResult struct {
	BestMove xiangqi.Move   // 最佳着法；没有合法着法时为 NoMove
	Score    int            // 评估分（正：红方好，负：黑方好）
	WinProb  float32        // 红方胜率（由分数粗略换算）
	Depth    int            // 实际完成的深度
	Nodes    int64          // 节点数
	TimeUsed time.Duration  // 花费时间
	PV       []xiangqi.Move // 主变，从 TT 里回溯
}

// Found 是否找到着法
func (r SearchResult) Found() bool { return !r.BestMove.IsNull() }

// IsMate 分数是否为杀棋分
func IsMate(score int) bool {
	return score >= mateBound || score <= -mateBound
}

// Search 迭代加深 NegaScout。pos 不会被修改，搜索在它的拷贝上进行，
// 走子方取 pos.SideToMove。
func (e *Engine) Search(pos *xiangqi.Position, cfg SearchConfig) SearchResult {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = defaultMaxDepth
	}
	if cfg.MaxDepth > maxPly-1 {
		cfg.MaxDepth = maxPly - 1
	}
	switch {
	case cfg.QuiescenceDepth == 0:
		e.qDepth = defaultQDepth
	case cfg.QuiescenceDepth < 0:
		e.qDepth = 0
	default:
		e.qDepth = cfg.QuiescenceDepth
	}

	start := time.Now()
	e.nodes = 0
	e.warned = false
	e.killers = [maxPly][2]xiangqi.Move{}

	work := pos.Clone()
	side := work.SideToMove
	if side != xiangqi.Black {
		side = xiangqi.Red
	}

	res := SearchResult{BestMove: xiangqi.NoMove}

	moves := work.LegalMoves(side)
	if len(moves) == 0 {
		// 无子可动：交给调用方判断将死还是困毙
		res.Score = redScore(e.terminalScore(work, side, 0), side)
		res.TimeUsed = time.Since(start)
		return res
	}

	if cfg.VCFDepth > 0 {
		if v := e.VCFSearch(work, side, cfg.VCFDepth); v.CanWin {
			res.BestMove = v.Move
			res.Score = redScore(mateScore-v.Plies, side)
			res.Depth = v.Plies
			res.Nodes = int64(v.Nodes)
			res.TimeUsed = time.Since(start)
			res.WinProb = winProb(res.Score)
			res.PV = []xiangqi.Move{v.Move}
			e.logf("engine: vcf mate within %d plies move=%v nodes=%d", v.Plies, v.Move, v.Nodes)
			return res
		}
	}

	var deadline time.Time
	if cfg.TimeLimit > 0 {
		deadline = start.Add(cfg.TimeLimit)
	}

	for depth := 1; depth <= cfg.MaxDepth; depth++ {
		// 第一层总要搜完，保证有着法可用
		if depth > 1 && !deadline.IsZero() && time.Now().After(deadline) {
			break
		}
		score, best := e.searchRoot(work, side, moves, depth)
		res.BestMove = best
		res.Score = redScore(score, side)
		res.Depth = depth
		e.logf("engine: depth=%d score=%d move=%v nodes=%d time=%dms",
			depth, res.Score, best, e.nodes, elapsedMs(start))

		// 已经找到最短杀就不必再加深
		if score >= mateBound {
			break
		}
	}

	res.Nodes = e.nodes
	res.TimeUsed = time.Since(start)
	res.WinProb = winProb(res.Score)
	res.PV = e.principalVariation(work, side, res.BestMove, res.Depth)
	return res
}

// BestMove 给定局面和走子方，返回机器着法；无合法着法时 ok=false
func (e *Engine) BestMove(pos *xiangqi.Position, side xiangqi.Side, depth int) (xiangqi.Move, bool) {
	snap := pos.Clone()
	snap.SideToMove = side
	res := e.Search(snap, SearchConfig{MaxDepth: depth})
	return res.BestMove, res.Found()
}

// searchRoot 根节点单独写：要记录最佳着法，上一层的最佳着法排最前
func (e *Engine) searchRoot(pos *xiangqi.Position, side xiangqi.Side, moves []xiangqi.Move, depth int) (int, xiangqi.Move) {
	e.nodes++
	key := ttKey(pos, side)
	_, ttMove, _ := e.lookupTT(key, depth, -scoreInf, scoreInf, 0)
	e.orderMoves(pos, moves, 0, ttMove)

	alpha, beta := -scoreInf, scoreInf
	best := -scoreInf
	bestMove := moves[0]
	opp := side.Opposite()

	for i, mv := range moves {
		u := pos.Simulate(mv)
		var score int
		if i == 0 {
			score = -e.negaScout(pos, opp, depth-1, 1, -beta, -alpha)
		} else {
			score = -e.negaScout(pos, opp, depth-1, 1, -alpha-1, -alpha)
			if score > alpha && score < beta {
				score = -e.negaScout(pos, opp, depth-1, 1, -beta, -alpha)
			}
		}
		pos.Revert(mv, u)

		if score > best {
			best = score
			bestMove = mv
		}
		if score > alpha {
			alpha = score
		}
	}

	e.storeTT(key, depth, best, ttExact, bestMove, 0)
	return best, bestMove
}

// negaScout 返回走子方视角的分数（fail-soft）
func (e *Engine) negaScout(pos *xiangqi.Position, side xiangqi.Side, depth, ply, alpha, beta int) int {
	e.nodes++

	key := ttKey(pos, side)
	ttScore, ttMove, hit := e.lookupTT(key, depth, alpha, beta, ply)
	if hit {
		return ttScore
	}

	moves := pos.LegalMoves(side)
	if len(moves) == 0 {
		return e.terminalScore(pos, side, ply)
	}
	if depth <= 0 || ply >= maxPly-1 {
		return e.quiesce(pos, side, ply, 0, alpha, beta)
	}

	e.orderMoves(pos, moves, ply, ttMove)

	origAlpha := alpha
	best := -scoreInf
	bestMove := xiangqi.NoMove
	opp := side.Opposite()

	for i, mv := range moves {
		u := pos.Simulate(mv)
		var score int
		if i == 0 {
			score = -e.negaScout(pos, opp, depth-1, ply+1, -beta, -alpha)
		} else {
			// 零窗口试探，可能更好才全窗口重搜
			score = -e.negaScout(pos, opp, depth-1, ply+1, -alpha-1, -alpha)
			if score > alpha && score < beta {
				score = -e.negaScout(pos, opp, depth-1, ply+1, -beta, -alpha)
			}
		}
		pos.Revert(mv, u)

		if score > best {
			best = score
			bestMove = mv
		}
		if score > alpha {
			alpha = score
		}
		if alpha >= beta {
			e.recordCutoff(pos, mv, depth, ply)
			break
		}
	}

	flag := ttExact
	switch {
	case best <= origAlpha:
		flag = ttUpper
	case best >= beta:
		flag = ttLower
	}
	e.storeTT(key, depth, best, flag, bestMove, ply)
	return best
}

// terminalScore 走子方无合法着法：被将为负杀棋分，否则困毙 0 分
func (e *Engine) terminalScore(pos *xiangqi.Position, side xiangqi.Side, ply int) int {
	if !pos.GeneralExists(side) {
		return -sentinelScore
	}
	if pos.IsInCheck(side) {
		return -mateScore + ply
	}
	return 0
}

// principalVariation 从 TT 里顺着最佳着法走出主变
func (e *Engine) principalVariation(pos *xiangqi.Position, side xiangqi.Side, first xiangqi.Move, depth int) []xiangqi.Move {
	if first.IsNull() {
		return nil
	}
	work := pos.Clone()
	pv := []xiangqi.Move{first}
	if !work.TryMove(first.From, first.To) {
		return pv
	}
	side = side.Opposite()
	for len(pv) < depth {
		ent, ok := e.tt[ttKey(work, side)]
		if !ok || ent.Move.IsNull() {
			break
		}
		mv := ent.Move
		if pc, has := work.PieceAt(mv.From); !has || pc.Side != side {
			break
		}
		if !work.TryMove(mv.From, mv.To) {
			break
		}
		pv = append(pv, mv)
		side = side.Opposite()
	}
	return pv
}

func redScore(score int, side xiangqi.Side) int {
	if side == xiangqi.Black {
		return -score
	}
	return score
}

func winProb(score int) float32 {
	p := (float32(score)/10000.0 + 1.0) / 2.0
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return p
}
