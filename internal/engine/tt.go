package engine

import "xiangqi/internal/xiangqi"

// TT 边界类型
type ttFlag uint8

const (
	ttExact ttFlag = iota
	ttLower        // fail high，真实分 >= Score
	ttUpper        // fail low，真实分 <= Score
)

type ttEntry struct {
	Key   uint64
	Depth int
	Score int
	Flag  ttFlag
	Move  xiangqi.Move
}

// ttKey 盘面哈希 + 走子方
func ttKey(pos *xiangqi.Position, side xiangqi.Side) uint64 {
	return pos.Hash ^ xiangqi.SideKey(side)
}

// 存入 TT：同一局面只用更深（或同深）的结果覆盖
func (e *Engine) storeTT(key uint64, depth, score int, flag ttFlag, mv xiangqi.Move, ply int) {
	if len(e.tt) >= e.ttCap {
		e.tt = make(map[uint64]ttEntry, e.ttCap/4)
	}
	old, ok := e.tt[key]
	if ok && depth < old.Depth {
		return
	}
	if mv.IsNull() && ok {
		mv = old.Move
	}
	e.tt[key] = ttEntry{
		Key:   key,
		Depth: depth,
		Score: scoreToTT(score, ply),
		Flag:  flag,
		Move:  mv,
	}
}

// lookupTT 深度足够且边界能直接截断时返回 (score, true)；
// 不管能否截断都返回表里的着法，用于排序
func (e *Engine) lookupTT(key uint64, depth, alpha, beta, ply int) (int, xiangqi.Move, bool) {
	ent, ok := e.tt[key]
	if !ok {
		return 0, xiangqi.NoMove, false
	}
	if ent.Depth < depth {
		return 0, ent.Move, false
	}
	s := scoreFromTT(ent.Score, ply)
	switch ent.Flag {
	case ttExact:
		return s, ent.Move, true
	case ttLower:
		if s >= beta {
			return s, ent.Move, true
		}
	case ttUpper:
		if s <= alpha {
			return s, ent.Move, true
		}
	}
	return 0, ent.Move, false
}

// 杀棋分按“距根节点步数”存，取出时换回当前 ply
func scoreToTT(score, ply int) int {
	switch {
	case score >= mateBound:
		return score + ply
	case score <= -mateBound:
		return score - ply
	}
	return score
}

func scoreFromTT(score, ply int) int {
	switch {
	case score >= mateBound:
		return score - ply
	case score <= -mateBound:
		return score + ply
	}
	return score
}
