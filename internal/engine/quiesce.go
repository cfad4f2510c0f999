package engine

import "xiangqi/internal/xiangqi"

// quiesce 静态搜索：只看吃子，前 qCheckPlies 层再加上将军着法。
// 被将时不允许站着不动，所有应将着法都要搜。
func (e *Engine) quiesce(pos *xiangqi.Position, side xiangqi.Side, ply, qply, alpha, beta int) int {
	e.nodes++

	moves := pos.LegalMoves(side)
	if len(moves) == 0 {
		return e.terminalScore(pos, side, ply)
	}

	standPat := e.evaluate(pos, side)
	if qply >= e.qDepth || ply >= maxPly-1 {
		return standPat
	}

	inCheck := pos.IsInCheck(side)
	best := -scoreInf
	if !inCheck {
		best = standPat
		if best >= beta {
			return best
		}
		if best > alpha {
			alpha = best
		}
		moves = e.noisyMoves(pos, side, moves, qply)
	}
	orderCaptures(pos, moves)

	opp := side.Opposite()
	for _, mv := range moves {
		u := pos.Simulate(mv)
		score := -e.quiesce(pos, opp, ply+1, qply+1, -beta, -alpha)
		pos.Revert(mv, u)

		if score > best {
			best = score
		}
		if score > alpha {
			alpha = score
		}
		if alpha >= beta {
			break
		}
	}
	return best
}

// noisyMoves 过滤出吃子着法，以及（浅层时）将军着法
func (e *Engine) noisyMoves(pos *xiangqi.Position, side xiangqi.Side, moves []xiangqi.Move, qply int) []xiangqi.Move {
	out := moves[:0]
	opp := side.Opposite()
	for _, mv := range moves {
		if _, capture := pos.PieceAt(mv.To); capture {
			out = append(out, mv)
			continue
		}
		if qply >= qCheckPlies {
			continue
		}
		u := pos.Simulate(mv)
		check := pos.IsInCheck(opp)
		pos.Revert(mv, u)
		if check {
			out = append(out, mv)
		}
	}
	return out
}
