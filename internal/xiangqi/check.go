package xiangqi

import "errors"

// ErrGeneralMissing 局面里某一方没有将帅（模拟过程中的畸形局面）
var ErrGeneralMissing = errors.New("general missing")

// IsAttacked 判断 sq 是否在 bySide 某个棋子的伪合法落点里
func (p *Position) IsAttacked(sq Square, bySide Side) bool {
	if !sq.Valid() {
		return false
	}
	lo, hi := sideRange(bySide)
	for i := lo; i < hi; i++ {
		pc := &p.pieces[i]
		if pc.alive() && pc.pseudo.Has(sq) {
			return true
		}
	}
	return false
}

// Attackers 返回能走到 sq 的 bySide 棋子所在格
func (p *Position) Attackers(sq Square, bySide Side) []Square {
	var out []Square
	lo, hi := sideRange(bySide)
	for i := lo; i < hi; i++ {
		pc := &p.pieces[i]
		if pc.alive() && pc.pseudo.Has(sq) {
			out = append(out, pc.Square)
		}
	}
	return out
}

// GeneralsFacing 两将同列且中间无子（对脸）
func (p *Position) GeneralsFacing() bool {
	red, black := p.generals[Red], p.generals[Black]
	if red == NoSquare || black == NoSquare {
		return false
	}
	if red.Col() != black.Col() {
		return false
	}
	lo, hi := black.Row(), red.Row()
	if lo > hi {
		lo, hi = hi, lo
	}
	col := red.Col()
	for r := lo + 1; r < hi; r++ {
		if p.grid[NewSquare(r, col)] != 0 {
			return false
		}
	}
	return true
}

// IsInCheck 判断 side 是否被将军：对方能走到我方将位，或两将对脸
func (p *Position) IsInCheck(side Side) bool {
	g := p.General(side)
	if g == NoSquare {
		return false
	}
	if p.GeneralsFacing() {
		return true
	}
	return p.IsAttacked(g, side.Opposite())
}

// IsCheckmate 被将军且没有任何合法着法能解将
func (p *Position) IsCheckmate(side Side) bool {
	return p.IsInCheck(side) && !p.HasLegalMove(side)
}

// IsStalemate 没有合法着法（不区分是否被将，调用方需先判 IsCheckmate）
func (p *Position) IsStalemate(side Side) bool {
	return !p.HasLegalMove(side)
}
