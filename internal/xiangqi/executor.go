package xiangqi

// Undo 记录一次 Simulate 需要还原的信息
type Undo struct {
	Captured int // 被吃棋子编号，-1 表示没有吃子
	version  uint64
}

// CapturedPiece 返回被吃棋子的描述
func (p *Position) CapturedPiece(u Undo) (PieceInfo, bool) {
	if u.Captured < 0 || u.Captured >= MaxPieces {
		return PieceInfo{}, false
	}
	pc := &p.pieces[u.Captured]
	return PieceInfo{Side: pc.Side, Type: pc.Type}, true
}

// Simulate 直接走子，不做合法性校验（由搜索保证只走合法步）。
// 必须按栈的顺序用 Revert 撤销。
func (p *Position) Simulate(m Move) Undo {
	u := Undo{Captured: -1, version: p.version}
	if p.grid[m.To] != 0 {
		u.Captured = p.lift(m.To)
	}
	id := p.lift(m.From)
	p.drop(id, m.To)
	return u
}

// Revert 撤销 Simulate，盘面、棋子编号、落点缓存全部还原
func (p *Position) Revert(m Move, u Undo) {
	id := p.lift(m.To)
	p.drop(id, m.From)
	if u.Captured >= 0 {
		p.drop(u.Captured, m.To)
	}
	p.version = u.version
}

// TryMove 人类走子：起点无子或落点不可达返回 false；
// 走完若己方被将，整步（含吃子）回滚。
func (p *Position) TryMove(from, to Square) bool {
	_, ok := p.TryMoveCapture(from, to)
	return ok
}

// TryMoveCapture 同 TryMove，额外返回被吃掉的棋子
func (p *Position) TryMoveCapture(from, to Square) (captured *PieceInfo, ok bool) {
	if !from.Valid() || !to.Valid() || from == to {
		return nil, false
	}
	pc := p.pieceAt(from)
	if pc == nil || !pc.pseudo.Has(to) {
		return nil, false
	}
	side := pc.Side
	m := Move{From: from, To: to}
	u := p.Simulate(m)
	if p.IsInCheck(side) {
		p.Revert(m, u)
		return nil, false
	}
	if info, has := p.CapturedPiece(u); has {
		captured = &info
		// 被吃的子彻底离开棋盘，释放编号
		p.pieces[u.Captured] = Piece{Square: NoSquare}
	}
	return captured, true
}
