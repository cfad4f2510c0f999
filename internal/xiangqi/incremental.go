package xiangqi

// touch 在 sq 的占位变化后，只更新可能受影响的棋子。
// skip 是刚落到 sq 上的棋子（它已经整体重算过）。
func (p *Position) touch(sq Square, skip int) {
	row, col := sq.Row(), sq.Col()
	for i := range p.pieces {
		if i == skip {
			continue
		}
		pc := &p.pieces[i]
		if !pc.alive() {
			continue
		}

		// 车炮：同行同列任何变化都整体重算
		if pc.Type.isRay() {
			if pc.Square.Row() == row || pc.Square.Col() == col {
				pc.pseudo = p.fullPseudo(pc)
			}
			continue
		}

		// 落点本身变化：只重判这一个落点
		if footprint[pc.Type][pc.Side][pc.Square].Has(sq) {
			pc.pseudo.Set(sq, p.reaches(pc, sq))
		}

		// 马腿 / 象眼变化：只重判共用这个阻挡格的落点
		switch pc.Type {
		case PieceHorse:
			for _, j := range horseJumps[pc.Square] {
				if j.block == sq {
					pc.pseudo.Set(j.to, p.reaches(pc, j.to))
				}
			}
		case PieceElephant:
			for _, j := range elephantJumps[pc.Side][pc.Square] {
				if j.block == sq {
					pc.pseudo.Set(j.to, p.reaches(pc, j.to))
				}
			}
		}
	}
}

// lift 把 sq 上的棋子拿起，返回编号；空格返回 -1
func (p *Position) lift(sq Square) int {
	if p.grid[sq] == 0 {
		return -1
	}
	id := int(p.grid[sq] - 1)
	pc := &p.pieces[id]

	p.grid[sq] = 0
	p.Hash ^= pieceHashKey(pc.Side, pc.Type, sq)
	pc.Square = NoSquare
	pc.pseudo = SquareSet{}
	if pc.Type == PieceGeneral {
		p.generals[pc.Side] = NoSquare
	}
	p.bump()
	p.touch(sq, -1)
	return id
}

// drop 把编号为 id 的棋子放到空格 sq
func (p *Position) drop(id int, sq Square) {
	pc := &p.pieces[id]
	p.grid[sq] = int8(id + 1)
	p.Hash ^= pieceHashKey(pc.Side, pc.Type, sq)
	pc.Square = sq
	if pc.Type == PieceGeneral {
		p.generals[pc.Side] = sq
	}
	p.bump()
	pc.pseudo = p.fullPseudo(pc)
	p.touch(sq, id)
}

// Place 在空格上摆一个新棋子（布局/测试用）
func (p *Position) Place(side Side, pt PieceType, sq Square) bool {
	if !sq.Valid() || p.grid[sq] != 0 {
		return false
	}
	if side != Red && side != Black {
		return false
	}
	if pt <= PieceNone || pt >= numPieceTypes {
		return false
	}
	if pt == PieceGeneral && p.generals[side] != NoSquare {
		return false
	}
	lo, hi := sideRange(side)
	for i := lo; i < hi; i++ {
		if p.pieces[i].Type != PieceNone {
			continue
		}
		p.pieces[i] = Piece{Side: side, Type: pt, Square: NoSquare}
		p.drop(i, sq)
		return true
	}
	return false
}

// Remove 把棋子彻底移出棋盘（布局/测试用）
func (p *Position) Remove(sq Square) bool {
	if !sq.Valid() {
		return false
	}
	id := p.lift(sq)
	if id < 0 {
		return false
	}
	p.pieces[id] = Piece{Square: NoSquare}
	return true
}
