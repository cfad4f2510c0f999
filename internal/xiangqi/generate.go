package xiangqi

// genFunc 计算一个棋子的伪合法落点
type genFunc func(p *Position, pc *Piece) SquareSet

// 按子力类型分派
var pseudoGen = [numPieceTypes]genFunc{
	PieceGeneral:  genStepMoves,
	PieceAdvisor:  genStepMoves,
	PieceElephant: genStepMoves,
	PieceHorse:    genStepMoves,
	PieceChariot:  genChariotMoves,
	PieceCannon:   genCannonMoves,
	PieceSoldier:  genStepMoves,
}

// 将、士、相、马、兵：静态落点逐个判断
func genStepMoves(p *Position, pc *Piece) SquareSet {
	var out SquareSet
	fp := footprint[pc.Type][pc.Side][pc.Square]
	for _, to := range fp.Squares() {
		if p.reaches(pc, to) {
			out.Add(to)
		}
	}
	return out
}

// reaches 判断非直线子力能否走到 to（落点、蹩腿、塞眼、己方占位）
func (p *Position) reaches(pc *Piece, to Square) bool {
	if !footprint[pc.Type][pc.Side][pc.Square].Has(to) {
		return false
	}
	if occ := p.pieceAt(to); occ != nil && occ.Side == pc.Side {
		return false
	}
	switch pc.Type {
	case PieceHorse:
		for _, j := range horseJumps[pc.Square] {
			if j.to == to {
				return p.grid[j.block] == 0 // 憋马腿
			}
		}
		return false
	case PieceElephant:
		for _, j := range elephantJumps[pc.Side][pc.Square] {
			if j.to == to {
				return p.grid[j.block] == 0 // 塞象眼
			}
		}
		return false
	}
	return true
}

// 车：横竖直走，遇子停，敌子可吃
func genChariotMoves(p *Position, pc *Piece) SquareSet {
	var out SquareSet
	row, col := pc.Square.Row(), pc.Square.Col()
	for _, d := range orthDirs {
		r, c := row+d[0], col+d[1]
		for onBoard(r, c) {
			to := NewSquare(r, c)
			occ := p.pieceAt(to)
			if occ == nil {
				out.Add(to)
			} else {
				if occ.Side != pc.Side {
					out.Add(to)
				}
				break
			}
			r += d[0]
			c += d[1]
		}
	}
	return out
}

// 炮：不吃子时同车，吃子必须隔一个炮架
func genCannonMoves(p *Position, pc *Piece) SquareSet {
	var out SquareSet
	row, col := pc.Square.Row(), pc.Square.Col()
	for _, d := range orthDirs {
		r, c := row+d[0], col+d[1]

		// 走子阶段：直到第一个棋子
		for onBoard(r, c) {
			to := NewSquare(r, c)
			r += d[0]
			c += d[1]
			if p.grid[to] != 0 {
				break
			}
			out.Add(to)
		}

		// 吃子阶段：越过炮架，遇到第一子可吃
		for onBoard(r, c) {
			to := NewSquare(r, c)
			if occ := p.pieceAt(to); occ != nil {
				if occ.Side != pc.Side {
					out.Add(to)
				}
				break
			}
			r += d[0]
			c += d[1]
		}
	}
	return out
}

func (p *Position) fullPseudo(pc *Piece) SquareSet {
	if !pc.alive() {
		return SquareSet{}
	}
	gen := pseudoGen[pc.Type]
	if gen == nil {
		return SquareSet{}
	}
	return gen(p, pc)
}

// FullRecompute 从零重算所有棋子的伪合法落点
func (p *Position) FullRecompute() {
	for i := range p.pieces {
		pc := &p.pieces[i]
		pc.pseudo = p.fullPseudo(pc)
	}
}

// PseudoMoves 返回格子上棋子的伪合法落点
func (p *Position) PseudoMoves(sq Square) SquareSet {
	pc := p.pieceAt(sq)
	if pc == nil {
		return SquareSet{}
	}
	return pc.pseudo
}

// LegalDestinations 返回格子上棋子的合法落点（去掉送将）
func (p *Position) LegalDestinations(sq Square) SquareSet {
	if !sq.Valid() || p.grid[sq] == 0 {
		return SquareSet{}
	}
	return p.legalSet(int(p.grid[sq] - 1))
}

// legalSet 用 模拟-判将-撤销 过滤伪合法落点，结果按局面版本缓存
func (p *Position) legalSet(id int) SquareSet {
	pc := &p.pieces[id]
	if pc.legalVer == p.version {
		return pc.legal
	}
	ver := p.version
	from := pc.Square
	side := pc.Side

	var legal SquareSet
	for _, to := range pc.pseudo.Squares() {
		m := Move{From: from, To: to}
		u := p.Simulate(m)
		if !p.IsInCheck(side) {
			legal.Add(to)
		}
		p.Revert(m, u)
	}

	// 模拟过程中 version 被推进，撤销后盘面与 ver 一致
	p.version = ver
	pc = &p.pieces[id]
	pc.legal = legal
	pc.legalVer = ver
	return legal
}

// LegalMoves 生成一方的全部合法走法
func (p *Position) LegalMoves(side Side) []Move {
	lo, hi := sideRange(side)
	moves := make([]Move, 0, 48)
	for i := lo; i < hi; i++ {
		if !p.pieces[i].alive() {
			continue
		}
		from := p.pieces[i].Square
		for _, to := range p.legalSet(i).Squares() {
			moves = append(moves, Move{From: from, To: to})
		}
	}
	return moves
}

// HasLegalMove 一方是否还有合法着法
func (p *Position) HasLegalMove(side Side) bool {
	lo, hi := sideRange(side)
	for i := lo; i < hi; i++ {
		if !p.pieces[i].alive() {
			continue
		}
		if !p.legalSet(i).Empty() {
			return true
		}
	}
	return false
}
