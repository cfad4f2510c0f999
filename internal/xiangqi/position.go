package xiangqi

const (
	MaxPiecesPerSide = 16
	MaxPieces        = 2 * MaxPiecesPerSide
)

// Position = 棋盘 + 双方子力 + 将帅位置。
// 全部是值类型，直接赋值即可深拷贝。
type Position struct {
	grid     [NumSquares]int8 // 棋子编号+1，0 为空
	pieces   [MaxPieces]Piece // 0..15 红，16..31 黑
	generals [2]Square

	SideToMove Side
	Hash       uint64 // 只包含盘面内容

	// 局面版本：每次改动取一个新编号，Revert 恢复旧编号
	version uint64
	serial  uint64
}

// NewPosition 空棋盘
func NewPosition() *Position {
	p := &Position{SideToMove: Red}
	for i := range p.pieces {
		p.pieces[i].Square = NoSquare
	}
	p.generals = [2]Square{NoSquare, NoSquare}
	p.bump()
	p.Hash = p.CalculateHash()
	return p
}

// Clone 深拷贝
func (p *Position) Clone() *Position {
	np := *p
	return &np
}

func (p *Position) bump() {
	p.serial++
	p.version = p.serial
}

func sideRange(side Side) (int, int) {
	if side == Black {
		return MaxPiecesPerSide, MaxPieces
	}
	return 0, MaxPiecesPerSide
}

func (p *Position) pieceAt(sq Square) *Piece {
	if !sq.Valid() {
		return nil
	}
	id := p.grid[sq]
	if id == 0 {
		return nil
	}
	return &p.pieces[id-1]
}

// PieceAt 返回格子上的棋子描述
func (p *Position) PieceAt(sq Square) (PieceInfo, bool) {
	pc := p.pieceAt(sq)
	if pc == nil {
		return PieceInfo{}, false
	}
	return PieceInfo{Side: pc.Side, Type: pc.Type}, true
}

// Piece 按格子取棋子（只读用途）
func (p *Position) Piece(sq Square) *Piece {
	return p.pieceAt(sq)
}

// Pieces 返回一方在盘上的棋子所在格
func (p *Position) Pieces(side Side) []Square {
	lo, hi := sideRange(side)
	out := make([]Square, 0, MaxPiecesPerSide)
	for i := lo; i < hi; i++ {
		if p.pieces[i].alive() {
			out = append(out, p.pieces[i].Square)
		}
	}
	return out
}

// General 返回将帅位置；没有则为 NoSquare
func (p *Position) General(side Side) Square {
	if side != Red && side != Black {
		return NoSquare
	}
	return p.generals[side]
}

func (p *Position) GeneralExists(side Side) bool {
	return p.General(side) != NoSquare
}

func (p *Position) TotalPieces() int {
	n := 0
	for i := range p.pieces {
		if p.pieces[i].alive() {
			n++
		}
	}
	return n
}

// SameBoard 判断两个局面的盘面内容是否一致
func (p *Position) SameBoard(o *Position) bool {
	for sq := Square(0); sq < NumSquares; sq++ {
		a, aok := p.PieceAt(sq)
		b, bok := o.PieceAt(sq)
		if aok != bok || a != b {
			return false
		}
	}
	return true
}
