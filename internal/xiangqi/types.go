package xiangqi

type Side int8

const (
	NoSide Side = -1
	Red    Side = 0
	Black  Side = 1
)

func (s Side) Opposite() Side {
	switch s {
	case Red:
		return Black
	case Black:
		return Red
	}
	return NoSide
}

func (s Side) String() string {
	switch s {
	case Red:
		return "red"
	case Black:
		return "black"
	}
	return "none"
}

type PieceType int8

const (
	PieceNone     PieceType = iota
	PieceGeneral            // 帅 / 将
	PieceAdvisor            // 仕 / 士
	PieceElephant           // 相 / 象
	PieceHorse              // 马
	PieceChariot            // 车
	PieceCannon             // 炮
	PieceSoldier            // 兵 / 卒

	numPieceTypes
)

func (t PieceType) String() string {
	switch t {
	case PieceGeneral:
		return "general"
	case PieceAdvisor:
		return "advisor"
	case PieceElephant:
		return "elephant"
	case PieceHorse:
		return "horse"
	case PieceChariot:
		return "chariot"
	case PieceCannon:
		return "cannon"
	case PieceSoldier:
		return "soldier"
	}
	return "none"
}

// 车、炮按整条线扫描，其余子力只看固定落点
func (t PieceType) isRay() bool {
	return t == PieceChariot || t == PieceCannon
}

// Piece 由 Position 持有，不会脱离棋盘单独存在。
// Square 为 NoSquare 表示已被吃掉。
type Piece struct {
	Side   Side
	Type   PieceType
	Square Square

	pseudo   SquareSet // 伪合法落点（考虑阻挡，不考虑送将）
	legal    SquareSet // 合法落点缓存
	legalVer uint64    // legal 对应的局面版本，0 表示未计算
}

// Pseudo 返回当前的伪合法落点集合
func (pc *Piece) Pseudo() SquareSet { return pc.pseudo }

func (pc *Piece) alive() bool {
	return pc.Type != PieceNone && pc.Square != NoSquare
}

// PieceInfo 是给渲染层用的只读描述
type PieceInfo struct {
	Side Side      `json:"side"`
	Type PieceType `json:"type"`
}

type Move struct {
	From Square `json:"from"`
	To   Square `json:"to"`
}

var NoMove = Move{From: NoSquare, To: NoSquare}

func (m Move) IsNull() bool { return m.From == NoSquare || m.To == NoSquare }

func (m Move) String() string {
	if m.IsNull() {
		return "0000"
	}
	return m.From.String() + "-" + m.To.String()
}
