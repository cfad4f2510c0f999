package httpserver

import (
	"xiangqi/internal/server/game"
	"xiangqi/internal/xiangqi"
)

// 前端用的格子：行 0 是黑方底线
type SquareDTO struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// 前端用的招法结构
type MoveDTO struct {
	From SquareDTO `json:"from"`
	To   SquareDTO `json:"to"`
}

type PieceDTO struct {
	Side string `json:"side"`
	Type string `json:"type"`
}

// NewGame 请求：fen 为空时用标准开局
// time_sec 为 0 用默认 15 分钟，负数不计时
type NewGameRequest struct {
	FEN     string `json:"fen"`
	TimeSec int    `json:"time_sec"`
}

// 对局状态，new_game / state / play 共用
type StateResponse struct {
	GameID     string    `json:"game_id"`
	Position   string    `json:"position"` // FEN
	ToMove     int       `json:"to_move"`  // 0=红(w),1=黑(b)
	LegalMoves []MoveDTO `json:"legal_moves"`
	Status     string    `json:"status"` // ongoing / check / checkmate / stalemate / timeout
	Winner     string    `json:"winner,omitempty"`
	LastMove   *MoveDTO  `json:"last_move,omitempty"`
	Captured   *PieceDTO `json:"captured,omitempty"`
	History    []MoveDTO `json:"history,omitempty"`

	// 剩余用时（毫秒），不计时的对局不返回
	RedTimeMs   int64 `json:"red_time_ms,omitempty"`
	BlackTimeMs int64 `json:"black_time_ms,omitempty"`
}

type StateRequest struct {
	GameID string `json:"game_id"`
}

type PlayRequest struct {
	GameID string  `json:"game_id"`
	Move   MoveDTO `json:"move"`
}

// Legal 请求：选中一个格子，返回可走的落点
type LegalRequest struct {
	GameID string    `json:"game_id"`
	Square SquareDTO `json:"square"`
}

type LegalResponse struct {
	Square       SquareDTO   `json:"square"`
	Destinations []SquareDTO `json:"destinations"`
}

// AiMoveRequest 让 AI 走一步。
// 带 game_id 时直接在对局上落子；否则只对 position 思考，不落子。
type AiMoveRequest struct {
	GameID   string `json:"game_id"`
	Position string `json:"position"`
	ToMove   *int   `json:"to_move"` // 为空时以 FEN 为准
	MaxDepth int    `json:"max_depth"`
	TimeMs   int64  `json:"time_ms"`
	VCFDepth int    `json:"vcf_depth"` // 0 用服务端默认，负数关闭连将搜索
}

type AiMoveResponse struct {
	BestMove *MoveDTO  `json:"best_move"` // 无子可动时为 null
	Score    int       `json:"score"`
	WinProb  float32   `json:"win_prob"` // 红方胜率
	Depth    int       `json:"depth"`
	Nodes    int64     `json:"nodes"`
	TimeMs   int64     `json:"time_ms"`
	Cached   bool      `json:"cached"`
	Status   string    `json:"status"` // ok / no_moves
	PV       []MoveDTO `json:"pv,omitempty"`

	// 带 game_id 时附带落子后的对局状态
	State *StateResponse `json:"state,omitempty"`
}

type GamesResponse struct {
	Active []string `json:"active"`
	Stored []string `json:"stored,omitempty"`
}

func sideToInt(s xiangqi.Side) int {
	switch s {
	case xiangqi.Red:
		return 0
	case xiangqi.Black:
		return 1
	default:
		return -1
	}
}

func intToSide(v int) xiangqi.Side {
	if v == 1 {
		return xiangqi.Black
	}
	return xiangqi.Red
}

func squareToDTO(sq xiangqi.Square) SquareDTO {
	return SquareDTO{Row: sq.Row(), Col: sq.Col()}
}

func dtoToSquare(d SquareDTO) xiangqi.Square {
	return xiangqi.NewSquare(d.Row, d.Col)
}

func dtoToMove(m MoveDTO) xiangqi.Move {
	return xiangqi.Move{From: dtoToSquare(m.From), To: dtoToSquare(m.To)}
}

func moveToDTO(m xiangqi.Move) MoveDTO {
	return MoveDTO{From: squareToDTO(m.From), To: squareToDTO(m.To)}
}

func movesToDTO(ms []xiangqi.Move) []MoveDTO {
	out := make([]MoveDTO, len(ms))
	for i, m := range ms {
		out[i] = moveToDTO(m)
	}
	return out
}

func squaresToDTO(sqs []xiangqi.Square) []SquareDTO {
	out := make([]SquareDTO, len(sqs))
	for i, sq := range sqs {
		out[i] = squareToDTO(sq)
	}
	return out
}

func pieceToDTO(p *xiangqi.PieceInfo) *PieceDTO {
	if p == nil {
		return nil
	}
	return &PieceDTO{Side: p.Side.String(), Type: p.Type.String()}
}

// stateOf 汇总对局当前状态
func stateOf(g *game.GameState) StateResponse {
	st, winner := g.Status()
	resp := StateResponse{
		GameID:     g.ID,
		Position:   g.FEN(),
		ToMove:     sideToInt(g.ToMove()),
		LegalMoves: movesToDTO(g.LegalMoves()),
		Status:     string(st),
	}
	if winner != xiangqi.NoSide {
		resp.Winner = winner.String()
	}
	rec := g.Record()
	resp.History = movesToDTO(rec.Moves)
	if rec.TimeControl > 0 {
		resp.RedTimeMs = rec.RedLeft.Milliseconds()
		resp.BlackTimeMs = rec.BlackLeft.Milliseconds()
	}
	return resp
}

type DeleteResponse struct {
	GameID  string `json:"game_id"`
	Deleted bool   `json:"deleted"`
}
