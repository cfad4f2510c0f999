package game

import (
	"fmt"
	"sync"
	"time"

	"xiangqi/internal/engine"
	"xiangqi/internal/storage"
	"xiangqi/internal/xiangqi"
)

type Status string

const (
	StatusOngoing   Status = "ongoing"
	StatusCheck     Status = "check"
	StatusCheckmate Status = "checkmate"
	StatusStalemate Status = "stalemate"
	StatusTimeout   Status = "timeout"
)

// DefaultTimeControl 每方 15 分钟
const DefaultTimeControl = 15 * time.Minute

// MoveRecord 一步棋：谁走的、吃了什么
type MoveRecord struct {
	Move     xiangqi.Move       `json:"move"`
	Side     xiangqi.Side       `json:"side"`
	Captured *xiangqi.PieceInfo `json:"captured,omitempty"`
}

// GameState 一局棋。回合切换、吃子记录都在这里，规则判断交给 Position。
// 所有方法自带锁，可以被多个请求同时访问。
type GameState struct {
	mu sync.Mutex

	ID        string
	Pos       *xiangqi.Position
	StartFEN  string
	History   []MoveRecord
	CreatedAt time.Time
	UpdatedAt time.Time

	// 双方剩余用时，按 Side 下标。TimeControl 为 0 时不计时。
	TimeControl time.Duration
	Remaining   [2]time.Duration

	clockMark time.Time // 走子方的钟从这一刻开始走
	now       func() time.Time
}

// New 开一局标准开局
func New() *GameState {
	g := &GameState{}
	g.Initialize()
	return g
}

// Initialize 回到标准开局，清空历史
func (g *GameState) Initialize() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Pos = xiangqi.NewInitialPosition()
	g.StartFEN = g.Pos.Encode()
	g.History = nil
	now := g.timeNow()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = now
	}
	g.UpdatedAt = now
	g.resetClock(DefaultTimeControl, now)
}

// FromFEN 从任意局面开局
func FromFEN(fen string) (*GameState, error) {
	pos, err := xiangqi.DecodePosition(fen)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	g := &GameState{
		Pos:       pos,
		StartFEN:  pos.Encode(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	g.resetClock(DefaultTimeControl, now)
	return g, nil
}

func (g *GameState) timeNow() time.Time {
	if g.now != nil {
		return g.now()
	}
	return time.Now()
}

func (g *GameState) resetClock(tc time.Duration, now time.Time) {
	g.TimeControl = tc
	g.Remaining = [2]time.Duration{tc, tc}
	g.clockMark = now
}

// SetTimeControl 重设双方用时，0 表示不计时
func (g *GameState) SetTimeControl(tc time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resetClock(tc, g.timeNow())
}

// Clock 双方剩余时间（含走子方正在走的钟）
func (g *GameState) Clock() (red, black time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.remainingLocked(xiangqi.Red), g.remainingLocked(xiangqi.Black)
}

func (g *GameState) remainingLocked(side xiangqi.Side) time.Duration {
	if side != xiangqi.Red && side != xiangqi.Black {
		return 0
	}
	left := g.Remaining[side]
	if g.TimeControl > 0 && side == g.Pos.SideToMove {
		left -= g.timeNow().Sub(g.clockMark)
	}
	if left < 0 {
		left = 0
	}
	return left
}

func (g *GameState) ToMove() xiangqi.Side {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.Pos.SideToMove
}

// FEN 当前局面
func (g *GameState) FEN() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.Pos.Encode()
}

// Snapshot 当前局面的拷贝，给搜索用
func (g *GameState) Snapshot() *xiangqi.Position {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.Pos.Clone()
}

func (g *GameState) PieceAt(row, col int) (xiangqi.PieceInfo, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.Pos.PieceAt(xiangqi.NewSquare(row, col))
}

// LegalDestinations 选中棋子后高亮用
func (g *GameState) LegalDestinations(row, col int) []xiangqi.Square {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.Pos.LegalDestinations(xiangqi.NewSquare(row, col)).Squares()
}

// LegalMoves 走子方的全部合法着法
func (g *GameState) LegalMoves() []xiangqi.Move {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.Pos.LegalMoves(g.Pos.SideToMove)
}

// AttemptMove 成功返回 true 并换边；失败不改变任何状态
func (g *GameState) AttemptMove(from, to xiangqi.Square) bool {
	_, err := g.Play(xiangqi.Move{From: from, To: to})
	return err == nil
}

// Play 同 AttemptMove，但返回失败原因
func (g *GameState) Play(mv xiangqi.Move) (*MoveRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.playLocked(mv)
}

func (g *GameState) playLocked(mv xiangqi.Move) (*MoveRecord, error) {
	if st, _ := g.statusLocked(); st.Over() {
		return nil, ErrGameOver
	}
	side := g.Pos.SideToMove
	pc, ok := g.Pos.PieceAt(mv.From)
	if !ok {
		return nil, ErrIllegalMove
	}
	if pc.Side != side {
		return nil, ErrNotYourTurn
	}
	captured, ok := g.Pos.TryMoveCapture(mv.From, mv.To)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrIllegalMove, mv)
	}
	now := g.timeNow()
	if g.TimeControl > 0 {
		g.Remaining[side] = g.remainingLocked(side)
		g.clockMark = now
	}
	g.Pos.SideToMove = side.Opposite()
	rec := MoveRecord{Move: mv, Side: side, Captured: captured}
	g.History = append(g.History, rec)
	g.UpdatedAt = now
	return &rec, nil
}

// Captured 某一方吃掉的子
func (g *GameState) Captured(by xiangqi.Side) []xiangqi.PieceInfo {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []xiangqi.PieceInfo
	for _, r := range g.History {
		if r.Side == by && r.Captured != nil {
			out = append(out, *r.Captured)
		}
	}
	return out
}

func (g *GameState) IsInCheck(side xiangqi.Side) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.Pos.IsInCheck(side)
}

func (g *GameState) IsCheckmate(side xiangqi.Side) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.Pos.IsCheckmate(side)
}

func (g *GameState) IsStalemate(side xiangqi.Side) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.Pos.IsStalemate(side)
}

// Status 走子方的状态；终局时返回赢家，否则 NoSide。
// 先判将死再判困毙。
func (g *GameState) Status() (Status, xiangqi.Side) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.statusLocked()
}

// Over 是否终局
func (s Status) Over() bool {
	return s == StatusCheckmate || s == StatusStalemate || s == StatusTimeout
}

func (g *GameState) statusLocked() (Status, xiangqi.Side) {
	side := g.Pos.SideToMove
	switch {
	case !g.Pos.GeneralExists(side):
		return StatusCheckmate, side.Opposite()
	case g.Pos.IsCheckmate(side):
		return StatusCheckmate, side.Opposite()
	case g.Pos.IsStalemate(side):
		// 象棋规则困毙判负
		return StatusStalemate, side.Opposite()
	case g.TimeControl > 0 && g.remainingLocked(side) == 0:
		return StatusTimeout, side.Opposite()
	case g.Pos.IsInCheck(side):
		return StatusCheck, xiangqi.NoSide
	}
	return StatusOngoing, xiangqi.NoSide
}

// Record 转成持久化格式
func (g *GameState) Record() storage.GameRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	st, winner := g.statusLocked()
	rec := storage.GameRecord{
		ID:        g.ID,
		StartFEN:  g.StartFEN,
		FEN:       g.Pos.Encode(),
		Moves:     make([]xiangqi.Move, len(g.History)),
		Status:    string(st),
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,

		TimeControl: g.TimeControl,
		RedLeft:     g.remainingLocked(xiangqi.Red),
		BlackLeft:   g.remainingLocked(xiangqi.Black),
	}
	if winner != xiangqi.NoSide {
		rec.Winner = winner.String()
	}
	for i, h := range g.History {
		rec.Moves[i] = h.Move
	}
	return rec
}

// Restore 从起始局面重放着法
func Restore(rec storage.GameRecord) (*GameState, error) {
	g, err := FromFEN(rec.StartFEN)
	if err != nil {
		return nil, fmt.Errorf("restore %s: %w", rec.ID, err)
	}
	g.ID = rec.ID
	// 重放时不计时
	g.TimeControl = 0
	for i, mv := range rec.Moves {
		if _, err := g.playLocked(mv); err != nil {
			return nil, fmt.Errorf("restore %s: move %d %v: %w", rec.ID, i, mv, err)
		}
	}
	if !rec.CreatedAt.IsZero() {
		g.CreatedAt = rec.CreatedAt
	}
	if !rec.UpdatedAt.IsZero() {
		g.UpdatedAt = rec.UpdatedAt
	}
	// 存储期间钟是停的：从恢复时刻重新开始走
	g.TimeControl = rec.TimeControl
	g.Remaining = [2]time.Duration{rec.RedLeft, rec.BlackLeft}
	g.clockMark = time.Now()
	return g, nil
}

// ComputeMachineMove 在局面快照上搜索，快照本身不会被改动
func ComputeMachineMove(eng *engine.Engine, snapshot *xiangqi.Position, maxDepth int) (xiangqi.Move, bool) {
	return eng.BestMove(snapshot, snapshot.SideToMove, maxDepth)
}
