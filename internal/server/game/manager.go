package game

import (
	"sync"

	"github.com/google/uuid"

	"xiangqi/internal/engine"
	"xiangqi/internal/xiangqi"
)

// Manager 管理内存里的所有对局，外加一个共享的搜索引擎。
// 引擎同一时间只能跑一个搜索，用 engMu 串行化。
type Manager struct {
	mu    sync.RWMutex
	games map[string]*GameState

	engMu sync.Mutex
	eng   *engine.Engine
}

func NewManager(eng *engine.Engine) *Manager {
	if eng == nil {
		eng = engine.NewEngine(engine.Options{})
	}
	return &Manager{
		games: make(map[string]*GameState),
		eng:   eng,
	}
}

func (m *Manager) NewGame() *GameState {
	g := New()
	g.ID = uuid.NewString()

	m.mu.Lock()
	m.games[g.ID] = g
	m.mu.Unlock()
	return g
}

// NewGameFromFEN 以给定局面开局
func (m *Manager) NewGameFromFEN(fen string) (*GameState, error) {
	g, err := FromFEN(fen)
	if err != nil {
		return nil, err
	}
	g.ID = uuid.NewString()

	m.mu.Lock()
	m.games[g.ID] = g
	m.mu.Unlock()
	return g, nil
}

// Put 放入一局已有的对局（例如从存储恢复的）
func (m *Manager) Put(g *GameState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[g.ID] = g
}

func (m *Manager) Get(id string) (*GameState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.games[id]
	if !ok {
		return nil, ErrGameNotFound
	}
	return g, nil
}

func (m *Manager) Play(id string, mv xiangqi.Move) (*GameState, *MoveRecord, error) {
	g, err := m.Get(id)
	if err != nil {
		return nil, nil, err
	}
	rec, err := g.Play(mv)
	if err != nil {
		return g, nil, err
	}
	return g, rec, nil
}

// Search 用共享引擎在快照上搜索
func (m *Manager) Search(pos *xiangqi.Position, cfg engine.SearchConfig) engine.SearchResult {
	m.engMu.Lock()
	defer m.engMu.Unlock()
	return m.eng.Search(pos, cfg)
}

// MachineMove 为对局的走子方搜一步并落子。
// 搜索期间不持有对局锁；若期间局面被人改动，返回 ErrIllegalMove。
func (m *Manager) MachineMove(id string, cfg engine.SearchConfig) (*GameState, engine.SearchResult, error) {
	g, err := m.Get(id)
	if err != nil {
		return nil, engine.SearchResult{}, err
	}
	if st, _ := g.Status(); st.Over() {
		return g, engine.SearchResult{}, ErrGameOver
	}

	snap := g.Snapshot()
	res := m.Search(snap, cfg)
	if !res.Found() {
		return g, res, ErrNoMove
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Pos.Hash != snap.Hash || g.Pos.SideToMove != snap.SideToMove {
		return g, res, ErrIllegalMove
	}
	if _, err := g.playLocked(res.BestMove); err != nil {
		return g, res, err
	}
	return g, res, nil
}

// IDs 当前内存里的对局
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.games))
	for id := range m.games {
		out = append(out, id)
	}
	return out
}

// Delete 移出内存。最后一局也删掉时清空引擎的表。
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	if _, ok := m.games[id]; !ok {
		m.mu.Unlock()
		return ErrGameNotFound
	}
	delete(m.games, id)
	empty := len(m.games) == 0
	m.mu.Unlock()

	if empty {
		m.engMu.Lock()
		m.eng.Reset()
		m.engMu.Unlock()
	}
	return nil
}
