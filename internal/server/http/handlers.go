package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"xiangqi/internal/engine"
	"xiangqi/internal/server/game"
	"xiangqi/internal/storage"
	"xiangqi/internal/xiangqi"
)

const (
	defaultAiDepth       = 3
	maxBodyBytes   int64 = 1 << 20
)

// Handler 实现 http.Handler，用于 /api/* 路由
type Handler struct {
	mgr    *game.Manager
	store  *storage.Store // 可以为空：只在内存里跑
	logger *log.Logger
	depth  int
	vcf    int // 连将搜索深度，0 为关闭
}

// NewHandler store 和 logger 都可以为 nil
func NewHandler(mgr *game.Manager, store *storage.Store, logger *log.Logger) *Handler {
	if mgr == nil {
		mgr = game.NewManager(nil)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{mgr: mgr, store: store, logger: logger, depth: defaultAiDepth}
}

// SetDefaultDepth 请求里没给 max_depth 时用的深度
func (h *Handler) SetDefaultDepth(d int) {
	if d > 0 {
		h.depth = d
	}
}

// SetVCFDepth 请求里没给 vcf_depth 时的连将搜索深度
func (h *Handler) SetVCFDepth(d int) {
	if d >= 0 {
		h.vcf = d
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/api/games" {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.handleGames(w, r)
		return
	}

	routes := map[string]http.HandlerFunc{
		"/api/new_game": h.handleNewGame,
		"/api/state":    h.handleState,
		"/api/play":     h.handlePlay,
		"/api/legal":    h.handleLegal,
		"/api/ai_move":  h.handleAiMove,
		"/api/load":     h.handleLoad,
		"/api/delete":   h.handleDelete,
	}
	fn, ok := routes[r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	fn(w, r)
}

func (h *Handler) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req NewGameRequest
	// 空 body 也算标准开局
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	var g *game.GameState
	if req.FEN == "" {
		g = h.mgr.NewGame()
	} else {
		var err error
		g, err = h.mgr.NewGameFromFEN(req.FEN)
		if err != nil {
			http.Error(w, "invalid position", http.StatusBadRequest)
			return
		}
	}
	switch {
	case req.TimeSec < 0:
		g.SetTimeControl(0)
	case req.TimeSec > 0:
		g.SetTimeControl(time.Duration(req.TimeSec) * time.Second)
	}
	h.persist(g)
	writeJSON(w, stateOf(g))
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	var req StateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	g, err := h.mgr.Get(req.GameID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, stateOf(g))
}

func (h *Handler) handlePlay(w http.ResponseWriter, r *http.Request) {
	var req PlayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	g, rec, err := h.mgr.Play(req.GameID, dtoToMove(req.Move))
	if err != nil {
		writeError(w, err)
		return
	}
	h.persist(g)

	resp := stateOf(g)
	last := moveToDTO(rec.Move)
	resp.LastMove = &last
	resp.Captured = pieceToDTO(rec.Captured)
	writeJSON(w, resp)
}

func (h *Handler) handleLegal(w http.ResponseWriter, r *http.Request) {
	var req LegalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	g, err := h.mgr.Get(req.GameID)
	if err != nil {
		writeError(w, err)
		return
	}
	dests := g.LegalDestinations(req.Square.Row, req.Square.Col)
	writeJSON(w, LegalResponse{Square: req.Square, Destinations: squaresToDTO(dests)})
}

func (h *Handler) handleAiMove(w http.ResponseWriter, r *http.Request) {
	var req AiMoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	depth := req.MaxDepth
	if depth <= 0 {
		depth = h.depth
	}
	cfg := engine.SearchConfig{MaxDepth: depth, VCFDepth: h.vcf}
	switch {
	case req.VCFDepth < 0:
		cfg.VCFDepth = 0
	case req.VCFDepth > 0:
		cfg.VCFDepth = req.VCFDepth
	}
	if req.TimeMs > 0 {
		cfg.TimeLimit = time.Duration(req.TimeMs) * time.Millisecond
	}

	if req.GameID != "" {
		h.aiMoveInGame(w, req.GameID, cfg)
		return
	}

	if req.Position == "" {
		http.Error(w, "missing position", http.StatusBadRequest)
		return
	}
	pos, err := xiangqi.DecodePosition(req.Position)
	if err != nil {
		http.Error(w, "invalid position", http.StatusBadRequest)
		return
	}
	if req.ToMove != nil {
		pos.SideToMove = intToSide(*req.ToMove)
	}

	fen := pos.Encode()
	if a := h.cachedAnalysis(fen, cfg); a != nil {
		writeJSON(w, analysisResponse(a))
		return
	}

	// 只思考不落子
	res := h.mgr.Search(pos, cfg)
	if !res.Found() {
		writeJSON(w, AiMoveResponse{Score: res.Score, Status: "no_moves"})
		return
	}
	h.storeAnalysis(fen, cfg, res)
	writeJSON(w, searchResponse(res))
}

// aiMoveInGame 在对局上落子：先查分析缓存，没有再搜
func (h *Handler) aiMoveInGame(w http.ResponseWriter, id string, cfg engine.SearchConfig) {
	g, err := h.mgr.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	fen := g.FEN()

	if a := h.cachedAnalysis(fen, cfg); a != nil {
		if _, _, err := h.mgr.Play(id, a.Move); err == nil {
			h.persist(g)
			resp := analysisResponse(a)
			st := stateOf(g)
			resp.State = &st
			writeJSON(w, resp)
			return
		}
		// 缓存里的着法不适用，继续正常搜索
	}

	_, res, err := h.mgr.MachineMove(id, cfg)
	switch {
	case errors.Is(err, game.ErrNoMove):
		st := stateOf(g)
		writeJSON(w, AiMoveResponse{Score: res.Score, Status: "no_moves", State: &st})
		return
	case err != nil:
		writeError(w, err)
		return
	}
	h.storeAnalysis(fen, cfg, res)
	h.persist(g)

	resp := searchResponse(res)
	st := stateOf(g)
	resp.State = &st
	writeJSON(w, resp)
}

// handleLoad 从存储恢复对局到内存
func (h *Handler) handleLoad(w http.ResponseWriter, r *http.Request) {
	var req StateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if h.store == nil {
		http.Error(w, "storage disabled", http.StatusNotImplemented)
		return
	}
	rec, err := h.store.LoadGame(req.GameID)
	if err != nil {
		writeError(w, err)
		return
	}
	g, err := game.Restore(*rec)
	if err != nil {
		h.logger.Printf("load %s: %v", req.GameID, err)
		http.Error(w, "corrupt game record", http.StatusInternalServerError)
		return
	}
	h.mgr.Put(g)
	writeJSON(w, stateOf(g))
}

// handleDelete 从内存和存储里都删掉；两边都没有才算 404
func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req StateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	err := h.mgr.Delete(req.GameID)
	found := err == nil
	if err != nil && !errors.Is(err, game.ErrGameNotFound) {
		writeError(w, err)
		return
	}
	if h.store != nil {
		switch err := h.store.DeleteGame(req.GameID); {
		case err == nil:
			found = true
		case !errors.Is(err, storage.ErrNotFound):
			h.logger.Printf("delete game %s: %v", req.GameID, err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
	}
	if !found {
		writeError(w, game.ErrGameNotFound)
		return
	}
	writeJSON(w, DeleteResponse{GameID: req.GameID, Deleted: true})
}

func (h *Handler) handleGames(w http.ResponseWriter, r *http.Request) {
	resp := GamesResponse{Active: h.mgr.IDs()}
	if h.store != nil {
		ids, err := h.store.ListGames()
		if err != nil {
			h.logger.Printf("list games: %v", err)
		}
		resp.Stored = ids
	}
	writeJSON(w, resp)
}

func (h *Handler) persist(g *game.GameState) {
	if h.store == nil {
		return
	}
	if err := h.store.SaveGame(g.Record()); err != nil {
		h.logger.Printf("save game %s: %v", g.ID, err)
	}
}

// cachedAnalysis 开了连将搜索时不查缓存，缓存里只有普通搜索的结果
func (h *Handler) cachedAnalysis(fen string, cfg engine.SearchConfig) *storage.Analysis {
	if h.store == nil || cfg.VCFDepth > 0 {
		return nil
	}
	a, err := h.store.GetAnalysis(fen, cfg.MaxDepth)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			h.logger.Printf("analysis lookup: %v", err)
		}
		return nil
	}
	return a
}

func (h *Handler) storeAnalysis(fen string, cfg engine.SearchConfig, res engine.SearchResult) {
	if h.store == nil || !res.Found() || cfg.VCFDepth > 0 {
		return
	}
	err := h.store.PutAnalysis(storage.Analysis{
		FEN:   fen,
		Move:  res.BestMove,
		Score: res.Score,
		Depth: res.Depth,
		Nodes: res.Nodes,
	})
	if err != nil {
		h.logger.Printf("analysis store: %v", err)
	}
}

func searchResponse(res engine.SearchResult) AiMoveResponse {
	best := moveToDTO(res.BestMove)
	return AiMoveResponse{
		BestMove: &best,
		Score:    res.Score,
		WinProb:  res.WinProb,
		Depth:    res.Depth,
		Nodes:    res.Nodes,
		TimeMs:   res.TimeUsed.Milliseconds(),
		Status:   "ok",
		PV:       movesToDTO(res.PV),
	}
}

func analysisResponse(a *storage.Analysis) AiMoveResponse {
	best := moveToDTO(a.Move)
	return AiMoveResponse{
		BestMove: &best,
		Score:    a.Score,
		Depth:    a.Depth,
		Nodes:    a.Nodes,
		Cached:   true,
		Status:   "ok",
	}
}

// writeError 把领域错误映射成 HTTP 状态码
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrGameNotFound), errors.Is(err, storage.ErrNotFound):
		http.Error(w, "game not found", http.StatusNotFound)
	case errors.Is(err, game.ErrNotYourTurn), errors.Is(err, game.ErrGameOver):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, game.ErrIllegalMove):
		http.Error(w, "illegal move", http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Println("writeJSON error:", err)
	}
}
