package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"xiangqi/internal/engine"
	"xiangqi/internal/server/game"
	"xiangqi/internal/storage"
)

const (
	mateInOneFEN = "4k4/8R/9/9/9/R8/9/9/9/3K5 w"
	// 双车连将，一步杀不了
	doubleChariotFEN = "4k4/9/R8/8R/9/9/9/9/9/3K5 w"
)

func newTestHandler(t *testing.T, store *storage.Store) *Handler {
	t.Helper()
	return NewHandler(game.NewManager(nil), store, log.New(io.Discard, "", 0))
}

func post(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func newGame(t *testing.T, h http.Handler, fen string) StateResponse {
	t.Helper()
	rr := post(t, h, "/api/new_game", NewGameRequest{FEN: fen})
	if rr.Code != http.StatusOK {
		t.Fatalf("new_game: %d %s", rr.Code, rr.Body.String())
	}
	return decode[StateResponse](t, rr)
}

func mv(fr, fc, tr, tc int) MoveDTO {
	return MoveDTO{From: SquareDTO{fr, fc}, To: SquareDTO{tr, tc}}
}

func TestNewGameAndState(t *testing.T) {
	h := newTestHandler(t, nil)
	st := newGame(t, h, "")
	if st.GameID == "" {
		t.Fatalf("empty game id")
	}
	if st.ToMove != 0 || st.Status != "ongoing" || len(st.LegalMoves) != 44 {
		t.Fatalf("unexpected opening state: to_move=%d status=%s moves=%d", st.ToMove, st.Status, len(st.LegalMoves))
	}

	rr := post(t, h, "/api/state", StateRequest{GameID: st.GameID})
	if rr.Code != http.StatusOK {
		t.Fatalf("state: %d", rr.Code)
	}
	if got := decode[StateResponse](t, rr); got.Position != st.Position {
		t.Fatalf("state position %q want %q", got.Position, st.Position)
	}

	if rr := post(t, h, "/api/new_game", NewGameRequest{FEN: "bogus"}); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad fen: got %d", rr.Code)
	}
}

func TestPlayErrorMapping(t *testing.T) {
	h := newTestHandler(t, nil)
	st := newGame(t, h, "")

	rr := post(t, h, "/api/play", PlayRequest{GameID: st.GameID, Move: mv(9, 1, 7, 2)})
	if rr.Code != http.StatusOK {
		t.Fatalf("legal play: %d %s", rr.Code, rr.Body.String())
	}
	after := decode[StateResponse](t, rr)
	if after.ToMove != 1 || after.LastMove == nil || len(after.History) != 1 {
		t.Fatalf("state after play: %+v", after)
	}

	tests := []struct {
		name string
		req  PlayRequest
		want int
	}{
		{"not your turn", PlayRequest{GameID: st.GameID, Move: mv(7, 2, 5, 3)}, http.StatusConflict},
		{"illegal", PlayRequest{GameID: st.GameID, Move: mv(0, 0, 5, 5)}, http.StatusBadRequest},
		{"empty origin", PlayRequest{GameID: st.GameID, Move: mv(4, 4, 3, 4)}, http.StatusBadRequest},
		{"unknown game", PlayRequest{GameID: "nope", Move: mv(0, 1, 2, 2)}, http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if rr := post(t, h, "/api/play", tc.req); rr.Code != tc.want {
				t.Fatalf("got %d want %d (%s)", rr.Code, tc.want, rr.Body.String())
			}
		})
	}
}

func TestCaptureReported(t *testing.T) {
	h := newTestHandler(t, nil)
	st := newGame(t, h, "")
	rr := post(t, h, "/api/play", PlayRequest{GameID: st.GameID, Move: mv(7, 1, 0, 1)})
	if rr.Code != http.StatusOK {
		t.Fatalf("play: %d", rr.Code)
	}
	got := decode[StateResponse](t, rr)
	if got.Captured == nil || got.Captured.Side != "black" {
		t.Fatalf("captured: %+v", got.Captured)
	}
}

func TestLegalDestinations(t *testing.T) {
	h := newTestHandler(t, nil)
	st := newGame(t, h, "")
	rr := post(t, h, "/api/legal", LegalRequest{GameID: st.GameID, Square: SquareDTO{9, 1}})
	if rr.Code != http.StatusOK {
		t.Fatalf("legal: %d", rr.Code)
	}
	got := decode[LegalResponse](t, rr)
	if len(got.Destinations) != 2 {
		t.Fatalf("horse destinations: %+v", got.Destinations)
	}

	// 空格子没有落点
	rr = post(t, h, "/api/legal", LegalRequest{GameID: st.GameID, Square: SquareDTO{4, 4}})
	if got := decode[LegalResponse](t, rr); len(got.Destinations) != 0 {
		t.Fatalf("empty square destinations: %+v", got.Destinations)
	}
}

func TestAiMoveStateless(t *testing.T) {
	h := newTestHandler(t, nil)
	rr := post(t, h, "/api/ai_move", AiMoveRequest{Position: mateInOneFEN, MaxDepth: 2})
	if rr.Code != http.StatusOK {
		t.Fatalf("ai_move: %d %s", rr.Code, rr.Body.String())
	}
	got := decode[AiMoveResponse](t, rr)
	if got.BestMove == nil || *got.BestMove != mv(5, 0, 0, 0) {
		t.Fatalf("best move: %+v", got.BestMove)
	}
	if got.Status != "ok" || got.State != nil {
		t.Fatalf("unexpected response: %+v", got)
	}

	if rr := post(t, h, "/api/ai_move", AiMoveRequest{}); rr.Code != http.StatusBadRequest {
		t.Fatalf("missing position: %d", rr.Code)
	}
}

func TestAiMoveNoMoves(t *testing.T) {
	h := newTestHandler(t, nil)
	black := 1
	rr := post(t, h, "/api/ai_move", AiMoveRequest{Position: "3k5/8R/9/9/9/9/9/9/9/4K4 w", ToMove: &black})
	if rr.Code != http.StatusOK {
		t.Fatalf("ai_move: %d", rr.Code)
	}
	got := decode[AiMoveResponse](t, rr)
	if got.BestMove != nil || got.Status != "no_moves" {
		t.Fatalf("stalemated side got %+v", got)
	}
}

func TestAiMoveInGameThenGameOver(t *testing.T) {
	h := newTestHandler(t, nil)
	st := newGame(t, h, mateInOneFEN)

	rr := post(t, h, "/api/ai_move", AiMoveRequest{GameID: st.GameID, MaxDepth: 2})
	if rr.Code != http.StatusOK {
		t.Fatalf("ai_move: %d %s", rr.Code, rr.Body.String())
	}
	got := decode[AiMoveResponse](t, rr)
	if got.State == nil || got.State.Status != "checkmate" || got.State.Winner != "red" {
		t.Fatalf("state after mate: %+v", got.State)
	}

	rr = post(t, h, "/api/ai_move", AiMoveRequest{GameID: st.GameID})
	if rr.Code != http.StatusConflict {
		t.Fatalf("ai_move after mate: got %d want 409", rr.Code)
	}
	rr = post(t, h, "/api/play", PlayRequest{GameID: st.GameID, Move: mv(0, 4, 0, 3)})
	if rr.Code != http.StatusConflict {
		t.Fatalf("play after mate: got %d want 409", rr.Code)
	}
}

func TestAiMoveUsesAnalysisCache(t *testing.T) {
	store, err := storage.OpenInMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	h := newTestHandler(t, store)

	req := AiMoveRequest{Position: initialFEN, MaxDepth: 1}
	first := decode[AiMoveResponse](t, post(t, h, "/api/ai_move", req))
	if first.Cached || first.BestMove == nil {
		t.Fatalf("first call: %+v", first)
	}
	second := decode[AiMoveResponse](t, post(t, h, "/api/ai_move", req))
	if !second.Cached || *second.BestMove != *first.BestMove || second.Score != first.Score {
		t.Fatalf("second call not served from cache: %+v", second)
	}

	// 要求更深就不能用浅的缓存
	req.MaxDepth = 2
	if third := decode[AiMoveResponse](t, post(t, h, "/api/ai_move", req)); third.Cached {
		t.Fatalf("shallow entry served for deeper request")
	}

	// 对局里命中缓存也要真正落子
	st := newGame(t, h, "")
	rr := post(t, h, "/api/ai_move", AiMoveRequest{GameID: st.GameID, MaxDepth: 1})
	got := decode[AiMoveResponse](t, rr)
	if !got.Cached || got.State == nil || got.State.ToMove != 1 || len(got.State.History) != 1 {
		t.Fatalf("cached in-game move: %+v", got)
	}
}

func TestLoadFromStore(t *testing.T) {
	store, err := storage.OpenInMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	h := newTestHandler(t, store)
	st := newGame(t, h, "")
	post(t, h, "/api/play", PlayRequest{GameID: st.GameID, Move: mv(9, 1, 7, 2)})
	post(t, h, "/api/play", PlayRequest{GameID: st.GameID, Move: mv(0, 1, 2, 2)})

	// 新进程：内存里没有这局
	h2 := newTestHandler(t, store)
	if rr := post(t, h2, "/api/state", StateRequest{GameID: st.GameID}); rr.Code != http.StatusNotFound {
		t.Fatalf("state before load: %d", rr.Code)
	}
	rr := post(t, h2, "/api/load", StateRequest{GameID: st.GameID})
	if rr.Code != http.StatusOK {
		t.Fatalf("load: %d %s", rr.Code, rr.Body.String())
	}
	got := decode[StateResponse](t, rr)
	if len(got.History) != 2 || got.ToMove != 0 {
		t.Fatalf("restored state: %+v", got)
	}
	if rr := post(t, h2, "/api/load", StateRequest{GameID: "missing"}); rr.Code != http.StatusNotFound {
		t.Fatalf("load missing: %d", rr.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/games", nil)
	grr := httptest.NewRecorder()
	h2.ServeHTTP(grr, req)
	games := decode[GamesResponse](t, grr)
	if len(games.Active) != 1 || len(games.Stored) != 1 || games.Stored[0] != st.GameID {
		t.Fatalf("games: %+v", games)
	}
}

func TestMethodAndRouting(t *testing.T) {
	h := newTestHandler(t, nil)
	srv := NewServer(h, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/api/new_game", nil)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET new_game: %d", rr.Code)
	}

	rr = post(t, srv, "/api/unknown", struct{}{})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown route: %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rr = httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != "/web/" {
		t.Fatalf("root redirect: %d %q", rr.Code, rr.Header().Get("Location"))
	}

	req = httptest.NewRequest(http.MethodPost, "/api/play", bytes.NewBufferString("{"))
	rr = httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad json: %d", rr.Code)
	}
}

const initialFEN = "rnbakabnr/9/1c5c1/p1p1p1p1p/9/9/P1P1P1P1P/1C5C1/9/RNBAKABNR w"

func TestNewGameTimeControl(t *testing.T) {
	h := newTestHandler(t, nil)

	def := newGame(t, h, "")
	if def.RedTimeMs <= 890_000 || def.RedTimeMs > 900_000 || def.BlackTimeMs != 900_000 {
		t.Fatalf("default clock: red=%d black=%d", def.RedTimeMs, def.BlackTimeMs)
	}

	rr := post(t, h, "/api/new_game", NewGameRequest{TimeSec: 30})
	short := decode[StateResponse](t, rr)
	if short.RedTimeMs <= 20_000 || short.RedTimeMs > 30_000 || short.BlackTimeMs != 30_000 {
		t.Fatalf("30s clock: red=%d black=%d", short.RedTimeMs, short.BlackTimeMs)
	}

	rr = post(t, h, "/api/new_game", NewGameRequest{TimeSec: -1})
	untimed := decode[StateResponse](t, rr)
	if untimed.RedTimeMs != 0 || untimed.BlackTimeMs != 0 {
		t.Fatalf("untimed game reports clock: %+v", untimed)
	}
}

func TestAiMoveVCFDepth(t *testing.T) {
	h := newTestHandler(t, nil)

	rr := post(t, h, "/api/ai_move", AiMoveRequest{Position: doubleChariotFEN, MaxDepth: 1, VCFDepth: 7})
	if rr.Code != http.StatusOK {
		t.Fatalf("ai_move: %d %s", rr.Code, rr.Body.String())
	}
	got := decode[AiMoveResponse](t, rr)
	if got.BestMove == nil || !engine.IsMate(got.Score) || got.Score <= 0 {
		t.Fatalf("vcf_depth 7: %+v", got)
	}

	// 服务端默认值，请求里不带
	h.SetVCFDepth(7)
	rr = post(t, h, "/api/ai_move", AiMoveRequest{Position: doubleChariotFEN, MaxDepth: 1})
	if got := decode[AiMoveResponse](t, rr); !engine.IsMate(got.Score) || got.Score <= 0 {
		t.Fatalf("default vcf depth: %+v", got)
	}
}

func TestDeleteGame(t *testing.T) {
	store, err := storage.OpenInMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	h := newTestHandler(t, store)
	st := newGame(t, h, "")

	rr := post(t, h, "/api/delete", StateRequest{GameID: st.GameID})
	if rr.Code != http.StatusOK {
		t.Fatalf("delete: %d %s", rr.Code, rr.Body.String())
	}
	if got := decode[DeleteResponse](t, rr); !got.Deleted || got.GameID != st.GameID {
		t.Fatalf("delete response: %+v", got)
	}
	if rr := post(t, h, "/api/state", StateRequest{GameID: st.GameID}); rr.Code != http.StatusNotFound {
		t.Fatalf("state after delete: %d", rr.Code)
	}
	if rr := post(t, h, "/api/load", StateRequest{GameID: st.GameID}); rr.Code != http.StatusNotFound {
		t.Fatalf("load after delete: %d", rr.Code)
	}
	if rr := post(t, h, "/api/delete", StateRequest{GameID: st.GameID}); rr.Code != http.StatusNotFound {
		t.Fatalf("second delete: %d", rr.Code)
	}

	// 只在存储里的对局也能删
	other := newGame(t, h, "")
	h2 := newTestHandler(t, store)
	if rr := post(t, h2, "/api/delete", StateRequest{GameID: other.GameID}); rr.Code != http.StatusOK {
		t.Fatalf("delete stored only: %d", rr.Code)
	}
}
