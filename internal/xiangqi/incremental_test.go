package xiangqi

import (
	"math/rand"
	"testing"
)

// assertMatchesFull 比较增量维护的落点和全量重算的结果
func assertMatchesFull(t *testing.T, p *Position, step string) {
	t.Helper()
	ref := p.Clone()
	ref.FullRecompute()
	for i := range p.pieces {
		got, want := p.pieces[i], ref.pieces[i]
		if !got.alive() {
			continue
		}
		if got.pseudo != want.pseudo {
			t.Fatalf("%s: %v %v at %v: incremental=%v full=%v\n%s",
				step, got.Side, got.Type, got.Square, got.pseudo.Squares(), want.pseudo.Squares(), p)
		}
	}
	if p.Hash != p.CalculateHash() {
		t.Fatalf("%s: hash drift got=%d want=%d", step, p.Hash, p.CalculateHash())
	}
}

func TestIncrementalMatchesFullRecomputeRandomGames(t *testing.T) {
	rng := rand.New(rand.NewSource(20240601))
	for game := 0; game < 20; game++ {
		p := NewInitialPosition()
		side := Red
		for ply := 0; ply < 80; ply++ {
			moves := p.LegalMoves(side)
			if len(moves) == 0 {
				break
			}
			m := moves[rng.Intn(len(moves))]
			if !p.TryMove(m.From, m.To) {
				t.Fatalf("game %d ply %d: legal move %v rejected", game, ply, m)
			}
			assertMatchesFull(t, p, m.String())
			if !p.GeneralExists(Red) || !p.GeneralExists(Black) {
				break
			}
			side = side.Opposite()
		}
	}
}

func TestIncrementalMatchesFullRecomputePlaceRemove(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	kinds := []PieceType{PieceAdvisor, PieceElephant, PieceHorse, PieceChariot, PieceCannon, PieceSoldier}
	p := NewPosition()
	p.Place(Red, PieceGeneral, NewSquare(9, 4))
	p.Place(Black, PieceGeneral, NewSquare(0, 3))

	for i := 0; i < 2000; i++ {
		sq := Square(rng.Intn(NumSquares))
		if pi, ok := p.PieceAt(sq); ok {
			if pi.Type == PieceGeneral {
				continue
			}
			p.Remove(sq)
		} else {
			side := Side(rng.Intn(2))
			// 摆放不检查子力的合法位置，只验证增量更新
			p.Place(side, kinds[rng.Intn(len(kinds))], sq)
		}
		assertMatchesFull(t, p, sq.String())
	}
}

// snapshot 逐位记录盘面；legal 是在副本上清掉缓存后重算的合法落点
type snapshot struct {
	grid     [NumSquares]int8
	generals [2]Square
	hash     uint64
	version  uint64
	squares  [MaxPieces]Square
	kinds    [MaxPieces]PieceType
	pseudo   [MaxPieces]SquareSet
	legal    [MaxPieces]SquareSet
}

func takeSnapshot(p *Position) snapshot {
	s := snapshot{grid: p.grid, generals: p.generals, hash: p.Hash, version: p.version}
	c := p.Clone()
	for i := range p.pieces {
		s.squares[i] = p.pieces[i].Square
		s.kinds[i] = p.pieces[i].Type
		s.pseudo[i] = p.pieces[i].pseudo
		if c.pieces[i].alive() {
			c.pieces[i].legalVer = 0
			s.legal[i] = c.legalSet(i)
		}
	}
	return s
}

// assertLegalCache 版本对得上的缓存必须等于重算结果，缓存命中也一样
func assertLegalCache(t *testing.T, p *Position, want snapshot, step string) {
	t.Helper()
	for i := range p.pieces {
		pc := p.pieces[i]
		if !pc.alive() {
			continue
		}
		if pc.legalVer == p.version && pc.legal != want.legal[i] {
			t.Fatalf("%s: stale legal cache for %v %v at %v: cached=%v want=%v",
				step, pc.Side, pc.Type, pc.Square, pc.legal.Squares(), want.legal[i].Squares())
		}
		if got := p.legalSet(i); got != want.legal[i] {
			t.Fatalf("%s: legal set for %v %v at %v: got=%v want=%v",
				step, pc.Side, pc.Type, pc.Square, got.Squares(), want.legal[i].Squares())
		}
	}
}

func TestSimulateRevertRestoresExactly(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	p := NewInitialPosition()
	side := Red

	var walk func(depth int, side Side)
	walk = func(depth int, side Side) {
		if depth == 0 {
			return
		}
		moves := p.LegalMoves(side)
		for n := 0; n < 4 && len(moves) > 0; n++ {
			m := moves[rng.Intn(len(moves))]
			before := takeSnapshot(p)
			fen := p.Encode()

			u := p.Simulate(m)
			walk(depth-1, side.Opposite())
			p.Revert(m, u)

			if after := takeSnapshot(p); after != before {
				t.Fatalf("revert of %v did not restore position\nbefore %s\nafter  %s", m, fen, p.Encode())
			}
			assertLegalCache(t, p, before, m.String())
		}
	}

	for ply := 0; ply < 12; ply++ {
		walk(3, side)
		moves := p.LegalMoves(side)
		if len(moves) == 0 {
			break
		}
		m := moves[rng.Intn(len(moves))]
		p.TryMove(m.From, m.To)
		side = side.Opposite()
	}
}

func TestLegalCacheNotStaleAfterMutation(t *testing.T) {
	p := setup(t,
		placement{Red, PieceGeneral, 9, 4},
		placement{Red, PieceChariot, 8, 4},
		placement{Black, PieceGeneral, 0, 3},
	)
	chariot := NewSquare(8, 4)
	if got := p.LegalDestinations(chariot).Len(); got != 16 {
		t.Fatalf("free chariot legal count: got %d want 16", got)
	}

	// 黑车上到 4 列后，红车被牵制，只能在 4 列上走
	p.Place(Black, PieceChariot, NewSquare(2, 4))
	legal := p.LegalDestinations(chariot)
	for _, sq := range legal.Squares() {
		if sq.Col() != 4 {
			t.Fatalf("pinned chariot may leave file: %v", legal.Squares())
		}
	}
	if !legal.Has(NewSquare(2, 4)) {
		t.Fatalf("pinned chariot should capture pinner, got %v", legal.Squares())
	}
}
