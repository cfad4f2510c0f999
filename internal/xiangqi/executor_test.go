package xiangqi

import "testing"

func TestTryMoveRejectsWithoutMutation(t *testing.T) {
	p := NewInitialPosition()
	fen, hash := p.Encode(), p.Hash

	tests := []struct {
		name     string
		from, to Square
	}{
		{"empty origin", NewSquare(5, 4), NewSquare(4, 4)},
		{"unreachable", NewSquare(9, 0), NewSquare(5, 5)},
		{"own occupant", NewSquare(9, 0), NewSquare(9, 1)},
		{"horse leg blocked", NewSquare(9, 1), NewSquare(8, 3)},
		{"off board", NewSquare(9, 0), NoSquare},
		{"same square", NewSquare(9, 0), NewSquare(9, 0)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if p.TryMove(tc.from, tc.to) {
				t.Fatalf("move %v-%v should fail", tc.from, tc.to)
			}
			if p.Encode() != fen || p.Hash != hash {
				t.Fatalf("failed move mutated position: %s", p.Encode())
			}
		})
	}
}

func TestTryMoveSelfCheckRollsBack(t *testing.T) {
	p := setup(t,
		placement{Red, PieceGeneral, 9, 4},
		placement{Red, PieceChariot, 5, 4},
		placement{Black, PieceChariot, 0, 4},
		placement{Black, PieceGeneral, 0, 3},
	)
	before := takeSnapshot(p)
	fen := p.Encode()

	if p.TryMove(NewSquare(5, 4), NewSquare(5, 0)) {
		t.Fatalf("pinned chariot moved off file")
	}
	if p.Encode() != fen || takeSnapshot(p) != before {
		t.Fatalf("rollback incomplete: %s", p.Encode())
	}

	captured, ok := p.TryMoveCapture(NewSquare(5, 4), NewSquare(0, 4))
	if !ok {
		t.Fatalf("capturing the pinner should succeed")
	}
	if captured == nil || captured.Side != Black || captured.Type != PieceChariot {
		t.Fatalf("captured: got %+v", captured)
	}
	if len(p.Pieces(Black)) != 1 || p.TotalPieces() != 3 {
		t.Fatalf("captured piece still on board\n%s", p)
	}
	assertMatchesFull(t, p, "capture")
}

func TestTryMoveCaptureFreesSlot(t *testing.T) {
	p := NewInitialPosition()
	// 红炮打马
	captured, ok := p.TryMoveCapture(NewSquare(7, 1), NewSquare(0, 1))
	if !ok || captured == nil || captured.Type != PieceHorse {
		t.Fatalf("cannon capture: ok=%v captured=%+v", ok, captured)
	}
	if got := len(p.Pieces(Black)); got != 15 {
		t.Fatalf("black pieces: got %d want 15", got)
	}
	// 空出的编号可以再摆子
	if !p.Place(Black, PieceHorse, NewSquare(4, 4)) {
		t.Fatalf("freed slot not reusable")
	}
}

func TestTryMoveUpdatesGeneralSquare(t *testing.T) {
	p := setup(t,
		placement{Red, PieceGeneral, 9, 4},
		placement{Black, PieceGeneral, 0, 3},
	)
	if !p.TryMove(NewSquare(9, 4), NewSquare(8, 4)) {
		t.Fatalf("general step rejected")
	}
	if p.General(Red) != NewSquare(8, 4) {
		t.Fatalf("general index: got %v", p.General(Red))
	}
}

func TestSimulateRevertCapture(t *testing.T) {
	p := NewInitialPosition()
	before := takeSnapshot(p)

	m := Move{From: NewSquare(7, 1), To: NewSquare(0, 1)}
	u := p.Simulate(m)
	info, ok := p.CapturedPiece(u)
	if !ok || info.Side != Black || info.Type != PieceHorse {
		t.Fatalf("undo capture record: %+v ok=%v", info, ok)
	}
	if _, occ := p.PieceAt(m.From); occ {
		t.Fatalf("origin still occupied after simulate")
	}
	p.Revert(m, u)
	if takeSnapshot(p) != before {
		t.Fatalf("revert did not restore initial position: %s", p.Encode())
	}
}

func TestHashIndependentOfPath(t *testing.T) {
	a := NewInitialPosition()
	b := NewInitialPosition()

	// 同样两步，顺序不同
	a.TryMove(NewSquare(9, 1), NewSquare(7, 2))
	a.TryMove(NewSquare(0, 1), NewSquare(2, 2))
	a.TryMove(NewSquare(7, 7), NewSquare(7, 4))

	b.TryMove(NewSquare(7, 7), NewSquare(7, 4))
	b.TryMove(NewSquare(0, 1), NewSquare(2, 2))
	b.TryMove(NewSquare(9, 1), NewSquare(7, 2))

	if !a.SameBoard(b) {
		t.Fatalf("boards differ:\n%s\n%s", a, b)
	}
	if a.Hash != b.Hash {
		t.Fatalf("same board, different hash: %d vs %d", a.Hash, b.Hash)
	}
}
