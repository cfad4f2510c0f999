package xiangqi

import (
	"strings"
	"testing"
)

func TestHashInitializedFromInitialAndFEN(t *testing.T) {
	pos := NewInitialPosition()
	if pos.Hash != pos.CalculateHash() {
		t.Fatalf("initial hash mismatch: got=%d want=%d", pos.Hash, pos.CalculateHash())
	}

	fen := strings.ReplaceAll(initialBoardString, "\n", "/") + " w"
	decoded, err := DecodePosition(strings.ReplaceAll(fen, ".", "1"))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Hash != pos.Hash {
		t.Fatalf("decoded hash mismatch: got=%d want=%d", decoded.Hash, pos.Hash)
	}
}

func TestTryMoveHashIncrementalMatchesFullRecompute(t *testing.T) {
	pos := NewInitialPosition()
	side := Red
	for ply := 0; ply < 24; ply++ {
		moves := pos.LegalMoves(side)
		if len(moves) == 0 {
			return
		}
		mv := moves[len(moves)/2]
		if !pos.TryMove(mv.From, mv.To) {
			t.Fatalf("try move failed at ply %d: %v", ply, mv)
		}
		if got, want := pos.Hash, pos.CalculateHash(); got != want {
			t.Fatalf("hash mismatch at ply %d: got=%d want=%d move=%v", ply, got, want, mv)
		}
		side = side.Opposite()
	}
}

func TestSideKeyOnlyForBlack(t *testing.T) {
	if SideKey(Red) != 0 {
		t.Fatalf("red side key should be zero")
	}
	if SideKey(Black) == 0 {
		t.Fatalf("black side key should be non-zero")
	}
}
