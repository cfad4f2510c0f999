package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"xiangqi/internal/engine"
	"xiangqi/internal/server/game"
	"xiangqi/internal/xiangqi"
)

type PlayerConfig struct {
	Name string
	Cfg  engine.SearchConfig
}

type result struct {
	winner xiangqi.Side // NoSide 为和（步数用尽）
	plies  int
	status game.Status
}

func main() {
	totalGames := flag.Int("games", 4, "number of games to play")
	depthA := flag.Int("depth-a", 3, "search depth of player A")
	depthB := flag.Int("depth-b", 2, "search depth of player B")
	maxPlies := flag.Int("maxplies", 200, "plies before a game is called a draw")
	parallel := flag.Int("parallel", 2, "games played at the same time")
	vcf := flag.Int("vcf", 0, "checking-mate (VCF) search depth for both players, 0 disables")
	verbose := flag.Bool("v", false, "print every move")
	flag.Parse()

	playerA := PlayerConfig{
		Name: fmt.Sprintf("A (depth %d)", *depthA),
		Cfg:  engine.SearchConfig{MaxDepth: *depthA, VCFDepth: *vcf},
	}
	playerB := PlayerConfig{
		Name: fmt.Sprintf("B (depth %d)", *depthB),
		Cfg:  engine.SearchConfig{MaxDepth: *depthB, VCFDepth: *vcf},
	}

	results := make([]result, *totalGames)
	var g errgroup.Group
	g.SetLimit(*parallel)
	for i := 0; i < *totalGames; i++ {
		i := i
		// 轮流执红
		red, black := playerA, playerB
		if i%2 == 1 {
			red, black = playerB, playerA
		}
		g.Go(func() error {
			start := time.Now()
			res, err := playGame(red, black, *maxPlies, *verbose)
			if err != nil {
				return fmt.Errorf("game %d: %w", i+1, err)
			}
			results[i] = res
			log.Printf("game %d: red [%s] vs black [%s]: %s after %d plies (%v)",
				i+1, red.Name, black.Name, describe(res), res.plies, time.Since(start).Round(time.Millisecond))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}

	aWins, bWins, draws := 0, 0, 0
	for i, r := range results {
		aIsRed := i%2 == 0
		switch {
		case r.winner == xiangqi.NoSide:
			draws++
		case (r.winner == xiangqi.Red) == aIsRed:
			aWins++
		default:
			bWins++
		}
	}

	fmt.Printf("\n=== Final Score ===\n")
	fmt.Printf("%s: %d\n", playerA.Name, aWins)
	fmt.Printf("%s: %d\n", playerB.Name, bWins)
	fmt.Printf("Draws: %d\n", draws)
}

// playGame 双方各用自己的 Engine，互不共享表
func playGame(red, black PlayerConfig, maxPlies int, verbose bool) (result, error) {
	quiet := log.New(io.Discard, "", 0)
	engines := map[xiangqi.Side]*engine.Engine{
		xiangqi.Red:   engine.NewEngine(engine.Options{Logger: quiet}),
		xiangqi.Black: engine.NewEngine(engine.Options{Logger: quiet}),
	}
	cfgs := map[xiangqi.Side]engine.SearchConfig{
		xiangqi.Red:   red.Cfg,
		xiangqi.Black: black.Cfg,
	}

	st := game.New()
	// 引擎对局不计时
	st.SetTimeControl(0)
	for ply := 0; ply < maxPlies; ply++ {
		if status, winner := st.Status(); status.Over() {
			return result{winner: winner, plies: ply, status: status}, nil
		}

		side := st.ToMove()
		res := engines[side].Search(st.Snapshot(), cfgs[side])
		if !res.Found() {
			return result{}, fmt.Errorf("no move found for %v in %s", side, st.FEN())
		}
		if _, err := st.Play(res.BestMove); err != nil {
			return result{}, fmt.Errorf("engine move %v rejected: %w", res.BestMove, err)
		}
		if verbose {
			fmt.Fprintf(os.Stdout, "%3d %-5v %v score=%d depth=%d nodes=%d\n",
				ply+1, side, res.BestMove, res.Score, res.Depth, res.Nodes)
		}
	}
	status, winner := st.Status()
	return result{winner: winner, plies: maxPlies, status: status}, nil
}

func describe(r result) string {
	if r.winner == xiangqi.NoSide {
		return "draw"
	}
	return fmt.Sprintf("%v wins by %s", r.winner, r.status)
}
