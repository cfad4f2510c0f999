package engine

import (
	"log"
	"time"

	"xiangqi/internal/xiangqi"
)

const (
	defaultTTCap    = 1 << 20
	evalCacheCap    = 500_000
	maxPly          = 64
	maxHistory      = 1 << 24
	defaultQDepth   = 6
	qCheckPlies     = 2 // 静态搜索前两层才考虑将军着法
	defaultMaxDepth = 3
)

// Options 创建 Engine 的参数，零值可用
type Options struct {
	TTCap     int       // TT 最多条目数
	Evaluator Evaluator // 为空时用 StaticEvaluator
	Logger    *log.Logger
	Verbose   bool // 每完成一层打一行日志
}

// Engine 持有一次次搜索之间共享的表：TT、杀手、历史、评估缓存。
// 同一个 Engine 不能被两个 goroutine 同时调用；
// 需要并行对弈时每方各建一个。
type Engine struct {
	tt    map[uint64]ttEntry
	ttCap int

	killers [maxPly][2]xiangqi.Move
	history [xiangqi.NumSquares][xiangqi.NumSquares]int

	evalCache map[uint64]int
	eval      Evaluator

	logger  *log.Logger
	verbose bool

	nodes  int64
	qDepth int
	warned bool // 本次搜索已经记录过畸形局面
}

func NewEngine(opts Options) *Engine {
	if opts.TTCap <= 0 {
		opts.TTCap = defaultTTCap
	}
	if opts.Evaluator == nil {
		opts.Evaluator = NewStaticEvaluator()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Engine{
		tt:        make(map[uint64]ttEntry, 1<<16),
		ttCap:     opts.TTCap,
		evalCache: make(map[uint64]int, 1<<16),
		eval:      opts.Evaluator,
		logger:    opts.Logger,
		verbose:   opts.Verbose,
		qDepth:    defaultQDepth,
	}
}

// Reset 清空所有表，下一次搜索从零开始
func (e *Engine) Reset() {
	e.tt = make(map[uint64]ttEntry, 1<<16)
	e.evalCache = make(map[uint64]int, 1<<16)
	e.killers = [maxPly][2]xiangqi.Move{}
	e.history = [xiangqi.NumSquares][xiangqi.NumSquares]int{}
}

// staticEval 红方视角的静态分，按盘面缓存。
// 评估出错（缺将）不往上抛，换成极大/极小哨兵分。
func (e *Engine) staticEval(pos *xiangqi.Position) int {
	if v, ok := e.evalCache[pos.Hash]; ok {
		return v
	}
	v, err := e.eval.Evaluate(pos)
	if err != nil {
		v = degenerateScore(pos)
		if !e.warned {
			e.logger.Printf("engine: degenerate position %s: %v, using %d", pos.BoardFEN(), err, v)
			e.warned = true
		}
	}
	if len(e.evalCache) >= evalCacheCap {
		e.evalCache = make(map[uint64]int, 1<<16)
	}
	e.evalCache[pos.Hash] = v
	return v
}

func degenerateScore(pos *xiangqi.Position) int {
	red := pos.GeneralExists(xiangqi.Red)
	black := pos.GeneralExists(xiangqi.Black)
	switch {
	case red && !black:
		return sentinelScore
	case black && !red:
		return -sentinelScore
	}
	return 0
}

// evaluate 走子方视角
func (e *Engine) evaluate(pos *xiangqi.Position, side xiangqi.Side) int {
	v := e.staticEval(pos)
	if side == xiangqi.Black {
		return -v
	}
	return v
}

func (e *Engine) logf(format string, args ...any) {
	if e.verbose {
		e.logger.Printf(format, args...)
	}
}

func elapsedMs(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
