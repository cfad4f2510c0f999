package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"xiangqi/internal/engine"
	"xiangqi/internal/server/game"
	httpserver "xiangqi/internal/server/http"
	"xiangqi/internal/storage"
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	addr := flag.String("addr", envOr("XIANGQI_ADDR", ":2888"), "listen address")
	dbDir := flag.String("db", envOr("XIANGQI_DB", ""), "badger directory for games and analysis (empty: in memory)")
	webDir := flag.String("web", "./web", "directory with index.html / js / svg")
	depth := flag.Int("depth", 3, "default AI search depth")
	vcf := flag.Int("vcf", 0, "default checking-mate (VCF) search depth in plies, 0 disables")
	verbose := flag.Bool("v", false, "log every completed search depth")
	flag.Parse()

	logger := log.New(os.Stderr, "xiangqi ", log.LstdFlags)

	var (
		store *storage.Store
		err   error
	)
	if *dbDir != "" {
		store, err = storage.Open(*dbDir)
	} else {
		store, err = storage.OpenInMemory()
	}
	if err != nil {
		logger.Fatalf("open storage: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Printf("close storage: %v", err)
		}
	}()

	eng := engine.NewEngine(engine.Options{Logger: logger, Verbose: *verbose})
	h := httpserver.NewHandler(game.NewManager(eng), store, logger)
	h.SetDefaultDepth(*depth)
	h.SetVCFDepth(*vcf)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           httpserver.NewServer(h, *webDir),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// 深搜可能比较慢
		WriteTimeout:   2 * time.Minute,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Printf("listening on %s, serving static from %s", *addr, *webDir)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Printf("server: %v", err)
	}
	logger.Println("bye")
}
