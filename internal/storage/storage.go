package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/badger/v4"

	"xiangqi/internal/xiangqi"
)

// Storage keys
const (
	prefixGame     = "game/"
	prefixAnalysis = "analysis/"
)

var ErrNotFound = errors.New("storage: not found")

// GameRecord 一局棋的持久化形式：起始局面 + 着法序列，足够重放
type GameRecord struct {
	ID        string         `json:"id"`
	StartFEN  string         `json:"start_fen"`
	FEN       string         `json:"fen"`
	Moves     []xiangqi.Move `json:"moves"`
	Status    string         `json:"status"`
	Winner    string         `json:"winner,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`

	// 计时：0 表示不计时
	TimeControl time.Duration `json:"time_control,omitempty"`
	RedLeft     time.Duration `json:"red_left,omitempty"`
	BlackLeft   time.Duration `json:"black_left,omitempty"`
}

// Analysis 某局面的搜索结果缓存
type Analysis struct {
	FEN       string       `json:"fen"`
	Move      xiangqi.Move `json:"move"`
	Score     int          `json:"score"`
	Depth     int          `json:"depth"`
	Nodes     int64        `json:"nodes"`
	CreatedAt time.Time    `json:"created_at"`
}

// Store wraps BadgerDB for persistent storage
type Store struct {
	db *badger.DB
}

// Open opens (or creates) a database under dir
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable logging
	return open(opts)
}

// OpenInMemory 不落盘，测试和临时服务用
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts)
}

func open(opts badger.Options) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("storage: open: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveGame 覆盖写入
func (s *Store) SaveGame(rec GameRecord) error {
	if rec.ID == "" {
		return errors.New("storage: empty game id")
	}
	rec.UpdatedAt = time.Now()
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(prefixGame+rec.ID), data)
	})
}

// LoadGame 不存在返回 ErrNotFound
func (s *Store) LoadGame(id string) (*GameRecord, error) {
	var rec GameRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixGame + id))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListGames 返回所有对局 ID（按 key 顺序）
func (s *Store) ListGames() ([]string, error) {
	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixGame)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			ids = append(ids, strings.TrimPrefix(key, prefixGame))
		}
		return nil
	})
	return ids, err
}

// DeleteGame 不存在返回 ErrNotFound
func (s *Store) DeleteGame(id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		key := []byte(prefixGame + id)
		if _, err := txn.Get(key); err != nil {
			if err == badger.ErrKeyNotFound {
				return ErrNotFound
			}
			return err
		}
		return txn.Delete(key)
	})
}

// analysisKey 用 xxhash 把 FEN 压成定长 key
func analysisKey(fen string) []byte {
	h := xxhash.Sum64String(normalizeFEN(fen))
	return []byte(prefixAnalysis + strconv.FormatUint(h, 16))
}

// normalizeFEN 只保留盘面和走子方
func normalizeFEN(fen string) string {
	parts := strings.Fields(fen)
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0] + " w"
	}
	return parts[0] + " " + parts[1]
}

// PutAnalysis 只有更深的结果才覆盖旧的
func (s *Store) PutAnalysis(a Analysis) error {
	a.FEN = normalizeFEN(a.FEN)
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	key := analysisKey(a.FEN)
	return s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		switch {
		case err == nil:
			var old Analysis
			if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &old) }); err != nil {
				return err
			}
			if old.FEN == a.FEN && old.Depth > a.Depth {
				return nil
			}
		case err != badger.ErrKeyNotFound:
			return err
		}
		data, err := json.Marshal(a)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
}

// GetAnalysis 查缓存：深度不够或哈希碰撞都当作没有
func (s *Store) GetAnalysis(fen string, minDepth int) (*Analysis, error) {
	fen = normalizeFEN(fen)
	var a Analysis
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(analysisKey(fen))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &a)
		})
	})
	if err != nil {
		return nil, err
	}
	if a.FEN != fen || a.Depth < minDepth {
		return nil, ErrNotFound
	}
	return &a, nil
}
