// Package indexdb keeps a SQLite index of bake runs and the tile files they
// produced. Tile files remain the source of truth.
package indexdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"
)

const schemaVersion = "1"

var ErrClosed = errors.New("indexdb: closed")

type SQLiteIndex struct {
	db *sql.DB

	insertTile *sql.Stmt
	finishRun  *sql.Stmt

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once
	mu   sync.RWMutex // guards sends on ch against Close

	closed atomic.Bool

	tilesRecorded atomic.Uint64
	writeErrors   atomic.Uint64
}

type reqKind int

const (
	reqTile reqKind = iota + 1
	reqFinish
	reqFlush
)

type req struct {
	kind   reqKind
	tile   TileRow
	finish finishRow
	done   chan error
}

type RunRow struct {
	RunID        string `json:"run_id"`
	Preset       string `json:"preset"`
	Seed         int64  `json:"seed"`
	ConfigJSON   string `json:"config_json"`
	ConfigDigest string `json:"config_digest"`
	TileX0       int    `json:"tile_x0"`
	TileZ0       int    `json:"tile_z0"`
	TilesX       int    `json:"tiles_x"`
	TilesZ       int    `json:"tiles_z"`
	StartedAt    string `json:"started_at"`
	FinishedAt   string `json:"finished_at,omitempty"`
	Status       string `json:"status"`
	Tiles        int    `json:"tiles"`
	Bytes        int64  `json:"bytes"`
}

type TileRow struct {
	RunID         string  `json:"run_id"`
	TileX         int     `json:"tile_x"`
	TileZ         int     `json:"tile_z"`
	Path          string  `json:"path"`
	Digest        string  `json:"digest"`
	DominantBiome string  `json:"dominant_biome"`
	MinHeight     float64 `json:"min_height"`
	MaxHeight     float64 `json:"max_height"`
	Bytes         int64   `json:"bytes"`
}

type finishRow struct {
	RunID      string
	Status     string
	Tiles      int
	Bytes      int64
	FinishedAt string
}

type Stats struct {
	QueueDepth    int
	QueueCapacity int
	TilesRecorded uint64 // committed rows only
	WriteErrors   uint64
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 4096),
	}
	if err := s.prepare(); err != nil {
		s.closeStmts()
		_ = db.Close()
		return nil, err
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

// prepare compiles the writer's statements up front so a broken schema fails
// OpenSQLite instead of silently dropping rows later.
func (s *SQLiteIndex) prepare() error {
	var err error
	s.insertTile, err = s.db.Prepare(`INSERT OR REPLACE INTO baked_tiles(run_id,tile_x,tile_z,path,digest,dominant_biome,min_height,max_height,bytes) VALUES(?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare insert tile: %w", err)
	}
	s.finishRun, err = s.db.Prepare(`UPDATE bake_runs SET status=?, tiles=?, bytes=?, finished_at=? WHERE run_id=?`)
	if err != nil {
		return fmt.Errorf("prepare finish run: %w", err)
	}
	return nil
}

func (s *SQLiteIndex) closeStmts() {
	if s.insertTile != nil {
		_ = s.insertTile.Close()
	}
	if s.finishRun != nil {
		_ = s.finishRun.Close()
	}
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS bake_runs (
			run_id TEXT PRIMARY KEY,
			preset TEXT NOT NULL,
			seed INTEGER NOT NULL,
			config_json TEXT NOT NULL,
			config_digest TEXT NOT NULL,
			tile_x0 INTEGER NOT NULL,
			tile_z0 INTEGER NOT NULL,
			tiles_x INTEGER NOT NULL,
			tiles_z INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			status TEXT NOT NULL,
			tiles INTEGER NOT NULL DEFAULT 0,
			bytes INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_bake_runs_started ON bake_runs(started_at);`,
		`CREATE TABLE IF NOT EXISTS baked_tiles (
			run_id TEXT NOT NULL REFERENCES bake_runs(run_id),
			tile_x INTEGER NOT NULL,
			tile_z INTEGER NOT NULL,
			path TEXT NOT NULL,
			digest TEXT NOT NULL,
			dominant_biome TEXT NOT NULL,
			min_height REAL NOT NULL,
			max_height REAL NOT NULL,
			bytes INTEGER NOT NULL,
			PRIMARY KEY (run_id, tile_x, tile_z)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_baked_tiles_pos ON baked_tiles(tile_x, tile_z);`,
		`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','` + schemaVersion + `');`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		s.closed.Store(true)
		close(s.ch)
		s.mu.Unlock()
		s.wg.Wait()
		s.closeStmts()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	return Stats{
		QueueDepth:    len(s.ch),
		QueueCapacity: cap(s.ch),
		TilesRecorded: s.tilesRecorded.Load(),
		WriteErrors:   s.writeErrors.Load(),
	}
}

// send blocks when the queue is full: a bake must not lose tile rows.
func (s *SQLiteIndex) send(r req) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed.Load() {
		return ErrClosed
	}
	s.ch <- r
	return nil
}

// BeginRun inserts the run row synchronously so tile rows can reference it.
func (s *SQLiteIndex) BeginRun(ctx context.Context, run RunRow) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := s.Flush(); err != nil {
		return err
	}
	if run.StartedAt == "" {
		run.StartedAt = time.Now().UTC().Format(time.RFC3339Nano)
	}
	if run.Status == "" {
		run.Status = "running"
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO bake_runs(run_id,preset,seed,config_json,config_digest,tile_x0,tile_z0,tiles_x,tiles_z,started_at,status)
		VALUES(?,?,?,?,?,?,?,?,?,?,?)`,
		run.RunID, run.Preset, run.Seed, run.ConfigJSON, run.ConfigDigest,
		run.TileX0, run.TileZ0, run.TilesX, run.TilesZ, run.StartedAt, run.Status)
	if err != nil {
		return fmt.Errorf("begin run %s: %w", run.RunID, err)
	}
	return nil
}

// RecordTile queues a tile row for the writer goroutine.
func (s *SQLiteIndex) RecordTile(row TileRow) error {
	return s.send(req{kind: reqTile, tile: row})
}

// FinishRun marks a run as done and waits until every queued row is
// committed. It returns the first write error seen since the last flush.
func (s *SQLiteIndex) FinishRun(runID, status string, tiles int, bytes int64) error {
	done := make(chan error, 1)
	err := s.send(req{kind: reqFinish, finish: finishRow{
		RunID:      runID,
		Status:     status,
		Tiles:      tiles,
		Bytes:      bytes,
		FinishedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}, done: done})
	if err != nil {
		return err
	}
	return <-done
}

// Flush commits whatever the writer holds.
func (s *SQLiteIndex) Flush() error {
	done := make(chan error, 1)
	if err := s.send(req{kind: reqFlush, done: done}); err != nil {
		return err
	}
	return <-done
}

func (s *SQLiteIndex) ListRuns(ctx context.Context, limit int) ([]RunRow, error) {
	if err := s.Flush(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `SELECT run_id,preset,seed,config_json,config_digest,tile_x0,tile_z0,tiles_x,tiles_z,
		started_at,COALESCE(finished_at,''),status,tiles,bytes FROM bake_runs ORDER BY started_at DESC, run_id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RunRow
	for rows.Next() {
		var r RunRow
		if err := rows.Scan(&r.RunID, &r.Preset, &r.Seed, &r.ConfigJSON, &r.ConfigDigest, &r.TileX0, &r.TileZ0,
			&r.TilesX, &r.TilesZ, &r.StartedAt, &r.FinishedAt, &r.Status, &r.Tiles, &r.Bytes); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteIndex) ListTiles(ctx context.Context, runID string) ([]TileRow, error) {
	if err := s.Flush(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT run_id,tile_x,tile_z,path,digest,dominant_biome,min_height,max_height,bytes
		FROM baked_tiles WHERE run_id=? ORDER BY tile_z, tile_x`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TileRow
	for rows.Next() {
		var r TileRow
		if err := rows.Scan(&r.RunID, &r.TileX, &r.TileZ, &r.Path, &r.Digest, &r.DominantBiome,
			&r.MinHeight, &r.MaxHeight, &r.Bytes); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	var (
		tx            *sql.Tx
		opCount       int
		pending       uint64 // tile rows inside tx
		lastCommit    = time.Now()
		commitEvery   = 500
		commitMaxWait = 2 * time.Second
		firstErr      error
	)

	fail := func(err error) {
		s.writeErrors.Add(1)
		if firstErr == nil {
			firstErr = err
		}
	}
	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			fail(err)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		if err := tx.Commit(); err != nil {
			fail(fmt.Errorf("commit %d tile rows: %w", pending, err))
		} else {
			s.tilesRecorded.Add(pending)
		}
		pending = 0
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func(err error) {
		if pending > 0 {
			err = fmt.Errorf("%w (%d queued tile rows discarded)", err, pending)
		}
		fail(err)
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		pending = 0
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	ack := func(done chan error) {
		commit()
		done <- firstErr
		firstErr = nil
	}

	for r := range s.ch {
		switch r.kind {
		case reqTile:
			begin()
			if tx == nil {
				continue
			}
			t := r.tile
			if _, err := tx.Stmt(s.insertTile).Exec(t.RunID, t.TileX, t.TileZ, t.Path, t.Digest,
				t.DominantBiome, t.MinHeight, t.MaxHeight, t.Bytes); err != nil {
				rollback(fmt.Errorf("record tile %d,%d: %w", t.TileX, t.TileZ, err))
				continue
			}
			pending++
			opCount++

		case reqFinish:
			begin()
			if tx != nil {
				f := r.finish
				if _, err := tx.Stmt(s.finishRun).Exec(f.Status, f.Tiles, f.Bytes, f.FinishedAt, f.RunID); err != nil {
					rollback(fmt.Errorf("finish run %s: %w", f.RunID, err))
				}
			}
			ack(r.done)
			continue

		case reqFlush:
			ack(r.done)
			continue
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	commit()
}
