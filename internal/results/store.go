// Package results persists simulation runs in SQLite.
package results

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/xtding233/pokeslots-stats/internal/gacha"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned when a run id is unknown.
var ErrNotFound = errors.New("run not found")

// Run is the metadata of one stored simulation.
type Run struct {
	ID            string
	CreatedAt     time.Time
	Scenario      string
	Seed          uint64
	Params        gacha.SimParams
	Probabilities gacha.ProbabilitySet
	CatalogSize   int
}

// Store persists runs and their snapshots.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens (creating if needed) a results database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schemaSQL); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SaveRun stores run metadata and every snapshot of data in one transaction.
// An empty run.ID is replaced by a new uuid; the stored run is returned.
func (s *Store) SaveRun(ctx context.Context, run Run, data *gacha.SimulationData) (Run, error) {
	if err := ctx.Err(); err != nil {
		return Run{}, err
	}
	if s == nil || s.sqlDB == nil {
		return Run{}, fmt.Errorf("storage is not configured")
	}
	if data == nil {
		return Run{}, fmt.Errorf("simulation data is required")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = s.now()
	}
	run.CreatedAt = fromMillis(toMillis(run.CreatedAt))

	probs, err := json.Marshal(run.Probabilities)
	if err != nil {
		return Run{}, fmt.Errorf("encode probabilities: %w", err)
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, scenario, seed, cases, rolls_per_case, autorelease, probabilities, catalog_size)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		toMillis(run.CreatedAt),
		run.Scenario,
		int64(run.Seed),
		run.Params.Cases,
		run.Params.RollsPerCase,
		run.Params.Autorelease,
		string(probs),
		run.CatalogSize,
	); err != nil {
		return Run{}, fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO snapshots (run_id, case_index, roll_index, unique_count, draws, missing, chance_of_new, last_outcome)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return Run{}, fmt.Errorf("prepare snapshot insert: %w", err)
	}
	defer stmt.Close()

	for _, idx := range data.Indices() {
		c, _ := data.Case(idx)
		for i, snap := range c {
			missing, _ := json.Marshal(snap.Missing)
			chance, _ := json.Marshal(snap.ChanceOfNew)
			last, err := json.Marshal(snap.Last)
			if err != nil {
				return Run{}, fmt.Errorf("encode outcome: %w", err)
			}
			if _, err := stmt.ExecContext(ctx,
				run.ID, idx, i, snap.Unique, snap.Draws,
				string(missing), string(chance), string(last),
			); err != nil {
				return Run{}, fmt.Errorf("insert snapshot case %d roll %d: %w", idx, i, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("commit run %s: %w", run.ID, err)
	}
	return run, nil
}

// LoadRun returns a run and its reconstructed simulation data.
func (s *Store) LoadRun(ctx context.Context, id string) (Run, *gacha.SimulationData, error) {
	if err := ctx.Err(); err != nil {
		return Run{}, nil, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, created_at, scenario, seed, cases, rolls_per_case, autorelease, probabilities, catalog_size
		 FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Run{}, nil, err
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT case_index, unique_count, draws, missing, chance_of_new, last_outcome
		 FROM snapshots WHERE run_id = ? ORDER BY case_index, roll_index`, id)
	if err != nil {
		return Run{}, nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	cases := make(map[int]gacha.Case)
	for rows.Next() {
		var (
			idx                   int
			snap                  gacha.Snapshot
			missing, chance, last string
		)
		if err := rows.Scan(&idx, &snap.Unique, &snap.Draws, &missing, &chance, &last); err != nil {
			return Run{}, nil, fmt.Errorf("scan snapshot: %w", err)
		}
		if err := decodeSnapshot(&snap, missing, chance, last); err != nil {
			return Run{}, nil, fmt.Errorf("run %s case %d: %w", id, idx, err)
		}
		cases[idx] = append(cases[idx], snap)
	}
	if err := rows.Err(); err != nil {
		return Run{}, nil, fmt.Errorf("iterate snapshots: %w", err)
	}

	data := gacha.NewSimulationData()
	for i := 0; i < run.Params.Cases; i++ {
		c, ok := cases[i]
		if !ok {
			c = make(gacha.Case, 0)
		}
		if err := data.Register(i, c); err != nil {
			return Run{}, nil, err
		}
	}
	return run, data, nil
}

// ListRuns returns stored runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, created_at, scenario, seed, cases, rolls_per_case, autorelease, probabilities, catalog_size
		 FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(r rowScanner) (Run, error) {
	var (
		run       Run
		createdAt int64
		seed      int64
		probs     string
	)
	if err := r.Scan(&run.ID, &createdAt, &run.Scenario, &seed,
		&run.Params.Cases, &run.Params.RollsPerCase, &run.Params.Autorelease, &probs, &run.CatalogSize); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.CreatedAt = fromMillis(createdAt)
	run.Seed = uint64(seed)
	if err := json.Unmarshal([]byte(probs), &run.Probabilities); err != nil {
		return Run{}, fmt.Errorf("decode probabilities of run %s: %w", run.ID, err)
	}
	return run, nil
}

func decodeSnapshot(snap *gacha.Snapshot, missing, chance, last string) error {
	if err := json.Unmarshal([]byte(missing), &snap.Missing); err != nil {
		return fmt.Errorf("decode missing: %w", err)
	}
	if err := json.Unmarshal([]byte(chance), &snap.ChanceOfNew); err != nil {
		return fmt.Errorf("decode chance_of_new: %w", err)
	}
	if err := json.Unmarshal([]byte(last), &snap.Last); err != nil {
		return fmt.Errorf("decode last outcome: %w", err)
	}
	return nil
}
