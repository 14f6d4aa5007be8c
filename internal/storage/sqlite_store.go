package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

const sampleColumns = 14

// SqliteStore handles database operations
type SqliteStore struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// NewSqliteStore creates a store backed by the Sqlite database at dbPath.
// Connections are opened, and the schema created, on first use.
func NewSqliteStore(dbPath string) *SqliteStore {
	return &SqliteStore{dbPath: dbPath}
}

func runSQLCommand(db *sql.DB, sql string) error {
	_, err := db.Exec(sql)
	return err
}

func (s *SqliteStore) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}

		if err = runSQLCommand(db, initSchemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *SqliteStore) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "mode=ro"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

// CreateRun inserts the run. The configuration is stored as JSON.
func (s *SqliteStore) CreateRun(ctx context.Context, run *Run, config any) (err error) {
	if run == nil || run.ID == "" {
		return errors.New("run ID required")
	}

	configData, err := configText(config)
	if err != nil {
		return err
	}

	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	stmt, err := db.PrepareContext(ctx, insertRunSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	// The driver rejects uint64 values with the high bit set.
	if _, err = stmt.ExecContext(ctx, run.ID, int64(run.Seed), run.Samples, boolToInt(run.SqueezeRange), configData); err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	return nil
}

// Run returns a run by its ID
func (s *SqliteStore) Run(ctx context.Context, id string) (run *Run, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, selectRunSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	if run, err = scanRun(stmt.QueryRowContext(ctx, id)); err != nil {
		err = fmt.Errorf("scanning run: %w", err)
		return
	}
	return run, nil
}

// Runs returns every run ordered by start time.
func (s *SqliteStore) Runs(ctx context.Context) (runs []*Run, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectRunsSQL)
	if err != nil {
		err = fmt.Errorf("querying runs: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var run *Run
		if run, err = scanRun(rows); err != nil {
			err = fmt.Errorf("scanning run: %w", err)
			return
		}
		runs = append(runs, run)
	}
	err = rows.Err()
	return
}

func scanRun(row interface{ Scan(...any) error }) (*Run, error) {
	var run Run
	var seed int64
	var squeeze int
	var config sql.NullString
	if err := row.Scan(&run.ID, &run.StartTime, &seed, &run.Samples, &squeeze, &config); err != nil {
		return nil, err
	}
	run.Seed = uint64(seed)
	run.SqueezeRange = squeeze != 0
	if config.Valid {
		run.Config = &config.String
	}
	return &run, nil
}

// ReadSamples creates a new SampleReader over the samples of a run, in
// index order. The reader must be closed after use.
func (s *SqliteStore) ReadSamples(ctx context.Context, runID string, opts ...ReaderOption) (*SqliteSampleReader, error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}
	return newSqliteSampleReader(ctx, db, runID, opts...)
}

// StoreSamples inserts the batch with a single multi-row statement in one
// transaction.
func (s *SqliteStore) StoreSamples(ctx context.Context, samples []*Sample) (err error) {
	if len(samples) == 0 {
		return
	}

	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	values := make([]interface{}, 0, len(samples)*sampleColumns)
	valuesPlaceholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", sampleColumns), ", ") + ")"

	var sb strings.Builder
	sb.WriteString(insertSampleSQL)

	for i, sample := range samples {
		values = append(values,
			sample.ID,
			sample.RunID,
			sample.Index,
			sample.Height,
			sample.RelativeVelocity,
			sample.Style,
			sample.RangeMin,
			sample.RangeResolution,
			sample.SamplingRate,
			sample.Wavelength,
			sample.Bins,
			sample.TimeSamples,
			boolToInt(sample.Squeezed),
			encodeComplex(sample.Data),
		)

		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(valuesPlaceholder)
	}

	if _, err = tx.ExecContext(ctx, sb.String(), values...); err != nil {
		return fmt.Errorf("batch inserting samples: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// Close creates the secondary indexes, if anything was written, and closes
// both connections.
func (s *SqliteStore) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.writeDB != nil {
			_ = runSQLCommand(s.writeDB, initIndexesSQL)

			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		s.closeErr = errors.Join(writeErr, readErr)
	})

	return s.closeErr
}
