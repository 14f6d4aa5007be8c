package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
)

// SampleReader provides an iterator-based interface for reading the samples
// of a run.
type SampleReader interface {
	// Run returns metadata about the run this reader is accessing.
	Run() *Run

	// Next advances the iterator and returns true if there is another sample
	// to read, false when the iteration is complete or if an error occurred.
	Next(context.Context) bool

	// Current returns the current sample in the iteration.
	Current() *Sample

	// Error returns any error that occurred during iteration.
	Error() error

	// Close releases any resources associated with the reader.
	Close() error
}

// ReaderOption configures a SqliteSampleReader.
type ReaderOption func(*SqliteSampleReader)

// WithFirstIndex skips samples with an index below i.
func WithFirstIndex(i int) ReaderOption {
	return func(r *SqliteSampleReader) {
		r.first = &i
	}
}

// WithLastIndex skips samples with an index above i.
func WithLastIndex(i int) ReaderOption {
	return func(r *SqliteSampleReader) {
		r.last = &i
	}
}

// WithIndexRange limits the reader to indexes in [first, last].
func WithIndexRange(first, last int) ReaderOption {
	return func(r *SqliteSampleReader) {
		r.first = &first
		r.last = &last
	}
}

// WithLimit stops the reader after n samples.
func WithLimit(n int) ReaderOption {
	return func(r *SqliteSampleReader) {
		r.limit = n
	}
}

// SqliteSampleReader implements SampleReader for SQLite database backend.
type SqliteSampleReader struct {
	db *sql.DB

	runID string
	run   *Run

	first *int // Optional lowest index
	last  *int // Optional highest index
	limit int  // Zero means no limit

	current *Sample
	rows    *sql.Rows
	err     error
}

func newSqliteSampleReader(ctx context.Context, db *sql.DB, runID string, opts ...ReaderOption) (*SqliteSampleReader, error) {
	sr := &SqliteSampleReader{
		db:    db,
		runID: runID,
	}
	for _, opt := range opts {
		opt(sr)
	}
	if err := sr.init(ctx); err != nil {
		return nil, fmt.Errorf("initializing reader: %w", err)
	}
	return sr, nil
}

func (sr *SqliteSampleReader) init(ctx context.Context) error {
	if sr.db == nil {
		return errors.New("database connection required")
	}
	if sr.runID == "" {
		return errors.New("run ID required")
	}
	if sr.limit < 0 {
		return fmt.Errorf("limit must not be negative: %d", sr.limit)
	}

	steps := []struct {
		msg string
		fn  func(context.Context) error
	}{
		{msg: "loading run", fn: sr.loadRun},
		{msg: "initializing filters", fn: sr.initFilters},
		{msg: "initializing query", fn: sr.initQuery},
	}
	for _, s := range steps {
		if err := s.fn(ctx); err != nil {
			return fmt.Errorf("%s: %w", s.msg, err)
		}
	}
	return nil
}

func (sr *SqliteSampleReader) loadRun(ctx context.Context) (err error) {
	stmt, err := sr.db.PrepareContext(ctx, selectRunSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	if sr.run, err = scanRun(stmt.QueryRowContext(ctx, sr.runID)); err != nil {
		return fmt.Errorf("querying run: %w", err)
	}
	return
}

func (sr *SqliteSampleReader) initFilters(ctx context.Context) (err error) {
	if sr.first != nil && sr.last != nil {
		if *sr.first > *sr.last {
			return fmt.Errorf("first index %d is after last index %d", *sr.first, *sr.last)
		}
		return nil
	}

	stmt, err := sr.db.PrepareContext(ctx, selectSampleBoundsSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	var first, last int
	if err = stmt.QueryRowContext(ctx, sr.runID).Scan(&first, &last); err != nil {
		return fmt.Errorf("scanning filters data: %w", err)
	}

	if sr.first == nil {
		sr.first = &first
	}
	if sr.last == nil {
		sr.last = &last
	}
	return nil
}

func (sr *SqliteSampleReader) initQuery(ctx context.Context) (err error) {
	stmt, err := sr.db.PrepareContext(ctx, selectSamplesSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	limit := int64(math.MaxInt64)
	if sr.limit > 0 {
		limit = int64(sr.limit)
	}

	if sr.rows, err = stmt.QueryContext(ctx, sr.runID, *sr.first, *sr.last, limit); err != nil {
		return err
	}
	return nil
}

func (sr *SqliteSampleReader) scanSample() (*Sample, error) {
	s := Sample{RunID: sr.runID}
	var squeezed int
	var blob []byte

	err := sr.rows.Scan(
		&s.ID,
		&s.Index,
		&s.Height,
		&s.RelativeVelocity,
		&s.Style,
		&s.RangeMin,
		&s.RangeResolution,
		&s.SamplingRate,
		&s.Wavelength,
		&s.Bins,
		&s.TimeSamples,
		&squeezed,
		&blob,
	)
	if err != nil {
		return nil, fmt.Errorf("scanning sample: %w", err)
	}
	s.Squeezed = squeezed != 0

	if s.Data, err = decodeComplex(blob); err != nil {
		return nil, fmt.Errorf("decoding sample %d: %w", s.Index, err)
	}
	if len(s.Data) != s.Bins*s.TimeSamples {
		return nil, fmt.Errorf("decoding sample %d: %d values for shape %dx%d", s.Index, len(s.Data), s.Bins, s.TimeSamples)
	}
	return &s, nil
}

func (sr *SqliteSampleReader) Run() *Run {
	return sr.run
}

func (sr *SqliteSampleReader) Next(ctx context.Context) bool {
	if sr.err != nil || sr.rows == nil {
		return false
	}

	select {
	case <-ctx.Done():
		sr.err = ctx.Err()
		return false
	default:
	}

	if !sr.rows.Next() {
		sr.current = nil
		return false
	}

	sr.current, sr.err = sr.scanSample()
	return sr.err == nil
}

func (sr *SqliteSampleReader) Current() *Sample {
	return sr.current
}

func (sr *SqliteSampleReader) Error() error {
	if sr.err != nil {
		return sr.err
	}
	if sr.rows != nil {
		return sr.rows.Err()
	}
	return nil
}

func (sr *SqliteSampleReader) Close() error {
	if sr.rows != nil {
		err := sr.rows.Close()
		sr.current = nil
		sr.rows = nil
		return err
	}
	return nil
}
