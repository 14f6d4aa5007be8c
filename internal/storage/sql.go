package storage

const (
	initSchemaSQL = `
CREATE TABLE IF NOT EXISTS runs
(
    id            TEXT PRIMARY KEY,
    start_time    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    seed          INTEGER  NOT NULL,
    samples       INTEGER  NOT NULL,
    squeeze_range INTEGER  NOT NULL,
    config        TEXT
);

CREATE TABLE IF NOT EXISTS samples
(
    id                TEXT PRIMARY KEY,
    run_id            TEXT    NOT NULL REFERENCES runs (id),
    sample_index      INTEGER NOT NULL,
    height            REAL    NOT NULL,
    rv                REAL    NOT NULL,
    style             TEXT    NOT NULL,
    range_min         REAL    NOT NULL,
    range_resolution  REAL    NOT NULL,
    sampling_rate     REAL    NOT NULL,
    wavelength        REAL    NOT NULL,
    bins              INTEGER NOT NULL,
    time_samples      INTEGER NOT NULL,
    squeezed          INTEGER NOT NULL,
    data              BLOB    NOT NULL,
    UNIQUE (run_id, sample_index)
);`

	initIndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_runs_start_time ON runs (start_time);
CREATE INDEX IF NOT EXISTS idx_samples_run_rv ON samples (run_id, rv);`

	insertRunSQL = `
INSERT INTO runs (
                  id,
                  seed,
                  samples,
                  squeeze_range,
                  config)
VALUES (?, ?, ?, ?, ?)`

	selectRunSQL = `
SELECT
    id,
    start_time,
    seed,
    samples,
    squeeze_range,
    config
FROM runs
WHERE
    id = ?`

	selectRunsSQL = `
SELECT
    id,
    start_time,
    seed,
    samples,
    squeeze_range,
    config
FROM runs
ORDER BY start_time, id`

	insertSampleSQL = `
INSERT INTO samples (
                     id,
                     run_id,
                     sample_index,
                     height,
                     rv,
                     style,
                     range_min,
                     range_resolution,
                     sampling_rate,
                     wavelength,
                     bins,
                     time_samples,
                     squeezed,
                     data)
VALUES `

	selectSampleBoundsSQL = `
SELECT
    COALESCE(MIN(sample_index), 0),
    COALESCE(MAX(sample_index), -1)
FROM samples
WHERE run_id = ?`

	selectSamplesSQL = `
SELECT
    id,
    sample_index,
    height,
    rv,
    style,
    range_min,
    range_resolution,
    sampling_rate,
    wavelength,
    bins,
    time_samples,
    squeezed,
    data
FROM samples
WHERE
    run_id = ?
    AND sample_index BETWEEN ? AND ?
ORDER BY sample_index
LIMIT ?`
)
