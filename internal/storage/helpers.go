package storage

import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

func rollbackWithError(rb interface{ Rollback() error }, err *error) {
	if cErr := rb.Rollback(); cErr != nil && *err == nil && !errors.Is(cErr, sql.ErrTxDone) {
		*err = cErr
	}
}

// configText renders a run configuration for storage. Strings and byte
// slices are stored as is, anything else as JSON.
func configText(config any) (sql.NullString, error) {
	switch v := config.(type) {
	case nil:
		return sql.NullString{}, nil
	case string:
		return sql.NullString{String: v, Valid: true}, nil
	case []byte:
		return sql.NullString{String: string(v), Valid: true}, nil
	default:
		p, err := json.Marshal(config)
		if err != nil {
			return sql.NullString{}, fmt.Errorf("marshaling config: %w", err)
		}
		return sql.NullString{String: string(p), Valid: true}, nil
	}
}

// encodeComplex packs values as little-endian float64 real and imaginary
// pairs, the memory layout of NumPy complex128.
func encodeComplex(values []complex128) []byte {
	buf := make([]byte, 0, len(values)*16)
	for _, v := range values {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(real(v)))
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(imag(v)))
	}
	return buf
}

func decodeComplex(buf []byte) ([]complex128, error) {
	if len(buf)%16 != 0 {
		return nil, fmt.Errorf("complex blob of %d bytes is not a multiple of 16", len(buf))
	}
	values := make([]complex128, len(buf)/16)
	for i := range values {
		re := math.Float64frombits(binary.LittleEndian.Uint64(buf[i*16:]))
		im := math.Float64frombits(binary.LittleEndian.Uint64(buf[i*16+8:]))
		values[i] = complex(re, im)
	}
	return values, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
