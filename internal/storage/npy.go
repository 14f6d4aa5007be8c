package storage

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

const (
	npyMagic     = "\x93NUMPY"
	npyAlignment = 64
)

var npyShapePattern = regexp.MustCompile(`'shape':\s*\(([^)]*)\)`)

// WriteNPY writes values as a little-endian complex128 array of the given
// shape in NumPy format version 1.0.
func WriteNPY(w io.Writer, shape []int, values []complex128) error {
	n := 1
	dims := make([]string, len(shape))
	for i, d := range shape {
		if d < 0 {
			return fmt.Errorf("npy: negative dimension %d", d)
		}
		n *= d
		dims[i] = strconv.Itoa(d)
	}
	if n != len(values) {
		return fmt.Errorf("npy: %d values for shape %v", len(values), shape)
	}

	tuple := strings.Join(dims, ", ")
	if len(shape) == 1 {
		tuple += ","
	}
	header := fmt.Sprintf("{'descr': '<c16', 'fortran_order': False, 'shape': (%s), }", tuple)

	// Magic, version and header length take 10 bytes; the header is padded
	// with spaces and terminated by a newline so data starts aligned.
	pad := npyAlignment - (10+len(header)+1)%npyAlignment
	if pad == npyAlignment {
		pad = 0
	}
	header += strings.Repeat(" ", pad) + "\n"
	if len(header) > 0xffff {
		return errors.New("npy: header too long")
	}

	bw := bufio.NewWriter(w)
	bw.WriteString(npyMagic)
	bw.Write([]byte{1, 0})
	binary.Write(bw, binary.LittleEndian, uint16(len(header)))
	bw.WriteString(header)
	if _, err := bw.Write(encodeComplex(values)); err != nil {
		return fmt.Errorf("npy: writing data: %w", err)
	}
	return bw.Flush()
}

// ReadNPY reads a complex128 array written by WriteNPY.
func ReadNPY(r io.Reader) (shape []int, values []complex128, err error) {
	var prefix [10]byte
	if _, err = io.ReadFull(r, prefix[:]); err != nil {
		return nil, nil, fmt.Errorf("npy: reading preamble: %w", err)
	}
	if string(prefix[:6]) != npyMagic {
		return nil, nil, errors.New("npy: not a NumPy file")
	}
	if prefix[6] != 1 {
		return nil, nil, fmt.Errorf("npy: unsupported version %d.%d", prefix[6], prefix[7])
	}

	header := make([]byte, binary.LittleEndian.Uint16(prefix[8:]))
	if _, err = io.ReadFull(r, header); err != nil {
		return nil, nil, fmt.Errorf("npy: reading header: %w", err)
	}
	if !bytes.Contains(header, []byte("'descr': '<c16'")) {
		return nil, nil, fmt.Errorf("npy: unsupported header %q", bytes.TrimSpace(header))
	}
	if bytes.Contains(header, []byte("'fortran_order': True")) {
		return nil, nil, errors.New("npy: fortran order is not supported")
	}

	m := npyShapePattern.FindSubmatch(header)
	if m == nil {
		return nil, nil, fmt.Errorf("npy: no shape in header %q", bytes.TrimSpace(header))
	}
	n := 1
	for _, field := range strings.Split(string(m[1]), ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		d, err := strconv.Atoi(field)
		if err != nil {
			return nil, nil, fmt.Errorf("npy: bad dimension %q: %w", field, err)
		}
		shape = append(shape, d)
		n *= d
	}

	data := make([]byte, n*16)
	if _, err = io.ReadFull(r, data); err != nil {
		return nil, nil, fmt.Errorf("npy: reading data: %w", err)
	}
	values, err = decodeComplex(data)
	return shape, values, err
}
