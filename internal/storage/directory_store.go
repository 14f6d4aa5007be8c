package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigurationFile is written to the dataset directory on CreateRun.
const ConfigurationFile = "dataset_configuration.yaml"

// DirectoryStore writes one NumPy file per sample, named sample<N>.npy with N
// counting from 1, next to the run configuration.
type DirectoryStore struct {
	dir string
}

// NewDirectoryStore creates a store writing into dir.
func NewDirectoryStore(dir string) *DirectoryStore {
	return &DirectoryStore{dir: dir}
}

// Dir returns the dataset directory.
func (d *DirectoryStore) Dir() string {
	return d.dir
}

// SamplePath returns the file a sample of the given index is written to.
func (d *DirectoryStore) SamplePath(index int) string {
	return filepath.Join(d.dir, fmt.Sprintf("sample%d.npy", index+1))
}

// CreateRun creates the directory and writes the configuration as YAML.
func (d *DirectoryStore) CreateRun(ctx context.Context, run *Run, config any) error {
	if run == nil || run.ID == "" {
		return errors.New("run ID required")
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("creating dataset directory: %w", err)
	}

	var data []byte
	switch v := config.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		var err error
		if data, err = yaml.Marshal(config); err != nil {
			return fmt.Errorf("marshaling config: %w", err)
		}
	}

	if err := os.WriteFile(filepath.Join(d.dir, ConfigurationFile), data, 0o644); err != nil {
		return fmt.Errorf("writing configuration: %w", err)
	}
	return nil
}

// StoreSamples writes every sample to its own file.
func (d *DirectoryStore) StoreSamples(ctx context.Context, samples []*Sample) error {
	for _, s := range samples {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.writeSample(s); err != nil {
			return fmt.Errorf("writing sample %d: %w", s.Index, err)
		}
	}
	return nil
}

func (d *DirectoryStore) writeSample(s *Sample) (err error) {
	f, err := os.Create(d.SamplePath(s.Index))
	if err != nil {
		return err
	}
	defer closeWithError(f, &err)

	return WriteNPY(f, s.Shape(), s.Data)
}

// ReadSample reads back the array of the sample with the given index.
func (d *DirectoryStore) ReadSample(index int) (shape []int, values []complex128, err error) {
	f, err := os.Open(d.SamplePath(index))
	if err != nil {
		return nil, nil, err
	}
	defer closeWithError(f, &err)

	return ReadNPY(f)
}

func (d *DirectoryStore) Close() error {
	return nil
}
