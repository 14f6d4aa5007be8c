package storage

import (
	"context"
	"errors"
)

// Store persists the samples of dataset generation runs.
type Store interface {
	// CreateRun registers a new run before any of its samples are stored.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - run: Run metadata, run.ID must be set
	//   - config: Optional run configuration. Can be string, []byte, or a serializable object
	CreateRun(ctx context.Context, run *Run, config any) error

	// StoreSamples saves a batch of samples of a run. A batch is stored
	// atomically where the backend supports it.
	StoreSamples(ctx context.Context, samples []*Sample) error

	// Close releases all resources. It is safe to call Close multiple times.
	Close() error
}

// Multi returns a Store that writes to every store in order and stops at the
// first error.
func Multi(stores ...Store) Store {
	return multiStore(stores)
}

type multiStore []Store

func (m multiStore) CreateRun(ctx context.Context, run *Run, config any) error {
	for _, s := range m {
		if err := s.CreateRun(ctx, run, config); err != nil {
			return err
		}
	}
	return nil
}

func (m multiStore) StoreSamples(ctx context.Context, samples []*Sample) error {
	for _, s := range m {
		if err := s.StoreSamples(ctx, samples); err != nil {
			return err
		}
	}
	return nil
}

func (m multiStore) Close() error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
