package dataset

import (
	"fmt"
	"sync"
)

// node represents an internal linked list node for the sample buffer.
type node struct {
	index  int
	sample *Sample // nil when the index was skipped
	next   *node
}

// SampleBuffer is a thread-safe buffer that re-orders samples finished out of
// order by concurrent workers. Samples are released strictly in index order,
// so a batch is only flushed once every index before it has arrived.
type SampleBuffer struct {
	capacity   int // Number of pending samples at which the buffer is full
	flushCount int // Maximum number of samples released by one Flush

	mu        sync.Mutex
	head      *node
	size      int
	nextIndex int // Lowest index not yet released
}

// NewSampleBuffer creates a buffer releasing samples from index first on.
//
// Parameters:
//   - first: index of the first sample expected
//   - capacity: number of pending samples at which IsFull reports true
//   - flushCount: maximum number of samples returned by Flush
//
// Returns an error if parameters are invalid.
func NewSampleBuffer(first, capacity, flushCount int) (*SampleBuffer, error) {
	if capacity <= 0 || flushCount <= 0 || flushCount > capacity {
		return nil, fmt.Errorf("invalid buffer parameters: bufferCap=%d, toFlush=%d", capacity, flushCount)
	}
	if first < 0 {
		return nil, fmt.Errorf("invalid first index: %d", first)
	}
	return &SampleBuffer{
		capacity:   capacity,
		flushCount: flushCount,
		nextIndex:  first,
	}, nil
}

// Insert adds the outcome for index in order. A nil sample marks an index
// that was skipped, so later samples are not held back by it.
func (sb *SampleBuffer) Insert(index int, sample *Sample) error {
	if sample != nil && sample.Index != index {
		return fmt.Errorf("sample index %d inserted as %d", sample.Index, index)
	}

	sb.mu.Lock()
	defer sb.mu.Unlock()

	if index < sb.nextIndex {
		return fmt.Errorf("index %d was already released", index)
	}

	n := &node{index: index, sample: sample}

	// Special case: if index belongs before head
	if sb.head == nil || index < sb.head.index {
		n.next = sb.head
		sb.head = n
		sb.size++
		return nil
	}

	// Find insertion point
	current := sb.head
	for {
		if current.index == index {
			return fmt.Errorf("duplicate index %d", index)
		}
		if current.next == nil || current.next.index > index {
			n.next = current.next
			current.next = n
			sb.size++
			return nil
		}
		current = current.next
	}
}

// IsFull returns true if the buffer has reached its capacity.
func (sb *SampleBuffer) IsFull() bool {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	return sb.size >= sb.capacity
}

// Ready returns the number of samples, skipped ones included, that can be
// released in order right now.
func (sb *SampleBuffer) Ready() int {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	ready := 0
	expected := sb.nextIndex
	for current := sb.head; current != nil && current.index == expected; current = current.next {
		ready++
		expected++
	}
	return ready
}

// Flush removes and returns up to flushCount samples that are ready in
// index order. Skipped indexes are consumed without being returned.
func (sb *SampleBuffer) Flush() []*Sample {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	results := make([]*Sample, 0, sb.flushCount)
	for sb.head != nil && sb.head.index == sb.nextIndex && len(results) < sb.flushCount {
		if sb.head.sample != nil {
			results = append(results, sb.head.sample)
		}
		sb.head = sb.head.next
		sb.size--
		sb.nextIndex++
	}

	if len(results) == 0 {
		return nil
	}
	return results
}

// DrainAll removes and returns every sample in index order, whether or not
// earlier indexes are still missing.
func (sb *SampleBuffer) DrainAll() []*Sample {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.head == nil || sb.size == 0 {
		return nil
	}

	results := make([]*Sample, 0, sb.size)
	for current := sb.head; current != nil; current = current.next {
		if current.sample != nil {
			results = append(results, current.sample)
		}
		sb.nextIndex = current.index + 1
	}

	sb.head = nil
	sb.size = 0
	return results
}

// Size returns the current number of pending entries in the buffer.
func (sb *SampleBuffer) Size() int {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.size
}

// Clear removes all entries from the buffer.
func (sb *SampleBuffer) Clear() {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.head = nil
	sb.size = 0
}
