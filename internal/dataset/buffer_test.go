package dataset

import (
	"slices"
	"testing"
)

func indexes(samples []*Sample) []int {
	out := make([]int, len(samples))
	for i, s := range samples {
		out[i] = s.Index
	}
	return out
}

func TestSampleBuffer_Ordering(t *testing.T) {
	sb, err := NewSampleBuffer(0, 10, 10)
	if err != nil {
		t.Fatalf("Failed to create buffer: %v", err)
	}

	// Workers finish out of order
	for _, i := range []int{4, 1, 3, 0, 6, 2} {
		if err := sb.Insert(i, &Sample{Index: i}); err != nil {
			t.Errorf("Failed to insert sample %d: %v", i, err)
		}
	}

	if size := sb.Size(); size != 6 {
		t.Errorf("Expected buffer size 6, got %d", size)
	}
	if ready := sb.Ready(); ready != 5 {
		t.Errorf("Expected 5 ready samples, got %d", ready)
	}

	flushed := sb.Flush()
	if got, want := indexes(flushed), []int{0, 1, 2, 3, 4}; !slices.Equal(got, want) {
		t.Errorf("Expected flushed indexes %v, got %v", want, got)
	}

	// Index 6 waits for 5
	if flushed := sb.Flush(); flushed != nil {
		t.Errorf("Expected nothing ready, got %v", indexes(flushed))
	}
	if err := sb.Insert(5, &Sample{Index: 5}); err != nil {
		t.Fatalf("Failed to insert sample 5: %v", err)
	}
	if got, want := indexes(sb.Flush()), []int{5, 6}; !slices.Equal(got, want) {
		t.Errorf("Expected flushed indexes %v, got %v", want, got)
	}
}

func TestSampleBuffer_FlushBehavior(t *testing.T) {
	sb, err := NewSampleBuffer(0, 3, 2)
	if err != nil {
		t.Fatalf("Failed to create buffer: %v", err)
	}

	for _, i := range []int{2, 0, 1} {
		if err := sb.Insert(i, &Sample{Index: i}); err != nil {
			t.Errorf("Failed to insert sample %d: %v", i, err)
		}
	}

	if !sb.IsFull() {
		t.Error("Buffer should be full")
	}

	flushed := sb.Flush()
	if got, want := indexes(flushed), []int{0, 1}; !slices.Equal(got, want) {
		t.Errorf("Expected flushed indexes %v, got %v", want, got)
	}
	if size := sb.Size(); size != 1 {
		t.Errorf("Expected remaining size 1, got %d", size)
	}
}

func TestSampleBuffer_SkippedIndexes(t *testing.T) {
	sb, err := NewSampleBuffer(0, 10, 10)
	if err != nil {
		t.Fatalf("Failed to create buffer: %v", err)
	}

	_ = sb.Insert(0, &Sample{Index: 0})
	_ = sb.Insert(2, &Sample{Index: 2})
	_ = sb.Insert(1, nil)

	if got, want := indexes(sb.Flush()), []int{0, 2}; !slices.Equal(got, want) {
		t.Errorf("Expected flushed indexes %v, got %v", want, got)
	}
	if size := sb.Size(); size != 0 {
		t.Errorf("Expected empty buffer, got size %d", size)
	}
}

func TestSampleBuffer_DrainAll(t *testing.T) {
	sb, err := NewSampleBuffer(3, 10, 2)
	if err != nil {
		t.Fatalf("Failed to create buffer: %v", err)
	}

	_ = sb.Insert(7, &Sample{Index: 7})
	_ = sb.Insert(5, &Sample{Index: 5})

	if flushed := sb.Flush(); flushed != nil {
		t.Errorf("Expected nothing ready before index 3, got %v", indexes(flushed))
	}

	if got, want := indexes(sb.DrainAll()), []int{5, 7}; !slices.Equal(got, want) {
		t.Errorf("Expected drained indexes %v, got %v", want, got)
	}

	// Drained indexes cannot come back
	if err := sb.Insert(6, &Sample{Index: 6}); err == nil {
		t.Error("Expected error when inserting an index before the drained ones")
	}
}

func TestSampleBuffer_EdgeCases(t *testing.T) {
	sb, err := NewSampleBuffer(0, 5, 2)
	if err != nil {
		t.Fatalf("Failed to create buffer: %v", err)
	}

	if err := sb.Insert(1, &Sample{Index: 2}); err == nil {
		t.Error("Expected error when inserting a sample under another index")
	}

	if err := sb.Insert(1, &Sample{Index: 1}); err != nil {
		t.Fatalf("Failed to insert sample 1: %v", err)
	}
	if err := sb.Insert(1, &Sample{Index: 1}); err == nil {
		t.Error("Expected error when inserting a duplicate index")
	}

	sb.Clear()

	// Test empty buffer operations
	if sb.Flush() != nil {
		t.Error("Flush on empty buffer should return nil")
	}
	if sb.DrainAll() != nil {
		t.Error("DrainAll on empty buffer should return nil")
	}
	if sb.IsFull() {
		t.Error("Empty buffer should not be full")
	}
	if sb.Size() != 0 {
		t.Error("Empty buffer should have size 0")
	}

	// Test buffer creation with invalid parameters
	testCases := []struct {
		name     string
		first    int
		capacity int
		flush    int
	}{
		{"invalid capacity", 0, 0, 1},
		{"invalid flush count", 0, 5, 6},
		{"negative first index", -1, 5, 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSampleBuffer(tc.first, tc.capacity, tc.flush)
			if err == nil {
				t.Error("Expected error for invalid parameters")
			}
		})
	}
}
