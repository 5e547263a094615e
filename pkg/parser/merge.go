package parser

import (
	"container/heap"
	"context"
	"io"
	"time"
)

// MergedSource combines multiple LogSources into a single stream ordered by
// the timestamp found at timeField (oldest first). Records without a usable
// timestamp sort as the zero time, so they are released as soon as they reach
// the front of their own source. Equal timestamps keep source order.
type MergedSource struct {
	sources     []LogSource
	timeField   string
	heap        *recordHeap
	initialized bool

	// refill is the source whose record was returned last and has not been
	// read from again yet, or -1.
	refill int
}

// NewMergedSource creates a LogSource that merges multiple sources by timestamp.
func NewMergedSource(timeField string, sources ...LogSource) *MergedSource {
	return &MergedSource{
		sources:   sources,
		timeField: timeField,
		heap:      &recordHeap{},
		refill:    -1,
	}
}

// Next returns the next record in timestamp order across all sources.
// Returns io.EOF when all sources are exhausted.
func (m *MergedSource) Next(ctx context.Context) (*Record, error) {
	if !m.initialized {
		if err := m.initHeap(ctx); err != nil {
			return nil, err
		}
		m.initialized = true
	}

	// The previous record's source is read again only on the following call
	if m.refill >= 0 {
		idx := m.refill
		m.refill = -1
		if err := m.push(ctx, idx); err != nil {
			return nil, err
		}
	}

	if m.heap.Len() == 0 {
		return nil, io.EOF
	}

	item := heap.Pop(m.heap).(*heapItem)
	m.refill = item.sourceIdx

	return item.rec, nil
}

// initHeap reads the first record from each source.
func (m *MergedSource) initHeap(ctx context.Context) error {
	heap.Init(m.heap)
	for i := range m.sources {
		if err := m.push(ctx, i); err != nil {
			return err
		}
	}
	return nil
}

func (m *MergedSource) push(ctx context.Context, idx int) error {
	rec, err := m.sources[idx].Next(ctx)
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return err
	}
	ts, _ := rec.Timestamp(m.timeField)
	heap.Push(m.heap, &heapItem{rec: rec, ts: ts, sourceIdx: idx})
	return nil
}

// Close releases all source resources.
func (m *MergedSource) Close() error {
	var firstErr error
	for _, src := range m.sources {
		if err := src.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// heapItem wraps a Record with its cached timestamp and source index.
type heapItem struct {
	rec       *Record
	ts        time.Time
	sourceIdx int
}

// recordHeap implements heap.Interface for timestamp-ordered merging.
type recordHeap []*heapItem

func (h recordHeap) Len() int { return len(h) }

func (h recordHeap) Less(i, j int) bool {
	if !h[i].ts.Equal(h[j].ts) {
		return h[i].ts.Before(h[j].ts)
	}
	return h[i].sourceIdx < h[j].sourceIdx
}

func (h recordHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *recordHeap) Push(x any) {
	*h = append(*h, x.(*heapItem))
}

func (h *recordHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[0 : n-1]
	return item
}
