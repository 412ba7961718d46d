package storage

import (
	"context"
	"errors"
	"slices"

	"github.com/egorairo/ShelfSense/gaps"
)

// SalesState loads the sales records a gap analysis runs against.
type SalesState interface {
	Load(ctx context.Context) ([]gaps.SalesRecord, error)
}

// MemorySalesState serves a fixed set of records.
type MemorySalesState struct {
	records []gaps.SalesRecord
	err     error
}

func NewMemorySalesState(records []gaps.SalesRecord) *MemorySalesState {
	return &MemorySalesState{records: records}
}

// NewMemorySalesStateWithError returns a state whose Load always fails.
func NewMemorySalesStateWithError() *MemorySalesState {
	return &MemorySalesState{err: errors.New("not found")}
}

func (m *MemorySalesState) Load(ctx context.Context) ([]gaps.SalesRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	return slices.Clone(m.records), nil
}

type salesKey struct{}

// WithSales attaches request-scoped sales records to ctx.
func WithSales(ctx context.Context, records []gaps.SalesRecord) context.Context {
	return context.WithValue(ctx, salesKey{}, records)
}

// SalesFromContext returns the records attached by WithSales, if any.
func SalesFromContext(ctx context.Context) ([]gaps.SalesRecord, bool) {
	records, ok := ctx.Value(salesKey{}).([]gaps.SalesRecord)
	return records, ok
}

// RequestSalesState prefers records attached to the request context and
// falls back to a configured source. With neither it yields no records.
type RequestSalesState struct {
	fallback SalesState
}

func NewRequestSalesState(fallback SalesState) *RequestSalesState {
	return &RequestSalesState{fallback: fallback}
}

func (r *RequestSalesState) Load(ctx context.Context) ([]gaps.SalesRecord, error) {
	if records, ok := SalesFromContext(ctx); ok {
		return slices.Clone(records), nil
	}
	if r.fallback == nil {
		return []gaps.SalesRecord{}, nil
	}
	return r.fallback.Load(ctx)
}
