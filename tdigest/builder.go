// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2021 Datadog, Inc.

package tdigest

import (
	"errors"
	"math"
	"sort"
)

var (
	// ErrInvalidCompression is returned when a builder is requested with a
	// zero compression parameter.
	ErrInvalidCompression = errors.New("tdigest: the compression parameter must be positive")

	// ErrNonFiniteValue is returned when a NaN or infinite value is pushed.
	ErrNonFiniteValue = errors.New("tdigest: the value must be finite")

	// ErrBuilderConsumed is returned by any operation on a builder that has
	// already been built or merged away.
	ErrBuilderConsumed = errors.New("tdigest: the builder has already been consumed")
)

// Builder accumulates values into an in-progress digest. Pushed values are
// batched in a pending buffer and flushed through the insertion path in
// ascending order, which amortizes the compression cost.
//
// A Builder is not safe for concurrent use: pushes must be serialized by the
// caller. Build consumes the builder.
type Builder struct {
	compression uint32
	centroids   []Centroid
	count       uint64
	min         float64
	max         float64
	pending     []float64
	consumed    bool
}

// NewBuilder returns a Builder for a digest with the given compression.
// Higher compressions retain more centroids and therefore more accuracy, at
// the cost of memory and a larger serialized form.
func NewBuilder(compression uint32) (*Builder, error) {
	if compression == 0 {
		return nil, ErrInvalidCompression
	}
	return &Builder{
		compression: compression,
		pending:     make([]float64, 0, compression),
		min:         math.Inf(1),
		max:         math.Inf(-1),
	}, nil
}

// Push adds a single observation. NaN and infinite values are rejected,
// never absorbed or clamped.
func (b *Builder) Push(value float64) error {
	if b.consumed {
		return ErrBuilderConsumed
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return ErrNonFiniteValue
	}
	b.pending = append(b.pending, value)
	if len(b.pending) >= int(b.compression) {
		b.flush()
	}
	return nil
}

// Merge absorbs the state of other into b. other is consumed: any later
// operation on it reports ErrBuilderConsumed. The absorbed centroids are
// re-clustered under b's compression.
func (b *Builder) Merge(other *Builder) error {
	if b.consumed || other.consumed {
		return ErrBuilderConsumed
	}
	b.flush()
	other.flush()
	if other.count > 0 {
		pooled := mergeSortedCentroids(b.centroids, other.centroids)
		b.count += other.count
		b.centroids = compressCentroids(pooled, b.compression, b.count)
		if other.min < b.min {
			b.min = other.min
		}
		if other.max > b.max {
			b.max = other.max
		}
	}
	other.consumed = true
	other.centroids = nil
	other.pending = nil
	return nil
}

// Build runs a final compression pass and returns the finished digest. The
// builder is consumed; any later operation on it reports ErrBuilderConsumed.
func (b *Builder) Build() (*TDigest, error) {
	if b.consumed {
		return nil, ErrBuilderConsumed
	}
	b.flush()
	b.consumed = true
	digest := &TDigest{
		compression: b.compression,
		centroids:   compressCentroids(b.centroids, b.compression, b.count),
		count:       b.count,
		min:         b.min,
		max:         b.max,
	}
	b.centroids = nil
	b.pending = nil
	return digest, nil
}

// flush drains the pending buffer through the insertion path in ascending
// order.
func (b *Builder) flush() {
	if len(b.pending) == 0 {
		return
	}
	sort.Float64s(b.pending)
	for _, v := range b.pending {
		b.insertValue(v)
	}
	b.pending = b.pending[:0]
}
