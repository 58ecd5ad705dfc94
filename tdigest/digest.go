// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2021 Datadog, Inc.

// Package tdigest implements the t-digest, a centroid-based sketch for
// approximate quantile and rank estimation over a stream of float64 values.
//
// Values are accumulated through a Builder, which Build consumes to produce
// an immutable TDigest. Digests built over disjoint partitions can be
// combined with MergeWith; the combined digest preserves the quantile error
// bound regardless of merge order. None of the types are safe for concurrent
// mutation; see the method comments for the exact contracts.
package tdigest

import "math"

// TDigest is a finished digest. It is immutable except for MergeWith, which
// requires exclusive access to its receiver.
type TDigest struct {
	compression uint32
	centroids   []Centroid // ascending by mean, strictly
	count       uint64
	min         float64 // exact extrema, not approximated by any centroid
	max         float64
}

// compressCentroids rebuilds an ascending centroid list from an ascending
// multiset of weighted points so that every cluster spans at most one unit
// of cluster-index space for the given compression. Adjacent points with
// equal means always collapse, so the output is strictly ascending.
//
// The pass is a deterministic left-to-right walk: the same input produces
// bit-identical output, which the canonical codec relies on. Points that end
// up alone in their cluster keep their exact mean, making the pass a no-op
// on already-compressed input.
func compressCentroids(points []Centroid, compression uint32, count uint64) []Centroid {
	if len(points) == 0 {
		return nil
	}
	d := float64(compression)
	w := float64(count)

	out := make([]Centroid, 0, len(points))
	var emitted uint64 // weight already emitted in completed clusters

	cur := points[0]
	curSum := cur.Mean * float64(cur.Weight)
	for _, p := range points[1:] {
		if p.Mean == cur.Mean {
			// Equal means collapse without recomputation so that the mean
			// stays exact.
			cur.Weight += p.Weight
			curSum = cur.Mean * float64(cur.Weight)
			continue
		}
		q1 := float64(emitted) / w
		q2 := float64(emitted+cur.Weight+p.Weight) / w
		if spanWithinBound(q1, q2, d) {
			curSum += p.Mean * float64(p.Weight)
			cur.Weight += p.Weight
			cur.Mean = curSum / float64(cur.Weight)
			continue
		}
		out = appendCentroid(out, cur)
		emitted += cur.Weight
		cur = p
		curSum = p.Mean * float64(p.Weight)
	}
	return appendCentroid(out, cur)
}

// appendCentroid collapses c into the previous cluster in the rare case
// where float rounding of a cluster mean produced a non-increasing value,
// keeping the output strictly ascending.
func appendCentroid(out []Centroid, c Centroid) []Centroid {
	if n := len(out); n > 0 && c.Mean <= out[n-1].Mean {
		out[n-1].Weight += c.Weight
		return out
	}
	return append(out, c)
}

// MergeWith absorbs the centroids of other into d, re-clustering the pooled
// points at d's compression. The caller must have exclusive access to d;
// other is left unmodified and may be read concurrently.
func (d *TDigest) MergeWith(other *TDigest) {
	if other == nil || other.count == 0 {
		return
	}
	pooled := mergeSortedCentroids(d.centroids, other.centroids)
	d.count += other.count
	d.centroids = compressCentroids(pooled, d.compression, d.count)
	if other.min < d.min {
		d.min = other.min
	}
	if other.max > d.max {
		d.max = other.max
	}
}

// Compression returns the compression parameter the digest was built with.
func (d *TDigest) Compression() uint32 { return d.compression }

// Count returns the number of values the digest has absorbed.
func (d *TDigest) Count() uint64 { return d.count }

// IsEmpty reports whether the digest has absorbed no values.
func (d *TDigest) IsEmpty() bool { return d.count == 0 }

// Min returns the exact minimum of the absorbed values, or NaN if the digest
// is empty.
func (d *TDigest) Min() float64 {
	if d.count == 0 {
		return math.NaN()
	}
	return d.min
}

// Max returns the exact maximum of the absorbed values, or NaN if the digest
// is empty.
func (d *TDigest) Max() float64 {
	if d.count == 0 {
		return math.NaN()
	}
	return d.max
}

// Sum returns the sum of the absorbed values. Clustering preserves weighted
// sums, so this matches the exact sum up to float64 rounding.
func (d *TDigest) Sum() float64 {
	var sum float64
	for _, c := range d.centroids {
		sum += c.Mean * float64(c.Weight)
	}
	return sum
}

// Mean returns the average of the absorbed values, or 0 if the digest is
// empty.
func (d *TDigest) Mean() float64 {
	if d.count == 0 {
		return 0
	}
	return d.Sum() / float64(d.count)
}

// Centroids returns a copy of the digest's centroids, ascending by mean.
func (d *TDigest) Centroids() []Centroid {
	centroids := make([]Centroid, len(d.centroids))
	copy(centroids, d.centroids)
	return centroids
}
