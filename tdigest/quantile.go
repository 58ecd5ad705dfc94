// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2021 Datadog, Inc.

package tdigest

import (
	"errors"
	"math"
)

var (
	// ErrEmptyDigest is returned when querying a digest that has absorbed no
	// values.
	ErrEmptyDigest = errors.New("tdigest: the digest contains no values")

	// ErrInvalidQuantile is returned when the requested rank fraction lies
	// outside [0, 1].
	ErrInvalidQuantile = errors.New("tdigest: the quantile must be between 0 and 1")
)

// Quantile estimates the value at rank fraction q.
//
// The extremes are exact: Quantile(0) is the minimum and Quantile(1) the
// maximum of the absorbed values. In between, the estimate follows the
// piecewise-linear curve through the centroid midpoints, anchored at the
// exact extrema, except that a straddling singleton returns its mean
// exactly. The result is non-decreasing in q.
func (d *TDigest) Quantile(q float64) (float64, error) {
	if math.IsNaN(q) || q < 0 || q > 1 {
		return math.NaN(), ErrInvalidQuantile
	}
	if d.count == 0 {
		return math.NaN(), ErrEmptyDigest
	}
	if q == 0 {
		return d.min, nil
	}
	if q == 1 {
		return d.max, nil
	}

	rank := q * float64(d.count)
	var cum uint64
	for i, c := range d.centroids {
		if rank <= float64(cum+c.Weight) {
			if c.Weight == 1 {
				// A singleton is an exact observation.
				return c.Mean, nil
			}
			return d.interpolate(i, cum, rank), nil
		}
		cum += c.Weight
	}
	return d.max, nil
}

// interpolate evaluates the quantile curve inside centroid i, whose weight
// straddles rank. The curve is linear between the midpoint ranks of
// neighboring centroids, with (0, min) and (count, max) as outer knots.
func (d *TDigest) interpolate(i int, cum uint64, rank float64) float64 {
	c := d.centroids[i]
	mid := float64(cum) + float64(c.Weight)/2

	if rank < mid {
		loRank, loVal := 0.0, d.min
		if i > 0 {
			prev := d.centroids[i-1]
			loRank = float64(cum) - float64(prev.Weight)/2
			loVal = prev.Mean
		}
		return loVal + (c.Mean-loVal)*(rank-loRank)/(mid-loRank)
	}

	hiRank, hiVal := float64(d.count), d.max
	if i < len(d.centroids)-1 {
		next := d.centroids[i+1]
		hiRank = float64(cum) + float64(c.Weight) + float64(next.Weight)/2
		hiVal = next.Mean
	}
	return c.Mean + (hiVal-c.Mean)*(rank-mid)/(hiRank-mid)
}

// CDF estimates the fraction of absorbed values at or below v, the inverse
// of Quantile along the same interpolation curve.
func (d *TDigest) CDF(v float64) (float64, error) {
	if math.IsNaN(v) {
		return math.NaN(), ErrNonFiniteValue
	}
	if d.count == 0 {
		return math.NaN(), ErrEmptyDigest
	}
	if v < d.min {
		return 0, nil
	}
	if v >= d.max {
		return 1, nil
	}

	w := float64(d.count)
	loRank, loVal := 0.0, d.min
	var cum uint64
	for _, c := range d.centroids {
		mid := float64(cum) + float64(c.Weight)/2
		if v < c.Mean {
			if c.Mean == loVal {
				return mid / w, nil
			}
			return (loRank + (mid-loRank)*(v-loVal)/(c.Mean-loVal)) / w, nil
		}
		if c.Weight == 1 && v == c.Mean {
			// The whole unit of weight sits exactly at v.
			return (float64(cum) + 1) / w, nil
		}
		cum += c.Weight
		loRank, loVal = mid, c.Mean
	}
	// v lies between the last centroid mean and the exact maximum.
	return (loRank + (w-loRank)*(v-loVal)/(d.max-loVal)) / w, nil
}
