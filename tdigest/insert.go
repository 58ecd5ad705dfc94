// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2021 Datadog, Inc.

package tdigest

import "sort"

// compressionTriggerFactor scales the centroid count at which an in-progress
// digest gets recompressed.
const compressionTriggerFactor = 2

// insertValue absorbs a single finite value of weight 1, growing the nearest
// centroid when the scale-function bound allows it and starting a new
// singleton otherwise. Extrema are tracked exactly.
func (b *Builder) insertValue(x float64) {
	b.count++
	if x < b.min {
		b.min = x
	}
	if x > b.max {
		b.max = x
	}

	if len(b.centroids) == 0 {
		b.centroids = append(b.centroids, Centroid{Mean: x, Weight: 1})
		return
	}

	if b.absorb(b.nearestCentroid(x), x) {
		return
	}

	// Start a new singleton at its sorted position.
	at := sort.Search(len(b.centroids), func(i int) bool { return b.centroids[i].Mean >= x })
	b.centroids = append(b.centroids, Centroid{})
	copy(b.centroids[at+1:], b.centroids[at:])
	b.centroids[at] = Centroid{Mean: x, Weight: 1}

	if len(b.centroids) > compressionTriggerFactor*int(b.compression) {
		b.centroids = compressCentroids(b.centroids, b.compression, b.count)
	}
}

// nearestCentroid returns the index of the centroid whose mean is closest to
// x, breaking ties toward the centroid with more weight headroom.
func (b *Builder) nearestCentroid(x float64) int {
	i := sort.Search(len(b.centroids), func(i int) bool { return b.centroids[i].Mean >= x })
	if i == len(b.centroids) {
		return i - 1
	}
	if i == 0 {
		return 0
	}
	dLo := x - b.centroids[i-1].Mean
	dHi := b.centroids[i].Mean - x
	switch {
	case dLo < dHi:
		return i - 1
	case dHi < dLo:
		return i
	}
	if b.headroom(i-1) >= b.headroom(i) {
		return i - 1
	}
	return i
}

// headroom is the additional weight centroid idx may take on before crossing
// the scale-function bound at its current cumulative position.
func (b *Builder) headroom(idx int) float64 {
	d := float64(b.compression)
	w := float64(b.count)
	q1 := float64(b.weightBefore(idx)) / w
	limit := kToQ(qToK(q1, d)+1, d)
	return (limit-q1)*w - float64(b.centroids[idx].Weight)
}

// absorb merges x into centroid idx if the grown centroid stays within the
// scale-function bound at its true cumulative position. A value equal to the
// centroid's mean is always absorbed: it adds no spread.
func (b *Builder) absorb(idx int, x float64) bool {
	c := b.centroids[idx]
	if x != c.Mean {
		before := float64(b.weightBefore(idx))
		w := float64(b.count)
		q1 := before / w
		q2 := (before + float64(c.Weight) + 1) / w
		if !spanWithinBound(q1, q2, float64(b.compression)) {
			return false
		}
		c.Mean = (c.Mean*float64(c.Weight) + x) / float64(c.Weight+1)
	}
	c.Weight++
	b.centroids[idx] = c
	return true
}

// weightBefore returns the cumulative weight strictly before centroid idx.
func (b *Builder) weightBefore(idx int) uint64 {
	return totalWeight(b.centroids[:idx])
}
