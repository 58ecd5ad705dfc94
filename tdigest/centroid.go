// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2021 Datadog, Inc.

package tdigest

// Centroid is a cluster of one or more observations collapsed to their
// weighted mean.
type Centroid struct {
	Mean   float64
	Weight uint64
}

// totalWeight returns the number of observations held by the centroids.
func totalWeight(centroids []Centroid) uint64 {
	var w uint64
	for _, c := range centroids {
		w += c.Weight
	}
	return w
}

// mergeSortedCentroids pools two ascending centroid slices into a single
// ascending slice. Neither input is modified.
func mergeSortedCentroids(a, b []Centroid) []Centroid {
	merged := make([]Centroid, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i].Mean <= b[j].Mean {
			merged = append(merged, a[i])
			i++
		} else {
			merged = append(merged, b[j])
			j++
		}
	}
	merged = append(merged, a[i:]...)
	merged = append(merged, b[j:]...)
	return merged
}
