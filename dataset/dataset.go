// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2021 Datadog, Inc.

package dataset

import (
	"math"
	"sort"
)

// Dataset records every value fed to a sketch so tests can compare sketch
// estimates against exact order statistics.
type Dataset struct {
	Values []float64
	Count  uint64
	sorted bool
}

func NewDataset() *Dataset { return &Dataset{} }

func (d *Dataset) Add(v float64) {
	d.Values = append(d.Values, v)
	d.Count++
	d.sorted = false
}

// LowerQuantile returns the exact value at the floor of rank q*(Count-1).
func (d *Dataset) LowerQuantile(q float64) float64 {
	if q < 0 || q > 1 || d.Count == 0 {
		return math.NaN()
	}
	d.sort()
	rank := q * float64(d.Count-1)
	return d.Values[int(math.Floor(rank))]
}

// UpperQuantile returns the exact value at the ceiling of rank q*(Count-1).
func (d *Dataset) UpperQuantile(q float64) float64 {
	if q < 0 || q > 1 || d.Count == 0 {
		return math.NaN()
	}
	d.sort()
	rank := q * float64(d.Count-1)
	return d.Values[int(math.Ceil(rank))]
}

// RankBelow returns the exact fraction of values strictly below v.
func (d *Dataset) RankBelow(v float64) float64 {
	if d.Count == 0 {
		return math.NaN()
	}
	d.sort()
	i := sort.SearchFloat64s(d.Values, v)
	return float64(i) / float64(d.Count)
}

// RankAtOrBelow returns the exact fraction of values at or below v.
func (d *Dataset) RankAtOrBelow(v float64) float64 {
	if d.Count == 0 {
		return math.NaN()
	}
	d.sort()
	i := sort.Search(len(d.Values), func(i int) bool { return d.Values[i] > v })
	return float64(i) / float64(d.Count)
}

func (d *Dataset) Min() float64 {
	d.sort()
	return d.Values[0]
}

func (d *Dataset) Max() float64 {
	d.sort()
	return d.Values[len(d.Values)-1]
}

func (d *Dataset) Sum() float64 {
	var sum float64
	for _, v := range d.Values {
		sum += v
	}
	return sum
}

func (d *Dataset) sort() {
	if d.sorted {
		return
	}
	sort.Float64s(d.Values)
	d.sorted = true
}
